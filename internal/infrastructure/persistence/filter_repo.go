package persistence

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/MeowExort/pw-hub-relics-backend/internal/domain"
	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/entity"
	"github.com/MeowExort/pw-hub-relics-backend/pkg/errcodes"
	"github.com/MeowExort/pw-hub-relics-backend/pkg/lox"
)

type FilterRepository struct {
	db *sqlx.DB
}

func NewFilterRepository(db *sqlx.DB) *FilterRepository {
	return &FilterRepository{db: db}
}

// ListEnabledFilters возвращает включённые фильтры с последним подтверждённым
// чатом владельца.
func (r *FilterRepository) ListEnabledFilters(ctx context.Context) ([]entity.NotificationFilter, error) {
	query := `
		SELECT f.id, f.user_id, f.name, f.is_enabled, f.soul_type, f.slot_type_id, f.race, f.soul_level,
			f.main_attribute_id, f.server_id, f.min_price, f.max_price,
			f.required_additional_attribute_ids, f.created_at, f.updated_at,
			(
				SELECT b.telegram_chat_id
				FROM telegram_bindings b
				WHERE b.user_id = f.user_id AND b.is_confirmed AND b.telegram_chat_id IS NOT NULL
				ORDER BY b.updated_at DESC
				LIMIT 1
			) AS chat_id
		FROM notification_filters f
		WHERE f.is_enabled`

	var schemas []filterSchema
	if err := r.db.SelectContext(ctx, &schemas, query); err != nil {
		return nil, domain.WrapError(err, errcodes.StoreUnavailable, "failed to list filters")
	}

	filters, err := lox.MapErr(schemas, func(s filterSchema) (entity.NotificationFilter, error) {
		return s.toDomain()
	})
	if err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to convert filter")
	}

	return filters, nil
}
