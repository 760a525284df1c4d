package persistence

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/MeowExort/pw-hub-relics-backend/internal/domain"
	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/entity"
	"github.com/MeowExort/pw-hub-relics-backend/pkg/errcodes"
)

type ReferenceRepository struct {
	db *sqlx.DB
}

func NewReferenceRepository(db *sqlx.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

// FindServerByKey возвращает сервер по ключу без учёта регистра или nil.
func (r *ReferenceRepository) FindServerByKey(ctx context.Context, key string) (*entity.Server, error) {
	query := `SELECT id, name, key FROM servers WHERE LOWER(key) = LOWER($1)`

	var schema serverSchema
	if err := r.db.GetContext(ctx, &schema, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil //nolint:nilnil
		}
		return nil, domain.WrapError(err, errcodes.StoreUnavailable, "failed to get server")
	}

	return schema.toDomain(), nil
}

// FindDefinitionsByIDs возвращает определения реликвий по id.
func (r *ReferenceRepository) FindDefinitionsByIDs(ctx context.Context, ids []int32) (map[int32]entity.RelicDefinition, error) {
	result := make(map[int32]entity.RelicDefinition, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(`
		SELECT id, name, soul_level, soul_type, slot_type_id, race, icon_uri, main_attribute_scaling
		FROM relic_definitions
		WHERE id IN (?)`, ids)
	if err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to build query")
	}

	var schemas []definitionSchema
	if err := r.db.SelectContext(ctx, &schemas, r.db.Rebind(query), args...); err != nil {
		return nil, domain.WrapError(err, errcodes.StoreUnavailable, "failed to get relic definitions")
	}

	for _, s := range schemas {
		def, err := s.toDomain()
		if err != nil {
			return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to convert relic definition")
		}
		result[def.ID] = def
	}

	return result, nil
}
