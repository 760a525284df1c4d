package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/MeowExort/pw-hub-relics-backend/internal/domain"
	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/entity"
	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/value"
	"github.com/MeowExort/pw-hub-relics-backend/pkg/errcodes"
	"github.com/MeowExort/pw-hub-relics-backend/pkg/lox"
)

// keysPerQuery ограничивает число ключей в одном запросе (4 параметра на ключ).
const keysPerQuery = 500

const (
	insertListingQuery = `
		INSERT INTO relic_listings (` + listingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (seller_character_id, shop_position, server_id, relic_definition_id) DO NOTHING`

	updateListingQuery = `
		UPDATE relic_listings
		SET price = $1, absorb_experience = $2, enhancement_level = $3, last_seen_at = $4,
			is_active = TRUE, sold_at = NULL, version = version + 1
		WHERE id = $5 AND version = $6`

	updateListingAttributesQuery = `
		UPDATE relic_listings
		SET price = $1, absorb_experience = $2, enhancement_level = $3, last_seen_at = $4,
			is_active = TRUE, sold_at = NULL, version = version + 1,
			json_attributes = $7, attributes_hash = $8
		WHERE id = $5 AND version = $6`
)

type ListingRepository struct {
	db *sqlx.DB
}

// NewListingRepository создаёт новый экземпляр репозитория.
func NewListingRepository(db *sqlx.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

// FindByNaturalKey возвращает лот по естественному ключу или nil.
func (r *ListingRepository) FindByNaturalKey(ctx context.Context, key value.NaturalKey) (*entity.Listing, error) {
	query := `
		SELECT ` + listingColumns + `
		FROM relic_listings
		WHERE seller_character_id = $1 AND shop_position = $2 AND server_id = $3 AND relic_definition_id = $4`

	var schema listingSchema
	err := r.db.GetContext(ctx, &schema, query, key.SellerID, key.ShopPosition, key.ServerID, key.DefinitionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil //nolint:nilnil
		}
		return nil, domain.WrapError(err, errcodes.StoreUnavailable, "failed to get listing")
	}

	listing, err := schema.toDomain()
	if err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to convert listing")
	}

	return &listing, nil
}

// FindByNaturalKeys возвращает существующие лоты для набора ключей.
func (r *ListingRepository) FindByNaturalKeys(ctx context.Context, keys []value.NaturalKey) ([]entity.Listing, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	result := make([]entity.Listing, 0, len(keys))
	for start := 0; start < len(keys); start += keysPerQuery {
		chunk := keys[start:min(start+keysPerQuery, len(keys))]

		query, args := naturalKeysQuery(chunk)

		var schemas []listingSchema
		if err := r.db.SelectContext(ctx, &schemas, query, args...); err != nil {
			return nil, domain.WrapError(err, errcodes.StoreUnavailable, "failed to get listings")
		}

		listings, err := lox.MapErr(schemas, listingFromSchema)
		if err != nil {
			return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to convert listing")
		}
		result = append(result, listings...)
	}

	return result, nil
}

// UpsertBatch записывает пакет в одной транзакции. Строки, не прошедшие
// проверку версии или уникальности ключа, возвращаются как конфликты.
func (r *ListingRepository) UpsertBatch(ctx context.Context, rows []entity.ListingWrite) (entity.UpsertResult, error) {
	var result entity.UpsertResult
	if len(rows) == 0 {
		return result, nil
	}

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		result = entity.UpsertResult{}
		for i, row := range rows {
			applied, err := r.writeTx(ctx, tx, row)
			if err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
			if !applied {
				result.Conflicts = append(result.Conflicts, i)
			}
		}
		return nil
	})
	if err != nil {
		return entity.UpsertResult{}, err
	}

	return result, nil
}

// BulkDeactivateStale снимает с продажи лоты, не обновлявшиеся с threshold.
func (r *ListingRepository) BulkDeactivateStale(ctx context.Context, threshold time.Time, now time.Time) (int64, error) {
	query := `
		UPDATE relic_listings
		SET is_active = FALSE, sold_at = $1, version = version + 1
		WHERE is_active AND last_seen_at < $2`

	res, err := r.db.ExecContext(ctx, query, now, threshold)
	if err != nil {
		return 0, domain.WrapError(err, errcodes.StoreUnavailable, "failed to deactivate listings")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, domain.WrapError(err, errcodes.StoreUnavailable, "failed to check affected rows")
	}

	return n, nil
}

// CountListings возвращает общее число лотов и число активных.
func (r *ListingRepository) CountListings(ctx context.Context) (int64, int64, error) {
	query := `
		SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE is_active) AS active
		FROM relic_listings`

	var counts struct {
		Total  int64 `db:"total"`
		Active int64 `db:"active"`
	}
	if err := r.db.GetContext(ctx, &counts, query); err != nil {
		return 0, 0, domain.WrapError(err, errcodes.StoreUnavailable, "failed to count listings")
	}

	return counts.Total, counts.Active, nil
}

// ListWithoutHash возвращает лоты без посчитанного хеша.
func (r *ListingRepository) ListWithoutHash(ctx context.Context, limit int) ([]entity.Listing, error) {
	query := `
		SELECT ` + listingColumns + `
		FROM relic_listings
		WHERE attributes_hash IS NULL
		ORDER BY id
		LIMIT $1`

	var schemas []listingSchema
	if err := r.db.SelectContext(ctx, &schemas, query, limit); err != nil {
		return nil, domain.WrapError(err, errcodes.StoreUnavailable, "failed to list listings")
	}

	result, err := lox.MapErr(schemas, listingFromSchema)
	if err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to convert listing")
	}

	return result, nil
}

// SetHash сохраняет хеш характеристик лота.
func (r *ListingRepository) SetHash(ctx context.Context, id uuid.UUID, hash string) error {
	query := `UPDATE relic_listings SET attributes_hash = $1 WHERE id = $2`

	if _, err := r.db.ExecContext(ctx, query, hash, id); err != nil {
		return domain.WrapError(err, errcodes.StoreUnavailable, "failed to set hash")
	}

	return nil
}

// writeTx выполняет одну запись и сообщает, была ли она применена.
func (r *ListingRepository) writeTx(ctx context.Context, tx *sqlx.Tx, row entity.ListingWrite) (bool, error) {
	l := row.Listing

	switch row.Op {
	case entity.WriteCreate:
		attrs, err := marshalAttributes(l.Attributes)
		if err != nil {
			return false, domain.WrapError(err, errcodes.InternalServerError, "failed to marshal attributes")
		}

		version := l.Version
		if version == 0 {
			version = 1
		}

		return r.execTx(ctx, tx, insertListingQuery,
			l.ID, l.RelicDefinitionID, l.SellerCharacterID, l.ShopPosition, l.ServerID,
			l.AbsorbExperience, l.EnhancementLevel, l.Price, attrs, l.AttributesHash,
			l.CreatedAt, l.LastSeenAt, l.IsActive, l.SoldAt, version,
		)

	case entity.WriteUpdate:
		if !row.ReplaceAttributes {
			return r.execTx(ctx, tx, updateListingQuery,
				l.Price, l.AbsorbExperience, l.EnhancementLevel, l.LastSeenAt, l.ID, l.Version,
			)
		}

		attrs, err := marshalAttributes(l.Attributes)
		if err != nil {
			return false, domain.WrapError(err, errcodes.InternalServerError, "failed to marshal attributes")
		}

		return r.execTx(ctx, tx, updateListingAttributesQuery,
			l.Price, l.AbsorbExperience, l.EnhancementLevel, l.LastSeenAt, l.ID, l.Version,
			attrs, l.AttributesHash,
		)
	}

	return false, domain.NewError(errcodes.InternalServerError, fmt.Sprintf("unknown write op %d", row.Op))
}

// execTx выполняет запрос и возвращает false, если ни одна строка не изменена.
func (r *ListingRepository) execTx(ctx context.Context, tx *sqlx.Tx, query string, args ...any) (bool, error) {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return false, domain.WrapError(err, errcodes.StoreUnavailable, "failed to write listing")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, domain.WrapError(err, errcodes.StoreUnavailable, "failed to check affected rows")
	}

	return n > 0, nil
}

func naturalKeysQuery(keys []value.NaturalKey) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT ` + listingColumns + `
		FROM relic_listings
		WHERE (seller_character_id, shop_position, server_id, relic_definition_id) IN (`)

	args := make([]any, 0, len(keys)*4)
	for i, key := range keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		n := i * 4
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4)
		args = append(args, key.SellerID, key.ShopPosition, key.ServerID, key.DefinitionID)
	}
	sb.WriteString(")")

	return sb.String(), args
}

func listingFromSchema(s listingSchema) (entity.Listing, error) {
	return s.toDomain()
}
