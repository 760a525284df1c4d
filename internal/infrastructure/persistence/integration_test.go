package persistence_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/entity"
	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/value"
	"github.com/MeowExort/pw-hub-relics-backend/internal/infrastructure/persistence"
	"github.com/MeowExort/pw-hub-relics-backend/pkg/dbtest"
)

func TestListingRepository_Postgres(t *testing.T) {
	dsn := os.Getenv("PG_TEST_DSN")
	if dsn == "" {
		t.Skip("PG_TEST_DSN is not set")
	}

	rq := require.New(t)
	ctx := context.Background()

	db, err := sqlx.Connect("pgx", dsn)
	rq.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	rq.NoError(dbtest.MigrateFromFile(db, "../../../migrations/001_init.sql"))
	_, err = db.Exec(`TRUNCATE relic_listings, notification_filters, telegram_bindings, relic_definitions, servers`)
	rq.NoError(err)
	_, err = db.Exec(`INSERT INTO servers (id, name, key) VALUES (1, 'Centaur', 'centaur')`)
	rq.NoError(err)
	_, err = db.Exec(`INSERT INTO relic_definitions (id, name, soul_level, soul_type, slot_type_id, race, main_attribute_scaling)
		VALUES (42, 'Relic', 1, 1, 1, 1, '{"100":100}')`)
	rq.NoError(err)

	refs := persistence.NewReferenceRepository(db)
	server, err := refs.FindServerByKey(ctx, "CENTAUR")
	rq.NoError(err)
	rq.Equal(int32(1), server.ID)

	repo := persistence.NewListingRepository(db)
	now := time.Now().UTC().Truncate(time.Microsecond)
	hash := "A1"
	listing := entity.Listing{
		ID: uuid.New(), RelicDefinitionID: 42, SellerCharacterID: 7, ShopPosition: 1, ServerID: 1,
		Price: 100, AttributesHash: &hash, CreatedAt: now, LastSeenAt: now, IsActive: true, Version: 1,
		Attributes: value.AttributeSet{{DefinitionID: 1, Value: 50, Category: value.AttributeMain}},
	}

	res, err := repo.UpsertBatch(ctx, []entity.ListingWrite{{Op: entity.WriteCreate, Listing: listing, ReplaceAttributes: true}})
	rq.NoError(err)
	rq.Empty(res.Conflicts)

	duplicate := listing
	duplicate.ID = uuid.New()
	res, err = repo.UpsertBatch(ctx, []entity.ListingWrite{{Op: entity.WriteCreate, Listing: duplicate}})
	rq.NoError(err)
	rq.Equal([]int{0}, res.Conflicts)

	n, err := repo.BulkDeactivateStale(ctx, now.Add(time.Minute), now.Add(time.Minute))
	rq.NoError(err)
	rq.Equal(int64(1), n)

	stale := listing
	stale.Price = 90
	res, err = repo.UpsertBatch(ctx, []entity.ListingWrite{{Op: entity.WriteUpdate, Listing: stale}})
	rq.NoError(err)
	rq.Equal([]int{0}, res.Conflicts)

	current, err := repo.FindByNaturalKey(ctx, listing.NaturalKey())
	rq.NoError(err)
	rq.False(current.IsActive)
	rq.Equal(int64(2), current.Version)

	current.Price = 90
	res, err = repo.UpsertBatch(ctx, []entity.ListingWrite{{Op: entity.WriteUpdate, Listing: *current}})
	rq.NoError(err)
	rq.Empty(res.Conflicts)

	current, err = repo.FindByNaturalKey(ctx, listing.NaturalKey())
	rq.NoError(err)
	rq.True(current.IsActive)
	rq.Nil(current.SoldAt)
	rq.Equal(int64(90), current.Price)
	rq.Equal(listing.Attributes, current.Attributes)

	total, active, err := repo.CountListings(ctx)
	rq.NoError(err)
	rq.Equal(int64(1), total)
	rq.Equal(int64(1), active)
}
