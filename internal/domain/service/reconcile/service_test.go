package reconcile_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/entity"
	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/service/reconcile"
	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/service/relic"
	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/value"
	"github.com/MeowExort/pw-hub-relics-backend/internal/infrastructure/persistence/memory"
)

const (
	serverID     int32 = 1
	definitionID int32 = 42
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []entity.CreatedListing
}

func (p *recordingPublisher) Publish(_ context.Context, event entity.CreatedListing) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Events() []entity.CreatedListing {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]entity.CreatedListing(nil), p.events...)
}

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fixture struct {
	store     *memory.Store
	publisher *recordingPublisher
	clock     *clock
	service   *reconcile.Service
}

func newFixture(listings reconcile.ListingStore, store *memory.Store) *fixture {
	store.PutServer(entity.Server{ID: serverID, Name: "Centaur", Key: "centaur"})
	store.PutDefinition(entity.RelicDefinition{
		ID:                   definitionID,
		Name:                 "Relic of the Ancients",
		SoulLevel:            1,
		MainAttributeScaling: map[int32]int{100: 100},
	})

	if listings == nil {
		listings = store
	}

	f := &fixture{
		store:     store,
		publisher: &recordingPublisher{},
		clock:     &clock{now: time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)},
	}

	mapper := relic.NewMapper(relic.AddonMapping{100: 1, 200: 2, 300: 3}, nil)
	f.service = reconcile.NewService(listings, reconcile.NewReferenceCache(store), mapper, f.publisher).
		WithRetry(3, 0).
		WithClock(f.clock.Now)

	return f
}

func lot(playerID, pos, defID int32, price uint32, addons ...entity.AddonSlot) entity.DecodedLot {
	return entity.DecodedLot{
		PlayerID:     playerID,
		ShopPosition: pos,
		Price:        price,
		Item: entity.ItemDescriptor{
			DefinitionID: defID,
			Experience:   200,
			MainAddon:    100,
			Addons:       addons,
		},
	}
}

func observe(lots ...entity.DecodedLot) []reconcile.Observation {
	return []reconcile.Observation{{ServerKey: "centaur", Lots: lots}}
}

func keyOf(l entity.DecodedLot) value.NaturalKey {
	return value.NaturalKey{
		SellerID:     int64(l.PlayerID),
		ShopPosition: l.ShopPosition,
		ServerID:     serverID,
		DefinitionID: l.Item.DefinitionID,
	}
}

func TestService_Reconcile_MixedBatch(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	f := newFixture(nil, memory.New())

	lotC := lot(3, 5, definitionID, 900, entity.AddonSlot{ID: 200, Magnitude: 3})
	res, err := f.service.Reconcile(ctx, observe(lotC))
	rq.NoError(err)
	rq.Equal(reconcile.Result{Created: 1}, res)

	before, err := f.store.FindByNaturalKey(ctx, keyOf(lotC))
	rq.NoError(err)
	rq.NotNil(before)

	f.clock.Advance(time.Minute)

	lotA := lot(1, 1, definitionID, 500, entity.AddonSlot{ID: 300, Magnitude: 7})
	lotB := lot(2, 1, 999, 700)
	lotC.Item.Addons = []entity.AddonSlot{{ID: 200, Magnitude: 4}}

	res, err = f.service.Reconcile(ctx, observe(lotA, lotB, lotC))
	rq.NoError(err)
	rq.Equal(reconcile.Result{Created: 1, Updated: 1, Skipped: 1}, res)

	events := f.publisher.Events()
	rq.Len(events, 2)
	rq.Equal(keyOf(lotA), events[1].Listing.NaturalKey())
	rq.Equal("centaur", events[1].ServerKey)
	rq.Equal(definitionID, events[1].Definition.ID)

	after, err := f.store.FindByNaturalKey(ctx, keyOf(lotC))
	rq.NoError(err)
	rq.NotNil(after)
	rq.Equal(before.ID, after.ID)
	rq.Equal(before.CreatedAt, after.CreatedAt)
	rq.Equal(f.clock.Now(), after.LastSeenAt)
	rq.NotEqual(before.Hash(), after.Hash())
	rq.Equal(relic.HashAttributes(after.Attributes), after.Hash())
	rq.Contains(after.Attributes, value.Attribute{DefinitionID: 2, Value: 4, Category: value.AttributeAdditional})

	missing, err := f.store.FindByNaturalKey(ctx, keyOf(lotB))
	rq.NoError(err)
	rq.Nil(missing)
}

func TestService_Reconcile_IdempotentReobservation(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	f := newFixture(nil, memory.New())

	l := lot(7, 2, definitionID, 1500, entity.AddonSlot{ID: 200, Magnitude: 3})

	res, err := f.service.Reconcile(ctx, observe(l))
	rq.NoError(err)
	rq.Equal(reconcile.Result{Created: 1}, res)
	firstSeen := f.clock.Now()

	f.clock.Advance(2 * time.Minute)

	res, err = f.service.Reconcile(ctx, observe(l))
	rq.NoError(err)
	rq.Equal(reconcile.Result{Updated: 1}, res)

	rows := f.store.Listings()
	rq.Len(rows, 1)
	rq.True(rows[0].IsActive)
	rq.Equal(firstSeen, rows[0].CreatedAt)
	rq.Equal(f.clock.Now(), rows[0].LastSeenAt)
	rq.Equal(1, rows[0].EnhancementLevel)
	rq.Equal(int(float64(200)*0.7)+500, rows[0].AbsorbExperience)
	rq.Len(f.publisher.Events(), 1)
}

func TestService_Reconcile_ChangeGatedUpdate(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	f := newFixture(nil, memory.New())

	l := lot(7, 2, definitionID, 1500, entity.AddonSlot{ID: 200, Magnitude: 3})
	_, err := f.service.Reconcile(ctx, observe(l))
	rq.NoError(err)

	created := f.store.Listings()[0]

	l.Price = 1200
	_, err = f.service.Reconcile(ctx, observe(l))
	rq.NoError(err)

	repriced := f.store.Listings()[0]
	rq.Equal(int64(1200), repriced.Price)
	rq.Equal(created.Hash(), repriced.Hash())
	rq.Equal(created.Attributes, repriced.Attributes)
	rq.Greater(repriced.Version, created.Version)
}

func TestService_Reconcile_FirstSeenDuplicateWins(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	f := newFixture(nil, memory.New())

	first := lot(9, 4, definitionID, 100)
	second := lot(9, 4, definitionID, 200)

	res, err := f.service.Reconcile(ctx, observe(first, second))
	rq.NoError(err)
	rq.Equal(reconcile.Result{Created: 1, Duplicates: 1}, res)

	rows := f.store.Listings()
	rq.Len(rows, 1)
	rq.Equal(int64(100), rows[0].Price)
}

func TestService_Reconcile_SkipsUnknownServerAndEmptyPackets(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	f := newFixture(nil, memory.New())

	batch := []reconcile.Observation{
		{ServerKey: "nowhere", Lots: []entity.DecodedLot{lot(1, 1, definitionID, 10), lot(1, 2, definitionID, 10)}},
		{ServerKey: "centaur"},
	}

	res, err := f.service.Reconcile(ctx, batch)
	rq.NoError(err)
	rq.Equal(reconcile.Result{Skipped: 2}, res)
	rq.Empty(f.store.Listings())
}

// sweepingStore деактивирует строки перед первой записью, как это сделал бы
// параллельный проход очистки.
type sweepingStore struct {
	*memory.Store
	clock *clock
	once  sync.Once
}

func (s *sweepingStore) UpsertBatch(ctx context.Context, rows []entity.ListingWrite) (entity.UpsertResult, error) {
	s.once.Do(func() {
		_, _ = s.Store.BulkDeactivateStale(ctx, s.clock.Now().Add(-10*time.Minute), s.clock.Now())
	})
	return s.Store.UpsertBatch(ctx, rows)
}

func TestService_Reconcile_RetriesAfterSweeperConflict(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	store := memory.New()
	f := newFixture(nil, store)

	l := lot(5, 5, definitionID, 300)
	_, err := f.service.Reconcile(ctx, observe(l))
	rq.NoError(err)

	sweeping := &sweepingStore{Store: store, clock: f.clock}
	f2 := newFixture(sweeping, store)
	f2.clock.now = f.clock.Now().Add(20 * time.Minute)
	sweeping.clock = f2.clock

	res, err := f2.service.Reconcile(ctx, observe(l))
	rq.NoError(err)
	rq.Equal(reconcile.Result{Updated: 1}, res)

	row, err := store.FindByNaturalKey(ctx, keyOf(l))
	rq.NoError(err)
	rq.True(row.IsActive)
	rq.Nil(row.SoldAt)
	rq.Equal(int64(3), row.Version)
	rq.Empty(f2.publisher.Events())
}

// racingStore вставляет строку с тем же ключом перед первой записью, как
// это сделал бы параллельный писатель.
type racingStore struct {
	*memory.Store
	row  entity.Listing
	once sync.Once
}

func (s *racingStore) UpsertBatch(ctx context.Context, rows []entity.ListingWrite) (entity.UpsertResult, error) {
	s.once.Do(func() { s.Store.PutListing(s.row) })
	return s.Store.UpsertBatch(ctx, rows)
}

func TestService_Reconcile_CreateLosesInsertRace(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	store := memory.New()

	l := lot(6, 2, definitionID, 1200)
	other := entity.Listing{
		ID:                uuid.New(),
		RelicDefinitionID: definitionID,
		SellerCharacterID: int64(l.PlayerID),
		ShopPosition:      l.ShopPosition,
		ServerID:          serverID,
		Price:             1000,
		CreatedAt:         time.Date(2026, 1, 10, 11, 59, 0, 0, time.UTC),
		LastSeenAt:        time.Date(2026, 1, 10, 11, 59, 0, 0, time.UTC),
		IsActive:          true,
		Version:           1,
	}

	f := newFixture(&racingStore{Store: store, row: other}, store)

	res, err := f.service.Reconcile(ctx, observe(l))
	rq.NoError(err)
	rq.Equal(reconcile.Result{Updated: 1}, res)

	rows := store.Listings()
	rq.Len(rows, 1)
	rq.Equal(other.ID, rows[0].ID)
	rq.Equal(int64(1200), rows[0].Price)
	rq.Equal(int64(2), rows[0].Version)
	rq.Equal(f.clock.Now(), rows[0].LastSeenAt)
	rq.Empty(f.publisher.Events())
}

// vanishingStore удаляет строку перед первой записью.
type vanishingStore struct {
	*memory.Store
	key  value.NaturalKey
	once sync.Once
}

func (s *vanishingStore) UpsertBatch(ctx context.Context, rows []entity.ListingWrite) (entity.UpsertResult, error) {
	s.once.Do(func() { s.Store.DeleteListing(s.key) })
	return s.Store.UpsertBatch(ctx, rows)
}

func TestService_Reconcile_DropsVanishedRow(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	store := memory.New()
	f := newFixture(nil, store)

	l := lot(5, 6, definitionID, 300)
	_, err := f.service.Reconcile(ctx, observe(l))
	rq.NoError(err)

	f2 := newFixture(&vanishingStore{Store: store, key: keyOf(l)}, store)

	res, err := f2.service.Reconcile(ctx, observe(l))
	rq.NoError(err)
	rq.Equal(reconcile.Result{Skipped: 1}, res)
	rq.Empty(store.Listings())
}

// contendedStore отклоняет каждую запись.
type contendedStore struct {
	*memory.Store
	calls int
}

func (s *contendedStore) UpsertBatch(_ context.Context, rows []entity.ListingWrite) (entity.UpsertResult, error) {
	s.calls++
	var res entity.UpsertResult
	for i := range rows {
		res.Conflicts = append(res.Conflicts, i)
	}
	return res, nil
}

func TestService_Reconcile_GivesUpAfterMaxAttempts(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	store := memory.New()
	f := newFixture(nil, store)

	l := lot(5, 7, definitionID, 300)
	_, err := f.service.Reconcile(ctx, observe(l))
	rq.NoError(err)

	contended := &contendedStore{Store: store}
	f2 := newFixture(contended, store)

	res, err := f2.service.Reconcile(ctx, observe(l))
	rq.NoError(err)
	rq.Equal(reconcile.Result{Failed: 1}, res)
	rq.Equal(reconcile.DefaultMaxAttempts, contended.calls)
}

type brokenStore struct {
	*memory.Store
}

func (s *brokenStore) UpsertBatch(context.Context, []entity.ListingWrite) (entity.UpsertResult, error) {
	return entity.UpsertResult{}, errors.New("connection reset")
}

func TestService_Reconcile_StoreUnavailable(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	store := memory.New()
	f := newFixture(&brokenStore{Store: store}, store)

	res, err := f.service.Reconcile(ctx, observe(lot(1, 1, definitionID, 10), lot(1, 2, definitionID, 10)))
	rq.Error(err)
	rq.Equal(reconcile.Result{Failed: 2}, res)
	rq.Empty(f.publisher.Events())
}

// brokenReferences отказывает в чтении определений.
type brokenReferences struct {
	*memory.Store
}

func (s *brokenReferences) FindDefinitionsByIDs(context.Context, []int32) (map[int32]entity.RelicDefinition, error) {
	return nil, errors.New("connection reset")
}

func TestService_Reconcile_ReferenceStoreUnavailable(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	store := memory.New()
	f := newFixture(nil, store)

	svc := reconcile.NewService(store, reconcile.NewReferenceCache(&brokenReferences{Store: store}),
		relic.NewMapper(nil, nil), f.publisher).WithRetry(3, 0)

	batch := []reconcile.Observation{
		{ServerKey: "nowhere", Lots: []entity.DecodedLot{lot(1, 1, definitionID, 10)}},
		{ServerKey: "centaur", Lots: []entity.DecodedLot{lot(1, 2, definitionID, 10), lot(1, 3, definitionID, 10)}},
	}

	res, err := svc.Reconcile(ctx, batch)
	rq.Error(err)
	rq.Equal(reconcile.Result{Skipped: 1, Failed: 2}, res)
	rq.Empty(store.Listings())
	rq.Empty(f.publisher.Events())
}
