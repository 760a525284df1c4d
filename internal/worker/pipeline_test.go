package worker_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/entity"
	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/service/reconcile"
	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/service/relic"
	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/value"
	"github.com/MeowExort/pw-hub-relics-backend/internal/infrastructure/persistence/memory"
	"github.com/MeowExort/pw-hub-relics-backend/internal/infrastructure/protocol"
	"github.com/MeowExort/pw-hub-relics-backend/internal/worker"
)

type collectingHandler struct {
	events chan entity.CreatedListing
}

func (h *collectingHandler) Handle(_ context.Context, event entity.CreatedListing) error {
	h.events <- event
	return nil
}

func shopPacket(t *testing.T, price uint32) []byte {
	t.Helper()

	payload, err := protocol.Encode(protocol.GetRelicDetailRe{
		Lots: []protocol.LotEntry{
			{
				PlayerID:   1001,
				PosInShop:  3,
				ArriveTime: 1700000000,
				Price:      price,
				Relic: protocol.RelicRecord{
					ID:        42,
					Exp:       200,
					MainAddon: 100,
					Addons:    []protocol.AddonRecord{{ID: 200, Value: 3}},
				},
			},
		},
	})
	require.NoError(t, err)

	return payload
}

func TestPipeline_PacketToNotification(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	metrics := newMetrics()

	store := memory.New()
	store.PutServer(entity.Server{ID: 1, Name: "Centaur", Key: "centaur"})
	store.PutDefinition(entity.RelicDefinition{
		ID:                   42,
		Name:                 "Relic of the Ancients",
		SoulLevel:            1,
		MainAttributeScaling: map[int32]int{100: 100},
	})

	notifications := worker.NewNotificationQueue(10, 0, metrics)
	mapper := relic.NewMapper(relic.AddonMapping{100: 1, 200: 2}, nil)
	service := reconcile.NewService(store, reconcile.NewReferenceCache(store), mapper, notifications)

	ingest := worker.NewIngestQueue(10, metrics)
	consumer := worker.NewBatchConsumer(ingest, service, protocol.DecodeLots, metrics).
		WithBatching(10, 10*time.Millisecond)

	handler := &collectingHandler{events: make(chan entity.CreatedListing, 10)}
	dispatcher := worker.NewNotificationDispatcher(notifications, handler, 2, metrics)

	rq.NoError(consumer.Start(ctx))
	t.Cleanup(consumer.Stop)
	rq.NoError(dispatcher.Start(ctx))
	t.Cleanup(dispatcher.Stop)

	rq.NoError(ingest.Enqueue(ctx, entity.ParseRequest{ServerKey: "Centaur", Payload: shopPacket(t, 1500)}))

	var event entity.CreatedListing
	select {
	case event = <-handler.events:
	case <-time.After(2 * time.Second):
		t.Fatal("created listing was not dispatched")
	}

	rq.Equal("centaur", event.ServerKey)
	rq.Equal(int32(42), event.Definition.ID)
	rq.Equal(int64(1500), event.Listing.Price)
	rq.Equal(value.NaturalKey{SellerID: 1001, ShopPosition: 3, ServerID: 1, DefinitionID: 42}, event.Listing.NaturalKey())

	listings := store.Listings()
	rq.Len(listings, 1)
	rq.True(listings[0].IsActive)
	rq.Equal(1, listings[0].EnhancementLevel)
	rq.Len(listings[0].Attributes, 2)
	rq.Equal(relic.HashAttributes(listings[0].Attributes), listings[0].Hash())

	// Повторное наблюдение с новой ценой обновляет лот без уведомления.
	rq.NoError(ingest.Enqueue(ctx, entity.ParseRequest{ServerKey: "centaur", Payload: shopPacket(t, 1400)}))
	rq.Eventually(func() bool {
		return testutil.ToFloat64(metrics.Processed.WithLabelValues(worker.StatusUpdated)) == 1
	}, 2*time.Second, 5*time.Millisecond)

	listings = store.Listings()
	rq.Len(listings, 1)
	rq.Equal(int64(1400), listings[0].Price)
	rq.Equal(int64(2), listings[0].Version)

	rq.Never(func() bool { return len(handler.events) > 0 }, 50*time.Millisecond, 5*time.Millisecond)
	rq.InDelta(1, testutil.ToFloat64(metrics.Processed.WithLabelValues(worker.StatusCreated)), 0)
}
