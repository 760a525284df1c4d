package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/MeowExort/pw-hub-relics-backend/internal/domain"
	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/entity"
	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/service/relic"
	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/value"
	"github.com/MeowExort/pw-hub-relics-backend/pkg/errcodes"
	"github.com/MeowExort/pw-hub-relics-backend/pkg/logx"
)

const (
	DefaultMaxAttempts = 3
	DefaultBackoffStep = 50 * time.Millisecond
)

type ListingStore interface {
	FindByNaturalKey(ctx context.Context, key value.NaturalKey) (*entity.Listing, error)
	FindByNaturalKeys(ctx context.Context, keys []value.NaturalKey) ([]entity.Listing, error)
	UpsertBatch(ctx context.Context, rows []entity.ListingWrite) (entity.UpsertResult, error)
}

type AttributeBuilder interface {
	BuildAttributeSet(item entity.ItemDescriptor, def entity.RelicDefinition) value.AttributeSet
}

// Publisher принимает события о созданных лотах. Реализация сама ограничивает
// время ожидания и не должна блокировать запись.
type Publisher interface {
	Publish(ctx context.Context, event entity.CreatedListing) error
}

// Observation лоты одного пакета с ключом сервера, откуда он получен.
type Observation struct {
	ServerKey string
	Lots      []entity.DecodedLot
}

type Result struct {
	Created    int
	Updated    int
	Skipped    int
	Duplicates int
	Failed     int
}

func (r *Result) add(o Result) {
	r.Created += o.Created
	r.Updated += o.Updated
	r.Skipped += o.Skipped
	r.Duplicates += o.Duplicates
	r.Failed += o.Failed
}

type Service struct {
	listings  ListingStore
	refs      *ReferenceCache
	builder   AttributeBuilder
	publisher Publisher

	maxAttempts int
	backoffStep time.Duration
	now         func() time.Time
}

func NewService(
	listings ListingStore,
	refs *ReferenceCache,
	builder AttributeBuilder,
	publisher Publisher,
) *Service {
	return &Service{
		listings:    listings,
		refs:        refs,
		builder:     builder,
		publisher:   publisher,
		maxAttempts: DefaultMaxAttempts,
		backoffStep: DefaultBackoffStep,
		now:         time.Now,
	}
}

func (s *Service) WithRetry(maxAttempts int, backoffStep time.Duration) *Service {
	if maxAttempts > 0 {
		s.maxAttempts = maxAttempts
	}
	if backoffStep >= 0 {
		s.backoffStep = backoffStep
	}
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// candidate лот, готовый к записи.
type candidate struct {
	key        value.NaturalKey
	lot        entity.DecodedLot
	definition entity.RelicDefinition
	serverKey  string
	attributes value.AttributeSet
	hash       string
	absorb     int
	level      int
}

// pendingWrite запись вместе с исходным кандидатом.
type pendingWrite struct {
	write entity.ListingWrite
	cand  *candidate
}

// Reconcile сопоставляет лоты пакета с сохранёнными лотами и записывает
// изменения. Ошибка возвращается только при недоступности хранилища, исход
// остальных лотов независим.
func (s *Service) Reconcile(ctx context.Context, batch []Observation) (Result, error) {
	var result Result

	now := s.now().UTC()

	candidates, prep, err := s.prepare(ctx, batch)
	result.add(prep)
	if err != nil {
		result.Failed += countLots(batch) - prep.Skipped
		return result, err
	}

	if len(candidates) == 0 {
		return result, nil
	}

	keys := lo.Map(candidates, func(c *candidate, _ int) value.NaturalKey { return c.key })

	existing, err := s.listings.FindByNaturalKeys(ctx, keys)
	if err != nil {
		result.Failed += len(candidates)
		return result, fmt.Errorf("find existing listings: %w", err)
	}

	byKey := make(map[value.NaturalKey]entity.Listing, len(existing))
	for _, l := range existing {
		byKey[l.NaturalKey()] = l
	}

	pending := make([]pendingWrite, 0, len(candidates))
	for _, c := range candidates {
		if row, ok := byKey[c.key]; ok {
			pending = append(pending, pendingWrite{write: updateWrite(row, c, now), cand: c})
			continue
		}
		pending = append(pending, pendingWrite{write: createWrite(c, now), cand: c})
	}

	written, err := s.write(ctx, pending)
	result.add(written)
	if err != nil {
		return result, err
	}

	logger(ctx).Debug("batch reconciled",
		slog.Int("created", result.Created),
		slog.Int("updated", result.Updated),
		slog.Int("skipped", result.Skipped),
		slog.Int("duplicates", result.Duplicates),
		slog.Int("failed", result.Failed),
	)

	return result, nil
}

func countLots(batch []Observation) int {
	return lo.SumBy(batch, func(o Observation) int { return len(o.Lots) })
}

// prepare разрешает серверы и определения и схлопывает дубликаты ключей.
// Побеждает первый встреченный лот.
func (s *Service) prepare(ctx context.Context, batch []Observation) ([]*candidate, Result, error) {
	var result Result

	type resolved struct {
		server *entity.Server
		obs    Observation
	}

	groups := make([]resolved, 0, len(batch))
	var defIDs []int32

	for _, obs := range batch {
		if len(obs.Lots) == 0 {
			continue
		}

		server, err := s.refs.Server(ctx, obs.ServerKey)
		if err != nil {
			return nil, result, domain.WrapError(err, errcodes.StoreUnavailable, "resolve server")
		}
		if server == nil {
			logger(ctx).Warn("unknown server, lots skipped",
				slog.String(logx.FieldServerKey, obs.ServerKey),
				slog.Int("lots", len(obs.Lots)),
			)
			result.Skipped += len(obs.Lots)
			continue
		}

		groups = append(groups, resolved{server: server, obs: obs})
		for _, lot := range obs.Lots {
			defIDs = append(defIDs, lot.Item.DefinitionID)
		}
	}

	if len(groups) == 0 {
		return nil, result, nil
	}

	defs, err := s.refs.Definitions(ctx, defIDs)
	if err != nil {
		return nil, result, domain.WrapError(err, errcodes.StoreUnavailable, "resolve definitions")
	}

	seen := make(map[value.NaturalKey]struct{})
	var candidates []*candidate

	for _, g := range groups {
		for _, lot := range g.obs.Lots {
			def, ok := defs[lot.Item.DefinitionID]
			if !ok {
				logger(ctx).Debug("unresolvable relic definition",
					slog.String(logx.FieldServerKey, g.server.Key),
					slog.Int(logx.FieldDefinitionID, int(lot.Item.DefinitionID)),
					slog.String("code", errcodes.UnresolvableReference.String()),
				)
				result.Skipped++
				continue
			}

			key := value.NaturalKey{
				SellerID:     int64(lot.PlayerID),
				ShopPosition: lot.ShopPosition,
				ServerID:     g.server.ID,
				DefinitionID: def.ID,
			}
			if _, dup := seen[key]; dup {
				result.Duplicates++
				continue
			}
			seen[key] = struct{}{}

			attrs := s.builder.BuildAttributeSet(lot.Item, def)
			exp := int(lot.Item.Experience)

			candidates = append(candidates, &candidate{
				key:        key,
				lot:        lot,
				definition: def,
				serverKey:  g.server.Key,
				attributes: attrs,
				hash:       relic.HashAttributes(attrs),
				absorb:     relic.AbsorbExperience(def.SoulLevel, exp),
				level:      relic.RefineLevel(exp),
			})
		}
	}

	return candidates, result, nil
}

// write выполняет пакетную запись с повтором при конфликте версий. Запись
// не прерывается отменой ctx, чтобы пакет не остался записанным наполовину.
func (s *Service) write(ctx context.Context, pending []pendingWrite) (Result, error) {
	var result Result

	writeCtx := context.WithoutCancel(ctx)

	for attempt := 1; len(pending) > 0; attempt++ {
		rows := lo.Map(pending, func(p pendingWrite, _ int) entity.ListingWrite { return p.write })

		res, err := s.listings.UpsertBatch(writeCtx, rows)
		if err != nil {
			result.Failed += len(pending)
			return result, fmt.Errorf("upsert batch: %w", err)
		}

		var conflicted []pendingWrite
		for i, p := range pending {
			if res.Conflicted(i) {
				conflicted = append(conflicted, p)
				continue
			}

			switch p.write.Op {
			case entity.WriteCreate:
				result.Created++
				s.publish(ctx, p)
			case entity.WriteUpdate:
				result.Updated++
			}
		}

		if len(conflicted) == 0 {
			break
		}

		if attempt >= s.maxAttempts || ctx.Err() != nil {
			for _, p := range conflicted {
				logger(ctx).Warn("listing write failed",
					slog.String(logx.FieldNaturalKey, p.cand.key.String()),
					slog.Int(logx.FieldAttempt, attempt),
					slog.String("code", errcodes.WriteConflict.String()),
				)
			}
			result.Failed += len(conflicted)
			break
		}

		if err := s.backoff(ctx, attempt); err != nil {
			result.Failed += len(conflicted)
			break
		}

		merged, dropped, err := s.merge(writeCtx, conflicted)
		if err != nil {
			result.Failed += len(conflicted)
			return result, err
		}
		result.Skipped += dropped
		pending = merged
	}

	return result, nil
}

// merge перечитывает конфликтные строки и строит обновление поверх текущего
// состояния. Строки, которых больше нет, выбрасываются.
func (s *Service) merge(ctx context.Context, conflicted []pendingWrite) ([]pendingWrite, int, error) {
	merged := make([]pendingWrite, 0, len(conflicted))
	dropped := 0

	for _, p := range conflicted {
		row, err := s.listings.FindByNaturalKey(ctx, p.cand.key)
		if err != nil {
			return nil, 0, fmt.Errorf("reread %s: %w", p.cand.key, err)
		}
		if row == nil {
			logger(ctx).Info("conflicting listing vanished, dropped",
				slog.String(logx.FieldNaturalKey, p.cand.key.String()),
			)
			dropped++
			continue
		}

		merged = append(merged, pendingWrite{
			write: updateWrite(*row, p.cand, p.write.Listing.LastSeenAt),
			cand:  p.cand,
		})
	}

	return merged, dropped, nil
}

func (s *Service) backoff(ctx context.Context, attempt int) error {
	if s.backoffStep <= 0 {
		return nil
	}

	timer := time.NewTimer(s.backoffStep * time.Duration(attempt))
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) publish(ctx context.Context, p pendingWrite) {
	if s.publisher == nil {
		return
	}

	event := entity.CreatedListing{
		Listing:    p.write.Listing,
		Definition: p.cand.definition,
		ServerKey:  p.cand.serverKey,
	}

	if err := s.publisher.Publish(ctx, event); err != nil {
		logger(ctx).Warn("created listing not published",
			slog.String(logx.FieldListingID, p.write.Listing.ID.String()),
			logx.Error(err),
		)
	}
}

func createWrite(c *candidate, now time.Time) entity.ListingWrite {
	hash := c.hash

	return entity.ListingWrite{
		Op: entity.WriteCreate,
		Listing: entity.Listing{
			ID:                uuid.New(),
			RelicDefinitionID: c.key.DefinitionID,
			SellerCharacterID: c.key.SellerID,
			ShopPosition:      c.key.ShopPosition,
			ServerID:          c.key.ServerID,
			AbsorbExperience:  c.absorb,
			EnhancementLevel:  c.level,
			Price:             int64(c.lot.Price),
			Attributes:        c.attributes.Clone(),
			AttributesHash:    &hash,
			CreatedAt:         now,
			LastSeenAt:        now,
			IsActive:          true,
			Version:           1,
		},
		ReplaceAttributes: true,
	}
}

// updateWrite обновляет сохранённую строку. Набор характеристик и хеш
// перезаписываются только при изменении хеша.
func updateWrite(row entity.Listing, c *candidate, now time.Time) entity.ListingWrite {
	row.LastSeenAt = now
	row.IsActive = true
	row.SoldAt = nil
	row.Price = int64(c.lot.Price)
	row.AbsorbExperience = c.absorb
	row.EnhancementLevel = c.level

	replace := row.Hash() != c.hash
	if replace {
		hash := c.hash
		row.Attributes = c.attributes.Clone()
		row.AttributesHash = &hash
	}

	return entity.ListingWrite{
		Op:                entity.WriteUpdate,
		Listing:           row,
		ReplaceAttributes: replace,
	}
}
