// Package memory implements the listing, reference and filter stores on top of
// process memory. Used by tests and the memory store driver.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/entity"
	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/value"
)

type Store struct {
	mu sync.RWMutex

	listings map[uuid.UUID]entity.Listing
	byKey    map[value.NaturalKey]uuid.UUID

	servers     map[string]entity.Server
	definitions map[int32]entity.RelicDefinition
	filters     []entity.NotificationFilter
}

func New() *Store {
	return &Store{
		listings:    make(map[uuid.UUID]entity.Listing),
		byKey:       make(map[value.NaturalKey]uuid.UUID),
		servers:     make(map[string]entity.Server),
		definitions: make(map[int32]entity.RelicDefinition),
	}
}

func (s *Store) PutServer(server entity.Server) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.servers[strings.ToLower(server.Key)] = server
}

func (s *Store) PutDefinition(def entity.RelicDefinition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.definitions[def.ID] = def
}

func (s *Store) PutFilter(filter entity.NotificationFilter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = append(s.filters, filter)
}

// PutListing сохраняет строку как есть, минуя проверку версий.
func (s *Store) PutListing(l entity.Listing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(l)
}

// DeleteListing удаляет строку по ключу.
func (s *Store) DeleteListing(key value.NaturalKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byKey[key]; ok {
		delete(s.listings, id)
		delete(s.byKey, key)
	}
}

// Listings возвращает копию всех строк.
func (s *Store) Listings() []entity.Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]entity.Listing, 0, len(s.listings))
	for _, l := range s.listings {
		result = append(result, clone(l))
	}
	slices.SortFunc(result, func(a, b entity.Listing) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return result
}

func (s *Store) FindByNaturalKey(_ context.Context, key value.NaturalKey) (*entity.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byKey[key]
	if !ok {
		return nil, nil //nolint:nilnil
	}
	l := clone(s.listings[id])
	return &l, nil
}

func (s *Store) FindByNaturalKeys(_ context.Context, keys []value.NaturalKey) ([]entity.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]entity.Listing, 0, len(keys))
	for _, key := range keys {
		if id, ok := s.byKey[key]; ok {
			result = append(result, clone(s.listings[id]))
		}
	}
	return result, nil
}

func (s *Store) UpsertBatch(_ context.Context, rows []entity.ListingWrite) (entity.UpsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result entity.UpsertResult
	for i, row := range rows {
		l := row.Listing
		switch row.Op {
		case entity.WriteCreate:
			if _, exists := s.byKey[l.NaturalKey()]; exists {
				result.Conflicts = append(result.Conflicts, i)
				continue
			}
			if l.Version == 0 {
				l.Version = 1
			}
			s.put(l)
		case entity.WriteUpdate:
			stored, ok := s.listings[l.ID]
			if !ok || stored.Version != l.Version {
				result.Conflicts = append(result.Conflicts, i)
				continue
			}
			if !row.ReplaceAttributes {
				l.Attributes = stored.Attributes
				l.AttributesHash = stored.AttributesHash
			}
			l.CreatedAt = stored.CreatedAt
			l.Version = stored.Version + 1
			s.put(l)
		}
	}
	return result, nil
}

func (s *Store) BulkDeactivateStale(_ context.Context, threshold time.Time, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, l := range s.listings {
		if !l.IsActive || !l.LastSeenAt.Before(threshold) {
			continue
		}
		soldAt := now
		l.IsActive = false
		l.SoldAt = &soldAt
		l.Version++
		s.listings[id] = l
		n++
	}
	return n, nil
}

func (s *Store) CountListings(_ context.Context) (int64, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total, active int64
	for _, l := range s.listings {
		total++
		if l.IsActive {
			active++
		}
	}
	return total, active, nil
}

func (s *Store) ListWithoutHash(_ context.Context, limit int) ([]entity.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []entity.Listing
	for _, l := range s.listings {
		if l.AttributesHash != nil {
			continue
		}
		result = append(result, clone(l))
	}
	slices.SortFunc(result, func(a, b entity.Listing) int { return strings.Compare(a.ID.String(), b.ID.String()) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) SetHash(_ context.Context, id uuid.UUID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l, ok := s.listings[id]; ok {
		l.AttributesHash = &hash
		s.listings[id] = l
	}
	return nil
}

func (s *Store) FindServerByKey(_ context.Context, key string) (*entity.Server, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	server, ok := s.servers[strings.ToLower(key)]
	if !ok {
		return nil, nil //nolint:nilnil
	}
	return &server, nil
}

func (s *Store) FindDefinitionsByIDs(_ context.Context, ids []int32) (map[int32]entity.RelicDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[int32]entity.RelicDefinition, len(ids))
	for _, id := range ids {
		if def, ok := s.definitions[id]; ok {
			result[id] = def
		}
	}
	return result, nil
}

func (s *Store) ListEnabledFilters(_ context.Context) ([]entity.NotificationFilter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []entity.NotificationFilter
	for _, f := range s.filters {
		if f.IsEnabled {
			result = append(result, f)
		}
	}
	return result, nil
}

func (s *Store) put(l entity.Listing) {
	s.listings[l.ID] = clone(l)
	s.byKey[l.NaturalKey()] = l.ID
}

func clone(l entity.Listing) entity.Listing {
	l.Attributes = l.Attributes.Clone()
	if l.AttributesHash != nil {
		hash := *l.AttributesHash
		l.AttributesHash = &hash
	}
	if l.SoldAt != nil {
		soldAt := *l.SoldAt
		l.SoldAt = &soldAt
	}
	return l
}
