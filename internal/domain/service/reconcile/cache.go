package reconcile

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/samber/lo"
	"golang.org/x/sync/singleflight"

	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/entity"
)

const (
	DefaultServerTTL     = 24 * time.Hour
	DefaultDefinitionTTL = 120 * time.Minute
)

type ReferenceStore interface {
	FindServerByKey(ctx context.Context, key string) (*entity.Server, error)
	FindDefinitionsByIDs(ctx context.Context, ids []int32) (map[int32]entity.RelicDefinition, error)
}

// ReferenceCache кеширует серверы и определения реликвий. Промахи уходят в
// хранилище, одинаковые одновременные запросы схлопываются.
type ReferenceCache struct {
	store ReferenceStore

	servers       *cache.Cache
	definitions   *cache.Cache
	serverTTL     time.Duration
	definitionTTL time.Duration

	group singleflight.Group
}

func NewReferenceCache(store ReferenceStore) *ReferenceCache {
	return &ReferenceCache{
		store:         store,
		servers:       cache.New(DefaultServerTTL, time.Hour),
		definitions:   cache.New(DefaultDefinitionTTL, 10*time.Minute),
		serverTTL:     DefaultServerTTL,
		definitionTTL: DefaultDefinitionTTL,
	}
}

func (c *ReferenceCache) WithTTL(serverTTL, definitionTTL time.Duration) *ReferenceCache {
	if serverTTL > 0 {
		c.serverTTL = serverTTL
	}
	if definitionTTL > 0 {
		c.definitionTTL = definitionTTL
	}
	return c
}

// Server возвращает сервер по ключу или nil, если такого нет. Отсутствие
// сервера не кешируется.
func (c *ReferenceCache) Server(ctx context.Context, key string) (*entity.Server, error) {
	key = strings.ToLower(strings.TrimSpace(key))

	if v, ok := c.servers.Get(key); ok {
		server := v.(entity.Server) //nolint:forcetypeassert
		return &server, nil
	}

	v, err, _ := c.group.Do("server:"+key, func() (any, error) {
		server, err := c.store.FindServerByKey(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("find server %q: %w", key, err)
		}
		if server != nil {
			c.servers.Set(key, *server, c.serverTTL)
		}
		return server, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*entity.Server), nil //nolint:forcetypeassert
}

// Definitions возвращает известные определения для ids. Отсутствующие id в
// результат не попадают.
func (c *ReferenceCache) Definitions(ctx context.Context, ids []int32) (map[int32]entity.RelicDefinition, error) {
	result := make(map[int32]entity.RelicDefinition, len(ids))

	var missing []int32
	for _, id := range lo.Uniq(ids) {
		if v, ok := c.definitions.Get(definitionKey(id)); ok {
			result[id] = v.(entity.RelicDefinition) //nolint:forcetypeassert
			continue
		}
		missing = append(missing, id)
	}

	if len(missing) == 0 {
		return result, nil
	}

	slices.Sort(missing)
	v, err, _ := c.group.Do("definitions:"+joinIDs(missing), func() (any, error) {
		loaded, err := c.store.FindDefinitionsByIDs(ctx, missing)
		if err != nil {
			return nil, fmt.Errorf("find definitions: %w", err)
		}
		for id, def := range loaded {
			c.definitions.Set(definitionKey(id), def, c.definitionTTL)
		}
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}

	for id, def := range v.(map[int32]entity.RelicDefinition) { //nolint:forcetypeassert
		result[id] = def
	}

	return result, nil
}

// Flush сбрасывает оба кеша.
func (c *ReferenceCache) Flush() {
	c.servers.Flush()
	c.definitions.Flush()
}

func definitionKey(id int32) string {
	return strconv.FormatInt(int64(id), 10)
}

func joinIDs(ids []int32) string {
	return strings.Join(lo.Map(ids, func(id int32, _ int) string { return definitionKey(id) }), ",")
}
