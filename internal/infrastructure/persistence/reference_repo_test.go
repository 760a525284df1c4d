package persistence_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/entity"
	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/value"
	"github.com/MeowExort/pw-hub-relics-backend/internal/infrastructure/persistence"
)

func TestReferenceRepository_FindServerByKey(t *testing.T) {
	testCases := []struct {
		name string
		rows *sqlmock.Rows
		want *entity.Server
	}{
		{
			name: "found",
			rows: sqlmock.NewRows([]string{"id", "name", "key"}).AddRow(1, "Centaur", "centaur"),
			want: &entity.Server{ID: 1, Name: "Centaur", Key: "centaur"},
		},
		{
			name: "absent",
			rows: sqlmock.NewRows([]string{"id", "name", "key"}),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)
			db, mock := newMockDB(t)

			mock.ExpectQuery(regexp.QuoteMeta("FROM servers WHERE LOWER(key) = LOWER($1)")).
				WithArgs("centaur").
				WillReturnRows(tc.rows)

			server, err := persistence.NewReferenceRepository(db).FindServerByKey(context.Background(), "centaur")
			rq.NoError(err)
			rq.Equal(tc.want, server)
			rq.NoError(mock.ExpectationsWereMet())
		})
	}
}

func TestReferenceRepository_FindDefinitionsByIDs(t *testing.T) {
	rq := require.New(t)
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id IN ($1, $2)")).
		WithArgs(int32(42), int32(43)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "soul_level", "soul_type", "slot_type_id", "race", "icon_uri", "main_attribute_scaling",
		}).AddRow(42, "Relic of the Ancients", 3, 2, 6, 3, nil, []byte(`{"100":250,"101":300}`)))

	defs, err := persistence.NewReferenceRepository(db).FindDefinitionsByIDs(context.Background(), []int32{42, 43})
	rq.NoError(err)
	rq.Len(defs, 1)

	def := defs[42]
	rq.Equal("Relic of the Ancients", def.Name)
	rq.Equal(3, def.SoulLevel)
	rq.Equal(value.SoulTypeTianya, def.SoulType)
	rq.Equal(value.RaceWinged, def.Race)
	rq.Nil(def.IconURI)
	rq.Equal(map[int32]int{100: 250, 101: 300}, def.MainAttributeScaling)
	rq.NoError(mock.ExpectationsWereMet())

	empty, err := persistence.NewReferenceRepository(db).FindDefinitionsByIDs(context.Background(), nil)
	rq.NoError(err)
	rq.Empty(empty)
}

func TestFilterRepository_ListEnabledFilters(t *testing.T) {
	rq := require.New(t)
	db, mock := newMockDB(t)

	id := uuid.New()
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM notification_filters f")).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "name", "is_enabled", "soul_type", "slot_type_id", "race", "soul_level",
			"main_attribute_id", "server_id", "min_price", "max_price",
			"required_additional_attribute_ids", "created_at", "updated_at", "chat_id",
		}).AddRow(
			id.String(), "user-1", "cheap winged", true, nil, nil, 3, nil,
			nil, 2, nil, 100000,
			[]byte(`[3,7]`), now, now, 555,
		))

	filters, err := persistence.NewFilterRepository(db).ListEnabledFilters(context.Background())
	rq.NoError(err)
	rq.Len(filters, 1)

	f := filters[0]
	rq.Equal(id, f.ID)
	rq.Nil(f.SoulType)
	rq.Equal(value.RaceWinged, *f.Race)
	rq.Equal(int32(2), *f.ServerID)
	rq.Equal(int64(100000), *f.MaxPrice)
	rq.Equal([]int{3, 7}, f.RequiredAdditionalAttributeIDs)
	rq.Equal(int64(555), *f.ChatID)
	rq.NoError(mock.ExpectationsWereMet())
}
