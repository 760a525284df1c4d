package relic_test

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/service/relic"
	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/value"
)

func sha(s string) string {
	sum := sha256.Sum256([]byte(s))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

func TestContentHash(t *testing.T) {
	testCases := []struct {
		name  string
		main  int
		pairs []relic.AttributePair
		want  string
	}{
		{
			name: "no secondary",
			main: 7,
			want: sha("7"),
		},
		{
			name: "no main",
			main: value.NoMainAttributeID,
			want: sha("-1"),
		},
		{
			name:  "sorted by id then value",
			main:  3,
			pairs: []relic.AttributePair{{ID: 2, Value: 5}, {ID: 1, Value: 10}, {ID: 1, Value: 4}},
			want:  sha("3|1:4|1:10|2:5"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)
			rq.Equal(tc.want, relic.ContentHash(tc.main, tc.pairs))
		})
	}
}

func TestContentHash_OrderInvariant(t *testing.T) {
	rq := require.New(t)

	a := relic.ContentHash(5, []relic.AttributePair{{ID: 1, Value: 10}, {ID: 2, Value: 5}})
	b := relic.ContentHash(5, []relic.AttributePair{{ID: 2, Value: 5}, {ID: 1, Value: 10}})
	rq.Equal(a, b)
	rq.Len(a, 64)

	changed := relic.ContentHash(5, []relic.AttributePair{{ID: 1, Value: 11}, {ID: 2, Value: 5}})
	rq.NotEqual(a, changed)
}

func TestHashAttributes(t *testing.T) {
	rq := require.New(t)

	set := value.AttributeSet{
		{DefinitionID: 4, Value: 30, Category: value.AttributeAdditional},
		{DefinitionID: 9, Value: 120, Category: value.AttributeMain},
		{DefinitionID: 2, Value: 15, Category: value.AttributeAdditional},
	}
	rq.Equal(sha("9|2:15|4:30"), relic.HashAttributes(set))

	reordered := value.AttributeSet{set[2], set[0], set[1]}
	rq.Equal(relic.HashAttributes(set), relic.HashAttributes(reordered))

	noMain := value.AttributeSet{set[0]}
	rq.Equal(sha("-1|4:30"), relic.HashAttributes(noMain))
}
