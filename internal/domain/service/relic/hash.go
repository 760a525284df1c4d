package relic

import (
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strconv"
	"strings"

	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/value"
)

// AttributePair id и значение дополнительной характеристики.
type AttributePair struct {
	ID    int
	Value int
}

// ContentHash SHA-256 (hex, верхний регистр) над строкой
// "{main}|{id}:{value}|...", пары отсортированы по (id, value).
func ContentHash(mainAttributeID int, pairs []AttributePair) string {
	sorted := slices.Clone(pairs)
	slices.SortFunc(sorted, func(a, b AttributePair) int {
		return cmp.Or(cmp.Compare(a.ID, b.ID), cmp.Compare(a.Value, b.Value))
	})

	var sb strings.Builder
	sb.WriteString(strconv.Itoa(mainAttributeID))
	for _, p := range sorted {
		sb.WriteByte('|')
		sb.WriteString(strconv.Itoa(p.ID))
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(p.Value))
	}

	sum := sha256.Sum256([]byte(sb.String()))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// HashAttributes хеш набора характеристик. Используется и для свежего лота,
// и для сохранённой строки, поэтому одинаковое содержимое даёт одинаковый
// хеш.
func HashAttributes(set value.AttributeSet) string {
	additional := set.Additional()
	pairs := make([]AttributePair, 0, len(additional))
	for _, a := range additional {
		pairs = append(pairs, AttributePair{ID: a.DefinitionID, Value: a.Value})
	}
	return ContentHash(set.MainID(), pairs)
}
