package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/value"
)

// Listing лот реликвии в магазине, отслеживаемый между наблюдениями.
type Listing struct {
	ID                uuid.UUID          `json:"id"`
	RelicDefinitionID int32              `json:"relic_definition_id"`
	SellerCharacterID int64              `json:"seller_character_id"`
	ShopPosition      int32              `json:"shop_position"`
	ServerID          int32              `json:"server_id"`
	AbsorbExperience  int                `json:"absorb_experience"`
	EnhancementLevel  int                `json:"enhancement_level"`
	Price             int64              `json:"price"` // в серебре
	Attributes        value.AttributeSet `json:"attributes"`
	AttributesHash    *string            `json:"attributes_hash,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	LastSeenAt        time.Time          `json:"last_seen_at"`
	IsActive          bool               `json:"is_active"`
	SoldAt            *time.Time         `json:"sold_at,omitempty"`
	Version           int64              `json:"-"`
}

func (l *Listing) NaturalKey() value.NaturalKey {
	return value.NaturalKey{
		SellerID:     l.SellerCharacterID,
		ShopPosition: l.ShopPosition,
		ServerID:     l.ServerID,
		DefinitionID: l.RelicDefinitionID,
	}
}

// Hash возвращает хеш атрибутов или пустую строку.
func (l *Listing) Hash() string {
	if l.AttributesHash == nil {
		return ""
	}
	return *l.AttributesHash
}

// WriteOp вид записи лота.
type WriteOp int

const (
	WriteCreate WriteOp = iota + 1
	WriteUpdate
)

func (o WriteOp) String() string {
	switch o {
	case WriteCreate:
		return "create"
	case WriteUpdate:
		return "update"
	default:
		return "unknown"
	}
}

// ListingWrite запланированная запись лота. Для обновления Listing.Version
// содержит ожидаемую версию строки.
type ListingWrite struct {
	Op                WriteOp
	Listing           Listing
	ReplaceAttributes bool
}
