package persistence

import (
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/entity"
	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/value"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals

const listingColumns = `id, relic_definition_id, seller_character_id, shop_position, server_id,
	absorb_experience, enhancement_level, price, json_attributes, attributes_hash,
	created_at, last_seen_at, is_active, sold_at, version`

// listingSchema строка таблицы relic_listings.
type listingSchema struct {
	ID                uuid.UUID  `db:"id"`
	RelicDefinitionID int32      `db:"relic_definition_id"`
	SellerCharacterID int64      `db:"seller_character_id"`
	ShopPosition      int32      `db:"shop_position"`
	ServerID          int32      `db:"server_id"`
	AbsorbExperience  int        `db:"absorb_experience"`
	EnhancementLevel  int        `db:"enhancement_level"`
	Price             int64      `db:"price"`
	Attributes        []byte     `db:"json_attributes"`
	AttributesHash    *string    `db:"attributes_hash"`
	CreatedAt         time.Time  `db:"created_at"`
	LastSeenAt        time.Time  `db:"last_seen_at"`
	IsActive          bool       `db:"is_active"`
	SoldAt            *time.Time `db:"sold_at"`
	Version           int64      `db:"version"`
}

func (s *listingSchema) toDomain() (entity.Listing, error) {
	var attrs value.AttributeSet
	if len(s.Attributes) > 0 {
		if err := json.Unmarshal(s.Attributes, &attrs); err != nil {
			return entity.Listing{}, err
		}
	}

	return entity.Listing{
		ID:                s.ID,
		RelicDefinitionID: s.RelicDefinitionID,
		SellerCharacterID: s.SellerCharacterID,
		ShopPosition:      s.ShopPosition,
		ServerID:          s.ServerID,
		AbsorbExperience:  s.AbsorbExperience,
		EnhancementLevel:  s.EnhancementLevel,
		Price:             s.Price,
		Attributes:        attrs,
		AttributesHash:    s.AttributesHash,
		CreatedAt:         s.CreatedAt,
		LastSeenAt:        s.LastSeenAt,
		IsActive:          s.IsActive,
		SoldAt:            s.SoldAt,
		Version:           s.Version,
	}, nil
}

func marshalAttributes(attrs value.AttributeSet) ([]byte, error) {
	if attrs == nil {
		attrs = value.AttributeSet{}
	}
	return json.Marshal(attrs)
}

// serverSchema строка таблицы servers.
type serverSchema struct {
	ID   int32  `db:"id"`
	Name string `db:"name"`
	Key  string `db:"key"`
}

func (s *serverSchema) toDomain() *entity.Server {
	return &entity.Server{
		ID:   s.ID,
		Name: s.Name,
		Key:  s.Key,
	}
}

// definitionSchema строка таблицы relic_definitions.
type definitionSchema struct {
	ID                   int32   `db:"id"`
	Name                 string  `db:"name"`
	SoulLevel            int     `db:"soul_level"`
	SoulType             int     `db:"soul_type"`
	SlotTypeID           int     `db:"slot_type_id"`
	Race                 int     `db:"race"`
	IconURI              *string `db:"icon_uri"`
	MainAttributeScaling []byte  `db:"main_attribute_scaling"`
}

func (s *definitionSchema) toDomain() (entity.RelicDefinition, error) {
	var scaling map[int32]int
	if len(s.MainAttributeScaling) > 0 {
		if err := json.Unmarshal(s.MainAttributeScaling, &scaling); err != nil {
			return entity.RelicDefinition{}, err
		}
	}

	return entity.RelicDefinition{
		ID:                   s.ID,
		Name:                 s.Name,
		SoulLevel:            s.SoulLevel,
		SoulType:             value.SoulType(s.SoulType),
		SlotTypeID:           s.SlotTypeID,
		Race:                 value.Race(s.Race),
		IconURI:              s.IconURI,
		MainAttributeScaling: scaling,
	}, nil
}

// filterSchema строка notification_filters вместе с чатом владельца.
type filterSchema struct {
	ID              uuid.UUID `db:"id"`
	UserID          string    `db:"user_id"`
	Name            string    `db:"name"`
	IsEnabled       bool      `db:"is_enabled"`
	SoulType        *int      `db:"soul_type"`
	SlotTypeID      *int      `db:"slot_type_id"`
	Race            *int      `db:"race"`
	SoulLevel       *int      `db:"soul_level"`
	MainAttributeID *int      `db:"main_attribute_id"`
	ServerID        *int32    `db:"server_id"`
	MinPrice        *int64    `db:"min_price"`
	MaxPrice        *int64    `db:"max_price"`
	RequiredIDs     []byte    `db:"required_additional_attribute_ids"`
	ChatID          *int64    `db:"chat_id"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func (s *filterSchema) toDomain() (entity.NotificationFilter, error) {
	var required []int
	if len(s.RequiredIDs) > 0 {
		if err := json.Unmarshal(s.RequiredIDs, &required); err != nil {
			return entity.NotificationFilter{}, err
		}
	}

	f := entity.NotificationFilter{
		ID:                             s.ID,
		UserID:                         s.UserID,
		Name:                           s.Name,
		IsEnabled:                      s.IsEnabled,
		ChatID:                         s.ChatID,
		SlotTypeID:                     s.SlotTypeID,
		SoulLevel:                      s.SoulLevel,
		MainAttributeID:                s.MainAttributeID,
		ServerID:                       s.ServerID,
		MinPrice:                       s.MinPrice,
		MaxPrice:                       s.MaxPrice,
		RequiredAdditionalAttributeIDs: required,
		CreatedAt:                      s.CreatedAt,
		UpdatedAt:                      s.UpdatedAt,
	}
	if s.SoulType != nil {
		soulType := value.SoulType(*s.SoulType)
		f.SoulType = &soulType
	}
	if s.Race != nil {
		race := value.Race(*s.Race)
		f.Race = &race
	}

	return f, nil
}
