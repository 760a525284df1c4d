package entity

import "github.com/MeowExort/pw-hub-relics-backend/internal/domain/value"

// RelicDefinition справочник реликвий.
type RelicDefinition struct {
	ID         int32          `json:"id"`
	Name       string         `json:"name"`
	SoulLevel  int            `json:"soul_level"` // редкость 1-5
	SoulType   value.SoulType `json:"soul_type"`
	SlotTypeID int            `json:"slot_type_id"`
	Race       value.Race     `json:"race"`
	IconURI    *string        `json:"icon_uri,omitempty"`

	// MainAttributeScaling сопоставляет id основного аддона и его
	// максимальное значение.
	MainAttributeScaling map[int32]int `json:"main_attribute_scaling,omitempty"`
}
