package relic

import (
	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/entity"
	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/value"
)

// AddonMapping сопоставляет id слота аддона из пакета и id характеристики.
type AddonMapping map[int32]int

// Lookup возвращает id характеристики для слота.
func (m AddonMapping) Lookup(slotID int32) (int, bool) {
	id, ok := m[slotID]
	return id, ok
}

// AddonMultipliers множители аддонов экипировки по id слота.
type AddonMultipliers map[int32]int

// Value вычисляет значение дополнительного аддона. Без множителя величина
// возвращается как есть.
func (m AddonMultipliers) Value(slotID int32, magnitude int) int {
	if multiplier, ok := m[slotID]; ok {
		return multiplier * magnitude
	}
	return magnitude
}

// Mapper переводит слоты аддонов из пакета в характеристики реликвии.
type Mapper struct {
	slots       AddonMapping
	multipliers AddonMultipliers
}

func NewMapper(slots AddonMapping, multipliers AddonMultipliers) *Mapper {
	if slots == nil {
		slots = AddonMapping{}
	}
	if multipliers == nil {
		multipliers = AddonMultipliers{}
	}
	return &Mapper{slots: slots, multipliers: multipliers}
}

// MapSlot возвращает id характеристики для слота.
func (m *Mapper) MapSlot(slotID int32) (int, bool) {
	return m.slots.Lookup(slotID)
}

// SecondaryValue значение дополнительной характеристики.
func (m *Mapper) SecondaryValue(slotID int32, magnitude int) int {
	return m.multipliers.Value(slotID, magnitude)
}

// BuildAttributeSet собирает набор характеристик реликвии.
//
// Основная характеристика добавляется, только если MainAddon >= 0. Слот без
// сопоставления получает UnknownAttributeID. Дополнительные слоты с id 0
// пропускаются, слоты без сопоставления отбрасываются.
func (m *Mapper) BuildAttributeSet(item entity.ItemDescriptor, def entity.RelicDefinition) value.AttributeSet {
	set := make(value.AttributeSet, 0, len(item.Addons)+1)

	if item.MainAddon >= 0 {
		slotID := int32(item.MainAddon)
		attrID, ok := m.MapSlot(slotID)
		if !ok {
			attrID = value.UnknownAttributeID
		}
		set = append(set, value.Attribute{
			DefinitionID: attrID,
			Value:        MainAttributeValue(slotID, int(item.Experience), def.SoulLevel, def.MainAttributeScaling),
			Category:     value.AttributeMain,
		})
	}

	for _, addon := range item.Addons {
		if addon.ID == 0 {
			continue
		}
		attrID, ok := m.MapSlot(int32(addon.ID))
		if !ok {
			continue
		}
		set = append(set, value.Attribute{
			DefinitionID: attrID,
			Value:        m.SecondaryValue(int32(addon.ID), int(addon.Magnitude)),
			Category:     value.AttributeAdditional,
		})
	}

	return set
}
