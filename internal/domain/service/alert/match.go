package alert

import (
	"github.com/samber/lo"

	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/entity"
)

// Matches проверяет, что созданный лот удовлетворяет всем заданным
// критериям фильтра. Незаданные критерии пропускаются.
func Matches(f entity.NotificationFilter, event entity.CreatedListing) bool {
	l := event.Listing
	def := event.Definition

	switch {
	case !f.IsEnabled:
		return false
	case f.ServerID != nil && *f.ServerID != l.ServerID:
		return false
	case f.SoulType != nil && *f.SoulType != def.SoulType:
		return false
	case f.Race != nil && *f.Race != def.Race:
		return false
	case f.SoulLevel != nil && *f.SoulLevel != def.SoulLevel:
		return false
	case f.SlotTypeID != nil && *f.SlotTypeID != def.SlotTypeID:
		return false
	case f.MinPrice != nil && l.Price < *f.MinPrice:
		return false
	case f.MaxPrice != nil && l.Price > *f.MaxPrice:
		return false
	}

	if f.MainAttributeID != nil {
		main, ok := l.Attributes.Main()
		if !ok || main.DefinitionID != *f.MainAttributeID {
			return false
		}
	}

	if len(f.RequiredAdditionalAttributeIDs) > 0 {
		have := lo.Keys(l.Attributes.AdditionalIDs())
		if !lo.Every(have, f.RequiredAdditionalAttributeIDs) {
			return false
		}
	}

	return true
}

// matchingIDs возвращает id подходящих фильтров, для логов.
func matchingIDs(filters []entity.NotificationFilter) []string {
	return lo.Map(filters, func(f entity.NotificationFilter, _ int) string { return f.ID.String() })
}
