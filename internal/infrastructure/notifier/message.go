package notifier

import (
	"fmt"

	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/entity"
)

// formatListing краткий текст уведомления о новом лоте.
func formatListing(event entity.CreatedListing) string {
	name := event.Definition.Name
	if name == "" {
		name = fmt.Sprintf("#%d", event.Listing.RelicDefinitionID)
	}

	return fmt.Sprintf(
		"New relic listing\n%s +%d\nServer: %s\nPrice: %d\nListing: %s",
		name,
		event.Listing.EnhancementLevel,
		event.ServerKey,
		event.Listing.Price,
		event.Listing.ID,
	)
}
