package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/value"
)

// NotificationFilter фильтр уведомлений пользователя. Пустые критерии не
// участвуют в сравнении.
type NotificationFilter struct {
	ID        uuid.UUID
	UserID    string
	Name      string
	IsEnabled bool
	ChatID    *int64

	SoulType        *value.SoulType
	SlotTypeID      *int
	Race            *value.Race
	SoulLevel       *int
	MainAttributeID *int
	ServerID        *int32
	MinPrice        *int64
	MaxPrice        *int64

	RequiredAdditionalAttributeIDs []int

	CreatedAt time.Time
	UpdatedAt time.Time
}
