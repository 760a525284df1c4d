package entity

// CreatedListing событие о новом лоте для очереди уведомлений.
type CreatedListing struct {
	Listing    Listing         `json:"listing"`
	Definition RelicDefinition `json:"definition"`
	ServerKey  string          `json:"server_key"`
}
