package entity

// Server справочник игровых серверов.
type Server struct {
	ID   int32  `json:"id"`
	Name string `json:"name"`
	Key  string `json:"key"` // centaur, alkor, mizar, capella
}
