package entity

import "time"

// ParseRequest захваченный пакет магазина, ожидающий разбора.
type ParseRequest struct {
	ServerKey  string
	Payload    []byte
	ReceivedAt time.Time
}
