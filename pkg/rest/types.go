// Данный файл должен быть сгенерирован из openapi спецификации и называться types.gen.go
package rest

// ParseRequest Захваченный пакет магазина реликвий
type ParseRequest struct {
	// Server Ключ игрового сервера (centaur, alkor, mizar, capella)
	Server string `json:"server" validate:"required,max=32"`

	// Payload Тело пакета в base64
	Payload string `json:"payload" validate:"required,base64"`
}

// Accepted Пакет принят в очередь
type Accepted struct {
	Message string `json:"message"`
}

// QueueStats Длины внутренних очередей
type QueueStats struct {
	Ingest int `json:"ingest"`
	Notify int `json:"notify"`
}

// Error Модель ошибок
type Error struct {
	// Code Код ошибки
	Code ErrorCode `json:"code"`

	// Message Сообщение об ошибке (для отображения в UI в будущем)
	Message string `json:"message"`

	// SupportID Идентификатор запроса для обращения в поддержку
	SupportID string `json:"supportId"`
}

// ErrorCode Код ошибки
type ErrorCode string
