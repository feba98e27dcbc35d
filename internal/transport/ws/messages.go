package ws

import "encoding/json"

// Типы событий live-канала комнаты
const (
	TypeState   = "state"   // снапшот комнаты при подключении
	TypeTick    = "tick"    // часы комнаты сдвинулись
	TypeChat    = "chat"    // новое сообщение в чате
	TypeEvicted = "evicted" // комната удалена, соединение будет закрыто
	TypeError   = "error"   // ответ отправителю на отклонённое сообщение
)

type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type StatePayload struct {
	Code        string `json:"code"`
	CurrentTime int64  `json:"currentTime"`
	VideoURL    string `json:"videoUrl"`
	RoomName    string `json:"roomName"`
	MovieTitle  string `json:"movieTitle"`
}

type TickPayload struct {
	Code        string `json:"code"`
	CurrentTime int64  `json:"currentTime"`
}

type ChatPayload struct {
	Username       string `json:"username"`
	ProfilePicture string `json:"profilePicture,omitempty"`
	Message        string `json:"message"`
	Timestamp      int64  `json:"timestamp,omitempty"` // unix ms, заполняет сервер
}

type EvictedPayload struct {
	Code string `json:"code"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}
