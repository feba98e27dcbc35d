package http

type CreateRoomResponse struct {
	RoomCode string `json:"roomCode"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type TimeResponse struct {
	CurrentTime int64 `json:"currentTime"`
}

type ChatMessageItem struct {
	Username       string `json:"username"`
	ProfilePicture string `json:"profilePicture,omitempty"`
	Message        string `json:"message"`
	Timestamp      int64  `json:"timestamp"` // unix ms
}

type RoomDetailsResponse struct {
	VideoURL   string            `json:"videoUrl"`
	RoomName   string            `json:"roomName"`
	MovieTitle string            `json:"movieTitle"`
	Chat       []ChatMessageItem `json:"chat"`
}

type RoomItem struct {
	Code       string `json:"code"`
	RoomName   string `json:"roomName"`
	MovieTitle string `json:"movieTitle"`
}

type SendMessageRequest struct {
	Username       string `json:"username"`
	ProfilePicture string `json:"profilePicture"`
	Message        string `json:"message"`
}
