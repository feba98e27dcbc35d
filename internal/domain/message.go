package domain

import "time"

type ChatMessage struct {
	SenderName string
	AvatarRef  string // может быть пустым
	Body       string
	SentAt     time.Time
}
