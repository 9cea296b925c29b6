package users

import "time"

// User is a resume owner identified by their Telegram id.
type User struct {
	TelegramID int64     `json:"telegramId"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"createdAt"`
	LastSeen   time.Time `json:"lastSeen"`
}
