package models

import (
	"strings"
	"time"
)

// Role values for chat messages
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat message within a session. Assistant messages
// carry the specialist that produced them in Speaker.
type Message struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	SessionID string    `json:"session_id" gorm:"index;not null"`
	Role      string    `json:"role" gorm:"not null"`
	Speaker   string    `json:"speaker,omitempty"`
	Content   string    `json:"content" gorm:"type:text"`
	ImageData string    `json:"image_data,omitempty" gorm:"type:text"`
	PDFText   string    `json:"pdf_text,omitempty" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// TableName overrides the table name used by GORM
func (Message) TableName() string {
	return "messages"
}

// WordCount returns the number of whitespace-separated tokens in the
// message content. Word counts are always derived, never stored.
func (m *Message) WordCount() int {
	return len(strings.Fields(m.Content))
}
