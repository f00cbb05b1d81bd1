package model

import (
	"strings"
	"time"
)

// UserPost is one unit of a user's historical LinkedIn writing.
// Rows are immutable after ingestion; they are deleted only as a
// compensating action when the paired embedding fails to persist.
type UserPost struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	WordCount int       `gorm:"not null;default:0" json:"word_count"`
	Likes     int       `gorm:"not null;default:0" json:"likes"`
	Comments  int       `gorm:"not null;default:0" json:"comments"`
	Shares    int       `gorm:"not null;default:0" json:"shares"`
	Views     int       `gorm:"not null;default:0" json:"views"`
	CreatedAt time.Time `json:"created_at"`
}

// CountWords derives the stored word count from content.
func CountWords(content string) int {
	return len(strings.Fields(content))
}
