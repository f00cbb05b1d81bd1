package model

import (
	"encoding/json"
	"time"
)

// ViralPost is a curated reference post believed to represent high
// engagement. Created by the admin-only ingestion path; rows can be
// deactivated but are otherwise immutable.
type ViralPost struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	Topics         string    `gorm:"type:text;not null" json:"-"` // JSON array of strings
	Intent         Intent    `gorm:"size:32;not null;index" json:"intent"`
	Likes          int       `gorm:"not null;default:0" json:"likes"`
	Comments       int       `gorm:"not null;default:0" json:"comments"`
	Shares         int       `gorm:"not null;default:0" json:"shares"`
	Views          int       `gorm:"not null;default:0" json:"views"`
	EngagementRate float64   `gorm:"not null;default:0;index" json:"engagement_rate"`
	Active         bool      `gorm:"not null;default:true;index" json:"active"`
	CuratorID      uint      `gorm:"not null" json:"curator_id"`
	SourceURL      string    `gorm:"size:512" json:"source_url"`
	CreatedAt      time.Time `json:"created_at"`
}

// TopicList returns the parsed topic tags; empty on parse error.
func (p *ViralPost) TopicList() []string {
	if p.Topics == "" {
		return nil
	}
	var topics []string
	_ = json.Unmarshal([]byte(p.Topics), &topics)
	return topics
}

// SetTopics stores the topic tags as JSON.
func (p *ViralPost) SetTopics(topics []string) {
	if len(topics) == 0 {
		p.Topics = "[]"
		return
	}
	b, _ := json.Marshal(topics)
	p.Topics = string(b)
}

// ComputeEngagementRate derives the engagement-rate score from raw counters.
// Posts without view data score 0 rather than dividing by zero.
func ComputeEngagementRate(likes, comments, shares, views int) float64 {
	if views <= 0 {
		return 0
	}
	return float64(likes+comments+shares) / float64(views)
}
