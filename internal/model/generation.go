package model

import (
	"encoding/json"
	"time"
)

// GenerationRecord is one row per content-generation request. The primary
// key is a UUID minted by the orchestrator before the record is enqueued
// for persistence, so the caller receives its id even though the write
// itself is asynchronous and best-effort.
type GenerationRecord struct {
	ID                string    `gorm:"primaryKey;size:36" json:"id"`
	UserID            uint      `gorm:"not null;index" json:"user_id"`
	Topic             string    `gorm:"size:512;not null" json:"topic"`
	Intent            Intent    `gorm:"size:32;not null" json:"intent"`
	AdditionalContext string    `gorm:"type:text" json:"additional_context"`
	VariantA          string    `gorm:"type:text;not null" json:"variant_a"`
	VariantB          string    `gorm:"type:text;not null" json:"variant_b"`
	Model             string    `gorm:"size:128;not null" json:"model"`
	Temperature       float64   `gorm:"not null" json:"temperature"`
	UserPostIDs       string    `gorm:"type:text" json:"-"` // JSON array of uint
	ViralPostIDs      string    `gorm:"type:text" json:"-"` // JSON array of uint
	CreatedAt         time.Time `json:"created_at"`
}

func (r *GenerationRecord) UserPostIDList() []uint  { return decodeIDList(r.UserPostIDs) }
func (r *GenerationRecord) ViralPostIDList() []uint { return decodeIDList(r.ViralPostIDs) }

func (r *GenerationRecord) SetUserPostIDs(ids []uint)  { r.UserPostIDs = encodeIDList(ids) }
func (r *GenerationRecord) SetViralPostIDs(ids []uint) { r.ViralPostIDs = encodeIDList(ids) }

func decodeIDList(raw string) []uint {
	if raw == "" {
		return nil
	}
	var ids []uint
	_ = json.Unmarshal([]byte(raw), &ids)
	return ids
}

func encodeIDList(ids []uint) string {
	if len(ids) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(ids)
	return string(b)
}
