package domain

import "time"

// ResumeMatch is a user's paired resume + job description upload. It is
// created in a pending state (MatchResultID nil) and linked to exactly one
// MatchResult once the analysis task reaches a terminal state. The blob
// locators never change after creation.
type ResumeMatch struct {
	ID                 string    `gorm:"primaryKey;size:36" json:"id"`
	UserID             string    `gorm:"size:36;index;not null" json:"userId"`
	ResumeName         string    `gorm:"size:255" json:"resumeName"`
	JobDescriptionName string    `gorm:"size:255" json:"jobDescriptionName"`
	ResumeURL          string    `gorm:"size:512;not null" json:"resumeUrl"`
	JobDescriptionURL  string    `gorm:"size:512;not null" json:"jobDescriptionUrl"`
	MatchResultID      *string   `gorm:"size:36" json:"matchResultId"`
	CreatedAt          time.Time `json:"matchDate"`
}

// Pending reports whether the analysis task has not yet reached a terminal
// state for this match.
func (m *ResumeMatch) Pending() bool { return m.MatchResultID == nil }
