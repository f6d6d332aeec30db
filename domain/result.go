package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// MatchedItem is one requirement the resume satisfies.
type MatchedItem struct {
	Item   string `json:"item"`
	Reason string `json:"reason"`
}

// MissingItem is one requirement the resume lacks.
type MissingItem struct {
	Item           string `json:"item"`
	Recommendation string `json:"recommendation"`
}

// MatchedItems and MissingItems are stored as JSON columns.
type (
	MatchedItems []MatchedItem
	MissingItems []MissingItem
)

// MatchResult is the terminal outcome of scoring a ResumeMatch. Immutable
// once written; a failed analysis still produces one, with a zero score and
// a summary describing the failure.
type MatchResult struct {
	ID              string       `gorm:"primaryKey;size:36" json:"id"`
	AtsScorePercent int          `gorm:"not null" json:"atsScorePercent"`
	Summary         string       `gorm:"type:text" json:"summary"`
	WhatMatched     MatchedItems `gorm:"type:json" json:"whatMatched"`
	WhatIsMissing   MissingItems `gorm:"type:json" json:"whatIsMissing"`
}

func (m MatchedItems) Value() (driver.Value, error) {
	if m == nil {
		m = MatchedItems{}
	}
	return json.Marshal(m)
}

func (m *MatchedItems) Scan(src any) error {
	return scanJSON(src, m)
}

func (m MissingItems) Value() (driver.Value, error) {
	if m == nil {
		m = MissingItems{}
	}
	return json.Marshal(m)
}

func (m *MissingItems) Scan(src any) error {
	return scanJSON(src, m)
}

func scanJSON(src, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported column type %T", src)
	}
}
