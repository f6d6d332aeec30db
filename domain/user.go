package domain

import "time"

// User owns submissions through ResumeMatch.UserID. History is a queryable
// relation, never an embedded copy of the match records.
type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PhoneNumber  string    `gorm:"size:32" json:"phoneNumber"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time `json:"-"`
}
