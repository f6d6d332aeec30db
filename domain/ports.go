package domain

import (
	"context"
	"time"
)

// BlobStore puts and deletes uploaded files in durable object storage.
// Put returns a stable opaque locator (URL). Delete of an already-deleted
// locator is not an error.
type BlobStore interface {
	Put(ctx context.Context, folder, filename, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, locator string) error
}

// Scorer calls the analysis service with two blob locators. It performs a
// single attempt; retry policy is the orchestrator's concern. Failures are
// ErrScoringUnavailable or ErrScoringMalformed.
type Scorer interface {
	Score(ctx context.Context, resumeURL, jobDescriptionURL string) (*MatchResult, error)
}

// MatchStore persists ResumeMatch records. Create generates the id when it
// is empty. Delete of a missing record is not an error.
type MatchStore interface {
	Create(ctx context.Context, m *ResumeMatch) error
	Get(ctx context.Context, id string) (*ResumeMatch, error)
	ListByUser(ctx context.Context, userID string) ([]ResumeMatch, error)
	ListPendingBefore(ctx context.Context, cutoff time.Time) ([]ResumeMatch, error)
	SetResult(ctx context.Context, matchID, resultID string) error
	Delete(ctx context.Context, id string) error
}

// ResultStore persists MatchResult records independently of the match
// records. Create generates the id when it is empty.
type ResultStore interface {
	Create(ctx context.Context, r *MatchResult) error
	Get(ctx context.Context, id string) (*MatchResult, error)
	Delete(ctx context.Context, id string) error
}

// UserStore persists user accounts. Peripheral to the match pipeline; it
// only supplies authenticated owner ids.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}
