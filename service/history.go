package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"intellimatch/domain"
)

// pendingMessage is shown while a match has no linked result yet.
const pendingMessage = "Analysis in progress..."

// HistoryItem joins a submission with its outcome for display. Score and
// ResultMessage are denormalized from the result so list views need not
// fetch it separately; MatchResult carries the full detail and is nil while
// the analysis is still in flight.
type HistoryItem struct {
	ID                 string              `json:"id"`
	ResumeName         string              `json:"resumeName"`
	JobDescriptionName string              `json:"jobDescriptionName"`
	ResumeURL          string              `json:"resumeUrl"`
	JobDescriptionURL  string              `json:"jobDescriptionUrl"`
	MatchDate          time.Time           `json:"matchDate"`
	Score              int                 `json:"score"`
	ResultMessage      string              `json:"resultMessage"`
	MatchResult        *domain.MatchResult `json:"matchResult"`
}

// History is the read side of the pipeline: a pure join of match records
// with their results. It never mutates anything.
type History struct {
	matches domain.MatchStore
	results domain.ResultStore
	logger  *zap.Logger
}

// NewHistory returns a configured History projector.
func NewHistory(matches domain.MatchStore, results domain.ResultStore, logger *zap.Logger) *History {
	return &History{matches: matches, results: results, logger: logger}
}

// HistoryFor returns all of a user's submissions, each joined with its
// result when one is linked.
func (h *History) HistoryFor(ctx context.Context, userID string) ([]HistoryItem, error) {
	matches, err := h.matches.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]HistoryItem, 0, len(matches))
	for i := range matches {
		items = append(items, h.item(ctx, &matches[i]))
	}
	return items, nil
}

// DetailFor returns one submission joined with its result. It fails with
// domain.ErrNotFound when the match does not exist or belongs to another
// user.
func (h *History) DetailFor(ctx context.Context, userID, matchID string) (*HistoryItem, error) {
	match, err := h.matches.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.UserID != userID {
		return nil, domain.ErrNotFound
	}
	item := h.item(ctx, match)
	return &item, nil
}

func (h *History) item(ctx context.Context, m *domain.ResumeMatch) HistoryItem {
	item := HistoryItem{
		ID:                 m.ID,
		ResumeName:         m.ResumeName,
		JobDescriptionName: m.JobDescriptionName,
		ResumeURL:          m.ResumeURL,
		JobDescriptionURL:  m.JobDescriptionURL,
		MatchDate:          m.CreatedAt,
		ResultMessage:      pendingMessage,
	}
	if m.MatchResultID == nil {
		return item
	}

	result, err := h.results.Get(ctx, *m.MatchResultID)
	if err != nil {
		// Treat a missing result like a still-pending one rather than
		// failing the whole listing.
		h.logger.Warn("history: load result",
			zap.String("match_id", m.ID),
			zap.String("result_id", *m.MatchResultID),
			zap.Error(err))
		return item
	}

	item.Score = result.AtsScorePercent
	item.ResultMessage = result.Summary
	item.MatchResult = result
	return item
}
