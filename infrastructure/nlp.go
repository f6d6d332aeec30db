package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"intellimatch/domain"
)

const maxScoringResponseBytes = 1 << 20

// NLPClient calls the external analysis service over HTTP. It performs one
// attempt per call; the request duration is bounded by the client timeout
// and the caller's context.
type NLPClient struct {
	apiURL     string
	HTTPClient *http.Client
	logger     *zap.Logger
}

// NewNLPClient returns a scoring client for the given analysis endpoint.
func NewNLPClient(apiURL string, logger *zap.Logger) *NLPClient {
	return &NLPClient{
		apiURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: 90 * time.Second,
		},
		logger: logger,
	}
}

// scoringResponse is the analysis service's wire contract. The score is a
// pointer so a missing field can be told apart from a genuine zero.
type scoringResponse struct {
	AtsScorePercent *int                 `json:"ats_score_percent"`
	Summary         string               `json:"summary"`
	WhatMatched     []domain.MatchedItem `json:"what_matched"`
	WhatIsMissing   []domain.MissingItem `json:"what_is_missing"`
}

func (c *NLPClient) Score(ctx context.Context, resumeURL, jobDescriptionURL string) (*domain.MatchResult, error) {
	payload, err := json.Marshal(map[string]string{
		"resumeUrl":         resumeURL,
		"jobDescriptionUrl": jobDescriptionURL,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrScoringUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", domain.ErrScoringUnavailable, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxScoringResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrScoringUnavailable, err)
	}

	var parsed scoringResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrScoringMalformed, err)
	}

	c.logger.Debug("scoring response received",
		zap.String("resume_url", resumeURL),
		zap.Int("body_bytes", len(raw)))

	return resultFromResponse(&parsed)
}

// resultFromResponse validates the wire contract shared by the NLP service
// and the Gemini scorer.
func resultFromResponse(parsed *scoringResponse) (*domain.MatchResult, error) {
	if parsed.AtsScorePercent == nil {
		return nil, fmt.Errorf("%w: missing ats_score_percent", domain.ErrScoringMalformed)
	}
	score := *parsed.AtsScorePercent
	if score < 0 || score > 100 {
		return nil, fmt.Errorf("%w: ats_score_percent %d out of range", domain.ErrScoringMalformed, score)
	}
	if strings.TrimSpace(parsed.Summary) == "" {
		return nil, fmt.Errorf("%w: missing summary", domain.ErrScoringMalformed)
	}

	result := &domain.MatchResult{
		AtsScorePercent: score,
		Summary:         parsed.Summary,
		WhatMatched:     domain.MatchedItems(parsed.WhatMatched),
		WhatIsMissing:   domain.MissingItems(parsed.WhatIsMissing),
	}
	if result.WhatMatched == nil {
		result.WhatMatched = domain.MatchedItems{}
	}
	if result.WhatIsMissing == nil {
		result.WhatIsMissing = domain.MissingItems{}
	}
	return result, nil
}
