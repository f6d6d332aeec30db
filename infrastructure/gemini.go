package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"intellimatch/domain"
)

const (
	defaultGeminiModel = "gemini-2.5-flash"
	maxDocumentBytes   = 16 << 20
)

const scoringPrompt = `You are an expert ATS (applicant tracking system) analyst.
The first attached document is a candidate's resume, the second is a job description.
Compare them and respond with ONLY a JSON object in exactly this shape, no markdown, no extra text:
{
  "ats_score_percent": <integer 0-100>,
  "summary": "<two or three sentences on overall fit>",
  "what_matched": [{"item": "<requirement>", "reason": "<why the resume satisfies it>"}],
  "what_is_missing": [{"item": "<requirement>", "recommendation": "<how to close the gap>"}]
}`

// GeminiScorer scores a match by prompting Gemini directly with both
// documents, producing the same wire contract as the external analysis
// service. It exists for deployments without a standalone NLP service and
// is selected with SCORER=gemini.
type GeminiScorer struct {
	client     *genai.Client
	model      string
	HTTPClient *http.Client
	logger     *zap.Logger
}

// NewGeminiScorer creates a scorer backed by the Gemini API.
func NewGeminiScorer(ctx context.Context, apiKey, model string, logger *zap.Logger) (*GeminiScorer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultGeminiModel
	}

	return &GeminiScorer{
		client: client,
		model:  model,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}, nil
}

func (g *GeminiScorer) Score(ctx context.Context, resumeURL, jobDescriptionURL string) (*domain.MatchResult, error) {
	resume, resumeType, err := g.fetch(ctx, resumeURL)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch resume: %v", domain.ErrScoringUnavailable, err)
	}
	jd, jdType, err := g.fetch(ctx, jobDescriptionURL)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch job description: %v", domain.ErrScoringUnavailable, err)
	}

	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{Text: scoringPrompt},
			{InlineData: &genai.Blob{MIMEType: resumeType, Data: resume}},
			{InlineData: &genai.Blob{MIMEType: jdType, Data: jd}},
		},
	}}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: generate content: %v", domain.ErrScoringUnavailable, err)
	}

	raw := collectText(resp)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty model response", domain.ErrScoringMalformed)
	}

	g.logger.Debug("gemini scoring response",
		zap.String("model", g.model),
		zap.Int("response_length", len(raw)))

	return parseScoringJSON(raw)
}

// fetch downloads a stored document by its locator.
func (g *GeminiScorer) fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, "", err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return data, contentType, nil
}

func collectText(resp *genai.GenerateContentResponse) string {
	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}
	return strings.TrimSpace(builder.String())
}

// parseScoringJSON strips any markdown code fence the model wrapped around
// its output and decodes the shared scoring contract.
func parseScoringJSON(raw string) (*domain.MatchResult, error) {
	var parsed scoringResponse
	if err := json.Unmarshal([]byte(extractJSON(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrScoringMalformed, err)
	}
	return resultFromResponse(&parsed)
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	return strings.TrimSpace(strings.Trim(raw, "`"))
}
