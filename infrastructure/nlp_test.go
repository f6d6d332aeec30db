package infrastructure

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"intellimatch/domain"
)

func TestNLPClientScoreSuccess(t *testing.T) {
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"ats_score_percent": 72,
			"summary": "Decent fit overall.",
			"what_matched": [{"item": "Go", "reason": "Listed as primary language"}],
			"what_is_missing": [{"item": "SQL", "recommendation": "Mention database work"}]
		}`))
	}))
	defer srv.Close()

	client := NewNLPClient(srv.URL, zap.NewNop())
	result, err := client.Score(context.Background(), "http://blobs/r.pdf", "http://blobs/jd.pdf")
	require.NoError(t, err)

	assert.Equal(t, "http://blobs/r.pdf", gotBody["resumeUrl"])
	assert.Equal(t, "http://blobs/jd.pdf", gotBody["jobDescriptionUrl"])
	assert.Equal(t, 72, result.AtsScorePercent)
	assert.Equal(t, "Decent fit overall.", result.Summary)
	require.Len(t, result.WhatMatched, 1)
	assert.Equal(t, "Go", result.WhatMatched[0].Item)
	require.Len(t, result.WhatIsMissing, 1)
	assert.Equal(t, "SQL", result.WhatIsMissing[0].Item)
}

func TestNLPClientScoreNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewNLPClient(srv.URL, zap.NewNop())
	_, err := client.Score(context.Background(), "r", "jd")
	assert.ErrorIs(t, err, domain.ErrScoringUnavailable)
}

func TestNLPClientScoreConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // nothing listening anymore

	client := NewNLPClient(srv.URL, zap.NewNop())
	_, err := client.Score(context.Background(), "r", "jd")
	assert.ErrorIs(t, err, domain.ErrScoringUnavailable)
}

func TestNLPClientScoreMalformedResponses(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"not json", `this is not json`},
		{"empty object", `{}`},
		{"missing score", `{"summary": "ok"}`},
		{"missing summary", `{"ats_score_percent": 50}`},
		{"score out of range", `{"ats_score_percent": 250, "summary": "ok"}`},
		{"negative score", `{"ats_score_percent": -1, "summary": "ok"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			client := NewNLPClient(srv.URL, zap.NewNop())
			_, err := client.Score(context.Background(), "r", "jd")
			assert.ErrorIs(t, err, domain.ErrScoringMalformed)
		})
	}
}

func TestNLPClientScoreNilItemListsBecomeEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ats_score_percent": 10, "summary": "Weak match."}`))
	}))
	defer srv.Close()

	client := NewNLPClient(srv.URL, zap.NewNop())
	result, err := client.Score(context.Background(), "r", "jd")
	require.NoError(t, err)
	assert.NotNil(t, result.WhatMatched)
	assert.NotNil(t, result.WhatIsMissing)
	assert.Empty(t, result.WhatMatched)
	assert.Empty(t, result.WhatIsMissing)
}
