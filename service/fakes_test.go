package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"intellimatch/domain"
)

// ── Fakes ──────────────────────────────────────────────────────────────────

type fakeBlobs struct {
	objects   map[string][]byte
	putCalls  int
	failPutOn int // 1-based Put call to fail, 0 = never
	failDelete bool
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: map[string][]byte{}}
}

func (f *fakeBlobs) Put(_ context.Context, folder, filename, _ string, data []byte) (string, error) {
	f.putCalls++
	if f.failPutOn == f.putCalls {
		return "", errors.New("blob backend unavailable")
	}
	locator := "http://blobs.local/files/" + folder + "/" + filename
	f.objects[locator] = data
	return locator, nil
}

func (f *fakeBlobs) Delete(_ context.Context, locator string) error {
	if f.failDelete {
		return errors.New("blob delete failed")
	}
	delete(f.objects, locator)
	return nil
}

type fakeMatches struct {
	records       map[string]*domain.ResumeMatch
	seq           int
	failCreate    bool
	failSetResult bool
}

func newFakeMatches() *fakeMatches {
	return &fakeMatches{records: map[string]*domain.ResumeMatch{}}
}

func (f *fakeMatches) Create(_ context.Context, m *domain.ResumeMatch) error {
	if f.failCreate {
		return errors.New("insert failed")
	}
	if m.ID == "" {
		f.seq++
		m.ID = fmt.Sprintf("match-%d", f.seq)
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	clone := *m
	f.records[m.ID] = &clone
	return nil
}

func (f *fakeMatches) Get(_ context.Context, id string) (*domain.ResumeMatch, error) {
	m, ok := f.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *m
	return &clone, nil
}

func (f *fakeMatches) ListByUser(_ context.Context, userID string) ([]domain.ResumeMatch, error) {
	var out []domain.ResumeMatch
	for _, m := range f.records {
		if m.UserID == userID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeMatches) ListPendingBefore(_ context.Context, cutoff time.Time) ([]domain.ResumeMatch, error) {
	var out []domain.ResumeMatch
	for _, m := range f.records {
		if m.MatchResultID == nil && m.CreatedAt.Before(cutoff) {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeMatches) SetResult(_ context.Context, matchID, resultID string) error {
	if f.failSetResult {
		return errors.New("update failed")
	}
	m, ok := f.records[matchID]
	if !ok {
		return domain.ErrNotFound
	}
	m.MatchResultID = &resultID
	return nil
}

func (f *fakeMatches) Delete(_ context.Context, id string) error {
	delete(f.records, id)
	return nil
}

type fakeResults struct {
	records    map[string]*domain.MatchResult
	seq        int
	failCreate bool
	failDelete bool
}

func newFakeResults() *fakeResults {
	return &fakeResults{records: map[string]*domain.MatchResult{}}
}

func (f *fakeResults) Create(_ context.Context, r *domain.MatchResult) error {
	if f.failCreate {
		return errors.New("insert failed")
	}
	if r.ID == "" {
		f.seq++
		r.ID = fmt.Sprintf("result-%d", f.seq)
	}
	clone := *r
	f.records[r.ID] = &clone
	return nil
}

func (f *fakeResults) Get(_ context.Context, id string) (*domain.MatchResult, error) {
	r, ok := f.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *r
	return &clone, nil
}

func (f *fakeResults) Delete(_ context.Context, id string) error {
	if f.failDelete {
		return errors.New("delete failed")
	}
	delete(f.records, id)
	return nil
}

type fakeScorer struct {
	result *domain.MatchResult
	err    error
	calls  int
}

func (f *fakeScorer) Score(_ context.Context, _, _ string) (*domain.MatchResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	clone := *f.result
	return &clone, nil
}

// syncQueue runs the analysis task inline when process is true, so tests
// observe task completion deterministically. With process false it only
// records the enqueue, leaving the match pending.
type syncQueue struct {
	svc      *MatchService
	process  bool
	err      error
	enqueued []string
}

func (q *syncQueue) Enqueue(ctx context.Context, matchID string) error {
	if q.err != nil {
		return q.err
	}
	q.enqueued = append(q.enqueued, matchID)
	if q.process {
		q.svc.ProcessMatch(ctx, matchID)
	}
	return nil
}

// ── Fixture ────────────────────────────────────────────────────────────────

type fixture struct {
	blobs   *fakeBlobs
	matches *fakeMatches
	results *fakeResults
	scorer  *fakeScorer
	queue   *syncQueue
	svc     *MatchService
}

func newFixture(process bool) *fixture {
	f := &fixture{
		blobs:   newFakeBlobs(),
		matches: newFakeMatches(),
		results: newFakeResults(),
		scorer: &fakeScorer{result: &domain.MatchResult{
			AtsScorePercent: 87,
			Summary:         "Strong match for the role.",
			WhatMatched:     domain.MatchedItems{{Item: "Go", Reason: "5 years of backend Go"}},
			WhatIsMissing:   domain.MissingItems{{Item: "Kubernetes", Recommendation: "Add cluster operations experience"}},
		}},
		queue: &syncQueue{process: process},
	}
	f.svc = NewMatchService(f.blobs, f.scorer, f.matches, f.results, f.queue, zap.NewNop())
	f.queue.svc = f.svc
	return f
}

func (f *fixture) submit(ctx context.Context) (*domain.ResumeMatch, error) {
	return f.svc.Submit(ctx, "u1",
		Document{Name: "resume.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4 resume")},
		Document{Name: "jd.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4 jd")},
	)
}
