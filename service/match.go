// Package service contains the transport-agnostic business logic: the match
// orchestrator, the history projector, the reconciliation sweep and the user
// account glue. It depends only on the ports declared in domain and can be
// driven by any transport layer.
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"intellimatch/domain"
)

// TaskQueue schedules the detached analysis task for a match id. The caller
// of Submit never waits for the task; completion is observed through the
// match record. Production uses RabbitMQ, tests inject a synchronous queue.
type TaskQueue interface {
	Enqueue(ctx context.Context, matchID string) error
}

// Document is one uploaded file passed to Submit.
type Document struct {
	Name        string
	ContentType string
	Data        []byte
}

// MatchService orchestrates the match-analysis pipeline across blob storage,
// the record stores and the scoring service, keeping them mutually
// consistent through compensating cleanup.
type MatchService struct {
	blobs   domain.BlobStore
	scorer  domain.Scorer
	matches domain.MatchStore
	results domain.ResultStore
	queue   TaskQueue
	logger  *zap.Logger
}

// NewMatchService returns a configured MatchService.
func NewMatchService(
	blobs domain.BlobStore,
	scorer domain.Scorer,
	matches domain.MatchStore,
	results domain.ResultStore,
	queue TaskQueue,
	logger *zap.Logger,
) *MatchService {
	return &MatchService{
		blobs:   blobs,
		scorer:  scorer,
		matches: matches,
		results: results,
		queue:   queue,
		logger:  logger,
	}
}

// Submit uploads both documents, persists the match record in a pending
// state and schedules the detached analysis task. It returns as soon as the
// record exists; it never blocks on scoring.
//
// Failure of either upload aborts before any record is persisted. Failure of
// the record write deletes the just-uploaded blobs. These are the only
// failure paths visible to the caller.
func (s *MatchService) Submit(ctx context.Context, userID string, resume, jobDescription Document) (*domain.ResumeMatch, error) {
	if userID == "" {
		return nil, &domain.ValidationError{Msg: "user id is required"}
	}
	if len(resume.Data) == 0 {
		return nil, &domain.ValidationError{Msg: "resume file must not be empty"}
	}
	if len(jobDescription.Data) == 0 {
		return nil, &domain.ValidationError{Msg: "job description file must not be empty"}
	}

	resumeURL, err := s.blobs.Put(ctx, "resumes", resume.Name, resume.ContentType, resume.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: resume: %v", domain.ErrUpload, err)
	}

	jdURL, err := s.blobs.Put(ctx, "job-descriptions", jobDescription.Name, jobDescription.ContentType, jobDescription.Data)
	if err != nil {
		s.deleteBlob(ctx, resumeURL)
		return nil, fmt.Errorf("%w: job description: %v", domain.ErrUpload, err)
	}

	match := &domain.ResumeMatch{
		UserID:             userID,
		ResumeName:         resume.Name,
		JobDescriptionName: jobDescription.Name,
		ResumeURL:          resumeURL,
		JobDescriptionURL:  jdURL,
	}
	if err := s.matches.Create(ctx, match); err != nil {
		s.deleteBlob(ctx, resumeURL)
		s.deleteBlob(ctx, jdURL)
		return nil, fmt.Errorf("%w: %v", domain.ErrRecordPersist, err)
	}

	if err := s.queue.Enqueue(ctx, match.ID); err != nil {
		// The upload is kept. Resolve the submission into a failure outcome
		// right away so it cannot stay pending with no task behind it.
		s.logger.Error("enqueue analysis task",
			zap.String("match_id", match.ID), zap.Error(err))
		s.recordFailure(ctx, match, fmt.Errorf("schedule analysis: %w", err))
	}

	return match, nil
}

// ProcessMatch runs the analysis task for the given match id. It never
// returns an error: every failure is resolved into a terminal state, either
// a linked failure result or, as the last resort, a full purge.
func (s *MatchService) ProcessMatch(ctx context.Context, matchID string) {
	log := s.logger.With(zap.String("match_id", matchID))

	match, err := s.matches.Get(ctx, matchID)
	if err != nil {
		log.Warn("analysis task: load match", zap.Error(err))
		return
	}
	if !match.Pending() {
		// Already resolved; the orchestrator never runs two tasks for one id.
		log.Debug("analysis task: match already resolved")
		return
	}

	result, err := s.scorer.Score(ctx, match.ResumeURL, match.JobDescriptionURL)
	if err != nil {
		log.Warn("scoring failed", zap.Error(err))
		s.recordFailure(ctx, match, err)
		return
	}

	if err := s.results.Create(ctx, result); err != nil {
		log.Error("persist match result", zap.Error(err))
		s.recordFailure(ctx, match, fmt.Errorf("persist result: %w", err))
		return
	}
	if err := s.matches.SetResult(ctx, match.ID, result.ID); err != nil {
		log.Error("link match result", zap.Error(err))
		// A scored result must not be left unreferenced.
		if delErr := s.results.Delete(ctx, result.ID); delErr != nil {
			log.Error("delete unreferenced result, manual remediation required",
				zap.String("result_id", result.ID), zap.Error(delErr))
		}
		s.recordFailure(ctx, match, fmt.Errorf("link result: %w", err))
		return
	}

	log.Info("analysis completed",
		zap.String("result_id", result.ID),
		zap.Int("score", result.AtsScorePercent))
}

// Cleanup re-runs the purge path for a known match id. Idempotent: a match
// that is already gone is a no-op, and deleting already-deleted blobs or
// records is not an error.
func (s *MatchService) Cleanup(ctx context.Context, matchID string) error {
	match, err := s.matches.Get(ctx, matchID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	s.purge(ctx, match)
	return nil
}

// recordFailure resolves a failed analysis into a terminal state. The
// user's upload is preserved and linked to a zero-score result carrying the
// failure summary; only when even that write fails does it escalate to a
// full purge.
func (s *MatchService) recordFailure(ctx context.Context, match *domain.ResumeMatch, cause error) {
	failed := &domain.MatchResult{
		AtsScorePercent: 0,
		Summary:         "Analysis failed: " + cause.Error() + ". Please try uploading again or contact support.",
		WhatMatched:     domain.MatchedItems{},
		WhatIsMissing:   domain.MissingItems{},
	}
	if err := s.results.Create(ctx, failed); err != nil {
		s.logger.Error("persist failure result",
			zap.String("match_id", match.ID), zap.Error(err))
		s.purge(ctx, match)
		return
	}
	if err := s.matches.SetResult(ctx, match.ID, failed.ID); err != nil {
		s.logger.Error("link failure result",
			zap.String("match_id", match.ID), zap.Error(err))
		if delErr := s.results.Delete(ctx, failed.ID); delErr != nil {
			s.logger.Error("delete unlinked failure result, manual remediation required",
				zap.String("result_id", failed.ID), zap.Error(delErr))
		}
		s.purge(ctx, match)
		return
	}

	match.MatchResultID = &failed.ID
	s.logger.Info("recorded failure result",
		zap.String("match_id", match.ID), zap.String("result_id", failed.ID))
}

// purge deletes both blobs, any linked result and the match record. Each
// deletion is attempted independently; a failure does not abort the others
// and is logged as requiring manual remediation, never retried here.
// Ownership lives on the record itself, so deleting it also removes the
// user's reference.
func (s *MatchService) purge(ctx context.Context, match *domain.ResumeMatch) {
	log := s.logger.With(zap.String("match_id", match.ID))

	if err := s.blobs.Delete(ctx, match.ResumeURL); err != nil {
		log.Error("cleanup: delete resume blob, manual remediation required",
			zap.String("locator", match.ResumeURL), zap.Error(err))
	}
	if err := s.blobs.Delete(ctx, match.JobDescriptionURL); err != nil {
		log.Error("cleanup: delete job description blob, manual remediation required",
			zap.String("locator", match.JobDescriptionURL), zap.Error(err))
	}
	if match.MatchResultID != nil {
		if err := s.results.Delete(ctx, *match.MatchResultID); err != nil {
			log.Error("cleanup: delete match result, manual remediation required",
				zap.String("result_id", *match.MatchResultID), zap.Error(err))
		}
	}
	if err := s.matches.Delete(ctx, match.ID); err != nil {
		log.Error("cleanup: delete match record, manual remediation required", zap.Error(err))
	}
}

func (s *MatchService) deleteBlob(ctx context.Context, locator string) {
	if err := s.blobs.Delete(ctx, locator); err != nil {
		s.logger.Error("rollback: delete blob, manual remediation required",
			zap.String("locator", locator), zap.Error(err))
	}
}
