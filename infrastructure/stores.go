package infrastructure

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"intellimatch/domain"
)

// MatchStore is the MySQL-backed domain.MatchStore.
type MatchStore struct{ db *gorm.DB }

func NewMatchStore(db *gorm.DB) *MatchStore { return &MatchStore{db: db} }

func (s *MatchStore) Create(ctx context.Context, m *domain.ResumeMatch) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return s.db.WithContext(ctx).Create(m).Error
}

func (s *MatchStore) Get(ctx context.Context, id string) (*domain.ResumeMatch, error) {
	var m domain.ResumeMatch
	if err := s.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (s *MatchStore) ListByUser(ctx context.Context, userID string) ([]domain.ResumeMatch, error) {
	var out []domain.ResumeMatch
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (s *MatchStore) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]domain.ResumeMatch, error) {
	var out []domain.ResumeMatch
	err := s.db.WithContext(ctx).
		Where("match_result_id IS NULL AND created_at < ?", cutoff).
		Find(&out).Error
	return out, err
}

func (s *MatchStore) SetResult(ctx context.Context, matchID, resultID string) error {
	res := s.db.WithContext(ctx).
		Model(&domain.ResumeMatch{}).
		Where("id = ?", matchID).
		Update("match_result_id", resultID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a match record. A missing row is not an error, so the
// purge path stays idempotent.
func (s *MatchStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&domain.ResumeMatch{}, "id = ?", id).Error
}

// ResultStore is the MySQL-backed domain.ResultStore.
type ResultStore struct{ db *gorm.DB }

func NewResultStore(db *gorm.DB) *ResultStore { return &ResultStore{db: db} }

func (s *ResultStore) Create(ctx context.Context, r *domain.MatchResult) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return s.db.WithContext(ctx).Create(r).Error
}

func (s *ResultStore) Get(ctx context.Context, id string) (*domain.MatchResult, error) {
	var r domain.MatchResult
	if err := s.db.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (s *ResultStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&domain.MatchResult{}, "id = ?", id).Error
}

// UserStore is the MySQL-backed domain.UserStore.
type UserStore struct{ db *gorm.DB }

func NewUserStore(db *gorm.DB) *UserStore { return &UserStore{db: db} }

func (s *UserStore) Create(ctx context.Context, u *domain.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return s.db.WithContext(ctx).Create(u).Error
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	if err := s.db.WithContext(ctx).First(&u, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
