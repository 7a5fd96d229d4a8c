package store

import (
	"errors"
	"time"

	"github.com/go-mergegate/mergegate/internal/models"

	"gorm.io/gorm"
)

// CreatePendingProvision inserts a new pending provision row
func (s *Store) CreatePendingProvision(p *models.PendingProvision) error {
	return s.db.Create(p).Error
}

// GetPendingProvisionByTokenHash looks up a pending provision by the hash
// of a presented password-set token
func (s *Store) GetPendingProvisionByTokenHash(
	tokenHash string,
) (*models.PendingProvision, error) {
	var p models.PendingProvision
	err := s.db.Where("password_token_hash = ?", tokenHash).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ConsumePendingProvision transitions a pending provision to completed.
// The status predicate prevents a token from being consumed twice under
// concurrent verification (0 rows updated means it was already consumed
// or expired by the sweeper).
func (s *Store) ConsumePendingProvision(id string) error {
	result := s.db.Model(&models.PendingProvision{}).
		Where("id = ? AND status = ?", id, models.PendingProvisionPending).
		Update("status", models.PendingProvisionCompleted)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProvisionConsumed
	}
	return nil
}

// ExpirePendingProvisions marks stale pending rows as expired and returns
// how many were transitioned. Run periodically by the sweeper job.
func (s *Store) ExpirePendingProvisions(now time.Time) (int64, error) {
	result := s.db.Model(&models.PendingProvision{}).
		Where("status = ? AND token_expires_at < ?", models.PendingProvisionPending, now).
		Update("status", models.PendingProvisionExpired)
	return result.RowsAffected, result.Error
}
