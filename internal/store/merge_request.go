package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-mergegate/mergegate/internal/models"

	"gorm.io/gorm"
)

// GetMergeRequest retrieves a merge request by id
func (s *Store) GetMergeRequest(id string) (*models.MergeRequest, error) {
	var req models.MergeRequest
	if err := s.db.Where("id = ?", id).First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &req, nil
}

// FindActiveMergeRequest returns the active request for (email, platform),
// or ErrRecordNotFound when none exists.
func (s *Store) FindActiveMergeRequest(
	email, sourcePlatform string,
) (*models.MergeRequest, error) {
	var req models.MergeRequest
	err := s.db.Where(
		"email = ? AND source_platform = ? AND status IN ?",
		email, sourcePlatform, models.ActiveStatuses,
	).First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &req, nil
}

// CreateMergeRequest inserts a new merge request, guarding the
// one-active-request-per-(email, source platform) invariant. An earlier
// submission holding an active request is caught by the check inside the
// transaction; a concurrent one that commits between the check and the
// insert trips the partial unique index instead. Either way the existing
// row is returned with ErrDuplicateActiveRequest.
func (s *Store) CreateMergeRequest(
	req *models.MergeRequest,
) (*models.MergeRequest, error) {
	var existing *models.MergeRequest

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var found models.MergeRequest
		err := tx.Where(
			"email = ? AND source_platform = ? AND status IN ?",
			req.Email, req.SourcePlatform, models.ActiveStatuses,
		).First(&found).Error

		if err == nil {
			existing = &found
			return ErrDuplicateActiveRequest
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check active merge requests: %w", err)
		}

		return tx.Create(req).Error
	})

	if errors.Is(err, ErrDuplicateActiveRequest) {
		return existing, ErrDuplicateActiveRequest
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Lost the insert race; the winner's row is committed by now.
		if found, ferr := s.FindActiveMergeRequest(req.Email, req.SourcePlatform); ferr == nil {
			return found, ErrDuplicateActiveRequest
		}
		return nil, ErrDuplicateActiveRequest
	}
	return req, err
}

// DecisionUpdate carries the fields an admin decision writes.
type DecisionUpdate struct {
	Status       models.MergeStatus
	ReviewedBy   string
	AdminNote    string
	TargetUserID string
}

// DecideMergeRequest applies an admin decision to a pending request. The
// status predicate makes the update a compare-and-swap: when a concurrent
// decision already moved the row out of pending, 0 rows are updated and
// ErrAlreadyDecided is returned.
func (s *Store) DecideMergeRequest(id string, update DecisionUpdate) error {
	now := time.Now()
	values := map[string]any{
		"status":      update.Status,
		"reviewed_by": update.ReviewedBy,
		"reviewed_at": &now,
		"admin_note":  update.AdminNote,
	}
	if update.TargetUserID != "" {
		values["target_user_id"] = update.TargetUserID
	}

	result := s.db.Model(&models.MergeRequest{}).
		Where("id = ? AND status = ?", id, models.MergeStatusPending).
		Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAlreadyDecided
	}
	return nil
}

// MarkWebhookSent records a successful webhook delivery for the request
func (s *Store) MarkWebhookSent(id string) error {
	now := time.Now()
	return s.db.Model(&models.MergeRequest{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"webhook_sent":    true,
			"webhook_sent_at": &now,
		}).Error
}

// UpdateProvisionStatus updates the password-set sub-state of an
// auto-provisioned request
func (s *Store) UpdateProvisionStatus(
	id string,
	status models.ProvisionStatus,
) error {
	return s.db.Model(&models.MergeRequest{}).
		Where("id = ?", id).
		Update("provision_status", status).Error
}

// MergeRequestFilters contains filter criteria for listing merge requests
type MergeRequestFilters struct {
	Status         models.MergeStatus
	SourcePlatform string
	MergeType      models.MergeType
}

// ListMergeRequestsPaginated returns merge requests for the review queue,
// newest first
func (s *Store) ListMergeRequestsPaginated(
	params PaginationParams,
	filters MergeRequestFilters,
) ([]models.MergeRequest, PaginationResult, error) {
	query := s.db.Model(&models.MergeRequest{})

	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.SourcePlatform != "" {
		query = query.Where("source_platform = ?", filters.SourcePlatform)
	}
	if filters.MergeType != "" {
		query = query.Where("merge_type = ?", filters.MergeType)
	}
	if params.Search != "" {
		query = query.Where("email LIKE ?", "%"+params.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, PaginationResult{}, err
	}

	var requests []models.MergeRequest
	offset := (params.Page - 1) * params.PageSize
	err := query.Order("created_at DESC").
		Offset(offset).
		Limit(params.PageSize).
		Find(&requests).Error
	if err != nil {
		return nil, PaginationResult{}, err
	}

	return requests, CalculatePagination(total, params.Page, params.PageSize), nil
}

// CountMergeRequestsByStatus returns the number of requests in a status
func (s *Store) CountMergeRequestsByStatus(status models.MergeStatus) (int64, error) {
	var count int64
	err := s.db.Model(&models.MergeRequest{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}
