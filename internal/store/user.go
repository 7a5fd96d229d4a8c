package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-mergegate/mergegate/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Hub account operations. Single indexed equality lookup by email; the
// engine never scans the user directory.

// GetUserByEmail finds a Hub account by normalized email address
func (s *Store) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByID finds a Hub account by id
func (s *Store) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &user, nil
}

// CreateUser creates a new Hub account. A unique-index violation on email
// is surfaced as ErrEmailConflict.
func (s *Store) CreateUser(user *models.User) error {
	if err := s.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEmailConflict
		}
		return err
	}
	return nil
}

// UpdateUser updates an existing Hub account
func (s *Store) UpdateUser(user *models.User) error {
	return s.db.Save(user).Error
}

// DeleteUser deletes a Hub account by id. Only used to roll back a
// half-finished auto-provisioning.
func (s *Store) DeleteUser(id string) error {
	return s.db.Delete(&models.User{}, "id = ?", id).Error
}

// SetUserPassword stores a new password hash for the account
func (s *Store) SetUserPassword(id, passwordHash string) error {
	return s.db.Model(&models.User{}).
		Where("id = ?", id).
		Update("password_hash", passwordHash).Error
}

// UpdateProfileLedger adds or replaces the connection ledger entry for a
// partner platform and recomputes the connected-platform count.
func (s *Store) UpdateProfileLedger(
	userID, sourcePlatform string,
	link models.PlatformLink,
) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where("id = ?", userID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRecordNotFound
			}
			return err
		}

		if user.ConnectedPlatforms == nil {
			user.ConnectedPlatforms = make(models.PlatformLedger)
		}
		user.ConnectedPlatforms[sourcePlatform] = link
		user.PlatformCount = len(user.ConnectedPlatforms)

		if err := tx.Save(&user).Error; err != nil {
			return fmt.Errorf("failed to update profile ledger: %w", err)
		}
		return nil
	})
}

// UpsertPlatformSnapshot stores the latest partner payload for a
// (Hub user, partner client) pair; shallow merge over any existing data.
func (s *Store) UpsertPlatformSnapshot(
	userID, clientID string,
	data models.PlatformData,
) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var snapshot models.PlatformSnapshot
		err := tx.Where("user_id = ? AND client_id = ?", userID, clientID).
			First(&snapshot).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			snapshot = models.PlatformSnapshot{
				ID:       uuid.New().String(),
				UserID:   userID,
				ClientID: clientID,
				Data:     data,
			}
			return tx.Create(&snapshot).Error
		}
		if err != nil {
			return err
		}

		if snapshot.Data == nil {
			snapshot.Data = make(models.PlatformData)
		}
		for k, v := range data {
			snapshot.Data[k] = v
		}
		snapshot.UpdatedAt = time.Now()
		return tx.Save(&snapshot).Error
	})
}

// GetPlatformSnapshot retrieves the stored payload for a (user, client) pair
func (s *Store) GetPlatformSnapshot(
	userID, clientID string,
) (*models.PlatformSnapshot, error) {
	var snapshot models.PlatformSnapshot
	err := s.db.Where("user_id = ? AND client_id = ?", userID, clientID).
		First(&snapshot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &snapshot, nil
}
