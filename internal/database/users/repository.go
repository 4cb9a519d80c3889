// Package users provides database operations for account management.
package users

import (
	"errors"

	"gorm.io/gorm"

	"github.com/mrlokans/library-manager/internal/database"
	"github.com/mrlokans/library-manager/internal/entities"
)

// ErrSelfDelete is returned when an admin tries to delete their own account.
var ErrSelfDelete = errors.New("cannot delete your own account")

// Repository handles all user database operations. Creating accounts goes
// through the auth service so that password hashing and validation happen in
// one place.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(id uint) (*entities.User, error) {
	var user entities.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, database.TranslateError(err)
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by username.
func (r *Repository) GetUserByUsername(username string) (*entities.User, error) {
	var user entities.User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, database.TranslateError(err)
	}
	return &user, nil
}

// GetAllUsers lists every account ordered by username.
func (r *Repository) GetAllUsers() ([]entities.User, error) {
	var users []entities.User
	err := r.db.Order("username ASC").Find(&users).Error
	return users, database.TranslateError(err)
}

// CountUsers returns the number of registered accounts.
func (r *Repository) CountUsers() (int64, error) {
	var count int64
	err := r.db.Model(&entities.User{}).Count(&count).Error
	return count, database.TranslateError(err)
}

// DeleteUser removes an account. The acting admin may not remove themselves
// through this path.
func (r *Repository) DeleteUser(id, actingUserID uint) error {
	if id == actingUserID {
		return ErrSelfDelete
	}
	result := r.db.Delete(&entities.User{}, id)
	if result.Error != nil {
		return database.TranslateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return database.ErrNotFound
	}
	return nil
}
