package auth

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/library-manager/internal/config"
	"github.com/mrlokans/library-manager/internal/database"
	"github.com/mrlokans/library-manager/internal/entities"
)

// Validation patterns
var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,64}$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserExists       = errors.New("a user with that username or email already exists")
	ErrInvalidRole      = errors.New("invalid role")
	ErrUsernameRequired = errors.New("username is required")
	ErrEmailRequired    = errors.New("email is required")
	ErrPasswordRequired = errors.New("password is required")
	ErrAccountLocked    = errors.New("account is locked due to too many failed login attempts")
	ErrUsernameInvalid  = errors.New("username must be 3-64 characters, alphanumeric and underscore/hyphen only")
	ErrEmailInvalid     = errors.New("invalid email format")
)

// Service handles authentication and account management.
type Service struct {
	db     *gorm.DB
	config config.Auth
}

// NewService creates a new authentication service.
func NewService(db *gorm.DB, cfg config.Auth) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// ValidateAccountFields checks username, email and role without touching the
// database. It returns one error per invalid field so forms can render a
// complete list.
func ValidateAccountFields(username, email string, role entities.UserRole) []error {
	var errs []error
	if username == "" {
		errs = append(errs, ErrUsernameRequired)
	} else if !usernamePattern.MatchString(username) {
		errs = append(errs, ErrUsernameInvalid)
	}
	if email == "" {
		errs = append(errs, ErrEmailRequired)
	} else if len(email) > 254 || !emailPattern.MatchString(email) {
		// RFC 5321 caps addresses at 254 characters
		errs = append(errs, ErrEmailInvalid)
	}
	switch role {
	case entities.UserRoleAdmin, entities.UserRoleUser:
	default:
		errs = append(errs, ErrInvalidRole)
	}
	return errs
}

// CreateUser creates a new account with password authentication.
func (s *Service) CreateUser(username, email, password string, role entities.UserRole) (*entities.User, error) {
	if fieldErrs := ValidateAccountFields(username, email, role); len(fieldErrs) > 0 {
		return nil, fieldErrs[0]
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}

	// Check if user already exists
	var existing entities.User
	err := s.db.Where("username = ? OR email = ?", username, email).First(&existing).Error
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	passwordHash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
	}

	if err := s.db.Create(user).Error; err != nil {
		return nil, database.TranslateError(err)
	}

	return user, nil
}

// UpdateUser changes username, email and role of an account; a non-empty
// newPassword also rotates the password hash.
func (s *Service) UpdateUser(id uint, username, email string, role entities.UserRole, newPassword string) (*entities.User, error) {
	if fieldErrs := ValidateAccountFields(username, email, role); len(fieldErrs) > 0 {
		return nil, fieldErrs[0]
	}

	user, err := s.GetUserByID(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{
		"username": username,
		"email":    email,
		"role":     role,
	}
	if newPassword != "" {
		hash, err := HashPassword(newPassword, s.config.BcryptCost)
		if err != nil {
			return nil, err
		}
		updates["password_hash"] = hash
	}

	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		return nil, database.TranslateError(err)
	}
	return s.GetUserByID(id)
}

// Authenticate validates credentials and returns the user.
// Implements account lockout after too many failed attempts.
func (s *Service) Authenticate(username, password string) (*entities.User, error) {
	var user entities.User
	err := s.db.Where("username = ? OR email = ?", username, username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	// Check if account is locked
	if user.LockedUntil != nil && time.Now().Before(*user.LockedUntil) {
		return nil, ErrAccountLocked
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		s.recordFailedLogin(&user)
		return nil, err
	}

	// Successful login - reset failed attempts and update last login
	now := time.Now()
	s.db.Model(&user).Updates(map[string]any{
		"last_login_at":      now,
		"failed_login_count": 0,
		"locked_until":       nil,
	})

	return &user, nil
}

// recordFailedLogin increments the failed login counter and locks the
// account once the threshold is reached.
func (s *Service) recordFailedLogin(user *entities.User) {
	user.FailedLoginCount++

	updates := map[string]any{
		"failed_login_count": user.FailedLoginCount,
	}

	maxAttempts := s.config.MaxLoginAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if user.FailedLoginCount >= maxAttempts {
		lockoutDuration := s.config.LockoutDuration
		if lockoutDuration == 0 {
			lockoutDuration = 30 * time.Minute
		}
		lockedUntil := time.Now().Add(lockoutDuration)
		updates["locked_until"] = lockedUntil
	}

	s.db.Model(user).Updates(updates)
}

// GetUserByID retrieves a user by their ID.
func (s *Service) GetUserByID(id uint) (*entities.User, error) {
	var user entities.User
	err := s.db.First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// HasUsers returns true if any accounts exist in the database.
func (s *Service) HasUsers() (bool, error) {
	var count int64
	err := s.db.Model(&entities.User{}).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
