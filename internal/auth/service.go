package auth

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/rs/zerolog/log"

	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/entities"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,64}$`)

var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid username or password", catalog.ErrPermission)
	ErrAuthRequired       = fmt.Errorf("%w: authentication required", catalog.ErrPermission)
	ErrAdminRequired      = fmt.Errorf("%w: administrator account required", catalog.ErrPermission)
	ErrUsernameInvalid    = fmt.Errorf("%w: username must be 3-64 characters, alphanumeric and underscore/hyphen only", catalog.ErrValidation)
	ErrPasswordRequired   = fmt.Errorf("%w: password is required", catalog.ErrValidation)
)

// UserRepository defines the account storage the service depends on.
type UserRepository interface {
	CreateUser(username, passwordHash string, isAdmin bool) (*entities.User, error)
	GetUserByID(id uint) (*entities.User, error)
	GetUserByUsername(username string) (*entities.User, error)
	SetPasswordHash(id uint, passwordHash string) error
	DeleteUser(id uint) error
}

// Service checks credentials and manages accounts.
type Service struct {
	users  UserRepository
	config config.Auth
}

// NewService creates a new authentication service.
func NewService(users UserRepository, cfg config.Auth) *Service {
	if cfg.BcryptCost <= 0 {
		cfg.BcryptCost = 12
	}
	return &Service{
		users:  users,
		config: cfg,
	}
}

// CreateUser validates the username and password and stores a new account.
func (s *Service) CreateUser(username, password string, isAdmin bool) (*entities.User, error) {
	if !usernamePattern.MatchString(username) {
		return nil, ErrUsernameInvalid
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}

	hash, err := s.hash(password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.CreateUser(username, hash, isAdmin)
	if err != nil {
		return nil, err
	}

	log.Info().Str("username", username).Bool("admin", isAdmin).Msg("Created account")
	return user, nil
}

// Authenticate returns the account whose credentials match. Unknown
// usernames and wrong passwords both yield ErrInvalidCredentials.
func (s *Service) Authenticate(username, password string) (*entities.User, error) {
	user, err := s.users.GetUserByUsername(username)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if NeedsRehash(user.PasswordHash, s.config.BcryptCost) {
		if err := s.SetPassword(user.ID, password); err != nil {
			log.Warn().Err(err).Str("username", username).Msg("Failed to rehash password")
		} else {
			log.Info().Str("username", username).Msg("Password rehashed with the configured cost")
		}
	}
	return user, nil
}

// Verify reports whether username and password identify an account.
func (s *Service) Verify(username, password string) bool {
	_, err := s.Authenticate(username, password)
	return err == nil
}

// IsAdmin reports whether the account holds administrative rights.
func (s *Service) IsAdmin(userID uint) (bool, error) {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return false, err
	}
	return user.IsAdmin, nil
}

func (s *Service) GetUserByID(userID uint) (*entities.User, error) {
	return s.users.GetUserByID(userID)
}

// SetPassword replaces an account's password.
func (s *Service) SetPassword(userID uint, password string) error {
	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	return s.users.SetPasswordHash(userID, hash)
}

// DeleteUser removes an account. Authors it verified move to the
// administrative account.
func (s *Service) DeleteUser(userID uint) error {
	return s.users.DeleteUser(userID)
}

// EnsureAdminPassword sets the configured password on the administrative
// account when one is configured and it does not already match.
func (s *Service) EnsureAdminPassword() error {
	if s.config.AdminPassword == "" {
		return nil
	}

	admin, err := s.users.GetUserByID(entities.AdminAccountID)
	if err != nil {
		return err
	}
	if CheckPassword(s.config.AdminPassword, admin.PasswordHash) == nil {
		return nil
	}

	if err := s.SetPassword(admin.ID, s.config.AdminPassword); err != nil {
		return fmt.Errorf("set admin password: %w", err)
	}
	log.Info().Str("username", admin.Username).Msg("Administrator password updated from configuration")
	return nil
}

func (s *Service) hash(password string) (string, error) {
	return HashPassword(password, s.config.BcryptCost)
}
