// Package users provides database operations for accounts.
//
// Account 1 is the administrative account authors are owned by until
// ownership is verified; it is seeded at startup and cannot be deleted.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.GetUserByUsername("admin")
package users

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/entities"
)

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser creates an account with an already hashed password.
func (r *Repository) CreateUser(username, passwordHash string, isAdmin bool) (*entities.User, error) {
	user := &entities.User{
		Username:     username,
		PasswordHash: passwordHash,
		IsAdmin:      isAdmin,
	}

	err := database.Atomically(r.db, "create user", func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entities.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("user %q: %w", username, catalog.ErrDuplicate)
		}
		return tx.Create(user).Error
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(id uint) (*entities.User, error) {
	var user entities.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, database.Classify(err, catalog.ErrAccountNotFound)
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by username.
func (r *Repository) GetUserByUsername(username string) (*entities.User, error) {
	var user entities.User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, database.Classify(err, catalog.ErrAccountNotFound)
	}
	return &user, nil
}

// ListUsers retrieves all accounts ordered by ID.
func (r *Repository) ListUsers() ([]entities.User, error) {
	var users []entities.User
	err := r.db.Order("id ASC").Find(&users).Error
	return users, database.Classify(err, catalog.ErrAccountNotFound)
}

func (r *Repository) SetPasswordHash(id uint, passwordHash string) error {
	res := r.db.Model(&entities.User{}).Where("id = ?", id).Update("password_hash", passwordHash)
	if res.Error != nil {
		return database.Classify(res.Error, catalog.ErrAccountNotFound)
	}
	if res.RowsAffected == 0 {
		return catalog.ErrAccountNotFound
	}
	return nil
}

// DeleteUser removes an account. Authors it owned fall back to the
// administrative account in the same transaction.
func (r *Repository) DeleteUser(id uint) error {
	if id == entities.AdminAccountID {
		return catalog.ErrProtectedOwner
	}
	return database.Atomically(r.db, "delete user", func(tx *gorm.DB) error {
		if err := tx.Model(&entities.Author{}).Where("verified_owner_id = ?", id).
			Update("verified_owner_id", entities.AdminAccountID).Error; err != nil {
			return err
		}
		res := tx.Delete(&entities.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return catalog.ErrAccountNotFound
		}
		return nil
	})
}
