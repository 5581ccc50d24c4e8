// Package authors provides the Author Directory: author records keyed by a
// canonical (first, last) name pair.
//
// Names are canonicalized with catalog.CanonicalName before they are stored or
// compared, so "  jane  AUSTEN" resolves to the same author as "Jane Austen".
//
// # Usage
//
//	repo := authors.NewRepository(db)
//	author, err := repo.AddAuthor("jane", "austen", "")
//	same, err := repo.Resolve("Jane", "Austen")
package authors

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/entities"
)

// Repository handles all author database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new authors repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AddAuthor creates an author owned by the administrative account. The last
// name is required; the first name may be empty.
func (r *Repository) AddAuthor(firstName, lastName, biography string) (*entities.Author, error) {
	author := &entities.Author{
		FirstName:       catalog.CanonicalName(firstName),
		LastName:        catalog.CanonicalName(lastName),
		Biography:       biography,
		VerifiedOwnerID: entities.AdminAccountID,
	}
	if author.LastName == "" {
		return nil, catalog.ErrInvalidName
	}

	err := database.Atomically(r.db, "add author", func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entities.Author{}).
			Where("first_name = ? AND last_name = ?", author.FirstName, author.LastName).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("author %q: %w", author.FullName(), catalog.ErrDuplicate)
		}
		return tx.Create(author).Error
	})
	if err != nil {
		return nil, err
	}
	return author, nil
}

// GetAuthorByID retrieves an author by ID.
func (r *Repository) GetAuthorByID(id uint) (*entities.Author, error) {
	var author entities.Author
	if err := r.db.First(&author, id).Error; err != nil {
		return nil, database.Classify(err, catalog.ErrAuthorNotFound)
	}
	return &author, nil
}

// Resolve finds the author with the given name after canonicalization.
func (r *Repository) Resolve(firstName, lastName string) (*entities.Author, error) {
	var author entities.Author
	err := r.db.Where("first_name = ? AND last_name = ?",
		catalog.CanonicalName(firstName), catalog.CanonicalName(lastName)).
		First(&author).Error
	if err != nil {
		return nil, database.Classify(err, catalog.ErrAuthorNotFound)
	}
	return &author, nil
}

// Exists reports whether an author with the given ID exists.
func (r *Repository) Exists(id uint) (bool, error) {
	var count int64
	if err := r.db.Model(&entities.Author{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, database.Classify(err, catalog.ErrAuthorNotFound)
	}
	return count > 0, nil
}

// MissingIDs returns the ids that name no author, in input order.
func (r *Repository) MissingIDs(ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var found []uint
	if err := r.db.Model(&entities.Author{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return nil, database.Classify(err, catalog.ErrAuthorNotFound)
	}

	known := make(map[uint]struct{}, len(found))
	for _, id := range found {
		known[id] = struct{}{}
	}

	var missing []uint
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// ListAuthors retrieves all authors ordered by last then first name.
func (r *Repository) ListAuthors() ([]entities.Author, error) {
	var authors []entities.Author
	err := r.db.Order("last_name ASC, first_name ASC").Find(&authors).Error
	return authors, database.Classify(err, catalog.ErrAuthorNotFound)
}

// SearchAuthors searches authors by name (case-insensitive partial match).
func (r *Repository) SearchAuthors(query string) ([]entities.Author, error) {
	var authors []entities.Author
	searchPattern := database.ContainsPattern(query)
	err := r.db.Where(`LOWER(first_name) LIKE LOWER(?) ESCAPE '\' OR LOWER(last_name) LIKE LOWER(?) ESCAPE '\'`, searchPattern, searchPattern).
		Order("last_name ASC, first_name ASC").
		Find(&authors).Error
	return authors, database.Classify(err, catalog.ErrAuthorNotFound)
}

func (r *Repository) UpdateBiography(id uint, biography string) error {
	res := r.db.Model(&entities.Author{}).Where("id = ?", id).Update("biography", biography)
	if res.Error != nil {
		return database.Classify(res.Error, catalog.ErrAuthorNotFound)
	}
	if res.RowsAffected == 0 {
		return catalog.ErrAuthorNotFound
	}
	return nil
}

// SetVerifiedOwner reassigns the account that has verified ownership of an
// author record.
func (r *Repository) SetVerifiedOwner(authorID, accountID uint) error {
	return database.Atomically(r.db, "set verified owner", func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entities.User{}).Where("id = ?", accountID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return catalog.ErrAccountNotFound
		}

		res := tx.Model(&entities.Author{}).Where("id = ?", authorID).Update("verified_owner_id", accountID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return catalog.ErrAuthorNotFound
		}
		return nil
	})
}

// RemoveAuthor deletes an author that no book or series refers to.
func (r *Repository) RemoveAuthor(id uint) error {
	return database.Atomically(r.db, "remove author", func(tx *gorm.DB) error {
		var books int64
		if err := tx.Model(&entities.BookAuthor{}).Where("author_id = ?", id).Count(&books).Error; err != nil {
			return err
		}
		var series int64
		if err := tx.Model(&entities.Series{}).Where("primary_author_id = ?", id).Count(&series).Error; err != nil {
			return err
		}
		if books > 0 || series > 0 {
			log.Debug().Uint("author_id", id).Int64("books", books).Int64("series", series).Msg("Author still referenced")
			return fmt.Errorf("author %d: %w", id, catalog.ErrStillReferenced)
		}

		res := tx.Delete(&entities.Author{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return catalog.ErrAuthorNotFound
		}
		return nil
	})
}

// ReferenceCounts reports how many books an author is attached to and how
// many series name the author as primary.
func (r *Repository) ReferenceCounts(id uint) (books, series int64, err error) {
	if err = r.db.Model(&entities.BookAuthor{}).Where("author_id = ?", id).Count(&books).Error; err != nil {
		return 0, 0, database.Classify(err, catalog.ErrAuthorNotFound)
	}
	if err = r.db.Model(&entities.Series{}).Where("primary_author_id = ?", id).Count(&series).Error; err != nil {
		return 0, 0, database.Classify(err, catalog.ErrAuthorNotFound)
	}
	return books, series, nil
}
