// Package genres provides the Genre Catalog: the controlled vocabulary of
// genre names books are tagged with.
//
// Genres form a tree through an optional parent name. A parent must exist
// when it is set; it is not re-checked afterwards.
//
// # Usage
//
//	repo := genres.NewRepository(db)
//	_, err := repo.AddGenre(entities.Genre{Name: "Fantasy", ParentName: &fiction})
//	names, err := repo.AllNames()
package genres

import (
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/entities"
)

// Repository handles all genre database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new genres repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AddGenre creates a genre. The name is whitespace-normalized; a parent, if
// given, must already exist.
func (r *Repository) AddGenre(genre entities.Genre) (*entities.Genre, error) {
	genre.Name = catalog.CanonicalGenre(genre.Name)
	if genre.Name == "" {
		return nil, catalog.ErrInvalidName
	}
	parent, err := canonicalParent(genre.ParentName)
	if err != nil {
		return nil, err
	}
	genre.ParentName = parent
	genre.Keywords = normalizeKeywords(genre.Keywords)

	err = database.Atomically(r.db, "add genre", func(tx *gorm.DB) error {
		exists, err := genreExists(tx, genre.Name)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("genre %q: %w", genre.Name, catalog.ErrDuplicate)
		}
		if genre.ParentName != nil {
			if err := requireGenre(tx, *genre.ParentName); err != nil {
				return err
			}
		}
		return tx.Create(&genre).Error
	})
	if err != nil {
		return nil, err
	}
	return &genre, nil
}

// GetGenre retrieves a genre by name.
func (r *Repository) GetGenre(name string) (*entities.Genre, error) {
	var genre entities.Genre
	if err := r.db.Where("name = ?", catalog.CanonicalGenre(name)).First(&genre).Error; err != nil {
		return nil, database.Classify(err, catalog.ErrGenreNotFound)
	}
	return &genre, nil
}

// ListGenres retrieves all genres ordered by name.
func (r *Repository) ListGenres() ([]entities.Genre, error) {
	var genres []entities.Genre
	err := r.db.Order("name ASC").Find(&genres).Error
	return genres, database.Classify(err, catalog.ErrGenreNotFound)
}

// AllNames returns the set of every genre name.
func (r *Repository) AllNames() (map[string]struct{}, error) {
	var names []string
	if err := r.db.Model(&entities.Genre{}).Pluck("name", &names).Error; err != nil {
		return nil, database.Classify(err, catalog.ErrGenreNotFound)
	}
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set, nil
}

// Children retrieves the direct children of a genre.
func (r *Repository) Children(name string) ([]entities.Genre, error) {
	var genres []entities.Genre
	err := r.db.Where("parent_name = ?", catalog.CanonicalGenre(name)).Order("name ASC").Find(&genres).Error
	return genres, database.Classify(err, catalog.ErrGenreNotFound)
}

// UpdateGenre replaces the descriptive fields of a genre.
func (r *Repository) UpdateGenre(name, description string, keywords []string, equivalent string) (*entities.Genre, error) {
	name = catalog.CanonicalGenre(name)
	res := r.db.Model(&entities.Genre{}).Where("name = ?", name).Updates(map[string]any{
		"description":         description,
		"keywords":            datatypes.JSONSlice[string](normalizeKeywords(keywords)),
		"external_equivalent": equivalent,
	})
	if res.Error != nil {
		return nil, database.Classify(res.Error, catalog.ErrGenreNotFound)
	}
	if res.RowsAffected == 0 {
		return nil, catalog.ErrGenreNotFound
	}
	return r.GetGenre(name)
}

// SetParent sets or, with a nil parent, clears the parent of a genre. The
// parent must exist and may not be the genre itself or one of its
// descendants.
func (r *Repository) SetParent(name string, parent *string) error {
	name = catalog.CanonicalGenre(name)
	parent, err := canonicalParent(parent)
	if err != nil {
		return err
	}

	return database.Atomically(r.db, "set genre parent", func(tx *gorm.DB) error {
		if err := requireGenre(tx, name); err != nil {
			return err
		}
		if parent != nil {
			if err := requireGenre(tx, *parent); err != nil {
				return err
			}
			cyclic, err := isAncestorOrSelf(tx, name, *parent)
			if err != nil {
				return err
			}
			if cyclic {
				return fmt.Errorf("%w: %q cannot be nested under %q", catalog.ErrInvalidValue, name, *parent)
			}
		}
		res := tx.Model(&entities.Genre{}).Where("name = ?", name).Update("parent_name", parent)
		return database.ExpectRows(res, 1, "genres.parent_name")
	})
}

// RemoveGenre deletes a genre that no book is tagged with and no other
// genre names as parent.
func (r *Repository) RemoveGenre(name string) error {
	name = catalog.CanonicalGenre(name)
	return database.Atomically(r.db, "remove genre", func(tx *gorm.DB) error {
		var books int64
		if err := tx.Model(&entities.BookGenre{}).Where("genre_name = ?", name).Count(&books).Error; err != nil {
			return err
		}
		var children int64
		if err := tx.Model(&entities.Genre{}).Where("parent_name = ?", name).Count(&children).Error; err != nil {
			return err
		}
		if books > 0 || children > 0 {
			return fmt.Errorf("genre %q: %w", name, catalog.ErrStillReferenced)
		}

		res := tx.Where("name = ?", name).Delete(&entities.Genre{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return catalog.ErrGenreNotFound
		}
		return nil
	})
}

// ReferenceCounts reports how many books carry a genre and how many genres
// name it as parent.
func (r *Repository) ReferenceCounts(name string) (books, children int64, err error) {
	name = catalog.CanonicalGenre(name)
	if err = r.db.Model(&entities.BookGenre{}).Where("genre_name = ?", name).Count(&books).Error; err != nil {
		return 0, 0, database.Classify(err, catalog.ErrGenreNotFound)
	}
	if err = r.db.Model(&entities.Genre{}).Where("parent_name = ?", name).Count(&children).Error; err != nil {
		return 0, 0, database.Classify(err, catalog.ErrGenreNotFound)
	}
	return books, children, nil
}

func canonicalParent(parent *string) (*string, error) {
	if parent == nil {
		return nil, nil
	}
	name := catalog.CanonicalGenre(*parent)
	if name == "" {
		return nil, catalog.ErrInvalidName
	}
	return &name, nil
}

func genreExists(tx *gorm.DB, name string) (bool, error) {
	var count int64
	if err := tx.Model(&entities.Genre{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func requireGenre(tx *gorm.DB, name string) error {
	exists, err := genreExists(tx, name)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %q", catalog.ErrGenreNotFound, name)
	}
	return nil
}

// isAncestorOrSelf walks up from candidate and reports whether name is on
// the path.
func isAncestorOrSelf(tx *gorm.DB, name, candidate string) (bool, error) {
	seen := map[string]struct{}{}
	current := &candidate
	for current != nil {
		if *current == name {
			return true, nil
		}
		if _, loop := seen[*current]; loop {
			return false, nil
		}
		seen[*current] = struct{}{}

		var genre entities.Genre
		if err := tx.Select("name", "parent_name").Where("name = ?", *current).First(&genre).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return false, nil
			}
			return false, err
		}
		current = genre.ParentName
	}
	return false, nil
}

func normalizeKeywords(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = catalog.CanonicalGenre(k)
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
