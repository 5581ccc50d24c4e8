// Package books provides the Book Entity Store: book rows and their three
// denormalized relationship sets (authors, genres and identifiers).
//
// Every mutation that touches more than one row runs in a single
// database.Atomically unit of work. Derived columns (primary_author_id,
// count_authors, has_identifiers) and the series counter are written in the
// same transaction as the relationship rows they summarize.
//
// # Usage
//
//	repo := books.NewRepository(db, authorsRepo, genresRepo)
//	id, err := repo.AddBook([]uint{authorID}, "", 1, "Mort")
//	err = repo.AddAuthor(id, coAuthorID)
package books

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/database/series"
	"github.com/mrlokans/librarian/internal/entities"
)

// AuthorDirectory is the part of the author store books validate against.
type AuthorDirectory interface {
	Exists(id uint) (bool, error)
	MissingIDs(ids []uint) ([]uint, error)
}

// GenreCatalog is the part of the genre store books validate against.
type GenreCatalog interface {
	AllNames() (map[string]struct{}, error)
}

// UnknownAuthorError reports the first author id of a request that names no
// author.
type UnknownAuthorError struct {
	AuthorID uint
}

func (e *UnknownAuthorError) Error() string {
	return fmt.Sprintf("author %d not found", e.AuthorID)
}

func (e *UnknownAuthorError) Unwrap() error {
	return catalog.ErrAuthorNotFound
}

// UnknownGenreError reports the first genre name of a request that is not
// in the catalog.
type UnknownGenreError struct {
	Name string
}

func (e *UnknownGenreError) Error() string {
	return fmt.Sprintf("genre %q not found", e.Name)
}

func (e *UnknownGenreError) Unwrap() error {
	return catalog.ErrGenreNotFound
}

// Repository handles all book database operations.
type Repository struct {
	db      *gorm.DB
	authors AuthorDirectory
	genres  GenreCatalog
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB, authors AuthorDirectory, genres GenreCatalog) *Repository {
	return &Repository{db: db, authors: authors, genres: genres}
}

func (r *Repository) withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Authors", func(db *gorm.DB) *gorm.DB { return db.Order("author_id ASC") }).
		Preload("Genres", func(db *gorm.DB) *gorm.DB { return db.Order("genre_name ASC") }).
		Preload("Identifiers", func(db *gorm.DB) *gorm.DB { return db.Order("scheme ASC, value ASC") })
}

// GetBookByID retrieves a book by its ID with its relationship sets.
func (r *Repository) GetBookByID(id uint) (*entities.Book, error) {
	var book entities.Book
	if err := r.withRelations(r.db).First(&book, id).Error; err != nil {
		return nil, database.Classify(err, catalog.ErrBookNotFound)
	}
	return &book, nil
}

// Exists reports whether a book with the given ID exists.
func (r *Repository) Exists(id uint) (bool, error) {
	var count int64
	if err := r.db.Model(&entities.Book{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, database.Classify(err, catalog.ErrBookNotFound)
	}
	return count > 0, nil
}

// GetBooksByAuthor retrieves every book the author is attached to.
func (r *Repository) GetBooksByAuthor(authorID uint) ([]entities.Book, error) {
	var books []entities.Book
	err := r.withRelations(r.db).
		Where("id IN (?)", r.db.Model(&entities.BookAuthor{}).Select("book_id").Where("author_id = ?", authorID)).
		Order("title ASC, id ASC").
		Find(&books).Error
	return books, database.Classify(err, catalog.ErrBookNotFound)
}

// GetBooksBySeries retrieves the books of a series in reading order.
func (r *Repository) GetBooksBySeries(seriesID uint) ([]entities.Book, error) {
	var books []entities.Book
	err := r.withRelations(r.db).
		Where("series_id = ?", seriesID).
		Order("index_in_series ASC, id ASC").
		Find(&books).Error
	return books, database.Classify(err, catalog.ErrBookNotFound)
}

// GetBooksByTitle searches books by title (case-insensitive partial match).
func (r *Repository) GetBooksByTitle(query string) ([]entities.Book, error) {
	var books []entities.Book
	err := r.withRelations(r.db).
		Where(`LOWER(title) LIKE LOWER(?) ESCAPE '\'`, database.ContainsPattern(query)).
		Order("title ASC, id ASC").
		Find(&books).Error
	return books, database.Classify(err, catalog.ErrBookNotFound)
}

// GetBookByIdentifier retrieves the book carrying an identifier. The
// identifier is canonicalized before the lookup.
func (r *Repository) GetBookByIdentifier(scheme, value string) (*entities.Book, error) {
	id, ok := catalog.CanonicalIdentifier(catalog.Identifier{Scheme: scheme, Value: value})
	if !ok {
		return nil, catalog.ErrInvalidValue
	}

	var book entities.Book
	err := r.withRelations(r.db).
		Where("id = (?)", r.db.Model(&entities.BookIdentifier{}).Select("book_id").
			Where("scheme = ? AND value = ?", id.Scheme, id.Value)).
		First(&book).Error
	if err != nil {
		return nil, database.Classify(err, catalog.ErrBookNotFound)
	}
	return &book, nil
}

// AddBook creates a book attached to authorIDs and returns its ID. Blank
// descriptions are stored empty and negative editions as
// catalog.UnknownEdition.
func (r *Repository) AddBook(authorIDs []uint, description string, edition int, title string) (uint, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return 0, catalog.ErrInvalidTitle
	}
	ids := catalog.UniqueIDs(authorIDs)
	primary, ok := catalog.PrimaryAuthor(ids)
	if !ok {
		return 0, catalog.ErrNoAuthors
	}

	missing, err := r.authors.MissingIDs(authorIDs)
	if err != nil {
		return 0, err
	}
	if len(missing) > 0 {
		return 0, &UnknownAuthorError{AuthorID: missing[0]}
	}

	book := entities.Book{
		Title:           title,
		Description:     strings.TrimSpace(description),
		Edition:         catalog.NormalizeEdition(edition),
		PrimaryAuthorID: primary,
		CountAuthors:    len(ids),
	}

	err = database.Atomically(r.db, "add book", func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&book).Error; err != nil {
			return err
		}

		links := make([]entities.BookAuthor, 0, len(ids))
		for _, id := range ids {
			links = append(links, entities.BookAuthor{BookID: book.ID, AuthorID: id})
		}
		return database.ExpectRows(tx.Create(&links), int64(len(links)), "book_authors")
	})
	if err != nil {
		log.Warn().Err(err).Str("title", title).Msg("Failed to add book")
		return 0, err
	}
	return book.ID, nil
}

// RemoveBook deletes a book and its relationship rows, and decrements the
// counter of its series. Either all of it happens or none of it.
func (r *Repository) RemoveBook(id uint) error {
	err := database.Atomically(r.db, "remove book", func(tx *gorm.DB) error {
		book, err := loadBook(tx, id)
		if err != nil {
			return err
		}

		for _, rel := range []any{&entities.BookIdentifier{}, &entities.BookGenre{}, &entities.BookAuthor{}} {
			if err := tx.Where("book_id = ?", id).Delete(rel).Error; err != nil {
				return err
			}
		}
		if err := database.ExpectRows(tx.Delete(&entities.Book{}, id), 1, "books"); err != nil {
			return err
		}

		if book.SeriesID != nil {
			return series.DecrementByIDTx(tx, *book.SeriesID)
		}
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Uint("book_id", id).Msg("Failed to remove book")
	}
	return err
}

// loadBook reads the derived columns of a book inside tx.
func loadBook(tx *gorm.DB, id uint) (*entities.Book, error) {
	var book entities.Book
	err := tx.Select("id", "primary_author_id", "count_authors", "series_id").First(&book, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, catalog.ErrBookNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}
