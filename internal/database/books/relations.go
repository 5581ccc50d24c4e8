package books

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/database/series"
	"github.com/mrlokans/librarian/internal/entities"
)

// AddAuthor attaches an existing author to a book.
func (r *Repository) AddAuthor(bookID, authorID uint) error {
	exists, err := r.authors.Exists(authorID)
	if err != nil {
		return err
	}
	if !exists {
		return &UnknownAuthorError{AuthorID: authorID}
	}

	return database.Atomically(r.db, "add author", func(tx *gorm.DB) error {
		book, err := loadBook(tx, bookID)
		if err != nil {
			return err
		}
		attached, err := attachedAuthors(tx, bookID)
		if err != nil {
			return err
		}
		if contains(attached, authorID) {
			return fmt.Errorf("author %d: %w", authorID, catalog.ErrAlreadyAttached)
		}

		res := tx.Model(&entities.Book{}).Where("id = ?", bookID).
			Update("count_authors", gorm.Expr("count_authors + 1"))
		if err := database.ExpectRows(res, 1, "books.count_authors"); err != nil {
			return err
		}
		if err := tx.Create(&entities.BookAuthor{BookID: bookID, AuthorID: authorID}).Error; err != nil {
			return err
		}
		return syncPrimaryAuthor(tx, book, append(attached, authorID))
	})
}

// RemoveAuthor detaches an author from a book. A book keeps at least one
// author: removing the last one fails with catalog.ErrLastAuthor.
func (r *Repository) RemoveAuthor(bookID, authorID uint) error {
	return database.Atomically(r.db, "remove author", func(tx *gorm.DB) error {
		book, err := loadBook(tx, bookID)
		if err != nil {
			return err
		}
		attached, err := attachedAuthors(tx, bookID)
		if err != nil {
			return err
		}
		if !contains(attached, authorID) {
			return fmt.Errorf("author %d: %w", authorID, catalog.ErrNotAttached)
		}
		if len(attached) == 1 {
			return catalog.ErrLastAuthor
		}

		res := tx.Model(&entities.Book{}).Where("id = ? AND count_authors > 1", bookID).
			Update("count_authors", gorm.Expr("count_authors - 1"))
		if err := database.ExpectRows(res, 1, "books.count_authors"); err != nil {
			return err
		}
		res = tx.Where("book_id = ? AND author_id = ?", bookID, authorID).Delete(&entities.BookAuthor{})
		if err := database.ExpectRows(res, 1, "book_authors"); err != nil {
			return err
		}

		remaining := make([]uint, 0, len(attached)-1)
		for _, id := range attached {
			if id != authorID {
				remaining = append(remaining, id)
			}
		}
		return syncPrimaryAuthor(tx, book, remaining)
	})
}

// SetGenres replaces the genre set of a book. Every name must be in the
// genre catalog; the check runs before the transaction starts.
func (r *Repository) SetGenres(bookID uint, names []string) error {
	canonical := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = catalog.CanonicalGenre(name)
		if name == "" {
			return fmt.Errorf("%w: blank genre name", catalog.ErrInvalidValue)
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		canonical = append(canonical, name)
	}

	known, err := r.genres.AllNames()
	if err != nil {
		return err
	}
	for _, name := range canonical {
		if _, ok := known[name]; !ok {
			return &UnknownGenreError{Name: name}
		}
	}

	return database.Atomically(r.db, "set genres", func(tx *gorm.DB) error {
		if err := touch(tx, bookID); err != nil {
			return err
		}
		if err := tx.Where("book_id = ?", bookID).Delete(&entities.BookGenre{}).Error; err != nil {
			return err
		}
		if len(canonical) == 0 {
			return nil
		}

		rows := make([]entities.BookGenre, 0, len(canonical))
		for _, name := range canonical {
			rows = append(rows, entities.BookGenre{BookID: bookID, GenreName: name})
		}
		return database.ExpectRows(tx.Create(&rows), int64(len(rows)), "book_genres")
	})
}

// SetIdentifiers replaces the identifier set of a book. Identifiers are
// canonicalized and deduplicated first; an identifier already carried by
// another book fails with catalog.ErrDuplicate.
func (r *Repository) SetIdentifiers(bookID uint, identifiers []catalog.Identifier) error {
	canonical, err := catalog.CanonicalIdentifiers(identifiers)
	if err != nil {
		return err
	}

	return database.Atomically(r.db, "set identifiers", func(tx *gorm.DB) error {
		res := tx.Model(&entities.Book{}).Where("id = ?", bookID).Update("has_identifiers", len(canonical) > 0)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return catalog.ErrBookNotFound
		}
		if err := tx.Where("book_id = ?", bookID).Delete(&entities.BookIdentifier{}).Error; err != nil {
			return err
		}
		if len(canonical) == 0 {
			return nil
		}

		rows := make([]entities.BookIdentifier, 0, len(canonical))
		for _, id := range canonical {
			rows = append(rows, entities.BookIdentifier{BookID: bookID, Scheme: id.Scheme, Value: id.Value})
		}
		return database.ExpectRows(tx.Create(&rows), int64(len(rows)), "book_identifiers")
	})
}

// SetSeries moves a book into the series with the given ID, or out of any
// series when seriesID is zero. The old series is decremented and the new
// one incremented in the same transaction.
func (r *Repository) SetSeries(bookID, seriesID uint) error {
	return database.Atomically(r.db, "set series", func(tx *gorm.DB) error {
		book, err := loadBook(tx, bookID)
		if err != nil {
			return err
		}

		var current uint
		if book.SeriesID != nil {
			current = *book.SeriesID
		}
		if current == seriesID {
			return nil
		}

		if seriesID != 0 {
			if err := series.IncrementByIDTx(tx, seriesID); err != nil {
				return err
			}
		}
		if current != 0 {
			if err := series.DecrementByIDTx(tx, current); err != nil {
				return err
			}
		}

		var next *uint
		if seriesID != 0 {
			next = &seriesID
		}
		res := tx.Model(&entities.Book{}).Where("id = ?", bookID).Update("series_id", next)
		if err := database.ExpectRows(res, 1, "books.series_id"); err != nil {
			return err
		}

		log.Debug().Uint("book_id", bookID).Uint("from", current).Uint("to", seriesID).Msg("Book moved between series")
		return nil
	})
}

// syncPrimaryAuthor stores the primary author of ids when it differs from
// the one book was loaded with.
func syncPrimaryAuthor(tx *gorm.DB, book *entities.Book, ids []uint) error {
	primary, ok := catalog.PrimaryAuthor(ids)
	if !ok {
		return catalog.ErrLastAuthor
	}
	if primary == book.PrimaryAuthorID {
		return nil
	}
	res := tx.Model(&entities.Book{}).Where("id = ?", book.ID).Update("primary_author_id", primary)
	return database.ExpectRows(res, 1, "books.primary_author_id")
}

func attachedAuthors(tx *gorm.DB, bookID uint) ([]uint, error) {
	var ids []uint
	err := tx.Model(&entities.BookAuthor{}).Where("book_id = ?", bookID).Order("author_id ASC").Pluck("author_id", &ids).Error
	return ids, err
}

// touch bumps updated_at and fails with catalog.ErrBookNotFound when the
// book doesn't exist.
func touch(tx *gorm.DB, bookID uint) error {
	res := tx.Model(&entities.Book{}).Where("id = ?", bookID).Update("updated_at", time.Now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return catalog.ErrBookNotFound
	}
	return nil
}

func contains(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
