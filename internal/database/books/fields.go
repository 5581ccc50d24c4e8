package books

import (
	"fmt"
	"math"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/entities"
)

// Single-column setters. Each is one UPDATE statement so none of them need
// a transaction.

func (r *Repository) SetAvgRating(bookID uint, rating float64) error {
	if math.IsNaN(rating) || rating < catalog.MinRating || rating > catalog.MaxRating {
		return fmt.Errorf("%w: rating %v outside [%v, %v]", catalog.ErrInvalidValue, rating, catalog.MinRating, catalog.MaxRating)
	}
	return r.updateColumn(bookID, "avg_rating", rating)
}

func (r *Repository) SetRatingCount(bookID uint, count int) error {
	if count < 0 {
		return fmt.Errorf("%w: rating count %d is negative", catalog.ErrInvalidValue, count)
	}
	return r.updateColumn(bookID, "rating_count", count)
}

func (r *Repository) SetIndexInSeries(bookID uint, index float64) error {
	if math.IsNaN(index) || math.IsInf(index, 0) || index < 0 {
		return fmt.Errorf("%w: series index %v", catalog.ErrInvalidValue, index)
	}
	return r.updateColumn(bookID, "index_in_series", index)
}

// SetEdition stores negative editions as catalog.UnknownEdition.
func (r *Repository) SetEdition(bookID uint, edition int) error {
	return r.updateColumn(bookID, "edition", catalog.NormalizeEdition(edition))
}

func (r *Repository) SetDescription(bookID uint, description string) error {
	return r.updateColumn(bookID, "description", strings.TrimSpace(description))
}

func (r *Repository) SetPublisher(bookID uint, publisher string) error {
	return r.updateColumn(bookID, "publisher", strings.TrimSpace(publisher))
}

func (r *Repository) SetCoverLocation(bookID uint, location string) error {
	return r.updateColumn(bookID, "cover_location", strings.TrimSpace(location))
}

func (r *Repository) SetCoverName(bookID uint, name string) error {
	return r.updateColumn(bookID, "cover_name", strings.TrimSpace(name))
}

// SetPublishDate stores the calendar date of date.
func (r *Repository) SetPublishDate(bookID uint, date time.Time) error {
	if date.IsZero() {
		return fmt.Errorf("%w: publish date is required", catalog.ErrInvalidValue)
	}
	return r.updateColumn(bookID, "publish_date", datatypes.Date(date))
}

func (r *Repository) updateColumn(bookID uint, column string, value any) error {
	res := r.db.Model(&entities.Book{}).Where("id = ?", bookID).Update(column, value)
	if res.Error != nil {
		return database.Classify(res.Error, catalog.ErrBookNotFound)
	}
	if res.RowsAffected == 0 {
		return catalog.ErrBookNotFound
	}
	return nil
}
