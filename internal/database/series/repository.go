// Package series provides the Series Aggregate: a book counter and a status
// per series, keyed by (name, primary author).
//
// The counter changes only through IncrementCount and DecrementCount, which
// the book store calls inside its own transactions through the Tx variants.
// Status changes only through SetStatus; nothing transitions automatically.
//
// # Usage
//
//	repo := series.NewRepository(db)
//	s, err := repo.AddSeries("Discworld", []uint{authorID})
//	err = repo.SetStatus(s.Key(), entities.SeriesStatusOngoing)
package series

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/entities"
)

// Repository handles all series database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new series repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AddSeries creates an empty series whose primary author is the smallest
// of authorIDs.
func (r *Repository) AddSeries(name string, authorIDs []uint) (*entities.Series, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, catalog.ErrInvalidName
	}
	primary, ok := catalog.PrimaryAuthor(authorIDs)
	if !ok {
		return nil, catalog.ErrNoAuthors
	}

	series := &entities.Series{
		Name:            name,
		PrimaryAuthorID: primary,
		Status:          entities.SeriesStatusUndetermined,
	}

	err := database.Atomically(r.db, "add series", func(tx *gorm.DB) error {
		var authors int64
		if err := tx.Model(&entities.Author{}).Where("id = ?", primary).Count(&authors).Error; err != nil {
			return err
		}
		if authors == 0 {
			return fmt.Errorf("%w: %d", catalog.ErrAuthorNotFound, primary)
		}

		var existing int64
		if err := keyScope(tx.Model(&entities.Series{}), series.Key()).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return fmt.Errorf("series %q: %w", name, catalog.ErrDuplicate)
		}
		return tx.Create(series).Error
	})
	if err != nil {
		return nil, err
	}
	return series, nil
}

// GetByNameAndAuthor retrieves the series with the given key. The caller
// resolves the primary author with catalog.PrimaryAuthor.
func (r *Repository) GetByNameAndAuthor(name string, primaryAuthorID uint) (*entities.Series, error) {
	var series entities.Series
	err := keyScope(r.db, entities.SeriesKey{Name: strings.TrimSpace(name), PrimaryAuthorID: primaryAuthorID}).
		First(&series).Error
	if err != nil {
		return nil, database.Classify(err, catalog.ErrSeriesNotFound)
	}
	return &series, nil
}

// GetByID retrieves a series by ID.
func (r *Repository) GetByID(id uint) (*entities.Series, error) {
	var series entities.Series
	if err := r.db.First(&series, id).Error; err != nil {
		return nil, database.Classify(err, catalog.ErrSeriesNotFound)
	}
	return &series, nil
}

// GetAll retrieves every series ordered by name.
func (r *Repository) GetAll() ([]entities.Series, error) {
	var series []entities.Series
	err := r.db.Order("name ASC, primary_author_id ASC").Find(&series).Error
	return series, database.Classify(err, catalog.ErrSeriesNotFound)
}

func (r *Repository) GetStatus(key entities.SeriesKey) (entities.SeriesStatus, error) {
	series, err := r.GetByNameAndAuthor(key.Name, key.PrimaryAuthorID)
	if err != nil {
		return "", err
	}
	return series.Status, nil
}

// SetStatus moves a series to status. Unknown or empty statuses are rejected
// and leave the stored status unchanged.
func (r *Repository) SetStatus(key entities.SeriesKey, status entities.SeriesStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", catalog.ErrInvalidStatus, status)
	}
	res := keyScope(r.db.Model(&entities.Series{}), key).Update("status", status)
	if res.Error != nil {
		return database.Classify(res.Error, catalog.ErrSeriesNotFound)
	}
	if res.RowsAffected == 0 {
		return catalog.ErrSeriesNotFound
	}
	return nil
}

// IncrementCount adds one to the series book counter.
func (r *Repository) IncrementCount(key entities.SeriesKey) error {
	return database.Atomically(r.db, "increment series count", func(tx *gorm.DB) error {
		return IncrementTx(tx, key)
	})
}

// DecrementCount subtracts one from the series book counter. It fails with
// catalog.ErrCounterAtZero when the counter is already zero.
func (r *Repository) DecrementCount(key entities.SeriesKey) error {
	return database.Atomically(r.db, "decrement series count", func(tx *gorm.DB) error {
		return DecrementTx(tx, key)
	})
}

// RemoveSeries deletes a series whose counter has been drained to zero.
func (r *Repository) RemoveSeries(key entities.SeriesKey) error {
	return database.Atomically(r.db, "remove series", func(tx *gorm.DB) error {
		res := keyScope(tx, key).Where("number_books_in_series = 0").Delete(&entities.Series{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			return nil
		}
		return missingOrConflict(keyScope(tx.Model(&entities.Series{}), key), catalog.ErrSeriesNotEmpty)
	})
}

// IncrementTx adds one to the counter of the series with the given key
// inside tx.
func IncrementTx(tx *gorm.DB, key entities.SeriesKey) error {
	res := keyScope(tx.Model(&entities.Series{}), key).
		Update("number_books_in_series", gorm.Expr("number_books_in_series + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return catalog.ErrSeriesNotFound
	}
	return nil
}

// DecrementTx subtracts one from the counter of the series with the given
// key inside tx. The guard in the WHERE clause keeps the counter from going
// negative under concurrent writers.
func DecrementTx(tx *gorm.DB, key entities.SeriesKey) error {
	res := keyScope(tx.Model(&entities.Series{}), key).
		Where("number_books_in_series > 0").
		Update("number_books_in_series", gorm.Expr("number_books_in_series - 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}
	return missingOrConflict(keyScope(tx.Model(&entities.Series{}), key), catalog.ErrCounterAtZero)
}

// IncrementByIDTx and DecrementByIDTx resolve the key of a series and adjust
// its counter inside tx.
func IncrementByIDTx(tx *gorm.DB, seriesID uint) error {
	key, err := keyByID(tx, seriesID)
	if err != nil {
		return err
	}
	return IncrementTx(tx, key)
}

func DecrementByIDTx(tx *gorm.DB, seriesID uint) error {
	key, err := keyByID(tx, seriesID)
	if err != nil {
		return err
	}
	return DecrementTx(tx, key)
}

// Mismatch is a series whose counter disagrees with the number of books
// that reference it.
type Mismatch struct {
	SeriesID uint   `json:"series_id"`
	Name     string `json:"name"`
	Counter  int    `json:"counter"`
	Books    int    `json:"books"`
}

// CountMismatches compares every series counter with the number of book
// rows referencing the series. It only reports; counters are never
// rewritten from row counts.
func (r *Repository) CountMismatches() ([]Mismatch, error) {
	var rows []Mismatch
	err := r.db.Table("series").
		Select("series.id AS series_id, series.name AS name, series.number_books_in_series AS counter, COUNT(books.id) AS books").
		Joins("LEFT JOIN books ON books.series_id = series.id").
		Group("series.id, series.name, series.number_books_in_series").
		Having("COUNT(books.id) <> series.number_books_in_series").
		Order("series.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, database.Classify(err, catalog.ErrSeriesNotFound)
	}
	if len(rows) > 0 {
		log.Warn().Int("series", len(rows)).Msg("Series counters disagree with book rows")
	}
	return rows, nil
}

func keyScope(db *gorm.DB, key entities.SeriesKey) *gorm.DB {
	return db.Where("name = ? AND primary_author_id = ?", key.Name, key.PrimaryAuthorID)
}

func keyByID(tx *gorm.DB, seriesID uint) (entities.SeriesKey, error) {
	var series entities.Series
	if err := tx.Select("id", "name", "primary_author_id").First(&series, seriesID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return entities.SeriesKey{}, fmt.Errorf("%w: %d", catalog.ErrSeriesNotFound, seriesID)
		}
		return entities.SeriesKey{}, err
	}
	return series.Key(), nil
}

// missingOrConflict tells apart a guarded statement that matched nothing
// because the row is gone from one that was refused by its guard.
func missingOrConflict(scope *gorm.DB, conflict error) error {
	var count int64
	if err := scope.Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return catalog.ErrSeriesNotFound
	}
	return conflict
}
