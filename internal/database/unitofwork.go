package database

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/mrlokans/librarian/internal/catalog"
)

// Atomically runs fn as one unit of work. Every statement fn issues through
// tx commits together or not at all: GORM rolls back when fn returns an error
// or panics. Unique constraint violations are reported as
// catalog.ErrDuplicate; other errors that don't already carry a catalog kind
// as catalog.ErrTransaction.
func Atomically(db *gorm.DB, op string, fn func(tx *gorm.DB) error) error {
	err := db.Transaction(fn)
	if err == nil {
		return nil
	}
	if catalog.HasKind(err) {
		return err
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s: %w", op, catalog.ErrDuplicate)
	}
	log.Warn().Err(err).Str("op", op).Msg("Transaction rolled back")
	return fmt.Errorf("%s: %w: %w", op, catalog.ErrTransaction, err)
}

// ExpectRows fails the surrounding unit of work unless the statement
// affected exactly want rows.
func ExpectRows(res *gorm.DB, want int64, what string) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != want {
		return fmt.Errorf("%w: %s affected %d rows, expected %d", catalog.ErrTransaction, what, res.RowsAffected, want)
	}
	return nil
}

// Classify converts a read error into the catalog taxonomy. A missing record
// becomes notFound; anything else is a connectivity failure.
func Classify(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return catalog.ErrDuplicate
	}
	if catalog.HasKind(err) {
		return err
	}
	return fmt.Errorf("%w: %w", catalog.ErrConnectivity, err)
}
