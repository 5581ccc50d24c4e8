// Package edits routes typed book edits to the Book Entity Store.
//
// An edit is one of the variants of catalog.Edit. Decode turns the wire form
// ({"kind": ..., "value": ...}) into a variant, checking the payload shape
// before anything touches the store. Dispatcher.Mutate then checks the book
// exists and calls the matching store mutation. Neither explains failures
// beyond the returned error; the controller layer diagnoses them.
package edits

import (
	"fmt"
	"time"

	"github.com/mrlokans/librarian/internal/catalog"
)

// BookStore is the set of book mutations an edit can route to.
type BookStore interface {
	Exists(id uint) (bool, error)
	AddAuthor(bookID, authorID uint) error
	RemoveAuthor(bookID, authorID uint) error
	SetAvgRating(bookID uint, rating float64) error
	SetIndexInSeries(bookID uint, index float64) error
	SetCoverLocation(bookID uint, location string) error
	SetCoverName(bookID uint, name string) error
	SetDescription(bookID uint, description string) error
	SetEdition(bookID uint, edition int) error
	SetGenres(bookID uint, names []string) error
	SetIdentifiers(bookID uint, identifiers []catalog.Identifier) error
	SetPublishDate(bookID uint, date time.Time) error
	SetPublisher(bookID uint, publisher string) error
	SetRatingCount(bookID uint, count int) error
	SetSeries(bookID, seriesID uint) error
}

type Dispatcher struct {
	books BookStore
}

func NewDispatcher(books BookStore) *Dispatcher {
	return &Dispatcher{books: books}
}

// Mutate applies edit to the book with the given ID.
func (d *Dispatcher) Mutate(bookID uint, edit catalog.Edit) error {
	if edit == nil {
		return catalog.ErrNullValue
	}

	exists, err := d.books.Exists(bookID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %d", catalog.ErrBookNotFound, bookID)
	}

	switch e := edit.(type) {
	case catalog.AddAuthor:
		return d.books.AddAuthor(bookID, e.AuthorID)
	case catalog.RemoveAuthor:
		return d.books.RemoveAuthor(bookID, e.AuthorID)
	case catalog.SetAvgRating:
		return d.books.SetAvgRating(bookID, e.Rating)
	case catalog.SetIndexInSeries:
		return d.books.SetIndexInSeries(bookID, e.Index)
	case catalog.SetCoverLocation:
		return d.books.SetCoverLocation(bookID, e.Location)
	case catalog.SetCoverName:
		return d.books.SetCoverName(bookID, e.Name)
	case catalog.SetDescription:
		return d.books.SetDescription(bookID, e.Description)
	case catalog.SetEdition:
		return d.books.SetEdition(bookID, e.Edition)
	case catalog.SetGenres:
		return d.books.SetGenres(bookID, e.Names)
	case catalog.SetIdentifiers:
		return d.books.SetIdentifiers(bookID, e.Identifiers)
	case catalog.SetPublishDate:
		return d.books.SetPublishDate(bookID, e.Date)
	case catalog.SetPublisher:
		return d.books.SetPublisher(bookID, e.Publisher)
	case catalog.SetRatingCount:
		return d.books.SetRatingCount(bookID, e.Count)
	case catalog.SetSeriesID:
		return d.books.SetSeries(bookID, e.SeriesID)
	}
	return fmt.Errorf("%w: %s", catalog.ErrInvalidEditKind, edit.Kind())
}

// Apply decodes a wire edit and applies it.
func (d *Dispatcher) Apply(bookID uint, kind string, value []byte) (catalog.Edit, error) {
	edit, err := Decode(kind, value)
	if err != nil {
		return nil, err
	}
	return edit, d.Mutate(bookID, edit)
}
