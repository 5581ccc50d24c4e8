package http

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/entities"
)

// BookLookup is what the Diagnoser reads about books.
type BookLookup interface {
	GetBookByID(id uint) (*entities.Book, error)
	GetBookByIdentifier(scheme, value string) (*entities.Book, error)
}

// AuthorLookup is what the Diagnoser reads about authors.
type AuthorLookup interface {
	GetAuthorByID(id uint) (*entities.Author, error)
	ReferenceCounts(id uint) (books, series int64, err error)
}

// SeriesLookup is what the Diagnoser reads about series.
type SeriesLookup interface {
	GetByID(id uint) (*entities.Series, error)
}

// GenreLookup is what the Diagnoser reads about genres.
type GenreLookup interface {
	GetGenre(name string) (*entities.Genre, error)
	ReferenceCounts(name string) (books, children int64, err error)
}

// Diagnoser explains failed store operations. The stores only report an
// error kind; after a failure the Diagnoser re-reads the current state to
// work out which precondition was violated. It is never consulted on the
// success path.
type Diagnoser struct {
	books   BookLookup
	authors AuthorLookup
	series  SeriesLookup
	genres  GenreLookup
}

func NewDiagnoser(books BookLookup, authors AuthorLookup, series SeriesLookup, genres GenreLookup) *Diagnoser {
	return &Diagnoser{books: books, authors: authors, series: series, genres: genres}
}

// Edit explains a failed book edit.
func (d *Diagnoser) Edit(bookID uint, edit catalog.Edit, err error) string {
	if edit == nil || !diagnosable(err) {
		return err.Error()
	}

	book, msg := d.book(bookID)
	if book == nil {
		return msg
	}

	switch e := edit.(type) {
	case catalog.AddAuthor:
		author, msg := d.author(e.AuthorID)
		if author == nil {
			return msg
		}
		if containsID(book.AuthorIDs(), e.AuthorID) {
			return fmt.Sprintf("%s is already attached to %s", describeAuthor(author), describeBook(book))
		}

	case catalog.RemoveAuthor:
		who := fmt.Sprintf("author %d", e.AuthorID)
		if author, _ := d.author(e.AuthorID); author != nil {
			who = describeAuthor(author)
		}
		ids := book.AuthorIDs()
		if !containsID(ids, e.AuthorID) {
			return fmt.Sprintf("%s is not attached to %s", who, describeBook(book))
		}
		if len(ids) == 1 {
			return fmt.Sprintf("%s is the only author of %s; attach another author first", who, describeBook(book))
		}

	case catalog.SetGenres:
		for _, name := range e.Names {
			canonical := catalog.CanonicalGenre(name)
			if canonical == "" {
				return "genre names must not be blank"
			}
			if _, gerr := d.genres.GetGenre(canonical); errors.Is(gerr, catalog.ErrNotFound) {
				return fmt.Sprintf("genre %q does not exist", canonical)
			}
		}

	case catalog.SetIdentifiers:
		ids, verr := catalog.CanonicalIdentifiers(e.Identifiers)
		if verr != nil {
			return "identifiers need a non-blank scheme and value"
		}
		for _, id := range ids {
			other, lerr := d.books.GetBookByIdentifier(id.Scheme, id.Value)
			if lerr == nil && other.ID != book.ID {
				return fmt.Sprintf("identifier %s:%s already belongs to %s", id.Scheme, id.Value, describeBook(other))
			}
		}

	case catalog.SetSeriesID:
		if e.SeriesID != 0 {
			series, msg := d.seriesByID(e.SeriesID)
			if series == nil {
				return msg
			}
		}
		if book.SeriesID != nil && errors.Is(err, catalog.ErrCounterAtZero) {
			if current, _ := d.seriesByID(*book.SeriesID); current != nil {
				return fmt.Sprintf("%s cannot leave %s: its book count is already zero", describeBook(book), describeSeries(current))
			}
		}
	}

	if catalog.KindOf(err) == catalog.KindTransaction {
		return fmt.Sprintf("%s on %s was rolled back: %v", edit.Kind(), describeBook(book), err)
	}
	return fmt.Sprintf("%s on %s failed: %v", edit.Kind(), describeBook(book), err)
}

// AddBook explains a failed book creation. Authors are reported in input
// order; the first unknown one is named.
func (d *Diagnoser) AddBook(authorIDs []uint, title string, err error) string {
	if !diagnosable(err) {
		return err.Error()
	}
	if strings.TrimSpace(title) == "" {
		return "a book needs a non-blank title"
	}
	if len(authorIDs) == 0 {
		return "a book needs at least one author"
	}
	for _, id := range authorIDs {
		if author, msg := d.author(id); author == nil {
			return msg
		}
	}
	if catalog.KindOf(err) == catalog.KindTransaction {
		return fmt.Sprintf("adding book '%s' was rolled back: %v", strings.TrimSpace(title), err)
	}
	return err.Error()
}

// RemoveBook explains a failed book removal.
func (d *Diagnoser) RemoveBook(bookID uint, err error) string {
	if !diagnosable(err) {
		return err.Error()
	}

	book, msg := d.book(bookID)
	if book == nil {
		return msg
	}
	if book.SeriesID != nil {
		if series, _ := d.seriesByID(*book.SeriesID); series != nil && series.NumberBooksInSeries == 0 {
			return fmt.Sprintf("%s was not removed: the book count of %s is already zero", describeBook(book), describeSeries(series))
		}
	}
	if catalog.KindOf(err) == catalog.KindTransaction {
		return fmt.Sprintf("removing %s was rolled back: %v", describeBook(book), err)
	}
	return fmt.Sprintf("removing %s failed: %v", describeBook(book), err)
}

// AddSeries explains a failed series creation.
func (d *Diagnoser) AddSeries(name string, authorIDs []uint, err error) string {
	if !diagnosable(err) {
		return err.Error()
	}

	primary, ok := catalog.PrimaryAuthor(authorIDs)
	if !ok {
		return "a series needs at least one author"
	}
	author, msg := d.author(primary)
	if author == nil {
		return msg
	}
	if errors.Is(err, catalog.ErrConflict) {
		return fmt.Sprintf("series '%s' with primary %s already exists", strings.TrimSpace(name), describeAuthor(author))
	}
	return err.Error()
}

// Series explains a failed operation on an existing series.
func (d *Diagnoser) Series(seriesID uint, op string, err error) string {
	if !diagnosable(err) {
		return err.Error()
	}

	series, msg := d.seriesByID(seriesID)
	if series == nil {
		return msg
	}

	switch {
	case op == "remove" && series.NumberBooksInSeries > 0:
		return fmt.Sprintf("%s still counts %d books; remove or reassign them first", describeSeries(series), series.NumberBooksInSeries)
	case op == "decrement" && series.NumberBooksInSeries == 0:
		return fmt.Sprintf("the book count of %s is already zero", describeSeries(series))
	}
	return fmt.Sprintf("%s of %s failed: %v", op, describeSeries(series), err)
}

// RemoveAuthor explains a failed author removal.
func (d *Diagnoser) RemoveAuthor(authorID uint, err error) string {
	if !diagnosable(err) {
		return err.Error()
	}

	author, msg := d.author(authorID)
	if author == nil {
		return msg
	}
	books, series, cerr := d.authors.ReferenceCounts(authorID)
	if cerr == nil && (books > 0 || series > 0) {
		return fmt.Sprintf("%s is attached to %d books and is the primary author of %d series", describeAuthor(author), books, series)
	}
	return err.Error()
}

// SetOwner explains a failed ownership change.
func (d *Diagnoser) SetOwner(authorID, accountID uint, err error) string {
	if !diagnosable(err) {
		return err.Error()
	}
	if author, msg := d.author(authorID); author == nil {
		return msg
	}
	if errors.Is(err, catalog.ErrAccountNotFound) {
		return fmt.Sprintf("account %d does not exist", accountID)
	}
	return err.Error()
}

// Genre explains a failed genre operation. op is one of "add", "update",
// "parent" or "remove"; parent is the requested parent, if any.
func (d *Diagnoser) Genre(op, name string, parent *string, err error) string {
	if !diagnosable(err) {
		return err.Error()
	}

	canonical := catalog.CanonicalGenre(name)
	if parent != nil {
		p := catalog.CanonicalGenre(*parent)
		if p == canonical {
			return fmt.Sprintf("genre %q cannot be its own parent", canonical)
		}
		if _, gerr := d.genres.GetGenre(p); errors.Is(gerr, catalog.ErrNotFound) {
			return fmt.Sprintf("parent genre %q does not exist", p)
		}
	}
	if op != "add" {
		if _, gerr := d.genres.GetGenre(canonical); errors.Is(gerr, catalog.ErrNotFound) {
			return fmt.Sprintf("genre %q does not exist", canonical)
		}
	}

	switch {
	case errors.Is(err, catalog.ErrStillReferenced):
		if books, children, cerr := d.genres.ReferenceCounts(canonical); cerr == nil {
			return fmt.Sprintf("genre %q is attached to %d books and is the parent of %d genres", canonical, books, children)
		}
	case errors.Is(err, catalog.ErrDuplicate):
		return fmt.Sprintf("genre %q already exists", canonical)
	case op == "parent" && parent != nil && errors.Is(err, catalog.ErrValidation):
		return fmt.Sprintf("genre %q cannot be placed under its own descendant %q", canonical, catalog.CanonicalGenre(*parent))
	}
	return err.Error()
}

func (d *Diagnoser) book(id uint) (*entities.Book, string) {
	book, err := d.books.GetBookByID(id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, fmt.Sprintf("book %d does not exist", id)
		}
		return nil, err.Error()
	}
	return book, ""
}

func (d *Diagnoser) author(id uint) (*entities.Author, string) {
	author, err := d.authors.GetAuthorByID(id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, fmt.Sprintf("author %d does not exist", id)
		}
		return nil, err.Error()
	}
	return author, ""
}

func (d *Diagnoser) seriesByID(id uint) (*entities.Series, string) {
	series, err := d.series.GetByID(id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, fmt.Sprintf("series %d does not exist", id)
		}
		return nil, err.Error()
	}
	return series, ""
}

// diagnosable reports whether re-reading state can explain err. There is
// no point querying a store that is unreachable.
func diagnosable(err error) bool {
	return err != nil && catalog.KindOf(err) != catalog.KindConnectivity
}

func describeBook(b *entities.Book) string {
	return fmt.Sprintf("book %d '%s'", b.ID, b.Title)
}

func describeAuthor(a *entities.Author) string {
	return fmt.Sprintf("author %d (%s)", a.ID, a.FullName())
}

func describeSeries(s *entities.Series) string {
	return fmt.Sprintf("series %d '%s'", s.ID, s.Name)
}

func containsID(ids []uint, id uint) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
