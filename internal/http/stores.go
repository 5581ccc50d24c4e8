package http

import (
	"context"
	"io"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/librarian/internal/audit"
	"github.com/mrlokans/librarian/internal/catalog"
	auditRepo "github.com/mrlokans/librarian/internal/database/audit"
	"github.com/mrlokans/librarian/internal/database/genres"
	"github.com/mrlokans/librarian/internal/entities"
)

// This file consolidates the store interfaces used by the controllers.
// Each controller depends only on the methods it calls.

// BookStore is the book entity store.
type BookStore interface {
	GetBookByID(id uint) (*entities.Book, error)
	GetBooksByAuthor(authorID uint) ([]entities.Book, error)
	GetBooksBySeries(seriesID uint) ([]entities.Book, error)
	GetBooksByTitle(query string) ([]entities.Book, error)
	GetBookByIdentifier(scheme, value string) (*entities.Book, error)
	AddBook(authorIDs []uint, description string, edition int, title string) (uint, error)
	RemoveBook(id uint) error
}

// Editor applies a single (kind, value) edit to a book.
type Editor interface {
	Apply(bookID uint, kind string, value []byte) (catalog.Edit, error)
}

// SeriesStore is the series aggregate.
type SeriesStore interface {
	AddSeries(name string, authorIDs []uint) (*entities.Series, error)
	GetByID(id uint) (*entities.Series, error)
	GetAll() ([]entities.Series, error)
	GetByNameAndAuthor(name string, primaryAuthorID uint) (*entities.Series, error)
	SetStatus(key entities.SeriesKey, status entities.SeriesStatus) error
	IncrementCount(key entities.SeriesKey) error
	DecrementCount(key entities.SeriesKey) error
	RemoveSeries(key entities.SeriesKey) error
}

// AuthorStore is the author directory.
type AuthorStore interface {
	AddAuthor(firstName, lastName, biography string) (*entities.Author, error)
	GetAuthorByID(id uint) (*entities.Author, error)
	Resolve(firstName, lastName string) (*entities.Author, error)
	ListAuthors() ([]entities.Author, error)
	SearchAuthors(query string) ([]entities.Author, error)
	UpdateBiography(id uint, biography string) error
	SetVerifiedOwner(authorID, accountID uint) error
	RemoveAuthor(id uint) error
}

// GenreStore is the genre catalog.
type GenreStore interface {
	AddGenre(genre entities.Genre) (*entities.Genre, error)
	GetGenre(name string) (*entities.Genre, error)
	ListGenres() ([]entities.Genre, error)
	Children(name string) ([]entities.Genre, error)
	UpdateGenre(name, description string, keywords []string, equivalent string) (*entities.Genre, error)
	SetParent(name string, parent *string) error
	RemoveGenre(name string) error
	ImportTaxonomyFrom(reader io.Reader) (genres.ImportResult, error)
}

// AuditRecorder receives audit entries for successful and failed mutations.
type AuditRecorder interface {
	Record(entry audit.Entry)
	LogAuth(userID uint, action, ipAddr, requestID string, success bool)
}

// AuditReader lists recorded audit events.
type AuditReader interface {
	GetEvents(filter auditRepo.Filter, limit, offset int) ([]entities.AuditEvent, int64, error)
}

// TaskQueue enqueues maintenance tasks and reports their status.
type TaskQueue interface {
	Enqueue(ctx context.Context, task backlite.Task) (string, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// CredentialChecker verifies credentials under the login rate limiter.
type CredentialChecker interface {
	Login(ip, username, password string) (*entities.User, error)
}
