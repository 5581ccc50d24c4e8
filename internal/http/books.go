package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/audit"
	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/entities"
)

// AuthorResolver finds an author by canonical name.
type AuthorResolver interface {
	Resolve(firstName, lastName string) (*entities.Author, error)
}

type BooksController struct {
	books    BookStore
	editor   Editor
	authors  AuthorResolver
	diagnose *Diagnoser
	audit    AuditRecorder
}

func NewBooksController(books BookStore, editor Editor, authors AuthorResolver, diagnose *Diagnoser, recorder AuditRecorder) *BooksController {
	return &BooksController{
		books:    books,
		editor:   editor,
		authors:  authors,
		diagnose: diagnose,
		audit:    recorder,
	}
}

// GetBook handles GET /api/books/:id
func (bc *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.books.GetBookByID(id)
	if err != nil {
		respondStoreError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, book)
}

// SearchBooks handles GET /api/books?title=
func (bc *BooksController) SearchBooks(c *gin.Context) {
	title := strings.TrimSpace(c.Query("title"))
	if title == "" {
		respondBadRequest(c, "title query parameter is required")
		return
	}

	books, err := bc.books.GetBooksByTitle(title)
	if err != nil {
		respondStoreError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": books, "count": len(books)})
}

// GetBooksByAuthor handles GET /api/books/by-author/:id
func (bc *BooksController) GetBooksByAuthor(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	books, err := bc.books.GetBooksByAuthor(id)
	if err != nil {
		respondStoreError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": books, "count": len(books)})
}

// GetBooksBySeries handles GET /api/books/by-series/:id
func (bc *BooksController) GetBooksBySeries(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	books, err := bc.books.GetBooksBySeries(id)
	if err != nil {
		respondStoreError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": books, "count": len(books)})
}

// GetBookByIdentifier handles GET /api/books/by-identifier?scheme=&value=
func (bc *BooksController) GetBookByIdentifier(c *gin.Context) {
	scheme, value := c.Query("scheme"), c.Query("value")
	if strings.TrimSpace(scheme) == "" || strings.TrimSpace(value) == "" {
		respondBadRequest(c, "scheme and value query parameters are required")
		return
	}

	book, err := bc.books.GetBookByIdentifier(scheme, value)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			respondStoreError(c, err, fmt.Sprintf("no book has identifier %s:%s", scheme, value))
			return
		}
		respondStoreError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, book)
}

// CreateBook handles POST /api/books
func (bc *BooksController) CreateBook(c *gin.Context) {
	var req AddBookRequest
	if !bindRequest(c, &req) {
		return
	}

	authorIDs, ok := bc.resolveAuthors(c, req)
	if !ok {
		return
	}

	description := ""
	if req.Description != nil {
		description = *req.Description
	}
	edition := catalog.UnknownEdition
	if req.Edition != nil {
		edition = *req.Edition
	}

	id, err := bc.books.AddBook(authorIDs, description, edition, req.Title)
	if err != nil {
		bc.record(c, "book_add", 0, "Add book '"+strings.TrimSpace(req.Title)+"'", nil, err)
		respondStoreError(c, err, bc.diagnose.AddBook(authorIDs, req.Title, err))
		return
	}
	bc.record(c, "book_add", id, "Added book '"+strings.TrimSpace(req.Title)+"'", map[string]any{"author_ids": authorIDs}, nil)

	book, err := bc.books.GetBookByID(id)
	if err != nil {
		respondStoreError(c, err, "")
		return
	}
	respondCreated(c, book)
}

// resolveAuthors merges explicit ids with ids of authors given by name,
// keeping input order. Unknown names are reported by first and last name.
func (bc *BooksController) resolveAuthors(c *gin.Context, req AddBookRequest) ([]uint, bool) {
	ids := append([]uint(nil), req.AuthorIDs...)
	for _, name := range req.Authors {
		author, err := bc.authors.Resolve(name.FirstName, name.LastName)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				respondStoreError(c, err, fmt.Sprintf("author '%s' does not exist", name))
				return nil, false
			}
			respondStoreError(c, err, "")
			return nil, false
		}
		ids = append(ids, author.ID)
	}
	return ids, true
}

// DeleteBook handles DELETE /api/books/:id
func (bc *BooksController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := bc.books.RemoveBook(id); err != nil {
		bc.record(c, "book_remove", id, fmt.Sprintf("Remove book %d", id), nil, err)
		respondStoreError(c, err, bc.diagnose.RemoveBook(id, err))
		return
	}

	bc.record(c, "book_remove", id, fmt.Sprintf("Removed book %d", id), nil, nil)
	respondSuccess(c, "book removed")
}

// EditBook handles PATCH /api/books/:id with {"kind": "...", "value": ...}
func (bc *BooksController) EditBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req EditRequest
	if !bindRequest(c, &req) {
		return
	}

	edit, err := bc.editor.Apply(id, req.Kind, req.Value)
	if err != nil {
		if edit != nil {
			bc.record(c, "book_edit", id, fmt.Sprintf("%s on book %d", edit.Kind(), id), map[string]any{"kind": edit.Kind()}, err)
		}
		respondStoreError(c, err, bc.diagnose.Edit(id, edit, err))
		return
	}
	bc.record(c, "book_edit", id, fmt.Sprintf("%s on book %d", edit.Kind(), id), map[string]any{"kind": edit.Kind()}, nil)

	book, err := bc.books.GetBookByID(id)
	if err != nil {
		respondStoreError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, book)
}

func (bc *BooksController) record(c *gin.Context, action string, bookID uint, description string, metadata map[string]any, err error) {
	recordMutation(c, bc.audit, entities.AuditEventBook, action, "book", bookID, description, metadata, err)
}

// recordMutation hands an audit entry for the current request to recorder.
func recordMutation(c *gin.Context, recorder AuditRecorder, eventType entities.AuditEventType, action, entityType string, entityID uint, description string, metadata map[string]any, err error) {
	if recorder == nil {
		return
	}
	recorder.Record(audit.Entry{
		UserID:      GetUserID(c),
		EventType:   eventType,
		Action:      action,
		Description: description,
		EntityType:  entityType,
		EntityID:    entityID,
		RequestID:   requestID(c),
		IPAddress:   c.ClientIP(),
		Metadata:    metadata,
		Err:         err,
	})
}
