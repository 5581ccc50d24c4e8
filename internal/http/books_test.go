package http

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarian/internal/catalog"
	auditRepo "github.com/mrlokans/librarian/internal/database/audit"
	"github.com/mrlokans/librarian/internal/entities"
)

func TestBooksController_CreateBook(t *testing.T) {
	t.Run("creates book with resolved authors", func(t *testing.T) {
		tc := setupCatalog(t)
		terry := tc.author(t, "Terry", "Pratchett")
		neil := tc.author(t, "Neil", "Gaiman")

		w := tc.admin(http.MethodPost, "/api/books", gin.H{
			"title":      "  Good   Omens ",
			"author_ids": []uint{neil},
			"authors":    []gin.H{{"first_name": "terry", "last_name": "PRATCHETT"}},
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		book := decode[entities.Book](t, w)
		assert.ElementsMatch(t, []uint{terry, neil}, book.AuthorIDs())
		assert.Equal(t, terry, book.PrimaryAuthorID)
		assert.Equal(t, 2, book.CountAuthors)
		assert.Equal(t, catalog.UnknownEdition, book.Edition)
	})

	t.Run("rejects missing title", func(t *testing.T) {
		tc := setupCatalog(t)
		a := tc.author(t, "Terry", "Pratchett")

		w := tc.admin(http.MethodPost, "/api/books", gin.H{"title": "  ", "author_ids": []uint{a}})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		resp := decode[ErrorResponse](t, w)
		assert.Equal(t, "validation", resp.Code)
		assert.Contains(t, resp.Details, "title")
	})

	t.Run("rejects empty author list", func(t *testing.T) {
		tc := setupCatalog(t)

		w := tc.admin(http.MethodPost, "/api/books", gin.H{"title": "Mort"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("names first unknown author id", func(t *testing.T) {
		tc := setupCatalog(t)
		a := tc.author(t, "Terry", "Pratchett")

		w := tc.admin(http.MethodPost, "/api/books", gin.H{"title": "Mort", "author_ids": []uint{a, 42, 7}})
		assert.Equal(t, http.StatusNotFound, w.Code)

		resp := decode[ErrorResponse](t, w)
		assert.Equal(t, "author 42 does not exist", resp.Error)
		assert.Equal(t, "not_found", resp.Code)
	})

	t.Run("names unknown author by name", func(t *testing.T) {
		tc := setupCatalog(t)

		w := tc.admin(http.MethodPost, "/api/books", gin.H{
			"title":   "Mort",
			"authors": []gin.H{{"first_name": "Terry", "last_name": "Pratchett"}},
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "author 'Terry Pratchett' does not exist", decode[ErrorResponse](t, w).Error)
	})

	t.Run("records audit event", func(t *testing.T) {
		tc := setupCatalog(t)
		a := tc.author(t, "Terry", "Pratchett")

		w := tc.admin(http.MethodPost, "/api/books", gin.H{"title": "Mort", "author_ids": []uint{a}})
		require.Equal(t, http.StatusCreated, w.Code)
		tc.audit.Wait()

		events, total, err := tc.audit.GetEvents(auditRepo.Filter{EventType: entities.AuditEventBook}, 10, 0)
		require.NoError(t, err)
		require.Equal(t, int64(1), total)
		assert.Equal(t, "book_add", events[0].Action)
		assert.Equal(t, entities.AdminAccountID, events[0].UserID)
		assert.Equal(t, entities.AuditStatusSuccess, events[0].Status)
		assert.NotEmpty(t, events[0].RequestID)
	})
}

func TestBooksController_Lookups(t *testing.T) {
	tc := setupCatalog(t)
	a := tc.author(t, "Terry", "Pratchett")
	mort := tc.book(t, "Mort", a)
	tc.book(t, "Guards! Guards!", a)
	require.NoError(t, tc.books.SetIdentifiers(mort, []catalog.Identifier{{Scheme: "ISBN", Value: "978-0-552-13106-4"}}))

	t.Run("get by id", func(t *testing.T) {
		w := tc.request(http.MethodGet, "/api/books/1", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Mort", decode[entities.Book](t, w).Title)
	})

	t.Run("missing book is 404", func(t *testing.T) {
		w := tc.request(http.MethodGet, "/api/books/99", nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid id is 400", func(t *testing.T) {
		w := tc.request(http.MethodGet, "/api/books/abc", nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("search by title", func(t *testing.T) {
		w := tc.request(http.MethodGet, "/api/books?title=guards", nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		resp := decode[struct {
			Books []entities.Book `json:"books"`
			Count int             `json:"count"`
		}](t, w)
		assert.Equal(t, 1, resp.Count)
		assert.Equal(t, "Guards! Guards!", resp.Books[0].Title)
	})

	t.Run("search requires title", func(t *testing.T) {
		w := tc.request(http.MethodGet, "/api/books", nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("by author", func(t *testing.T) {
		w := tc.request(http.MethodGet, "/api/books/by-author/1", nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		resp := decode[struct {
			Count int `json:"count"`
		}](t, w)
		assert.Equal(t, 2, resp.Count)
	})

	t.Run("by identifier uses canonical form", func(t *testing.T) {
		w := tc.request(http.MethodGet, "/api/books/by-identifier?scheme=isbn&value=9780552131064", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, mort, decode[entities.Book](t, w).ID)
	})

	t.Run("unknown identifier", func(t *testing.T) {
		w := tc.request(http.MethodGet, "/api/books/by-identifier?scheme=isbn&value=123", nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "no book has identifier isbn:123", decode[ErrorResponse](t, w).Error)
	})
}

func TestBooksController_DeleteBook(t *testing.T) {
	tc := setupCatalog(t)
	a := tc.author(t, "Terry", "Pratchett")
	id := tc.book(t, "Mort", a)

	w := tc.admin(http.MethodDelete, "/api/books/1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	exists, err := tc.books.Exists(id)
	require.NoError(t, err)
	assert.False(t, exists)

	w = tc.admin(http.MethodDelete, "/api/books/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "book 1 does not exist", decode[ErrorResponse](t, w).Error)
}

func TestBooksController_EditBook(t *testing.T) {
	setup := func(t *testing.T) (*testCatalog, uint, uint, uint) {
		tc := setupCatalog(t)
		terry := tc.author(t, "Terry", "Pratchett")
		neil := tc.author(t, "Neil", "Gaiman")
		return tc, terry, neil, tc.book(t, "Good Omens", terry)
	}

	t.Run("adds author and returns book", func(t *testing.T) {
		tc, _, neil, _ := setup(t)

		w := tc.admin(http.MethodPatch, "/api/books/1", gin.H{"kind": "ADD_AUTHOR", "value": neil})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, 2, decode[entities.Book](t, w).CountAuthors)
	})

	t.Run("kind is case-insensitive", func(t *testing.T) {
		tc, _, _, _ := setup(t)

		w := tc.admin(http.MethodPatch, "/api/books/1", gin.H{"kind": "set_publisher", "value": "Gollancz"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "Gollancz", decode[entities.Book](t, w).Publisher)
	})

	t.Run("already attached is explained", func(t *testing.T) {
		tc, terry, _, _ := setup(t)

		w := tc.admin(http.MethodPatch, "/api/books/1", gin.H{"kind": "ADD_AUTHOR", "value": terry})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "author 1 (Terry Pratchett) is already attached to book 1 'Good Omens'", decode[ErrorResponse](t, w).Error)
	})

	t.Run("removing only author is explained", func(t *testing.T) {
		tc, terry, _, _ := setup(t)

		w := tc.admin(http.MethodPatch, "/api/books/1", gin.H{"kind": "REMOVE_AUTHOR", "value": terry})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, decode[ErrorResponse](t, w).Error, "is the only author of book 1 'Good Omens'")
	})

	t.Run("unknown genre is explained", func(t *testing.T) {
		tc, _, _, _ := setup(t)

		w := tc.admin(http.MethodPatch, "/api/books/1", gin.H{"kind": "SET_GENRES", "value": []string{"Fantasy"}})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, `genre "Fantasy" does not exist`, decode[ErrorResponse](t, w).Error)
	})

	t.Run("invalid kind", func(t *testing.T) {
		tc, _, _, _ := setup(t)

		w := tc.admin(http.MethodPatch, "/api/books/1", gin.H{"kind": "SET_TITLE", "value": "x"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "validation", decode[ErrorResponse](t, w).Code)
	})

	t.Run("null value", func(t *testing.T) {
		tc, _, _, _ := setup(t)

		w := tc.admin(http.MethodPatch, "/api/books/1", `{"kind":"SET_PUBLISHER","value":null}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("type mismatch", func(t *testing.T) {
		tc, _, _, _ := setup(t)

		w := tc.admin(http.MethodPatch, "/api/books/1", gin.H{"kind": "SET_EDITION", "value": "second"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing book", func(t *testing.T) {
		tc, _, _, _ := setup(t)

		w := tc.admin(http.MethodPatch, "/api/books/9", gin.H{"kind": "SET_PUBLISHER", "value": "Gollancz"})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "book 9 does not exist", decode[ErrorResponse](t, w).Error)
	})

	t.Run("identifier collision names owner", func(t *testing.T) {
		tc, terry, _, _ := setup(t)
		other := tc.book(t, "Mort", terry)
		require.NoError(t, tc.books.SetIdentifiers(other, []catalog.Identifier{{Scheme: "isbn", Value: "111"}}))

		w := tc.admin(http.MethodPatch, "/api/books/1", gin.H{
			"kind":  "SET_IDENTIFIERS",
			"value": []gin.H{{"scheme": "ISBN", "value": "1-1-1"}},
		})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "identifier isbn:111 already belongs to book 2 'Mort'", decode[ErrorResponse](t, w).Error)
	})

	t.Run("series move keeps counters", func(t *testing.T) {
		tc, terry, _, _ := setup(t)
		s, err := tc.series.AddSeries("Discworld", []uint{terry})
		require.NoError(t, err)

		w := tc.admin(http.MethodPatch, "/api/books/1", gin.H{"kind": "SET_SERIES_ID", "value": s.ID})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		current, err := tc.series.GetByID(s.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, current.NumberBooksInSeries)

		w = tc.admin(http.MethodPatch, "/api/books/1", gin.H{"kind": "SET_SERIES_ID", "value": 0})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		current, err = tc.series.GetByID(s.ID)
		require.NoError(t, err)
		assert.Zero(t, current.NumberBooksInSeries)
	})

	t.Run("failed edit is audited", func(t *testing.T) {
		tc, terry, _, _ := setup(t)

		w := tc.admin(http.MethodPatch, "/api/books/1", gin.H{"kind": "ADD_AUTHOR", "value": terry})
		require.Equal(t, http.StatusConflict, w.Code)
		tc.audit.Wait()

		events, _, err := tc.audit.GetEvents(auditRepo.Filter{EntityType: "book", EntityID: 1}, 10, 0)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, entities.AuditStatusFailed, events[0].Status)
		assert.NotEmpty(t, events[0].ErrorMsg)
	})
}
