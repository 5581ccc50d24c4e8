package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/entities"
)

type AuthorsController struct {
	authors  AuthorStore
	diagnose *Diagnoser
	audit    AuditRecorder
}

func NewAuthorsController(authors AuthorStore, diagnose *Diagnoser, recorder AuditRecorder) *AuthorsController {
	return &AuthorsController{
		authors:  authors,
		diagnose: diagnose,
		audit:    recorder,
	}
}

// ListAuthors handles GET /api/authors, optionally filtered by ?q=
func (ac *AuthorsController) ListAuthors(c *gin.Context) {
	var (
		authors []entities.Author
		err     error
	)
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		authors, err = ac.authors.SearchAuthors(q)
	} else {
		authors, err = ac.authors.ListAuthors()
	}
	if err != nil {
		respondStoreError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"authors": authors, "count": len(authors)})
}

// GetAuthor handles GET /api/authors/:id
func (ac *AuthorsController) GetAuthor(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	author, err := ac.authors.GetAuthorByID(id)
	if err != nil {
		respondStoreError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, author)
}

// ResolveAuthor handles GET /api/authors/resolve?first=&last=
func (ac *AuthorsController) ResolveAuthor(c *gin.Context) {
	first, last := c.Query("first"), c.Query("last")
	if strings.TrimSpace(last) == "" {
		respondBadRequest(c, "last query parameter is required")
		return
	}

	author, err := ac.authors.Resolve(first, last)
	if err != nil {
		name := AuthorName{FirstName: first, LastName: last}
		respondStoreError(c, err, fmt.Sprintf("author '%s' does not exist", name))
		return
	}
	c.JSON(http.StatusOK, author)
}

// CreateAuthor handles POST /api/authors
func (ac *AuthorsController) CreateAuthor(c *gin.Context) {
	var req AddAuthorRequest
	if !bindRequest(c, &req) {
		return
	}

	author, err := ac.authors.AddAuthor(req.FirstName, req.LastName, req.Biography)
	if err != nil {
		name := AuthorName{FirstName: req.FirstName, LastName: req.LastName}
		ac.record(c, "author_add", 0, fmt.Sprintf("Add author '%s'", name), err)
		respondStoreError(c, err, "")
		return
	}

	ac.record(c, "author_add", author.ID, fmt.Sprintf("Added author '%s'", author.FullName()), nil)
	respondCreated(c, author)
}

// UpdateBiography handles PUT /api/authors/:id/biography
func (ac *AuthorsController) UpdateBiography(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req BiographyRequest
	if !bindRequest(c, &req) {
		return
	}

	if err := ac.authors.UpdateBiography(id, req.Biography); err != nil {
		ac.record(c, "author_biography", id, fmt.Sprintf("Update biography of author %d", id), err)
		respondStoreError(c, err, "")
		return
	}

	ac.record(c, "author_biography", id, fmt.Sprintf("Updated biography of author %d", id), nil)
	ac.respondCurrent(c, id)
}

// SetOwner handles PUT /api/authors/:id/owner
func (ac *AuthorsController) SetOwner(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req OwnerRequest
	if !bindRequest(c, &req) {
		return
	}

	if err := ac.authors.SetVerifiedOwner(id, req.AccountID); err != nil {
		ac.record(c, "author_owner", id, fmt.Sprintf("Set owner of author %d to account %d", id, req.AccountID), err)
		respondStoreError(c, err, ac.diagnose.SetOwner(id, req.AccountID, err))
		return
	}

	ac.record(c, "author_owner", id, fmt.Sprintf("Set owner of author %d to account %d", id, req.AccountID), nil)
	ac.respondCurrent(c, id)
}

// DeleteAuthor handles DELETE /api/authors/:id
func (ac *AuthorsController) DeleteAuthor(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ac.authors.RemoveAuthor(id); err != nil {
		ac.record(c, "author_remove", id, fmt.Sprintf("Remove author %d", id), err)
		respondStoreError(c, err, ac.diagnose.RemoveAuthor(id, err))
		return
	}

	ac.record(c, "author_remove", id, fmt.Sprintf("Removed author %d", id), nil)
	respondSuccess(c, "author removed")
}

func (ac *AuthorsController) respondCurrent(c *gin.Context, id uint) {
	author, err := ac.authors.GetAuthorByID(id)
	if err != nil {
		respondStoreError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, author)
}

func (ac *AuthorsController) record(c *gin.Context, action string, authorID uint, description string, err error) {
	recordMutation(c, ac.audit, entities.AuditEventAuthor, action, "author", authorID, description, nil, err)
}
