package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/entities"
)

// maxTaxonomySize caps the YAML body accepted by ImportTaxonomy.
const maxTaxonomySize = 1 << 20

type GenresController struct {
	genres   GenreStore
	diagnose *Diagnoser
	audit    AuditRecorder
}

func NewGenresController(genres GenreStore, diagnose *Diagnoser, recorder AuditRecorder) *GenresController {
	return &GenresController{
		genres:   genres,
		diagnose: diagnose,
		audit:    recorder,
	}
}

// ListGenres handles GET /api/genres
func (gc *GenresController) ListGenres(c *gin.Context) {
	genres, err := gc.genres.ListGenres()
	if err != nil {
		respondStoreError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"genres": genres, "count": len(genres)})
}

// GetGenre handles GET /api/genres/:name
// The response includes the direct children of the genre.
func (gc *GenresController) GetGenre(c *gin.Context) {
	name := catalog.CanonicalGenre(c.Param("name"))

	genre, err := gc.genres.GetGenre(name)
	if err != nil {
		respondStoreError(c, err, fmt.Sprintf("genre %q does not exist", name))
		return
	}
	children, err := gc.genres.Children(name)
	if err != nil {
		respondStoreError(c, err, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"genre": genre, "children": children})
}

// CreateGenre handles POST /api/genres
func (gc *GenresController) CreateGenre(c *gin.Context) {
	var req AddGenreRequest
	if !bindRequest(c, &req) {
		return
	}

	genre, err := gc.genres.AddGenre(entities.Genre{
		Name:               req.Name,
		Description:        req.Description,
		ParentName:         req.Parent,
		Keywords:           req.Keywords,
		ExternalEquivalent: req.Equivalent,
	})
	if err != nil {
		gc.record(c, "genre_add", fmt.Sprintf("Add genre %q", catalog.CanonicalGenre(req.Name)), err)
		respondStoreError(c, err, gc.diagnose.Genre("add", req.Name, req.Parent, err))
		return
	}

	gc.record(c, "genre_add", fmt.Sprintf("Added genre %q", genre.Name), nil)
	respondCreated(c, genre)
}

// UpdateGenre handles PUT /api/genres/:name
func (gc *GenresController) UpdateGenre(c *gin.Context) {
	name := catalog.CanonicalGenre(c.Param("name"))
	var req UpdateGenreRequest
	if !bindRequest(c, &req) {
		return
	}

	genre, err := gc.genres.UpdateGenre(name, req.Description, req.Keywords, req.Equivalent)
	if err != nil {
		gc.record(c, "genre_update", fmt.Sprintf("Update genre %q", name), err)
		respondStoreError(c, err, gc.diagnose.Genre("update", name, nil, err))
		return
	}

	gc.record(c, "genre_update", fmt.Sprintf("Updated genre %q", name), nil)
	c.JSON(http.StatusOK, genre)
}

// SetParent handles PUT /api/genres/:name/parent
func (gc *GenresController) SetParent(c *gin.Context) {
	name := catalog.CanonicalGenre(c.Param("name"))
	var req ParentRequest
	if !bindRequest(c, &req) {
		return
	}

	description := fmt.Sprintf("Detach genre %q from its parent", name)
	if req.Parent != nil {
		description = fmt.Sprintf("Move genre %q under %q", name, catalog.CanonicalGenre(*req.Parent))
	}

	if err := gc.genres.SetParent(name, req.Parent); err != nil {
		gc.record(c, "genre_parent", description, err)
		respondStoreError(c, err, gc.diagnose.Genre("parent", name, req.Parent, err))
		return
	}

	gc.record(c, "genre_parent", description, nil)
	genre, err := gc.genres.GetGenre(name)
	if err != nil {
		respondStoreError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, genre)
}

// DeleteGenre handles DELETE /api/genres/:name
func (gc *GenresController) DeleteGenre(c *gin.Context) {
	name := catalog.CanonicalGenre(c.Param("name"))

	if err := gc.genres.RemoveGenre(name); err != nil {
		gc.record(c, "genre_remove", fmt.Sprintf("Remove genre %q", name), err)
		respondStoreError(c, err, gc.diagnose.Genre("remove", name, nil, err))
		return
	}

	gc.record(c, "genre_remove", fmt.Sprintf("Removed genre %q", name), nil)
	respondSuccess(c, "genre removed")
}

// ImportTaxonomy handles POST /api/genres/import
// The request body is a YAML taxonomy document.
func (gc *GenresController) ImportTaxonomy(c *gin.Context) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxTaxonomySize)

	result, err := gc.genres.ImportTaxonomyFrom(body)
	metadata := map[string]any{"added": result.Added, "skipped": result.Skipped}
	if err != nil {
		recordMutation(c, gc.audit, entities.AuditEventGenre, "genre_import", "genre", 0, "Import genre taxonomy", metadata, err)
		respondStoreError(c, err, "")
		return
	}

	recordMutation(c, gc.audit, entities.AuditEventGenre, "genre_import", "genre", 0,
		fmt.Sprintf("Imported %d genres", result.Added), metadata, nil)
	c.JSON(http.StatusOK, gin.H{"added": result.Added, "skipped": result.Skipped})
}

func (gc *GenresController) record(c *gin.Context, action, description string, err error) {
	recordMutation(c, gc.audit, entities.AuditEventGenre, action, "genre", 0, description, nil, err)
}
