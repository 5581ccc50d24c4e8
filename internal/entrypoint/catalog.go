package entrypoint

import (
	"fmt"

	"github.com/mrlokans/librarian/internal/audit"
	"github.com/mrlokans/librarian/internal/auth"
	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/database"
	auditRepo "github.com/mrlokans/librarian/internal/database/audit"
	"github.com/mrlokans/librarian/internal/database/authors"
	"github.com/mrlokans/librarian/internal/database/books"
	"github.com/mrlokans/librarian/internal/database/genres"
	"github.com/mrlokans/librarian/internal/database/series"
	"github.com/mrlokans/librarian/internal/database/users"
	"github.com/mrlokans/librarian/internal/edits"
)

// Catalog bundles the stores built on one database connection.
// Commands that only touch the database open a Catalog instead of
// running the whole server.
type Catalog struct {
	DB      *database.Database
	Authors *authors.Repository
	Genres  *genres.Repository
	Series  *series.Repository
	Books   *books.Repository
	Editor  *edits.Dispatcher
	Users   *users.Repository
	Audit   *audit.Service
	Auth    *auth.Service
}

// OpenCatalog connects to the configured database and wires the stores.
func OpenCatalog(cfg *config.Config) (*Catalog, error) {
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	authorRepo := authors.NewRepository(db.DB)
	genreRepo := genres.NewRepository(db.DB)
	bookRepo := books.NewRepository(db.DB, authorRepo, genreRepo)
	userRepo := users.NewRepository(db.DB)

	c := &Catalog{
		DB:      db,
		Authors: authorRepo,
		Genres:  genreRepo,
		Series:  series.NewRepository(db.DB),
		Books:   bookRepo,
		Editor:  edits.NewDispatcher(bookRepo),
		Users:   userRepo,
		Audit:   audit.NewService(auditRepo.NewRepository(db.DB)),
		Auth:    auth.NewService(userRepo, cfg.Auth),
	}

	return c, nil
}

// Close flushes pending audit events and closes the database.
func (c *Catalog) Close() error {
	c.Audit.Wait()
	return c.DB.Close()
}
