package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/librarian/internal/audit"
	"github.com/mrlokans/librarian/internal/auth"
	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/database/authors"
	"github.com/mrlokans/librarian/internal/database/books"
	"github.com/mrlokans/librarian/internal/database/genres"
	"github.com/mrlokans/librarian/internal/database/series"
	"github.com/mrlokans/librarian/internal/database/users"
	"github.com/mrlokans/librarian/internal/edits"
	"github.com/mrlokans/librarian/internal/http"
	"github.com/mrlokans/librarian/internal/scheduler"
	"github.com/mrlokans/librarian/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

var _ http.BookStore = (*books.Repository)(nil)
var _ http.AuthorStore = (*authors.Repository)(nil)
var _ http.SeriesStore = (*series.Repository)(nil)
var _ http.GenreStore = (*genres.Repository)(nil)
var _ edits.BookStore = (*books.Repository)(nil)

// Book store collaborators
var _ books.AuthorDirectory = (*authors.Repository)(nil)
var _ books.GenreCatalog = (*genres.Repository)(nil)

// Diagnosis lookups
var _ http.BookLookup = (*books.Repository)(nil)
var _ http.AuthorLookup = (*authors.Repository)(nil)
var _ http.SeriesLookup = (*series.Repository)(nil)
var _ http.GenreLookup = (*genres.Repository)(nil)

// =============================================================================
// Edits, Auth and Audit
// =============================================================================

var _ http.Editor = (*edits.Dispatcher)(nil)
var _ http.CredentialChecker = (*auth.Middleware)(nil)
var _ auth.UserRepository = (*users.Repository)(nil)
var _ http.AuditRecorder = (*audit.Service)(nil)
var _ http.AuditReader = (*audit.Service)(nil)
var _ http.Pinger = (*database.Database)(nil)

// =============================================================================
// Background Tasks
// =============================================================================

var _ http.TaskQueue = (*tasks.Client)(nil)
var _ scheduler.Enqueuer = (*tasks.Client)(nil)
var _ tasks.SeriesVerifier = (*series.Repository)(nil)
var _ tasks.MaintenanceReporter = (*audit.Service)(nil)
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)
