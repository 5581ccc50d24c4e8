package http

import (
	"github.com/mrlokans/librarian/internal/auth"
)

// RouterConfig contains all dependencies needed to create the HTTP router.
type RouterConfig struct {
	// Catalog stores
	Books   BookStore
	Editor  Editor
	Authors AuthorStore
	Series  SeriesStore
	Genres  GenreStore

	// Diagnoser explains failed mutations.
	Diagnoser *Diagnoser

	// Authentication. Without AuthMiddleware every request is anonymous and
	// mutating routes are not registered.
	AuthMiddleware *auth.Middleware
	TokenIssuer    *auth.TokenIssuer

	// Audit trail (optional)
	AuditRecorder AuditRecorder
	AuditReader   AuditReader

	// Task queue client (optional)
	TaskQueue          TaskQueue
	AuditRetentionDays int

	// Health
	Database Pinger
	Version  string
}
