// Package interfaces holds compile-time checks that the catalog stores,
// services and task client satisfy the interfaces their consumers declare.
//
// # Where the interfaces live
//
// Interfaces are declared by the package that consumes them and list only
// the methods it calls:
//
//   - http.BookStore, http.AuthorStore, http.SeriesStore, http.GenreStore:
//     the controller view of each store (internal/http/stores.go)
//   - http.BookLookup, http.AuthorLookup, http.SeriesLookup, http.GenreLookup:
//     read-only views used to explain failures (internal/http/diagnose.go)
//   - edits.BookStore: the per-field book mutations an edit routes to
//     (internal/edits/dispatcher.go)
//   - books.AuthorDirectory, books.GenreCatalog: what the book store
//     validates references against (internal/database/books/repository.go)
//   - tasks.SeriesVerifier, tasks.AuditEventCleaner, tasks.MaintenanceReporter:
//     collaborators of the background maintenance tasks
//   - scheduler.Enqueuer: the queue the cron scheduler feeds
//
// # Adding an Edit Kind
//
//  1. Add the constant and its payload type to internal/catalog/edits.go and
//     list it in catalog.EditKinds.
//
//  2. Decode the JSON value in internal/edits/decode.go.
//
//  3. Route it in Dispatcher.Apply to a new method on edits.BookStore and
//     implement that method on books.Repository inside a transaction.
//
//  4. Teach http.Diagnoser.Edit how to explain its failures.
//
// # Adding a Store
//
//  1. Create a sub-package under internal/database/ with
//
//     type Repository struct { db *gorm.DB }
//
//     func NewRepository(db *gorm.DB) *Repository
//
//  2. Register its models in database.Models so they are migrated.
//
//  3. Declare the consumer interface next to the consumer and add a check
//     to checks.go:
//
//     var _ http.SomeStore = (*some.Repository)(nil)
package interfaces
