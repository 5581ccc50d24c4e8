// Package database provides the data access layer for the catalog.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations, admin account seeding
//	├── unitofwork.go    # Transaction helper and error classification
//	├── authors/         # Author Directory
//	├── genres/          # Genre Catalog and taxonomy import
//	├── series/          # Series aggregate counters and status
//	├── books/           # Book rows and their author/genre/identifier sets
//	├── users/           # Accounts
//	└── audit/           # Audit events
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./librarian.db")
//
//	authorsRepo := authors.NewRepository(db.DB)
//	seriesRepo := series.NewRepository(db.DB)
//	booksRepo := books.NewRepository(db.DB, authorsRepo, genresRepo)
//
//	book, err := booksRepo.GetBookByID(123)
//
// # Units of Work
//
// Every mutation touching more than one row goes through Atomically, which
// wraps gorm's Transaction. Inside the callback use only the tx handle:
// SQLite holds a write lock for the transaction and a statement issued on
// the outer handle would wait on it.
//
//	err := database.Atomically(db, "add author", func(tx *gorm.DB) error {
//		res := tx.Model(&entities.Book{}).Where("id = ?", id).
//			Update("count_authors", gorm.Expr("count_authors + 1"))
//		return database.ExpectRows(res, 1, "count_authors")
//	})
//
// Errors follow the taxonomy in package catalog: reads go through Classify,
// transaction failures without a kind become catalog.ErrTransaction.
package database
