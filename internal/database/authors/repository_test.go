package authors

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *gorm.DB, func()) {
	dbPath := "./test_authors_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&entities.User{},
		&entities.Author{},
		&entities.Series{},
		&entities.Book{},
		&entities.BookAuthor{},
	)
	require.NoError(t, err)
	require.NoError(t, db.Create(&entities.User{ID: entities.AdminAccountID, Username: "admin", IsAdmin: true}).Error)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return repo, db, cleanup
}

func TestRepository_AddAuthor(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	author, err := repo.AddAuthor("  jane ", "AUSTEN", "Wrote novels")

	require.NoError(t, err)
	assert.NotZero(t, author.ID)
	assert.Equal(t, "Jane", author.FirstName)
	assert.Equal(t, "Austen", author.LastName)
	assert.Equal(t, entities.AdminAccountID, author.VerifiedOwnerID)
}

func TestRepository_AddAuthor_Duplicate(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.AddAuthor("Jane", "Austen", "")
	require.NoError(t, err)

	_, err = repo.AddAuthor("jane", "  austen", "")
	assert.ErrorIs(t, err, catalog.ErrDuplicate)
	assert.Equal(t, catalog.KindConflict, catalog.KindOf(err))
}

func TestRepository_AddAuthor_BlankLastName(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.AddAuthor("Jane", "   ", "")
	assert.ErrorIs(t, err, catalog.ErrInvalidName)
}

func TestRepository_Resolve(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	created, err := repo.AddAuthor("Ursula K.", "Le Guin", "")
	require.NoError(t, err)

	found, err := repo.Resolve("ursula  k.", "le guin")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = repo.Resolve("Nobody", "Here")
	assert.ErrorIs(t, err, catalog.ErrAuthorNotFound)
}

func TestRepository_ExistsAndMissingIDs(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	a, err := repo.AddAuthor("A", "One", "")
	require.NoError(t, err)
	b, err := repo.AddAuthor("B", "Two", "")
	require.NoError(t, err)

	ok, err := repo.Exists(a.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Exists(999)
	require.NoError(t, err)
	assert.False(t, ok)

	missing, err := repo.MissingIDs([]uint{b.ID, 500, a.ID, 400})
	require.NoError(t, err)
	assert.Equal(t, []uint{500, 400}, missing)
}

func TestRepository_SearchAuthors(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.AddAuthor("Terry", "Pratchett", "")
	require.NoError(t, err)
	_, err = repo.AddAuthor("Neil", "Gaiman", "")
	require.NoError(t, err)

	found, err := repo.SearchAuthors("PRATCH")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Pratchett", found[0].LastName)

	found, err = repo.SearchAuthors("_")
	require.NoError(t, err)
	assert.Empty(t, found)

	found, err = repo.SearchAuthors("%")
	require.NoError(t, err)
	assert.Empty(t, found)

	all, err := repo.ListAuthors()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Gaiman", all[0].LastName)
}

func TestRepository_UpdateBiography(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	author, err := repo.AddAuthor("Jane", "Austen", "")
	require.NoError(t, err)

	require.NoError(t, repo.UpdateBiography(author.ID, "English novelist"))
	got, err := repo.GetAuthorByID(author.ID)
	require.NoError(t, err)
	assert.Equal(t, "English novelist", got.Biography)

	assert.ErrorIs(t, repo.UpdateBiography(999, "x"), catalog.ErrAuthorNotFound)
}

func TestRepository_SetVerifiedOwner(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	author, err := repo.AddAuthor("Jane", "Austen", "")
	require.NoError(t, err)
	owner := entities.User{Username: "jane"}
	require.NoError(t, db.Create(&owner).Error)

	require.NoError(t, repo.SetVerifiedOwner(author.ID, owner.ID))
	got, err := repo.GetAuthorByID(author.ID)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, got.VerifiedOwnerID)

	assert.ErrorIs(t, repo.SetVerifiedOwner(author.ID, 999), catalog.ErrAccountNotFound)
	assert.ErrorIs(t, repo.SetVerifiedOwner(999, owner.ID), catalog.ErrAuthorNotFound)
}

func TestRepository_RemoveAuthor(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	attached, err := repo.AddAuthor("Jane", "Austen", "")
	require.NoError(t, err)
	free, err := repo.AddAuthor("Free", "Author", "")
	require.NoError(t, err)

	book := entities.Book{Title: "Emma", PrimaryAuthorID: attached.ID, CountAuthors: 1}
	require.NoError(t, db.Omit("Authors", "Genres", "Identifiers").Create(&book).Error)
	require.NoError(t, db.Create(&entities.BookAuthor{BookID: book.ID, AuthorID: attached.ID}).Error)

	err = repo.RemoveAuthor(attached.ID)
	assert.ErrorIs(t, err, catalog.ErrStillReferenced)

	books, series, err := repo.ReferenceCounts(attached.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), books)
	assert.Zero(t, series)

	require.NoError(t, repo.RemoveAuthor(free.ID))
	_, err = repo.GetAuthorByID(free.ID)
	assert.ErrorIs(t, err, catalog.ErrAuthorNotFound)

	assert.ErrorIs(t, repo.RemoveAuthor(free.ID), catalog.ErrAuthorNotFound)
}
