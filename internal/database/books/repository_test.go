package books

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/database/authors"
	"github.com/mrlokans/librarian/internal/database/genres"
	"github.com/mrlokans/librarian/internal/database/series"
	"github.com/mrlokans/librarian/internal/entities"
)

// BookStoreSuite runs every test against a fresh SQLite file.
type BookStoreSuite struct {
	suite.Suite
	dbPath  string
	db      *gorm.DB
	repo    *Repository
	authors *authors.Repository
	genres  *genres.Repository
	series  *series.Repository
}

func TestBookStoreSuite(t *testing.T) {
	suite.Run(t, new(BookStoreSuite))
}

func (s *BookStoreSuite) SetupTest() {
	s.dbPath = "./test_books_" + strings.ReplaceAll(s.T().Name(), "/", "_") + ".db"

	db, err := gorm.Open(sqlite.Open(s.dbPath), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	s.Require().NoError(err)
	s.Require().NoError(db.AutoMigrate(
		&entities.User{},
		&entities.Author{},
		&entities.Genre{},
		&entities.Series{},
		&entities.Book{},
		&entities.BookAuthor{},
		&entities.BookGenre{},
		&entities.BookIdentifier{},
	))

	s.db = db
	s.authors = authors.NewRepository(db)
	s.genres = genres.NewRepository(db)
	s.series = series.NewRepository(db)
	s.repo = NewRepository(db, s.authors, s.genres)
}

func (s *BookStoreSuite) TearDownTest() {
	sqlDB, _ := s.db.DB()
	sqlDB.Close()
	os.Remove(s.dbPath)
}

func (s *BookStoreSuite) author(first, last string) uint {
	a, err := s.authors.AddAuthor(first, last, "")
	s.Require().NoError(err)
	return a.ID
}

func (s *BookStoreSuite) book(title string, authorIDs ...uint) uint {
	id, err := s.repo.AddBook(authorIDs, "", 1, title)
	s.Require().NoError(err)
	return id
}

func (s *BookStoreSuite) get(id uint) *entities.Book {
	b, err := s.repo.GetBookByID(id)
	s.Require().NoError(err)
	return b
}

// requireAuthorInvariants checks the derived author columns against the
// attachment rows.
func (s *BookStoreSuite) requireAuthorInvariants(id uint) {
	b := s.get(id)
	ids := b.AuthorIDs()
	s.Require().NotEmpty(ids)
	primary, _ := catalog.PrimaryAuthor(ids)
	s.Equal(primary, b.PrimaryAuthorID)
	s.Contains(ids, b.PrimaryAuthorID)
	s.Equal(len(ids), b.CountAuthors)
}

func (s *BookStoreSuite) TestAddBook_RoundTrip() {
	a := s.author("Terry", "Pratchett")

	id, err := s.repo.AddBook([]uint{a}, "", 2, "T")
	s.Require().NoError(err)

	b := s.get(id)
	s.Equal("T", b.Title)
	s.Equal(2, b.Edition)
	s.Equal(1, b.CountAuthors)
	s.Equal(a, b.PrimaryAuthorID)
	s.False(b.HasIdentifiers)
}

func (s *BookStoreSuite) TestAddBook_Normalizes() {
	a := s.author("Terry", "Pratchett")

	id, err := s.repo.AddBook([]uint{a}, "   ", -3, "  Mort  ")
	s.Require().NoError(err)

	b := s.get(id)
	s.Equal("Mort", b.Title)
	s.Equal(catalog.UnknownEdition, b.Edition)
	s.Equal("", b.Description)
}

func (s *BookStoreSuite) TestAddBook_PrimaryIsSmallestID() {
	a := s.author("A", "One")
	b := s.author("B", "Two")
	c := s.author("C", "Three")

	id, err := s.repo.AddBook([]uint{c, a, b, a}, "", 1, "Anthology")
	s.Require().NoError(err)

	got := s.get(id)
	s.Equal(a, got.PrimaryAuthorID)
	s.Equal(3, got.CountAuthors)
	s.requireAuthorInvariants(id)
}

func (s *BookStoreSuite) TestAddBook_Validation() {
	a := s.author("A", "One")

	_, err := s.repo.AddBook([]uint{a}, "", 1, "   ")
	s.ErrorIs(err, catalog.ErrInvalidTitle)

	_, err = s.repo.AddBook(nil, "", 1, "Title")
	s.ErrorIs(err, catalog.ErrNoAuthors)

	_, err = s.repo.AddBook([]uint{a, 77, 66}, "", 1, "Title")
	s.ErrorIs(err, catalog.ErrAuthorNotFound)
	var unknown *UnknownAuthorError
	s.Require().ErrorAs(err, &unknown)
	s.Equal(uint(77), unknown.AuthorID)

	var count int64
	s.db.Model(&entities.Book{}).Count(&count)
	s.Zero(count)
}

func (s *BookStoreSuite) TestAddAuthor() {
	a := s.author("A", "One")
	b := s.author("B", "Two")
	id := s.book("Good Omens", a)

	// Adding a larger id keeps the primary author.
	s.Require().NoError(s.repo.AddAuthor(id, b))
	s.Equal(a, s.get(id).PrimaryAuthorID)
	s.requireAuthorInvariants(id)
}

func (s *BookStoreSuite) TestAddAuthor_SmallerIDBecomesPrimary() {
	a := s.author("A", "One")
	b := s.author("B", "Two")
	id := s.book("Good Omens", b)

	s.Require().NoError(s.repo.AddAuthor(id, a))

	got := s.get(id)
	s.Equal(a, got.PrimaryAuthorID)
	s.Equal(2, got.CountAuthors)
	s.requireAuthorInvariants(id)
}

func (s *BookStoreSuite) TestAddAuthor_AlreadyAttached() {
	a := s.author("A", "One")
	id := s.book("T1", a)

	err := s.repo.AddAuthor(id, a)
	s.ErrorIs(err, catalog.ErrAlreadyAttached)
	s.Equal(catalog.KindConflict, catalog.KindOf(err))
	s.Equal(1, s.get(id).CountAuthors)
}

func (s *BookStoreSuite) TestAddAuthor_Missing() {
	a := s.author("A", "One")
	id := s.book("T1", a)

	s.ErrorIs(s.repo.AddAuthor(id, 999), catalog.ErrAuthorNotFound)
	s.ErrorIs(s.repo.AddAuthor(999, a), catalog.ErrBookNotFound)
}

func (s *BookStoreSuite) TestRemoveAuthor_RecomputesPrimary() {
	a := s.author("A", "One")
	b := s.author("B", "Two")
	c := s.author("C", "Three")
	id := s.book("Trio", a, b, c)

	s.Require().NoError(s.repo.RemoveAuthor(id, a))

	got := s.get(id)
	s.Equal(b, got.PrimaryAuthorID)
	s.Equal(2, got.CountAuthors)
	s.Equal([]uint{b, c}, got.AuthorIDs())
	s.requireAuthorInvariants(id)

	s.Require().NoError(s.repo.RemoveAuthor(id, c))
	s.Equal(b, s.get(id).PrimaryAuthorID)
	s.requireAuthorInvariants(id)
}

func (s *BookStoreSuite) TestRemoveAuthor_LastAuthor() {
	a := s.author("A", "One")
	id := s.book("Solo", a)

	err := s.repo.RemoveAuthor(id, a)
	s.ErrorIs(err, catalog.ErrLastAuthor)
	s.Equal(catalog.KindConflict, catalog.KindOf(err))

	got := s.get(id)
	s.Equal([]uint{a}, got.AuthorIDs())
	s.Equal(1, got.CountAuthors)
}

func (s *BookStoreSuite) TestRemoveAuthor_NotAttached() {
	a := s.author("A", "One")
	b := s.author("B", "Two")
	id := s.book("Solo", a)

	s.ErrorIs(s.repo.RemoveAuthor(id, b), catalog.ErrNotAttached)
	s.ErrorIs(s.repo.RemoveAuthor(999, a), catalog.ErrBookNotFound)
}

func (s *BookStoreSuite) TestSetGenres_Idempotent() {
	a := s.author("A", "One")
	id := s.book("Book", a)
	for _, name := range []string{"Fantasy", "Humour"} {
		_, err := s.genres.AddGenre(entities.Genre{Name: name})
		s.Require().NoError(err)
	}

	s.Require().NoError(s.repo.SetGenres(id, []string{"Humour", "Fantasy", " Fantasy "}))
	first := s.get(id).GenreNames()
	s.Require().NoError(s.repo.SetGenres(id, []string{"Humour", "Fantasy", " Fantasy "}))
	second := s.get(id).GenreNames()

	s.Equal([]string{"Fantasy", "Humour"}, first)
	s.Equal(first, second)

	s.Require().NoError(s.repo.SetGenres(id, nil))
	s.Empty(s.get(id).GenreNames())
}

func (s *BookStoreSuite) TestSetGenres_UnknownGenre() {
	a := s.author("A", "One")
	id := s.book("Book", a)
	_, err := s.genres.AddGenre(entities.Genre{Name: "Fantasy"})
	s.Require().NoError(err)
	s.Require().NoError(s.repo.SetGenres(id, []string{"Fantasy"}))

	err = s.repo.SetGenres(id, []string{"Fantasy", "Cyberpunk"})
	s.ErrorIs(err, catalog.ErrGenreNotFound)
	var unknown *UnknownGenreError
	s.Require().ErrorAs(err, &unknown)
	s.Equal("Cyberpunk", unknown.Name)

	s.Equal([]string{"Fantasy"}, s.get(id).GenreNames())
}

func (s *BookStoreSuite) TestSetIdentifiers_CollapsesDuplicates() {
	a := s.author("A", "One")
	id := s.book("Book", a)

	err := s.repo.SetIdentifiers(id, []catalog.Identifier{
		{Scheme: "isbn", Value: "V"},
		{Scheme: "isbn", Value: "V"},
	})
	s.Require().NoError(err)

	got := s.get(id)
	s.Require().Len(got.Identifiers, 1)
	s.Equal("isbn", got.Identifiers[0].Scheme)
	s.Equal("V", got.Identifiers[0].Value)
	s.True(got.HasIdentifiers)
}

func (s *BookStoreSuite) TestSetIdentifiers_CanonicalFormsAndLookup() {
	a := s.author("A", "One")
	id := s.book("Book", a)

	err := s.repo.SetIdentifiers(id, []catalog.Identifier{
		{Scheme: " ISBN ", Value: "978-0-06-225573-0"},
		{Scheme: "isbn", Value: "978 0 06 225573 0"},
		{Scheme: "oclc", Value: "123"},
	})
	s.Require().NoError(err)
	s.Len(s.get(id).Identifiers, 2)

	found, err := s.repo.GetBookByIdentifier("Isbn", "9780062255730")
	s.Require().NoError(err)
	s.Equal(id, found.ID)

	_, err = s.repo.GetBookByIdentifier("isbn", "0000")
	s.ErrorIs(err, catalog.ErrBookNotFound)

	s.Require().NoError(s.repo.SetIdentifiers(id, nil))
	got := s.get(id)
	s.Empty(got.Identifiers)
	s.False(got.HasIdentifiers)
}

func (s *BookStoreSuite) TestSetIdentifiers_OwnedByAnotherBook() {
	a := s.author("A", "One")
	first := s.book("First", a)
	second := s.book("Second", a)
	ids := []catalog.Identifier{{Scheme: "isbn", Value: "111"}}

	s.Require().NoError(s.repo.SetIdentifiers(first, ids))
	s.Require().NoError(s.repo.SetIdentifiers(second, []catalog.Identifier{{Scheme: "isbn", Value: "222"}}))

	err := s.repo.SetIdentifiers(second, ids)
	s.ErrorIs(err, catalog.ErrDuplicate)

	// The failed replace rolled back: the old identifier survives.
	got := s.get(second)
	s.Require().Len(got.Identifiers, 1)
	s.Equal("222", got.Identifiers[0].Value)
}

func (s *BookStoreSuite) TestSetIdentifiers_Invalid() {
	a := s.author("A", "One")
	id := s.book("Book", a)

	err := s.repo.SetIdentifiers(id, []catalog.Identifier{{Scheme: "isbn", Value: " - "}})
	s.ErrorIs(err, catalog.ErrInvalidValue)
}

func (s *BookStoreSuite) TestSetSeries_KeepsCountersInSync() {
	a := s.author("A", "One")
	id := s.book("Book", a)
	first, err := s.series.AddSeries("First", []uint{a})
	s.Require().NoError(err)
	second, err := s.series.AddSeries("Second", []uint{a})
	s.Require().NoError(err)

	s.Require().NoError(s.repo.SetSeries(id, first.ID))
	s.Require().NoError(s.repo.SetSeries(id, first.ID))
	s.countIs(first.ID, 1)

	s.Require().NoError(s.repo.SetSeries(id, second.ID))
	s.countIs(first.ID, 0)
	s.countIs(second.ID, 1)

	books, err := s.repo.GetBooksBySeries(second.ID)
	s.Require().NoError(err)
	s.Require().Len(books, 1)
	s.Equal(id, books[0].ID)

	s.Require().NoError(s.repo.SetSeries(id, 0))
	s.countIs(second.ID, 0)
	s.Nil(s.get(id).SeriesID)
}

func (s *BookStoreSuite) TestSetSeries_UnknownSeries() {
	a := s.author("A", "One")
	id := s.book("Book", a)

	s.ErrorIs(s.repo.SetSeries(id, 42), catalog.ErrSeriesNotFound)
	s.Nil(s.get(id).SeriesID)
}

func (s *BookStoreSuite) TestRemoveBook_CascadesAndDecrements() {
	a := s.author("A", "One")
	b := s.author("B", "Two")
	id := s.book("Book", a, b)
	_, err := s.genres.AddGenre(entities.Genre{Name: "Fantasy"})
	s.Require().NoError(err)
	sr, err := s.series.AddSeries("Saga", []uint{a})
	s.Require().NoError(err)

	s.Require().NoError(s.repo.SetGenres(id, []string{"Fantasy"}))
	s.Require().NoError(s.repo.SetIdentifiers(id, []catalog.Identifier{{Scheme: "isbn", Value: "1"}}))
	s.Require().NoError(s.repo.SetSeries(id, sr.ID))

	s.Require().NoError(s.repo.RemoveBook(id))

	_, err = s.repo.GetBookByID(id)
	s.ErrorIs(err, catalog.ErrBookNotFound)
	s.countIs(sr.ID, 0)
	for _, model := range []any{&entities.BookAuthor{}, &entities.BookGenre{}, &entities.BookIdentifier{}} {
		var n int64
		s.db.Model(model).Where("book_id = ?", id).Count(&n)
		s.Zero(n)
	}

	s.ErrorIs(s.repo.RemoveBook(id), catalog.ErrBookNotFound)
}

func (s *BookStoreSuite) TestRemoveBook_RollsBackWhenDecrementFails() {
	a := s.author("A", "One")
	id := s.book("Book", a)
	sr, err := s.series.AddSeries("Saga", []uint{a})
	s.Require().NoError(err)
	s.Require().NoError(s.repo.SetSeries(id, sr.ID))

	// Drain the counter behind the store's back.
	s.Require().NoError(s.series.DecrementCount(sr.Key()))

	err = s.repo.RemoveBook(id)
	s.ErrorIs(err, catalog.ErrCounterAtZero)

	got := s.get(id)
	s.Equal([]uint{a}, got.AuthorIDs())
	s.Require().NotNil(got.SeriesID)
}

func (s *BookStoreSuite) TestScalarSetters() {
	a := s.author("A", "One")
	id := s.book("Book", a)
	date := time.Date(1987, time.November, 12, 0, 0, 0, 0, time.UTC)

	s.Require().NoError(s.repo.SetAvgRating(id, 8.5))
	s.Require().NoError(s.repo.SetRatingCount(id, 42))
	s.Require().NoError(s.repo.SetIndexInSeries(id, 4.5))
	s.Require().NoError(s.repo.SetEdition(id, -7))
	s.Require().NoError(s.repo.SetDescription(id, "  Death takes an apprentice. "))
	s.Require().NoError(s.repo.SetPublisher(id, "Gollancz"))
	s.Require().NoError(s.repo.SetCoverLocation(id, "/covers/mort.jpg"))
	s.Require().NoError(s.repo.SetCoverName(id, "mort.jpg"))
	s.Require().NoError(s.repo.SetPublishDate(id, date))

	got := s.get(id)
	s.Equal(8.5, got.AvgRating)
	s.Equal(42, got.RatingCount)
	s.Equal(4.5, got.IndexInSeries)
	s.Equal(catalog.UnknownEdition, got.Edition)
	s.Equal("Death takes an apprentice.", got.Description)
	s.Equal("Gollancz", got.Publisher)
	s.Equal("/covers/mort.jpg", got.CoverLocation)
	s.Equal("mort.jpg", got.CoverName)
	s.Require().NotNil(got.PublishDate)
	s.Equal(date.Format("2006-01-02"), time.Time(*got.PublishDate).Format("2006-01-02"))
}

func (s *BookStoreSuite) TestScalarSetters_InvalidValues() {
	a := s.author("A", "One")
	id := s.book("Book", a)

	s.ErrorIs(s.repo.SetAvgRating(id, 10.5), catalog.ErrInvalidValue)
	s.ErrorIs(s.repo.SetAvgRating(id, -0.1), catalog.ErrInvalidValue)
	s.ErrorIs(s.repo.SetRatingCount(id, -1), catalog.ErrInvalidValue)
	s.ErrorIs(s.repo.SetIndexInSeries(id, -1), catalog.ErrInvalidValue)
	s.ErrorIs(s.repo.SetPublishDate(id, time.Time{}), catalog.ErrInvalidValue)

	s.ErrorIs(s.repo.SetPublisher(999, "x"), catalog.ErrBookNotFound)
}

func (s *BookStoreSuite) TestLookups() {
	a := s.author("A", "One")
	b := s.author("B", "Two")
	mort := s.book("Mort", a)
	s.book("Reaper Man", a, b)
	s.book("Guards! Guards!", b)

	byAuthor, err := s.repo.GetBooksByAuthor(a)
	s.Require().NoError(err)
	s.Len(byAuthor, 2)

	byTitle, err := s.repo.GetBooksByTitle("MAN")
	s.Require().NoError(err)
	s.Require().Len(byTitle, 1)
	s.Equal("Reaper Man", byTitle[0].Title)

	none, err := s.repo.GetBooksByAuthor(999)
	s.Require().NoError(err)
	s.Empty(none)

	exists, err := s.repo.Exists(mort)
	s.Require().NoError(err)
	s.True(exists)
}

func (s *BookStoreSuite) TestGetBooksByTitle_LiteralWildcards() {
	a := s.author("A", "One")
	s.book("Mort", a)
	s.book("Guards! Guards!", a)
	s.book("100% Discworld", a)

	for _, q := range []string{"_", "G_ards"} {
		got, err := s.repo.GetBooksByTitle(q)
		s.Require().NoError(err)
		s.Empty(got, q)
	}

	got, err := s.repo.GetBooksByTitle("%")
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal("100% Discworld", got[0].Title)
}

func (s *BookStoreSuite) countIs(seriesID uint, want int) {
	got, err := s.series.GetByID(seriesID)
	s.Require().NoError(err)
	s.Equal(want, got.NumberBooksInSeries)
}
