package entities

import (
	"time"

	"gorm.io/datatypes"
)

// AdminAccountID is the administrative account every author is owned by
// until ownership is verified.
const AdminAccountID = uint(1)

type SeriesStatus string

const (
	SeriesStatusUndetermined SeriesStatus = "UNDETERMINED"
	SeriesStatusOngoing      SeriesStatus = "ONGOING"
	SeriesStatusCompleted    SeriesStatus = "COMPLETED"
)

func (s SeriesStatus) Valid() bool {
	switch s {
	case SeriesStatusUndetermined, SeriesStatusOngoing, SeriesStatusCompleted:
		return true
	}
	return false
}

type Author struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	FirstName       string    `gorm:"size:128;uniqueIndex:idx_author_name" json:"first_name"`
	LastName        string    `gorm:"size:128;uniqueIndex:idx_author_name" json:"last_name"`
	Biography       string    `gorm:"type:text" json:"biography,omitempty"`
	VerifiedOwnerID uint      `gorm:"index;default:1" json:"verified_owner_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// FullName joins first and last name for display.
func (a Author) FullName() string {
	if a.FirstName == "" {
		return a.LastName
	}
	return a.FirstName + " " + a.LastName
}

type Genre struct {
	Name               string                      `gorm:"primaryKey;size:100" json:"name"`
	Description        string                      `gorm:"type:text" json:"description,omitempty"`
	ParentName         *string                     `gorm:"index;size:100" json:"parent_name,omitempty"`
	Keywords           datatypes.JSONSlice[string] `json:"keywords,omitempty"`
	ExternalEquivalent string                      `gorm:"size:256" json:"external_equivalent,omitempty"`
	CreatedAt          time.Time                   `json:"created_at"`
	UpdatedAt          time.Time                   `json:"updated_at"`
}

type Series struct {
	ID                  uint         `gorm:"primaryKey" json:"id"`
	Name                string       `gorm:"size:512;uniqueIndex:idx_series_key" json:"name"`
	PrimaryAuthorID     uint         `gorm:"uniqueIndex:idx_series_key" json:"primary_author_id"`
	NumberBooksInSeries int          `gorm:"not null;default:0" json:"number_books_in_series"`
	Status              SeriesStatus `gorm:"size:20;not null;default:'UNDETERMINED'" json:"status"`
	CreatedAt           time.Time    `json:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at"`
}

// SeriesKey identifies a series by name and primary author.
type SeriesKey struct {
	Name            string `json:"name"`
	PrimaryAuthorID uint   `json:"primary_author_id"`
}

func (s Series) Key() SeriesKey {
	return SeriesKey{Name: s.Name, PrimaryAuthorID: s.PrimaryAuthorID}
}

type Book struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Title           string          `gorm:"index;size:512;not null" json:"title"`
	Description     string          `gorm:"type:text" json:"description"`
	Edition         int             `gorm:"not null" json:"edition"`
	AvgRating       float64         `json:"avg_rating"`
	RatingCount     int             `json:"rating_count"`
	Publisher       string          `gorm:"size:256" json:"publisher,omitempty"`
	PublishDate     *datatypes.Date `json:"publish_date,omitempty"`
	CoverLocation   string          `gorm:"size:2048" json:"cover_location,omitempty"`
	CoverName       string          `gorm:"size:512" json:"cover_name,omitempty"`
	PrimaryAuthorID uint            `gorm:"index;not null" json:"primary_author_id"`
	CountAuthors    int             `gorm:"not null" json:"count_authors"`
	HasIdentifiers  bool            `gorm:"not null;default:false" json:"has_identifiers"`
	SeriesID        *uint           `gorm:"index" json:"series_id,omitempty"`
	IndexInSeries   float64         `json:"index_in_series"`

	Authors     []BookAuthor     `gorm:"foreignKey:BookID" json:"authors"`
	Genres      []BookGenre      `gorm:"foreignKey:BookID" json:"genres"`
	Identifiers []BookIdentifier `gorm:"foreignKey:BookID" json:"identifiers"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuthorIDs returns the ids of the attached authors.
func (b Book) AuthorIDs() []uint {
	ids := make([]uint, 0, len(b.Authors))
	for _, a := range b.Authors {
		ids = append(ids, a.AuthorID)
	}
	return ids
}

// GenreNames returns the names of the attached genres.
func (b Book) GenreNames() []string {
	names := make([]string, 0, len(b.Genres))
	for _, g := range b.Genres {
		names = append(names, g.GenreName)
	}
	return names
}

type BookAuthor struct {
	BookID   uint `gorm:"primaryKey;autoIncrement:false" json:"-"`
	AuthorID uint `gorm:"primaryKey;autoIncrement:false;index" json:"author_id"`
}

type BookGenre struct {
	BookID    uint   `gorm:"primaryKey;autoIncrement:false" json:"-"`
	GenreName string `gorm:"primaryKey;size:100;index" json:"name"`
}

type BookIdentifier struct {
	ID     uint   `gorm:"primaryKey" json:"-"`
	BookID uint   `gorm:"index;not null" json:"-"`
	Scheme string `gorm:"size:32;not null;uniqueIndex:idx_identifier" json:"scheme"`
	Value  string `gorm:"size:128;not null;uniqueIndex:idx_identifier" json:"value"`
}

func (Series) TableName() string {
	return "series"
}

func (BookAuthor) TableName() string {
	return "book_authors"
}

func (BookGenre) TableName() string {
	return "book_genres"
}

func (BookIdentifier) TableName() string {
	return "book_identifiers"
}
