package catalog

import "time"

// EditKind names the field or relationship of a book an edit targets.
type EditKind string

const (
	EditAddAuthor        EditKind = "ADD_AUTHOR"
	EditRemoveAuthor     EditKind = "REMOVE_AUTHOR"
	EditSetAvgRating     EditKind = "SET_AVG_RATING"
	EditSetIndexInSeries EditKind = "SET_BOOK_INDEX_IN_SERIES"
	EditSetCoverLocation EditKind = "SET_COVER_LOCATION"
	EditSetCoverName     EditKind = "SET_COVER_NAME"
	EditSetDescription   EditKind = "SET_DESCRIPTION"
	EditSetEdition       EditKind = "SET_EDITION"
	EditSetGenres        EditKind = "SET_GENRES"
	EditSetIdentifiers   EditKind = "SET_IDENTIFIERS"
	EditSetPublishDate   EditKind = "SET_PUBLISH_DATE"
	EditSetPublisher     EditKind = "SET_PUBLISHER"
	EditSetRatingCount   EditKind = "SET_RATING_COUNT"
	EditSetSeriesID      EditKind = "SET_SERIES_ID"
)

// EditKinds lists every supported kind.
var EditKinds = []EditKind{
	EditAddAuthor,
	EditRemoveAuthor,
	EditSetAvgRating,
	EditSetIndexInSeries,
	EditSetCoverLocation,
	EditSetCoverName,
	EditSetDescription,
	EditSetEdition,
	EditSetGenres,
	EditSetIdentifiers,
	EditSetPublishDate,
	EditSetPublisher,
	EditSetRatingCount,
	EditSetSeriesID,
}

// Valid reports whether k is one of EditKinds.
func (k EditKind) Valid() bool {
	for _, known := range EditKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Edit is a single typed mutation of a book. The set of implementations is
// closed: only the types in this file satisfy it.
type Edit interface {
	Kind() EditKind
	edit()
}

type (
	AddAuthor        struct{ AuthorID uint }
	RemoveAuthor     struct{ AuthorID uint }
	SetAvgRating     struct{ Rating float64 }
	SetIndexInSeries struct{ Index float64 }
	SetCoverLocation struct{ Location string }
	SetCoverName     struct{ Name string }
	SetDescription   struct{ Description string }
	SetEdition       struct{ Edition int }
	SetGenres        struct{ Names []string }
	SetIdentifiers   struct{ Identifiers []Identifier }
	SetPublishDate   struct{ Date time.Time }
	SetPublisher     struct{ Publisher string }
	SetRatingCount   struct{ Count int }
	// SetSeriesID moves the book into a series. Zero detaches it.
	SetSeriesID struct{ SeriesID uint }
)

func (AddAuthor) Kind() EditKind        { return EditAddAuthor }
func (RemoveAuthor) Kind() EditKind     { return EditRemoveAuthor }
func (SetAvgRating) Kind() EditKind     { return EditSetAvgRating }
func (SetIndexInSeries) Kind() EditKind { return EditSetIndexInSeries }
func (SetCoverLocation) Kind() EditKind { return EditSetCoverLocation }
func (SetCoverName) Kind() EditKind     { return EditSetCoverName }
func (SetDescription) Kind() EditKind   { return EditSetDescription }
func (SetEdition) Kind() EditKind       { return EditSetEdition }
func (SetGenres) Kind() EditKind        { return EditSetGenres }
func (SetIdentifiers) Kind() EditKind   { return EditSetIdentifiers }
func (SetPublishDate) Kind() EditKind   { return EditSetPublishDate }
func (SetPublisher) Kind() EditKind     { return EditSetPublisher }
func (SetRatingCount) Kind() EditKind   { return EditSetRatingCount }
func (SetSeriesID) Kind() EditKind      { return EditSetSeriesID }

func (AddAuthor) edit()        {}
func (RemoveAuthor) edit()     {}
func (SetAvgRating) edit()     {}
func (SetIndexInSeries) edit() {}
func (SetCoverLocation) edit() {}
func (SetCoverName) edit()     {}
func (SetDescription) edit()   {}
func (SetEdition) edit()       {}
func (SetGenres) edit()        {}
func (SetIdentifiers) edit()   {}
func (SetPublishDate) edit()   {}
func (SetPublisher) edit()     {}
func (SetRatingCount) edit()   {}
func (SetSeriesID) edit()      {}

// Rating bounds for SetAvgRating.
const (
	MinRating = 0.0
	MaxRating = 10.0
)

// UnknownEdition is stored when a book's edition is not known.
const UnknownEdition = -1

// NormalizeEdition maps every negative edition to UnknownEdition.
func NormalizeEdition(edition int) int {
	if edition < 0 {
		return UnknownEdition
	}
	return edition
}
