package http

import (
	"encoding/json"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/mrlokans/librarian/internal/entities"
)

// notBlank rejects strings that are empty after trimming.
var notBlank = validation.By(func(value any) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return validation.NewError("validation_blank", "must not be blank")
	}
	return nil
})

// AuthorName names an author by first and last name.
type AuthorName struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (n AuthorName) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.LastName, validation.Required, notBlank),
	)
}

func (n AuthorName) String() string {
	return strings.TrimSpace(strings.TrimSpace(n.FirstName) + " " + strings.TrimSpace(n.LastName))
}

// AddBookRequest creates a book. Authors may be given by id, by name or
// both; names are resolved through the author directory.
type AddBookRequest struct {
	Title       string       `json:"title"`
	Description *string      `json:"description"`
	Edition     *int         `json:"edition"`
	AuthorIDs   []uint       `json:"author_ids"`
	Authors     []AuthorName `json:"authors"`
}

func (r AddBookRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, notBlank, validation.RuneLength(1, 512)),
		validation.Field(&r.AuthorIDs,
			validation.When(len(r.Authors) == 0, validation.Required.Error("at least one author is required")),
			validation.Each(validation.Required, validation.Min(uint(1))),
		),
		validation.Field(&r.Authors),
	)
}

// EditRequest is a single book edit: an edit kind and its JSON value.
type EditRequest struct {
	Kind  string          `json:"kind"`
	Value json.RawMessage `json:"value"`
}

func (r EditRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Kind, validation.Required),
	)
}

type AddSeriesRequest struct {
	Name      string `json:"name"`
	AuthorIDs []uint `json:"author_ids"`
}

func (r AddSeriesRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, notBlank, validation.RuneLength(1, 512)),
		validation.Field(&r.AuthorIDs, validation.Required, validation.Each(validation.Required, validation.Min(uint(1)))),
	)
}

type SetStatusRequest struct {
	Status string `json:"status"`
}

func (r SetStatusRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status,
			validation.Required,
			validation.In(
				string(entities.SeriesStatusUndetermined),
				string(entities.SeriesStatusOngoing),
				string(entities.SeriesStatusCompleted),
			).Error("must be one of UNDETERMINED, ONGOING, COMPLETED"),
		),
	)
}

type AddAuthorRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Biography string `json:"biography"`
}

func (r AddAuthorRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.RuneLength(0, 128)),
		validation.Field(&r.LastName, validation.Required, notBlank, validation.RuneLength(1, 128)),
	)
}

type BiographyRequest struct {
	Biography string `json:"biography"`
}

func (r BiographyRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Biography, validation.RuneLength(0, 20000)),
	)
}

type OwnerRequest struct {
	AccountID uint `json:"account_id"`
}

func (r OwnerRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.AccountID, validation.Required),
	)
}

type AddGenreRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Parent      *string  `json:"parent"`
	Keywords    []string `json:"keywords"`
	Equivalent  string   `json:"external_equivalent"`
}

func (r AddGenreRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, notBlank, validation.RuneLength(1, 100)),
		validation.Field(&r.Parent, validation.NilOrNotEmpty),
		validation.Field(&r.Keywords, validation.Each(validation.RuneLength(1, 64))),
		validation.Field(&r.Equivalent, validation.RuneLength(0, 256)),
	)
}

type UpdateGenreRequest struct {
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
	Equivalent  string   `json:"external_equivalent"`
}

func (r UpdateGenreRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Keywords, validation.Each(validation.RuneLength(1, 64))),
		validation.Field(&r.Equivalent, validation.RuneLength(0, 256)),
	)
}

// ParentRequest sets or clears (null) a genre's parent.
type ParentRequest struct {
	Parent *string `json:"parent"`
}

func (r ParentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Parent, validation.NilOrNotEmpty),
	)
}

type TokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r TokenRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, is.PrintableASCII),
		validation.Field(&r.Password, validation.Required),
	)
}
