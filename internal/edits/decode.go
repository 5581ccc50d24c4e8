package edits

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/mrlokans/librarian/internal/catalog"
)

// DateLayout is the preferred wire form of SET_PUBLISH_DATE values.
// RFC 3339 timestamps are accepted too.
const DateLayout = "2006-01-02"

// Decode builds the edit variant for kind from its JSON payload. It fails
// with catalog.ErrInvalidEditKind for unknown kinds, catalog.ErrNullValue
// for a missing or null payload and catalog.ErrTypeMismatch when the payload
// has the wrong shape for the kind.
func Decode(kind string, value json.RawMessage) (catalog.Edit, error) {
	k := catalog.EditKind(strings.ToUpper(strings.TrimSpace(kind)))
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %q", catalog.ErrInvalidEditKind, kind)
	}

	raw := bytes.TrimSpace(value)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, fmt.Errorf("%w: %s", catalog.ErrNullValue, k)
	}

	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", catalog.ErrTypeMismatch, k, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s: trailing data after value", catalog.ErrTypeMismatch, k)
	}

	edit, err := decodeValue(k, v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", k, err)
	}
	return edit, nil
}

func decodeValue(k catalog.EditKind, v any) (catalog.Edit, error) {
	switch k {
	case catalog.EditAddAuthor:
		id, err := asID(v)
		return catalog.AddAuthor{AuthorID: id}, err
	case catalog.EditRemoveAuthor:
		id, err := asID(v)
		return catalog.RemoveAuthor{AuthorID: id}, err
	case catalog.EditSetSeriesID:
		id, err := asID(v)
		return catalog.SetSeriesID{SeriesID: id}, err
	case catalog.EditSetAvgRating:
		f, err := asFloat(v)
		return catalog.SetAvgRating{Rating: f}, err
	case catalog.EditSetIndexInSeries:
		f, err := asFloat(v)
		return catalog.SetIndexInSeries{Index: f}, err
	case catalog.EditSetEdition:
		n, err := asInt(v)
		return catalog.SetEdition{Edition: n}, err
	case catalog.EditSetRatingCount:
		n, err := asInt(v)
		return catalog.SetRatingCount{Count: n}, err
	case catalog.EditSetCoverLocation:
		s, err := asString(v)
		return catalog.SetCoverLocation{Location: s}, err
	case catalog.EditSetCoverName:
		s, err := asString(v)
		return catalog.SetCoverName{Name: s}, err
	case catalog.EditSetDescription:
		s, err := asString(v)
		return catalog.SetDescription{Description: s}, err
	case catalog.EditSetPublisher:
		s, err := asString(v)
		return catalog.SetPublisher{Publisher: s}, err
	case catalog.EditSetGenres:
		names, err := asStrings(v)
		return catalog.SetGenres{Names: names}, err
	case catalog.EditSetIdentifiers:
		ids, err := asIdentifiers(v)
		return catalog.SetIdentifiers{Identifiers: ids}, err
	case catalog.EditSetPublishDate:
		d, err := asDate(v)
		return catalog.SetPublishDate{Date: d}, err
	}
	return nil, catalog.ErrInvalidEditKind
}

func mismatch(want string, v any) error {
	return fmt.Errorf("%w: expected %s, got %s", catalog.ErrTypeMismatch, want, jsonType(v))
}

func jsonType(v any) string {
	switch v.(type) {
	case json.Number:
		return "number"
	case string:
		return "string"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return "null"
}

func asInt64(v any) (int64, error) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, mismatch("integer", v)
	}
	i, err := n.Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: expected integer, got %s", catalog.ErrTypeMismatch, n)
	}
	return i, nil
}

func asID(v any) (uint, error) {
	i, err := asInt64(v)
	if err != nil {
		return 0, err
	}
	if i < 0 || uint64(i) > math.MaxUint32 {
		return 0, fmt.Errorf("%w: id %d", catalog.ErrInvalidValue, i)
	}
	return uint(i), nil
}

func asInt(v any) (int, error) {
	i, err := asInt64(v)
	if err != nil {
		return 0, err
	}
	if i < math.MinInt32 || i > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %d out of range", catalog.ErrInvalidValue, i)
	}
	return int(i), nil
}

func asFloat(v any) (float64, error) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, mismatch("number", v)
	}
	f, err := n.Float64()
	if err != nil {
		return 0, fmt.Errorf("%w: %s", catalog.ErrInvalidValue, n)
	}
	return f, nil
}

func asString(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", mismatch("string", v)
	}
	return s, nil
}

func asStrings(v any) ([]string, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, mismatch("array of strings", v)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, mismatch("array of strings", item)
		}
		out = append(out, s)
	}
	return out, nil
}

// asIdentifiers accepts [{"scheme": "isbn", "value": "..."}] as well as
// [["isbn", "..."]].
func asIdentifiers(v any) ([]catalog.Identifier, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, mismatch("array of identifiers", v)
	}
	out := make([]catalog.Identifier, 0, len(items))
	for _, item := range items {
		switch pair := item.(type) {
		case map[string]any:
			scheme, okScheme := pair["scheme"].(string)
			value, okValue := pair["value"].(string)
			if !okScheme || !okValue {
				return nil, fmt.Errorf("%w: identifier needs string scheme and value", catalog.ErrTypeMismatch)
			}
			out = append(out, catalog.Identifier{Scheme: scheme, Value: value})
		case []any:
			if len(pair) != 2 {
				return nil, fmt.Errorf("%w: identifier pair needs 2 elements, got %d", catalog.ErrTypeMismatch, len(pair))
			}
			scheme, okScheme := pair[0].(string)
			value, okValue := pair[1].(string)
			if !okScheme || !okValue {
				return nil, fmt.Errorf("%w: identifier needs string scheme and value", catalog.ErrTypeMismatch)
			}
			out = append(out, catalog.Identifier{Scheme: scheme, Value: value})
		default:
			return nil, mismatch("identifier", item)
		}
	}
	return out, nil
}

func asDate(v any) (time.Time, error) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, mismatch("date string", v)
	}
	s = strings.TrimSpace(s)
	if d, err := time.Parse(DateLayout, s); err == nil {
		return d, nil
	}
	if d, err := time.Parse(time.RFC3339, s); err == nil {
		return d, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q is not a date", catalog.ErrInvalidValue, s)
}
