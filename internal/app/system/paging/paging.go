// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultLimit is the page size used when the request does not ask for one.
const DefaultLimit = 20

// MaxLimit caps the page size a client may request.
const MaxLimit = 100

// Params is a parsed keyset page request.
type Params struct {
	Limit  int
	Before string
	After  string
}

// ParseParams reads limit, before and after from the query string.
// An invalid or missing limit becomes DefaultLimit; larger ones are capped.
func ParseParams(r *http.Request) Params {
	p := Params{
		Limit:  DefaultLimit,
		Before: query.Get(r, "before"),
		After:  query.Get(r, "after"),
	}
	if s := query.Get(r, "limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			p.Limit = n
		}
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Result holds the look-ahead outcome of TrimPage.
type Result struct {
	HasPrev bool
	HasNext bool
}

// TrimPage trims rows fetched with Limit+1 look-ahead.
//
// Going backwards (before != ""): an extra row means an older page exists,
// so the first is dropped; HasNext is always true.
// Otherwise: an extra row means a next page; HasPrev is true when after != "".
func TrimPage[T any](rows *[]T, p Params) Result {
	var res Result
	if p.Before != "" {
		if len(*rows) > p.Limit {
			*rows = (*rows)[1:]
			res.HasPrev = true
		}
		res.HasNext = true
		return res
	}
	if len(*rows) > p.Limit {
		*rows = (*rows)[:p.Limit]
		res.HasNext = true
	}
	res.HasPrev = p.After != ""
	return res
}

// Direction indicates the pagination direction.
type Direction int

const (
	Forward  Direction = iota // sort ascending, "gt" cursor
	Backward                  // sort descending, "lt" cursor
)

// Keyset is the query configuration derived from Params.
type Keyset struct {
	Direction Direction
	SortOrder int
	Cursor    *wafflemongo.Cursor
	limit     int
}

// Configure determines direction and decodes the cursor. An undecodable
// cursor is ignored and the first page is returned.
func (p Params) Configure() Keyset {
	k := Keyset{Direction: Forward, SortOrder: 1, limit: p.Limit}
	switch {
	case p.Before != "":
		k.Direction = Backward
		k.SortOrder = -1
		if c, ok := wafflemongo.DecodeCursor(p.Before); ok {
			k.Cursor = &c
		}
	case p.After != "":
		if c, ok := wafflemongo.DecodeCursor(p.After); ok {
			k.Cursor = &c
		}
	}
	return k
}

// ApplyToFind sets sort on (sortField, _id) and limit+1.
func (k Keyset) ApplyToFind(find *options.FindOptions, sortField string) *options.FindOptions {
	return find.SetSort(bson.D{
		{Key: sortField, Value: k.SortOrder},
		{Key: "_id", Value: k.SortOrder},
	}).SetLimit(int64(k.limit + 1))
}

// Window returns the cursor condition to merge into the filter, or nil.
func (k Keyset) Window(sortField string) bson.M {
	if k.Cursor == nil {
		return nil
	}
	dir := "gt"
	if k.Direction == Backward {
		dir = "lt"
	}
	return wafflemongo.KeysetWindow(sortField, dir, k.Cursor.CI, k.Cursor.ID)
}

// Reverse reverses a slice in place; used after a backward fetch.
func Reverse[T any](rows []T) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}

// BuildCursors encodes prev/next cursors from the first and last rows.
func BuildCursors[T any](rows []T, keyFn func(T) string, idFn func(T) primitive.ObjectID) (prev, next string) {
	if len(rows) == 0 {
		return "", ""
	}
	first, last := rows[0], rows[len(rows)-1]
	return wafflemongo.EncodeCursor(keyFn(first), idFn(first)),
		wafflemongo.EncodeCursor(keyFn(last), idFn(last))
}
