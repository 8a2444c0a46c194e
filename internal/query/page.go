package query

import (
	"math"
	"strconv"
	"strings"

	"videotube/internal/apperr"

	"go.mongodb.org/mongo-driver/bson"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Page is a 1-indexed window over a feed.
type Page struct {
	Number int64
	Limit  int64
}

func (p Page) Skip() int64 {
	return (p.Number - 1) * p.Limit
}

// ParsePage reads page and limit query values. Empty values take defaults,
// anything that is not a positive integer is rejected.
func ParsePage(page, limit string) (Page, error) {
	p := Page{Number: DefaultPage, Limit: DefaultLimit}
	var err error
	if p.Number, err = positive(page, DefaultPage); err != nil {
		return Page{}, apperr.NewBadRequest("page must be a positive integer")
	}
	if p.Limit, err = positive(limit, DefaultLimit); err != nil {
		return Page{}, apperr.NewBadRequest("limit must be a positive integer")
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Number-1 > math.MaxInt64/p.Limit {
		return Page{}, apperr.NewBadRequest("page is out of range")
	}
	return p, nil
}

func positive(s string, def int64) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, strconv.ErrRange
	}
	return n, nil
}

var sortableFields = map[string]bool{
	"createdAt": true,
	"views":     true,
	"duration":  true,
	"title":     true,
}

// ParseSort builds a sort order for the video feed. The direction is
// descending unless sortType is "asc"; _id breaks ties so pages are stable.
func ParseSort(sortBy, sortType string) (bson.D, error) {
	field := strings.TrimSpace(sortBy)
	if field == "" {
		field = "createdAt"
	}
	if !sortableFields[field] {
		return nil, apperr.NewBadRequest("unsupported sortBy field: " + field)
	}
	dir := -1
	if strings.EqualFold(strings.TrimSpace(sortType), "asc") {
		dir = 1
	}
	return bson.D{{Key: field, Value: dir}, {Key: "_id", Value: dir}}, nil
}
