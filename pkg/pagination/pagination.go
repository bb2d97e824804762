package pagination

import (
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params holds pagination parameters extracted from a request.
type Params struct {
	Limit  int
	Offset int
}

// FromContext reads limit and offset query parameters, clamping limit to
// MaxLimit and negative offsets to zero.
func FromContext(c echo.Context) Params {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if offset < 0 {
		offset = 0
	}
	return Params{Limit: limit, Offset: offset}
}

// Response wraps a paginated API response.
type Response struct {
	Data    interface{}       `json:"data"`
	Total   int               `json:"total"`
	Limit   int               `json:"limit"`
	Offset  int               `json:"offset"`
	HasMore bool              `json:"has_more"`
	Links   map[string]string `json:"links,omitempty"`
}

func NewResponse(data interface{}, total, limit, offset int) *Response {
	return &Response{
		Data:    data,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+limit < total,
	}
}

// WithLinks adds self/next/previous links built from basePath and query.
// The query's limit and offset are overwritten per link.
func (r *Response) WithLinks(basePath string, query url.Values) *Response {
	p := Params{Limit: r.Limit, Offset: r.Offset}
	r.Links = p.Links(basePath, r.Total, query)
	return r
}

func (p Params) HasNext(total int) bool {
	return p.Offset+p.Limit < total
}

func (p Params) HasPrevious() bool {
	return p.Offset > 0
}

func (p Params) NextOffset() int {
	return p.Offset + p.Limit
}

// PreviousOffset never goes below zero.
func (p Params) PreviousOffset() int {
	prev := p.Offset - p.Limit
	if prev < 0 {
		return 0
	}
	return prev
}

// Links returns page links keyed by relation: self, next and previous.
func (p Params) Links(basePath string, total int, query url.Values) map[string]string {
	build := func(offset int) string {
		q := url.Values{}
		for k, v := range query {
			q[k] = append([]string(nil), v...)
		}
		q.Set("limit", strconv.Itoa(p.Limit))
		q.Set("offset", strconv.Itoa(offset))
		return basePath + "?" + q.Encode()
	}

	links := map[string]string{"self": build(p.Offset)}
	if p.HasNext(total) {
		links["next"] = build(p.NextOffset())
	}
	if p.HasPrevious() {
		links["previous"] = build(p.PreviousOffset())
	}
	return links
}
