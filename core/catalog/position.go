package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// Position tracks how far a paged search has progressed. It is encoded into
// the opaque cursor handed between pages.
type Position struct {
	PageNum     int
	Seen        int
	SearchAfter string
}

// Start is the position of the first page.
func Start() Position {
	return Position{PageNum: 1}
}

// Encode renders the position as a cursor string.
func (p Position) Encode() string {
	return strconv.Itoa(p.PageNum) + ":" + strconv.Itoa(p.Seen) + ":" + p.SearchAfter
}

// ParsePosition decodes a cursor. The empty string is the first page.
func ParsePosition(s string) (Position, error) {
	if s == "" {
		return Start(), nil
	}
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return Position{}, fmt.Errorf("invalid catalog cursor %q", s)
	}
	page, err := strconv.Atoi(parts[0])
	if err != nil || page < 1 {
		return Position{}, fmt.Errorf("invalid catalog cursor %q", s)
	}
	seen, err := strconv.Atoi(parts[1])
	if err != nil || seen < 0 {
		return Position{}, fmt.Errorf("invalid catalog cursor %q", s)
	}
	return Position{PageNum: page, Seen: seen, SearchAfter: parts[2]}, nil
}

// Query returns the search query for this position.
func (p Position) Query(pageSize int) Query {
	return Query{PageNum: p.PageNum, PageSize: pageSize, SearchAfter: p.SearchAfter}
}

// Advance returns the position after a page of n items and whether the
// search is complete. A search ends on an empty page, a short page, or once
// the reported hits have all been seen.
func (p Position) Advance(n, hits, pageSize int, searchAfter string) (Position, bool) {
	next := Position{PageNum: p.PageNum + 1, Seen: p.Seen + n, SearchAfter: searchAfter}
	if n == 0 || n < pageSize {
		return next, true
	}
	if hits >= 0 && next.Seen >= hits {
		return next, true
	}
	return next, false
}
