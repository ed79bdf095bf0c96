// Package pagination implements keyset pages over (sort key, id) pairs.
// Cursors are opaque to clients: a version tag plus the last row's key and
// id, base64url-encoded without padding.
package pagination

import (
	"encoding/base64"
	"errors"
	"strings"

	"github.com/cloo-solutions/panelsearch/internal/domain"
)

const (
	cursorVersion = "k1"
	fieldSep      = "\x1f"
)

// Cursor is the last row of the previous page.
type Cursor struct {
	LastKey string
	LastID  string
}

// PageResult is one page of items plus the cursor for the next one.
type PageResult[T any] struct {
	Items   []T    `json:"items"`
	Cursor  string `json:"cursor,omitempty"`
	HasMore bool   `json:"has_more"`
}

// EncodeCursor returns "" when lastID is empty, which ends pagination.
func EncodeCursor(lastKey, lastID string) string {
	if lastID == "" {
		return ""
	}
	raw := strings.Join([]string{cursorVersion, lastKey, lastID}, fieldSep)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor returns nil for "" and a domain.ErrInvalidCursor for
// anything EncodeCursor could not have produced.
func DecodeCursor(s string) (*Cursor, error) {
	if s == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, invalid(err)
	}
	parts := strings.Split(string(raw), fieldSep)
	switch {
	case len(parts) != 3:
		return nil, invalid(errors.New("wrong field count"))
	case parts[0] != cursorVersion:
		return nil, invalid(errors.New("unknown cursor version"))
	case parts[2] == "":
		return nil, invalid(errors.New("empty id"))
	}
	return &Cursor{LastKey: parts[1], LastID: parts[2]}, nil
}

func invalid(cause error) error {
	return domain.NewDomainErrorWithCause(domain.ErrCodeValidation, domain.ErrInvalidCursor.Message, cause)
}

// Page expects items fetched with LIMIT limit+1. The extra row, if present,
// is dropped and signals HasMore.
func Page[T any](items []T, limit int, key, id func(T) string) PageResult[T] {
	if len(items) <= limit {
		if items == nil {
			items = []T{}
		}
		return PageResult[T]{Items: items}
	}
	items = items[:limit]
	last := items[limit-1]
	return PageResult[T]{
		Items:   items,
		Cursor:  EncodeCursor(key(last), id(last)),
		HasMore: true,
	}
}
