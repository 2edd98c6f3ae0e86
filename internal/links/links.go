// Package links turns product codes into collecthw.com lookup URLs.
//
// The lookup site searches by the series prefix of a code (the part before the
// first hyphen), base64 encoded:
//
//	JBC19-N7C5 -> JBC19 -> SkJDMTk= -> https://collecthw.com/hw/search/SkJDMTk=
package links

import (
	"encoding/base64"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/ironsheep/stack-scanner/internal/codes"
)

// SearchURL is the lookup template; the encoded prefix is appended.
const SearchURL = "https://collecthw.com/hw/search/"

// ErrorLink is returned by GenerateLink in place of a URL when encoding fails.
// It is a sentinel, never a usable link.
const ErrorLink = "Error generating link"

// ErrEncoding reports that a code's prefix could not be encoded into a link.
var ErrEncoding = errors.New("link encoding failed")

// Link builds the lookup URL for code.
//
// Only the substring before the first hyphen is used, with surrounding
// whitespace trimmed. The prefix must be non-empty valid UTF-8.
func Link(code string) (string, error) {
	prefix, _, _ := strings.Cut(code, "-")
	prefix = strings.TrimSpace(prefix)
	if prefix == "" || !utf8.ValidString(prefix) {
		return "", ErrEncoding
	}
	return SearchURL + base64.StdEncoding.EncodeToString([]byte(prefix)), nil
}

// GenerateLink is Link with failures folded into ErrorLink.
func GenerateLink(code string) string {
	u, err := Link(code)
	if err != nil {
		return ErrorLink
	}
	return u
}

// Record pairs a code with its lookup link. Records are values and are never
// modified after NewRecord.
type Record struct {
	Code codes.Code `json:"code"`
	Link string     `json:"link"`
}

// NewRecord pairs code with its generated link.
func NewRecord(code codes.Code) Record {
	return Record{Code: code, Link: GenerateLink(string(code))}
}

// LinkOK reports whether the record carries a real URL rather than ErrorLink.
func (r Record) LinkOK() bool {
	return r.Link != ErrorLink
}

// NewRecords pairs every code with its link, keeping order. A code whose link
// fails still produces a record, carrying ErrorLink.
func NewRecords(cs []codes.Code) []Record {
	out := make([]Record, 0, len(cs))
	for _, c := range cs {
		out = append(out, NewRecord(c))
	}
	return out
}
