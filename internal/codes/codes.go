// Package codes recognises the product codes printed on collectible car cards.
//
// A code is five uppercase alphanumeric characters, a hyphen, and four more
// uppercase alphanumeric characters, e.g. "JBC19-N7C5". OCR output is free-form
// text, so Scan looks for every occurrence of that shape rather than parsing
// lines.
package codes

import (
	"regexp"
	"sort"
	"strings"
)

// Code is a product code such as "JBC19-N7C5".
type Code string

// Pattern is the shape of a code inside OCR text. Matching is case-sensitive.
const Pattern = `[A-Z0-9]{5}-[A-Z0-9]{4}`

var (
	scanRE  = regexp.MustCompile(Pattern)
	exactRE = regexp.MustCompile(`^` + Pattern + `$`)
)

// Valid reports whether c is exactly one code: 5 characters, a hyphen at
// index 5, then 4 characters, all uppercase letters or digits.
func (c Code) Valid() bool {
	return exactRE.MatchString(string(c))
}

// Prefix returns the part of the code before the first hyphen.
func (c Code) Prefix() string {
	s := string(c)
	if i := strings.IndexByte(s, '-'); i >= 0 {
		return s[:i]
	}
	return s
}

func (c Code) String() string { return string(c) }

// Scan returns every distinct code found in text, sorted ascending.
//
// Matches are non-overlapping and found left to right, so a run like
// "JBC19-N7C5-extra" yields "JBC19-N7C5". The same card edge read twice
// collapses into one entry. The result is never nil.
func Scan(text string) []Code {
	matches := scanRE.FindAllString(text, -1)

	seen := make(map[string]struct{}, len(matches))
	out := make([]Code, 0, len(matches))
	for _, m := range matches {
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, Code(m))
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Strings converts codes to plain strings, keeping order.
func Strings(cs []Code) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = string(c)
	}
	return out
}
