// Package session holds the scan results of one interactive user.
//
// A Batch is the list of (code, link) records found by the latest scan and not
// yet saved. A Session owns exactly one Batch plus the preview state shown to
// the user; a Store maps session IDs to sessions for the web surface.
//
// Batch itself does no locking. Session.Do serialises the actions of one user;
// different users never share a Session.
package session

import (
	"github.com/ironsheep/stack-scanner/internal/codes"
	"github.com/ironsheep/stack-scanner/internal/links"
)

// Batch is an ordered, duplicate-free list of records pending a save.
// The zero value is an empty batch ready to use.
type Batch struct {
	records []links.Record
}

// Replace discards the current contents and stores records, keeping their
// order and dropping repeated codes.
func (b *Batch) Replace(records []links.Record) {
	b.records = appendUnique(nil, records)
}

// Merge appends records whose codes are not already in the batch.
func (b *Batch) Merge(records []links.Record) {
	b.records = appendUnique(b.records, records)
}

// All returns a copy of the records in discovery order.
func (b *Batch) All() []links.Record {
	out := make([]links.Record, len(b.records))
	copy(out, b.records)
	return out
}

// Clear empties the batch.
func (b *Batch) Clear() {
	b.records = nil
}

// Len returns the number of records.
func (b *Batch) Len() int {
	return len(b.records)
}

// Codes returns the codes in the batch, in order.
func (b *Batch) Codes() []codes.Code {
	out := make([]codes.Code, len(b.records))
	for i, r := range b.records {
		out[i] = r.Code
	}
	return out
}

func appendUnique(dst, src []links.Record) []links.Record {
	seen := make(map[codes.Code]struct{}, len(dst)+len(src))
	for _, r := range dst {
		seen[r.Code] = struct{}{}
	}
	for _, r := range src {
		if _, dup := seen[r.Code]; dup {
			continue
		}
		seen[r.Code] = struct{}{}
		dst = append(dst, r)
	}
	return dst
}
