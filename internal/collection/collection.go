// Package collection appends scanned cars to the user's collection sheet.
//
// The collection is an external spreadsheet (Google Sheets) or, for setups
// without Google credentials, a Postgres table. Both implement Appender. Each
// saved car becomes one row: code, lookup link, and a status that starts as
// "Unverified" until the owner checks the car by hand.
//
// Errors are split by kind so the UI can say what to fix:
//   - ErrConnection: the backend could not be reached or is misconfigured
//     (no credentials, unknown spreadsheet, network failure, timeout).
//   - ErrWrite: the backend answered but refused the rows (quota,
//     permission, malformed data).
//   - ErrRetriesExhausted: Retrying gave up; the last cause is wrapped too.
package collection

import (
	"context"
	"errors"
	"fmt"

	"github.com/ironsheep/stack-scanner/internal/links"
)

// Row statuses.
const (
	StatusUnverified = "Unverified"
	StatusLinkError  = "Link Error"
)

var (
	ErrConnection       = errors.New("collection unreachable")
	ErrWrite            = errors.New("collection write failed")
	ErrRetriesExhausted = errors.New("collection write retries exhausted")
)

// Row is one car appended to the collection.
type Row struct {
	Code   string
	Link   string
	Status string
}

// LinkOK reports whether Link is a usable URL rather than links.ErrorLink.
func (r Row) LinkOK() bool {
	return r.Link != "" && r.Link != links.ErrorLink
}

// Appender adds rows to the end of a collection.
//
// AppendRows either stores every row or returns an error; callers keep their
// batch on error so the user can retry.
type Appender interface {
	AppendRows(ctx context.Context, rows []Row) error
}

// RowsFromRecords converts scan records into rows. Records whose link could
// not be generated are kept, with the sentinel text as link and
// StatusLinkError as status, so nothing the scan found is silently dropped.
func RowsFromRecords(records []links.Record) []Row {
	rows := make([]Row, 0, len(records))
	for _, r := range records {
		status := StatusUnverified
		if !r.LinkOK() {
			status = StatusLinkError
		}
		rows = append(rows, Row{Code: string(r.Code), Link: r.Link, Status: status})
	}
	return rows
}

// Error is the error type returned by appenders.
type Error struct {
	// Kind is ErrConnection or ErrWrite.
	Kind error
	// Transient marks failures worth one more attempt.
	Transient bool
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func connectionError(err error, transient bool) error {
	return &Error{Kind: ErrConnection, Transient: transient, Err: err}
}

func writeError(err error, transient bool) error {
	return &Error{Kind: ErrWrite, Transient: transient, Err: err}
}

// IsTransient reports whether err is an appender error worth retrying.
func IsTransient(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Transient
}

// Unavailable is an Appender standing in for a backend that could not be set
// up. Every append fails with Err, so the app still scans and reports the
// problem when the user tries to save.
type Unavailable struct {
	Err error
}

func (u Unavailable) AppendRows(ctx context.Context, rows []Row) error {
	return u.Err
}
