package collection

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// HyperlinkLabel is the text shown for the link cell.
const HyperlinkLabel = "ID This Car"

// SheetConfig configures a SheetAppender.
type SheetConfig struct {
	// SpreadsheetID is the ID from the spreadsheet URL.
	SpreadsheetID string

	// Worksheet is the tab rows are appended to, e.g. "Sheet1".
	Worksheet string

	// CredentialsJSON or CredentialsFile hold a service account key.
	// CredentialsJSON wins when both are set.
	CredentialsJSON []byte
	CredentialsFile string

	// Hyperlinks renders the link cell as a HYPERLINK formula instead of a
	// plain URL.
	Hyperlinks bool

	// Endpoint and HTTPClient override the API endpoint and transport.
	// HTTPClient replaces credential handling entirely.
	Endpoint   string
	HTTPClient *http.Client
}

// SheetAppender appends rows to a Google Sheets worksheet.
type SheetAppender struct {
	svc        *sheets.Service
	id         string
	rng        string
	hyperlinks bool
}

// NewSheetAppender creates a Sheets client. Missing configuration or a client
// that cannot be built is reported as ErrConnection.
func NewSheetAppender(ctx context.Context, cfg SheetConfig) (*SheetAppender, error) {
	if cfg.SpreadsheetID == "" {
		return nil, connectionError(errors.New("no spreadsheet id configured"), false)
	}
	if cfg.Worksheet == "" {
		cfg.Worksheet = "Sheet1"
	}

	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	switch {
	case cfg.HTTPClient != nil:
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	case len(cfg.CredentialsJSON) > 0:
		opts = append(opts, option.WithCredentialsJSON(cfg.CredentialsJSON))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	default:
		return nil, connectionError(errors.New("no service account credentials configured"), false)
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, connectionError(fmt.Errorf("creating sheets client: %w", err), false)
	}

	return &SheetAppender{
		svc:        svc,
		id:         cfg.SpreadsheetID,
		rng:        worksheetRange(cfg.Worksheet),
		hyperlinks: cfg.Hyperlinks,
	}, nil
}

// AppendRows appends rows after the last row of the worksheet's table.
//
// Values are sent with USER_ENTERED so the HYPERLINK formula is evaluated.
func (a *SheetAppender) AppendRows(ctx context.Context, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	values := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		values = append(values, []interface{}{r.Code, a.linkCell(r), r.Status})
	}

	_, err := a.svc.Spreadsheets.Values.
		Append(a.id, a.rng, &sheets.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return classifySheetsError(err)
	}
	return nil
}

func (a *SheetAppender) linkCell(r Row) string {
	if a.hyperlinks && r.LinkOK() {
		return HyperlinkFormula(r.Link, HyperlinkLabel)
	}
	return r.Link
}

// HyperlinkFormula builds a Sheets HYPERLINK formula. Double quotes inside
// the arguments are doubled as the formula language requires.
func HyperlinkFormula(url, label string) string {
	q := func(s string) string { return strings.ReplaceAll(s, `"`, `""`) }
	return fmt.Sprintf(`=HYPERLINK("%s", "%s")`, q(url), q(label))
}

// worksheetRange returns the A1 range covering the first three columns of
// the named worksheet.
func worksheetRange(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'!A:C"
}

// classifySheetsError maps a Sheets API error onto the collection error kinds.
//
// A response from the API means the connection worked, so it is a write
// error, except 401 and 404, which mean the credentials or spreadsheet ID are
// wrong. Anything without a response is a connection error.
func classifySheetsError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == http.StatusUnauthorized || gerr.Code == http.StatusNotFound:
			return connectionError(err, false)
		case gerr.Code == http.StatusTooManyRequests || gerr.Code >= 500:
			return writeError(err, true)
		default:
			return writeError(err, false)
		}
	}
	return connectionError(err, true)
}
