package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Table is the row-oriented view of one spreadsheet tab.
type Table interface {
	HeaderRow(ctx context.Context, width int) ([]string, error)
	WriteHeader(ctx context.Context, header []string) error
	Append(ctx context.Context, row []string) error
	Rows(ctx context.Context) ([][]string, error)
}

// NewSheetsService builds a Sheets client from service-account JSON.
// Extra options come last so tests can point it at a fake endpoint.
func NewSheetsService(ctx context.Context, credsJSON []byte, extra ...option.ClientOption) (*sheets.Service, error) {
	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	if len(credsJSON) > 0 {
		opts = append(opts, option.WithCredentialsJSON(credsJSON))
	}
	opts = append(opts, extra...)
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets client: %w", err)
	}
	return svc, nil
}

// SheetTable is a Table backed by the Sheets values API.
// An empty tab name resolves to the first tab of the spreadsheet.
type SheetTable struct {
	svc           *sheets.Service
	SpreadsheetID string

	mu  sync.Mutex
	tab string
}

func NewSheetTable(svc *sheets.Service, spreadsheetID, tab string) *SheetTable {
	return &SheetTable{svc: svc, SpreadsheetID: spreadsheetID, tab: strings.TrimSpace(tab)}
}

func (t *SheetTable) Tab(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tab != "" {
		return t.tab, nil
	}
	ss, err := t.svc.Spreadsheets.Get(t.SpreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("resolve first tab: %w", err)
	}
	if len(ss.Sheets) == 0 || ss.Sheets[0].Properties == nil {
		return "", fmt.Errorf("spreadsheet %s has no tabs", t.SpreadsheetID)
	}
	t.tab = ss.Sheets[0].Properties.Title
	return t.tab, nil
}

// HeaderRow reads A1 through the width-th column of row 1.
func (t *SheetTable) HeaderRow(ctx context.Context, width int) ([]string, error) {
	tab, err := t.Tab(ctx)
	if err != nil {
		return nil, err
	}
	rng := fmt.Sprintf("%s!A1:%s1", quoteTab(tab), columnName(width))
	vr, err := t.svc.Spreadsheets.Values.Get(t.SpreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read header %s: %w", rng, err)
	}
	if len(vr.Values) == 0 {
		return nil, nil
	}
	return cells(vr.Values[0]), nil
}

func (t *SheetTable) WriteHeader(ctx context.Context, header []string) error {
	tab, err := t.Tab(ctx)
	if err != nil {
		return err
	}
	rng := quoteTab(tab) + "!A1"
	vr := &sheets.ValueRange{Values: [][]interface{}{row(header)}}
	if _, err := t.svc.Spreadsheets.Values.Update(t.SpreadsheetID, rng, vr).ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

func (t *SheetTable) Append(ctx context.Context, r []string) error {
	tab, err := t.Tab(ctx)
	if err != nil {
		return err
	}
	vr := &sheets.ValueRange{Values: [][]interface{}{row(r)}}
	_, err = t.svc.Spreadsheets.Values.Append(t.SpreadsheetID, quoteTab(tab), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	return nil
}

// Rows returns every non-empty row of the tab, header included.
func (t *SheetTable) Rows(ctx context.Context) ([][]string, error) {
	tab, err := t.Tab(ctx)
	if err != nil {
		return nil, err
	}
	vr, err := t.svc.Spreadsheets.Values.Get(t.SpreadsheetID, quoteTab(tab)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", tab, err)
	}
	out := make([][]string, 0, len(vr.Values))
	for _, v := range vr.Values {
		out = append(out, cells(v))
	}
	return out, nil
}

// Unavailable is a Table whose every call fails with err. Used when the
// sheet is not configured so persistence degrades instead of panicking.
func Unavailable(err error) Table { return unavailable{err: err} }

type unavailable struct{ err error }

func (u unavailable) HeaderRow(context.Context, int) ([]string, error) { return nil, u.err }
func (u unavailable) WriteHeader(context.Context, []string) error      { return u.err }
func (u unavailable) Append(context.Context, []string) error           { return u.err }
func (u unavailable) Rows(context.Context) ([][]string, error)         { return nil, u.err }

func row(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

func cells(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		if v == nil {
			continue
		}
		out[i] = fmt.Sprint(v)
	}
	return out
}

// quoteTab wraps tab names that A1 notation cannot take bare.
func quoteTab(tab string) string {
	for _, r := range tab {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_') {
			return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
		}
	}
	return tab
}

// columnName converts 1 -> A, 11 -> K, 27 -> AA.
func columnName(n int) string {
	if n < 1 {
		n = 1
	}
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}
