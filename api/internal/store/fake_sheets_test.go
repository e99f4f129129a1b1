package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// fakeSheets is an in-memory stand-in for the Sheets values API.
type fakeSheets struct {
	mu   sync.Mutex
	tab  string
	rows [][]string

	failHeaderRead bool
	failAppend     bool
	headerWrites   int
	appends        int
	ranges         []string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rest := strings.TrimPrefix(r.URL.Path, "/v4/spreadsheets/")
	id, tail, _ := strings.Cut(rest, "/")
	w.Header().Set("Content-Type", "application/json")

	if tail == "" {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"spreadsheetId": id,
			"sheets":        []any{map[string]any{"properties": map[string]any{"title": f.tab}}},
		})
		return
	}

	rng := strings.TrimPrefix(tail, "values/")
	f.ranges = append(f.ranges, r.Method+" "+rng)

	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(rng, ":append"):
		if f.failAppend {
			http.Error(w, `{"error":{"code":503,"message":"unavailable"}}`, http.StatusServiceUnavailable)
			return
		}
		var vr struct{ Values [][]string }
		_ = json.NewDecoder(r.Body).Decode(&vr)
		f.rows = append(f.rows, vr.Values...)
		f.appends++
		_, _ = w.Write([]byte(`{"updates":{"updatedRows":1}}`))

	case r.Method == http.MethodPut:
		var vr struct{ Values [][]string }
		_ = json.NewDecoder(r.Body).Decode(&vr)
		if len(f.rows) == 0 {
			f.rows = append(f.rows, vr.Values[0])
		} else {
			f.rows[0] = vr.Values[0]
		}
		f.headerWrites++
		_, _ = w.Write([]byte(`{"updatedRows":1}`))

	case r.Method == http.MethodGet && strings.Contains(rng, "!A1:"):
		if f.failHeaderRead {
			http.Error(w, `{"error":{"code":500,"message":"boom"}}`, http.StatusInternalServerError)
			return
		}
		values := [][]string{}
		if len(f.rows) > 0 {
			values = append(values, f.rows[0])
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"range": rng, "values": values})

	case r.Method == http.MethodGet:
		_ = json.NewEncoder(w).Encode(map[string]any{"range": rng, "values": f.rows})

	default:
		http.NotFound(w, r)
	}
}

func (f *fakeSheets) snapshot() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]string, len(f.rows))
	copy(out, f.rows)
	return out
}

func newFakeService(t *testing.T, f *fakeSheets) *sheets.Service {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	svc, err := NewSheetsService(context.Background(), nil,
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return svc
}
