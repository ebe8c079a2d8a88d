package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"mealplanner/internal/core"
	ports "mealplanner/internal/sheets"
	"mealplanner/internal/shopping"
	"mealplanner/internal/units"
)

// fakeSheets records the Sheets API calls the client makes.
type fakeSheets struct {
	mu      sync.Mutex
	tabs    []string
	added   []string
	cleared []string
	written map[string][][]any
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && path == "/v4/spreadsheets/sheet-id":
		sheets := make([]map[string]any, 0, len(f.tabs))
		for _, t := range f.tabs {
			sheets = append(sheets, map[string]any{"properties": map[string]any{"title": t}})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"sheets": sheets})
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate"):
		var req gsheet.BatchUpdateSpreadsheetRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		for _, rq := range req.Requests {
			f.added = append(f.added, rq.AddSheet.Properties.Title)
			f.tabs = append(f.tabs, rq.AddSheet.Properties.Title)
		}
		_, _ = w.Write([]byte(`{}`))
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":clear"):
		rng := strings.TrimSuffix(path[strings.Index(path, "/values/")+len("/values/"):], ":clear")
		f.cleared = append(f.cleared, rng)
		_, _ = w.Write([]byte(`{}`))
	case r.Method == http.MethodPut && strings.Contains(path, "/values/"):
		var vr gsheet.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		rng := path[strings.Index(path, "/values/")+len("/values/"):]
		f.written[rng] = vr.Values
		_, _ = w.Write([]byte(`{}`))
	default:
		http.Error(w, "unexpected "+r.Method+" "+path, http.StatusNotFound)
	}
}

func newTestClient(t *testing.T, f *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return NewWithService(svc, "sheet-id", nil)
}

func testExport() ports.Export {
	return ports.Export{
		Username: "ada",
		From:     core.NewDate(2025, 3, 1),
		To:       core.NewDate(2025, 3, 7),
		List: shopping.List{Items: []shopping.Item{
			{Name: "flour", Quantities: []units.Quantity{units.New(750, units.Gram)}},
			{Name: "sugar", Quantities: []units.Quantity{units.New(200, units.Gram), units.New(2, units.Cup)}},
		}},
	}
}

func TestWriteShoppingListCreatesTab(t *testing.T) {
	f := &fakeSheets{tabs: []string{"Sheet1"}, written: map[string][][]any{}}
	c := newTestClient(t, f)

	ref, err := c.WriteShoppingList(context.Background(), testExport())
	require.NoError(t, err)

	const tab = "ada 2025-03-01..2025-03-07"
	assert.Equal(t, "'"+tab+"'!A1:C4", ref)
	assert.Equal(t, []string{tab}, f.added)
	assert.Equal(t, []string{"'" + tab + "'!A:C"}, f.cleared)

	rows := f.written["'"+tab+"'!A1:C4"]
	require.Len(t, rows, 4)
	assert.Equal(t, []any{"Ingredient", "Quantity", "Unit"}, rows[0])
	assert.Equal(t, []any{"flour", "750", "gram"}, rows[1])
	assert.Equal(t, []any{"sugar", "2", "cup"}, rows[3])
}

func TestWriteShoppingListReusesTab(t *testing.T) {
	f := &fakeSheets{tabs: []string{"ada 2025-03-01..2025-03-07"}, written: map[string][][]any{}}
	c := newTestClient(t, f)

	_, err := c.WriteShoppingList(context.Background(), testExport())
	require.NoError(t, err)
	assert.Empty(t, f.added)
	assert.Len(t, f.cleared, 1)
}

func TestWriteShoppingListNilService(t *testing.T) {
	c := &Client{spreadsheetID: "x"}
	_, err := c.WriteShoppingList(context.Background(), testExport())
	assert.Error(t, err)
}

func TestCredentials(t *testing.T) {
	got, err := Credentials(`{"type":"service_account"}`, "/does/not/matter")
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"service_account"}`, string(got))

	file := filepath.Join(t.TempDir(), "sa.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"from":"file"}`), 0o600))
	got, err = Credentials("", file)
	require.NoError(t, err)
	assert.JSONEq(t, `{"from":"file"}`, string(got))

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err = Credentials("", "")
	assert.ErrorIs(t, err, ErrNoCredentials)

	_, err = Credentials("", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), " ", []byte(`{}`), nil)
	assert.EqualError(t, err, "missing GOOGLE_SPREADSHEET_ID")
}

func TestA1QuotesTitle(t *testing.T) {
	assert.Equal(t, "'o''brien 2025-01-01..2025-01-02'!A:C", a1("o'brien 2025-01-01..2025-01-02", "A:C"))
}
