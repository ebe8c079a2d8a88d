package memory

import (
	"context"
	"fmt"
	"sync"

	"mealplanner/internal/sheets"
)

var _ sheets.ListWriter = (*Writer)(nil)

// Writer keeps exported tabs in memory. It backs tests and local runs
// without Google credentials.
type Writer struct {
	mu     sync.Mutex
	tabs   map[string][][]string
	order  []string
	writes int

	// Err, when set, is returned by the next write instead of storing it.
	Err error
}

func New() *Writer {
	return &Writer{tabs: make(map[string][][]string)}
}

// WriteShoppingList replaces the tab content, creating the tab if needed.
func (w *Writer) WriteShoppingList(_ context.Context, e sheets.Export) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.Err != nil {
		err := w.Err
		w.Err = nil
		return "", err
	}

	title := e.TabTitle()
	if _, ok := w.tabs[title]; !ok {
		w.order = append(w.order, title)
	}
	rows := e.Rows()
	w.tabs[title] = rows
	w.writes++
	return fmt.Sprintf("mem:%s!A1:C%d", title, len(rows)), nil
}

// Tab returns a copy of the rows stored under title.
func (w *Writer) Tab(title string) ([][]string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	rows, ok := w.tabs[title]
	if !ok {
		return nil, false
	}
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out, true
}

// Titles lists tabs in creation order.
func (w *Writer) Titles() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.order...)
}

// Writes counts successful writes.
func (w *Writer) Writes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writes
}
