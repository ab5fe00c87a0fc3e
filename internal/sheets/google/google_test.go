package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	goption "google.golang.org/api/option"

	"diapertrack/internal/core"
	"diapertrack/internal/report"
)

type fakeSheetsAPI struct {
	mu       sync.Mutex
	calls    []string
	existing []string
	updates  map[string][][]any
}

func (f *fakeSheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet:
		sheets := make([]map[string]any, 0, len(f.existing))
		for _, title := range f.existing {
			sheets = append(sheets, map[string]any{"properties": map[string]any{"title": title}})
		}
		json.NewEncoder(w).Encode(map[string]any{"spreadsheetId": "sheet-1", "sheets": sheets})
	case r.Method == http.MethodPut:
		var body struct {
			Values [][]any `json:"values"`
		}
		b, _ := io.ReadAll(r.Body)
		json.Unmarshal(b, &body)
		f.updates[r.URL.Path] = body.Values
		io.WriteString(w, "{}")
	default:
		io.WriteString(w, "{}")
	}
}

func TestPublisher_Publish(t *testing.T) {
	api := &fakeSheetsAPI{existing: []string{"Summary"}, updates: map[string][][]any{}}
	srv := httptest.NewServer(api)
	defer srv.Close()

	ctx := context.Background()
	p, err := New(ctx, "sheet-1", goption.WithEndpoint(srv.URL+"/"), goption.WithoutAuthentication())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rep := &report.Report{
		GeneratedAt: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		Stats:       core.NewStatistics(1, 1, 40, core.Money{Cents: 1000}),
		Rows: []report.Row{{Purchase: core.Purchase{
			ID: 1, Date: core.NewDate(2024, 1, 2), NumBoxes: 1, DiapersPerBox: 40,
			Brand: "Luvs", Size: core.Size3, Cost: core.Money{Cents: 1000},
		}}},
	}

	ref, err := p.Publish(ctx, rep)
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if ref != "Purchases!A1:I2" {
		t.Errorf("Publish() ref = %q", ref)
	}

	api.mu.Lock()
	defer api.mu.Unlock()

	var sawBatch, sawClear bool
	for _, c := range api.calls {
		if strings.HasSuffix(c, ":batchUpdate") {
			sawBatch = true
		}
		if strings.HasSuffix(c, ":clear") {
			sawClear = true
		}
	}
	if !sawBatch {
		t.Errorf("expected missing Purchases sheet to be added, calls: %v", api.calls)
	}
	if !sawClear {
		t.Errorf("expected sheets to be cleared before update, calls: %v", api.calls)
	}

	var purchases [][]any
	for path, values := range api.updates {
		if strings.Contains(path, "Purchases") {
			purchases = values
		}
	}
	if len(purchases) != 2 || purchases[1][1] != "Luvs" {
		t.Errorf("purchases sheet values = %v", purchases)
	}
}

func TestNew_RequiresSpreadsheetID(t *testing.T) {
	if _, err := New(context.Background(), "  ", goption.WithoutAuthentication()); err == nil {
		t.Error("New() expected error for empty spreadsheet id")
	}
}

func TestCredentialOptions(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	if _, err := CredentialOptions(context.Background(), "", ""); err == nil {
		t.Error("expected error without credentials")
	}
	opts, err := CredentialOptions(context.Background(), "", `{"type":"service_account"}`)
	if err != nil || len(opts) != 2 {
		t.Errorf("CredentialOptions() = %d opts, %v", len(opts), err)
	}
	if _, err := CredentialOptions(context.Background(), "/non/existent.json", ""); err == nil {
		t.Error("expected error for missing credentials file")
	}
}
