package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"diapertrack/internal/amqp"
	"diapertrack/internal/cache"
	"diapertrack/internal/core"
	applog "diapertrack/internal/log"
	"diapertrack/internal/metrics"
	"diapertrack/internal/middleware/security"
	"diapertrack/internal/services"
	"diapertrack/internal/storage"
)

type fakePublisher struct {
	published []*amqp.ExportRequest
}

func (p *fakePublisher) PublishExportRequest(_ context.Context, req *amqp.ExportRequest) error {
	p.published = append(p.published, req)
	return nil
}

type testEnv struct {
	t       *testing.T
	srv     *Server
	store   *storage.Store
	metrics *metrics.Metrics
	cookies map[string]string
}

func newTestEnv(t *testing.T, publisher services.ExportPublisher) *testEnv {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "diapers.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	m := metrics.New()
	brands := cache.NewBrandRegistry(store, time.Minute)
	srv, err := NewServer(":0", Deps{
		Store:   store,
		Brands:  brands,
		Exports: services.NewExportService(publisher, m),
		Ready:   store.Ping,
		Metrics: m,
		Logger:  applog.New(applog.Config{Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	srv.now = func() time.Time { return time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	env := &testEnv{t: t, srv: srv, store: store, metrics: m, cookies: map[string]string{}}
	if rr := env.get("/"); rr.Code != http.StatusOK {
		t.Fatalf("initial GET / status=%d", rr.Code)
	}
	return env
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	e.t.Helper()
	for name, value := range e.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
	rr := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, req)
	for _, c := range rr.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(e.cookies, c.Name)
		} else {
			e.cookies[c.Name] = c.Value
		}
	}
	return rr
}

func (e *testEnv) get(path string) *httptest.ResponseRecorder {
	return e.do(httptest.NewRequest(http.MethodGet, path, nil))
}

// post submits a form carrying the CSRF token from the cookie jar.
func (e *testEnv) post(path string, form url.Values) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}
	form.Set(security.CSRFFormField, e.cookies[security.CSRFCookieName])
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(req)
}

func (e *testEnv) addPurchase(boxes int) int64 {
	e.t.Helper()
	id, err := e.store.AddPurchase(context.Background(), core.NewPurchase{
		Date:          core.NewDate(2024, 1, 15),
		NumBoxes:      boxes,
		DiapersPerBox: 92,
		Brand:         "Pampers Swaddlers",
		Size:          core.Size1,
		Cost:          core.Money{Cents: 2499},
	})
	if err != nil {
		e.t.Fatalf("add purchase: %v", err)
	}
	return id
}

func validPurchaseForm() url.Values {
	return url.Values{
		"date":            {"2024-03-01"},
		"size":            {"Size 2"},
		"num_boxes":       {"2"},
		"diapers_per_box": {"92"},
		"brand":           {"  Huggies Little Snugglers "},
		"cost":            {"49.98"},
	}
}

func TestIndexAndHealth(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.get("/")
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Dashboard") {
		t.Fatalf("index body missing heading")
	}
	if got := rr.Header().Get("Cache-Control"); !strings.Contains(got, "no-store") {
		t.Errorf("Cache-Control = %q, want no-store", got)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
	if rr.Header().Get("Content-Security-Policy") == "" {
		t.Error("missing Content-Security-Policy header")
	}

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := env.get(path)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d body=%s", path, rr.Code, rr.Body.String())
		}
	}

	if rr := env.get("/nope"); rr.Code != http.StatusNotFound {
		t.Errorf("unknown path status=%d, want 404", rr.Code)
	}
}

func TestReadyzReportsStorageFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	env.srv.ready = func(context.Context) error { return errors.New("database is locked") }

	rr := env.get("/readyz")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "database is locked") {
		t.Errorf("body should name the failed check: %s", rr.Body.String())
	}
}

func TestAddPurchaseValidationAndSuccess(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.get("/add")
	if rr.Code != http.StatusOK {
		t.Fatalf("add form status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `value="2024-03-05"`) {
		t.Error("add form should default the date to today")
	}

	tests := []struct {
		name    string
		mutate  func(url.Values)
		message string
	}{
		{"invalid cost", func(f url.Values) { f.Set("cost", "abc") }, "Cost must be a positive amount"},
		{"zero cost", func(f url.Values) { f.Set("cost", "0") }, "Cost must be a positive amount"},
		{"missing brand", func(f url.Values) { f.Set("brand", "   ") }, "Brand name cannot be empty."},
		{"bad date", func(f url.Values) { f.Set("date", "03/01/2024") }, "Please enter a valid date."},
		{"unknown size", func(f url.Values) { f.Set("size", "Size 9") }, "Please choose a diaper size."},
		{"too many boxes", func(f url.Values) { f.Set("num_boxes", "50000000") }, "Number of boxes must be between 1 and 10."},
		{"huge custom quantity", func(f url.Values) {
			f.Set("diapers_per_box", "custom")
			f.Set("custom_diapers_per_box", "9223372036854775807")
		}, "Diapers per box cannot exceed 10,000."},
		{"empty custom quantity", func(f url.Values) {
			f.Set("diapers_per_box", "custom")
			f.Set("custom_diapers_per_box", "")
		}, "Please enter a valid custom quantity."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validPurchaseForm()
			tt.mutate(form)
			rr := env.post("/add", form)
			if rr.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected 422, got %d", rr.Code)
			}
			if !strings.Contains(rr.Body.String(), tt.message) {
				t.Errorf("body missing %q", tt.message)
			}
		})
	}

	form := validPurchaseForm()
	form.Set("diapers_per_box", "custom")
	form.Set("custom_diapers_per_box", "66")
	form.Set("date_opened", "2024-03-02")
	rr = env.post("/add", form)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d: %s", rr.Code, rr.Body.String())
	}
	if loc := rr.Header().Get("Location"); loc != "/history" {
		t.Errorf("Location = %q, want /history", loc)
	}

	purchases, err := env.store.ListPurchases(context.Background())
	if err != nil || len(purchases) != 1 {
		t.Fatalf("expected 1 purchase, got %d (err=%v)", len(purchases), err)
	}
	p := purchases[0]
	if p.Brand != "Huggies Little Snugglers" || p.DiapersPerBox != 66 || p.Cost.Cents != 4998 {
		t.Errorf("unexpected purchase %+v", p)
	}

	rr = env.get("/history")
	body := rr.Body.String()
	if !strings.Contains(body, "Purchase added successfully!") {
		t.Error("history should show the flash message")
	}
	if !strings.Contains(body, "1/2") {
		t.Error("history should show the first box as opened")
	}

	rr = env.get("/history")
	if strings.Contains(rr.Body.String(), "Purchase added successfully!") {
		t.Error("flash message must only be shown once")
	}

	if got := testutil.ToFloat64(env.metrics.PurchasesRecorded); got != 1 {
		t.Errorf("purchases recorded = %v, want 1", got)
	}
}

func TestFormsRequireCSRFToken(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/add", strings.NewReader(validPurchaseForm().Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := env.do(req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without token, got %d", rr.Code)
	}

	purchases, _ := env.store.ListPurchases(context.Background())
	if len(purchases) != 0 {
		t.Error("no purchase should be stored")
	}
}

func TestOpenBoxAndDelete(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	first := env.addPurchase(2)
	second := env.addPurchase(1)

	openings, err := env.store.ListOpenings(ctx, first)
	if err != nil {
		t.Fatal(err)
	}
	box2 := strconv.FormatInt(openings[1].ID, 10)

	rr := env.post("/purchase/"+strconv.FormatInt(first, 10)+"/open_box", url.Values{
		"opening_id":  {box2},
		"date_opened": {"2024-02-10"},
	})
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("open box status=%d", rr.Code)
	}
	openings, _ = env.store.ListOpenings(ctx, first)
	if openings[1].DateOpened.String() != "2024-02-10" {
		t.Errorf("box 2 opened = %q", openings[1].DateOpened)
	}

	rr = env.post("/purchase/"+strconv.FormatInt(second, 10)+"/open_box", url.Values{
		"opening_id":  {box2},
		"date_opened": {"2024-02-10"},
	})
	if rr.Code != http.StatusNotFound {
		t.Errorf("opening of another purchase: status=%d, want 404", rr.Code)
	}

	rr = env.post("/purchase/"+strconv.FormatInt(first, 10)+"/open_box", url.Values{"opening_id": {box2}})
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("missing date status=%d", rr.Code)
	}
	if body := env.get("/history").Body.String(); !strings.Contains(body, "Missing opening ID or date.") {
		t.Error("missing date should flash an error")
	}

	if rr := env.post("/delete_purchase/abc", nil); rr.Code != http.StatusNotFound {
		t.Errorf("bad id status=%d, want 404", rr.Code)
	}

	rr = env.post("/delete_purchase/"+strconv.FormatInt(first, 10), nil)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("delete status=%d", rr.Code)
	}
	if _, err := env.store.GetPurchase(ctx, first); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if openings, _ := env.store.ListOpenings(ctx, first); len(openings) != 0 {
		t.Errorf("openings should be deleted with the purchase, got %d", len(openings))
	}
}

func TestBrandManagement(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)

	if rr := env.post("/brands", url.Values{"brand_name": {"  Luvs  "}}); rr.Code != http.StatusSeeOther {
		t.Fatalf("add brand status=%d", rr.Code)
	}
	if rr := env.post("/brands", url.Values{"brand_name": {"Pampers"}}); rr.Code != http.StatusSeeOther {
		t.Fatalf("add brand status=%d", rr.Code)
	}

	rr := env.get("/api/brands")
	var names []string
	if err := json.Unmarshal(rr.Body.Bytes(), &names); err != nil {
		t.Fatalf("decode /api/brands: %v", err)
	}
	if strings.Join(names, ",") != "Luvs,Pampers" {
		t.Errorf("brands = %v, want [Luvs Pampers]", names)
	}

	brands, _ := env.store.ListBrands(ctx)
	luvs := strconv.FormatInt(brands[0].ID, 10)

	env.post("/brands/edit/"+luvs, url.Values{"brand_name": {"Pampers"}})
	if body := env.get("/brands").Body.String(); !strings.Contains(body, "A brand with that name already exists.") {
		t.Error("duplicate rename should flash an error")
	}

	env.post("/brands/edit/"+luvs, url.Values{"brand_name": {""}})
	if body := env.get("/brands").Body.String(); !strings.Contains(body, "Brand name cannot be empty.") {
		t.Error("empty rename should flash an error")
	}

	env.post("/brands/edit/"+luvs, url.Values{"brand_name": {"Luvs Platinum"}})
	rr = env.get("/api/brands")
	if !strings.Contains(rr.Body.String(), "Luvs Platinum") {
		t.Errorf("renamed brand should be listed right away: %s", rr.Body.String())
	}

	env.post("/brands/delete/"+luvs, nil)
	rr = env.get("/api/brands")
	if strings.Contains(rr.Body.String(), "Luvs") {
		t.Errorf("deleted brand still listed: %s", rr.Body.String())
	}
}

func TestAPIBrandsEmpty(t *testing.T) {
	env := newTestEnv(t, nil)
	rr := env.get("/api/brands")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Errorf("body = %q, want []", rr.Body.String())
	}
}

func TestFileExports(t *testing.T) {
	env := newTestEnv(t, nil)
	env.addPurchase(2)

	rr := env.get("/export/pdf")
	if rr.Code != http.StatusOK {
		t.Fatalf("pdf status=%d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "diaper_report_2024-03-05.pdf") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !strings.HasPrefix(rr.Body.String(), "%PDF") {
		t.Error("body is not a PDF")
	}

	rr = env.get("/export/excel")
	if rr.Code != http.StatusOK {
		t.Fatalf("excel status=%d", rr.Code)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "diaper_data_2024-03-05.xlsx") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !strings.HasPrefix(rr.Body.String(), "PK") {
		t.Error("body is not a zip container")
	}

	if got := testutil.ToFloat64(env.metrics.ExportsGenerated.WithLabelValues("pdf")); got != 1 {
		t.Errorf("pdf exports = %v, want 1", got)
	}
}

func TestEnqueueExport(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		env := newTestEnv(t, nil)

		rr := env.post("/exports", url.Values{"format": {"pdf"}})
		if rr.Code != http.StatusSeeOther {
			t.Fatalf("status=%d", rr.Code)
		}
		if body := env.get("/").Body.String(); !strings.Contains(body, "Background exports are not configured.") {
			t.Error("expected a flash error")
		}
	})

	t.Run("json accepted", func(t *testing.T) {
		pub := &fakePublisher{}
		env := newTestEnv(t, pub)

		form := url.Values{"format": {"gsheet"}, security.CSRFFormField: {env.cookies[security.CSRFCookieName]}}
		req := httptest.NewRequest(http.MethodPost, "/exports", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/json")
		rr := env.do(req)
		if rr.Code != http.StatusAccepted {
			t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
		}
		var body map[string]string
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatal(err)
		}
		if len(pub.published) != 1 || body["job_id"] != pub.published[0].JobID {
			t.Errorf("job id mismatch: %v vs %+v", body, pub.published)
		}
		if pub.published[0].RequestID == "" {
			t.Error("request id should be propagated to the job")
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		env := newTestEnv(t, &fakePublisher{})
		rr := env.post("/exports", url.Values{"format": {"docx"}})
		if rr.Code != http.StatusSeeOther {
			t.Fatalf("status=%d", rr.Code)
		}
		if body := env.get("/").Body.String(); !strings.Contains(body, "Unknown export format.") {
			t.Error("expected unknown format flash")
		}
	})
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	env.get("/history")

	if got := testutil.ToFloat64(env.metrics.HTTPRequests.WithLabelValues("GET", "GET /history", "200")); got != 1 {
		t.Errorf("history requests = %v, want 1", got)
	}

	rr := env.get("/metrics")
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "http_requests_total") {
		t.Error("metrics output missing http_requests_total")
	}
}
