package web

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"macroIndicators/internal/admin"
	"macroIndicators/internal/backend"
	"macroIndicators/internal/finance"
	"macroIndicators/internal/storage"
)

const adminToken = "secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func strp(s string) *string { return &s }

func fp(v float64) *float64 { return &v }

type fakeBackend struct {
	mu         sync.Mutex
	indicators map[string]*backend.IndicatorWithData
	categories map[string]*backend.CategoryWithIndicators
	dashboard  []backend.DashboardIndicator

	indicatorCalls int
	reorders       [][]backend.OrderEntry
	updates        map[string]backend.IndicatorUpdate
	deleted        []string
	created        []backend.NewIndicator
	uploaded       []backend.Upload
	uploadErr      error
}

func points(year int, values ...float64) []finance.DataPoint {
	out := make([]finance.DataPoint, len(values))
	for i, v := range values {
		out[i] = finance.DataPoint{Date: finance.NewDate(year+i, time.January, 1), Value: v}
	}
	return out
}

func newFakeBackend() *fakeBackend {
	gold := points(2020, 100, 110, 120)
	return &fakeBackend{
		indicators: map[string]*backend.IndicatorWithData{
			"gold": {
				Name: "Gold", Slug: "gold", Unit: strp("USD"), Frequency: "annual",
				Description: strp("Gold price per ounce"),
				DataPoints:  gold,
				Series: []finance.DataSeries{
					{SeriesType: finance.SeriesHistorical, Label: "Historical", DataPoints: gold},
					{SeriesType: finance.SeriesAnnualChange, Label: "Annual % Change", DataPoints: points(2021, 10, 9.09)},
				},
			},
			"old": {Name: "Old", Slug: "old", DataPoints: points(1990, 1, 2)},
		},
		categories: map[string]*backend.CategoryWithIndicators{
			"metals": {
				Category: backend.Category{Name: "Metals", Slug: "metals"},
				Indicators: []backend.IndicatorSummary{
					{Name: "Gold", Slug: "gold", Unit: strp("USD"), LatestValue: fp(120), ChangePercent: fp(9.09)},
					{Name: "Silver", Slug: "silver", Unit: strp("USD")},
				},
			},
		},
		dashboard: []backend.DashboardIndicator{
			{Name: "Gold", Slug: "gold", Unit: strp("USD"), LatestValue: fp(1950.5), Sparkline: []float64{100, 110, 120}},
		},
		updates: map[string]backend.IndicatorUpdate{},
	}
}

func notFound(what string) error {
	return &backend.APIError{Status: http.StatusNotFound, Detail: what + " not found"}
}

func (f *fakeBackend) GetCategories(context.Context) ([]backend.Category, error) {
	var out []backend.Category
	for _, c := range f.categories {
		out = append(out, c.Category)
	}
	return out, nil
}

func (f *fakeBackend) GetCategory(_ context.Context, slug string) (*backend.CategoryWithIndicators, error) {
	if c, ok := f.categories[slug]; ok {
		return c, nil
	}
	return nil, notFound("Category")
}

func (f *fakeBackend) GetIndicator(_ context.Context, slug string, _ int) (*backend.IndicatorWithData, error) {
	f.mu.Lock()
	f.indicatorCalls++
	f.mu.Unlock()
	if ind, ok := f.indicators[slug]; ok {
		return ind, nil
	}
	return nil, notFound("Indicator")
}

func (f *fakeBackend) GetDashboard(context.Context) ([]backend.DashboardIndicator, error) {
	return f.dashboard, nil
}

func (f *fakeBackend) GetSummary(context.Context) (*backend.Summary, error) {
	return &backend.Summary{TotalIndicators: 2, TotalCategories: 1, TotalDataPoints: 12345}, nil
}

func (f *fakeBackend) checkToken(token string) error {
	if token != adminToken {
		return &backend.APIError{Status: http.StatusUnauthorized, Detail: "Invalid admin token"}
	}
	return nil
}

func (f *fakeBackend) AdminStats(_ context.Context, token string) (*backend.AdminStats, error) {
	if err := f.checkToken(token); err != nil {
		return nil, err
	}
	return &backend.AdminStats{
		TotalIndicators: 2,
		Indicators:      []backend.AdminIndicator{{Name: "Gold", Slug: "gold", Category: "Metals", DataPoints: 3}},
	}, nil
}

func (f *fakeBackend) CreateIndicator(_ context.Context, token string, meta backend.NewIndicator, up backend.Upload) (*backend.CreatedIndicator, error) {
	if err := f.checkToken(token); err != nil {
		return nil, err
	}
	f.created = append(f.created, meta)
	f.uploaded = append(f.uploaded, up)
	res := &backend.CreatedIndicator{DataAdded: 3}
	res.Indicator.Name = meta.Name
	return res, nil
}

func (f *fakeBackend) UploadCSV(_ context.Context, token, _ string, up backend.Upload) (*backend.UploadResult, error) {
	if err := f.checkToken(token); err != nil {
		return nil, err
	}
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	f.uploaded = append(f.uploaded, up)
	return &backend.UploadResult{Added: 2}, nil
}

func (f *fakeBackend) UpdateIndicator(_ context.Context, token, slug string, upd backend.IndicatorUpdate) error {
	if err := f.checkToken(token); err != nil {
		return err
	}
	f.updates[slug] = upd
	return nil
}

func (f *fakeBackend) DeleteIndicator(_ context.Context, token, slug string) error {
	if err := f.checkToken(token); err != nil {
		return err
	}
	f.deleted = append(f.deleted, slug)
	return nil
}

func (f *fakeBackend) ReorderIndicators(_ context.Context, token string, order []backend.OrderEntry) error {
	if err := f.checkToken(token); err != nil {
		return err
	}
	f.reorders = append(f.reorders, order)
	return nil
}

type fakeLedger struct {
	runs       []storage.RunRecord
	reconciled []string
}

func (l *fakeLedger) SaveRun(r storage.RunRecord) error {
	l.runs = append(l.runs, r)
	return nil
}

func (l *fakeLedger) RecentRuns(int) ([]storage.RunRecord, error) { return l.runs, nil }

func (l *fakeLedger) UnreconciledRuns() ([]storage.RunRecord, error) {
	var out []storage.RunRecord
	for _, r := range l.runs {
		if r.Partial && !r.Reconciled {
			out = append(out, r)
		}
	}
	return out, nil
}

func (l *fakeLedger) MarkReconciled(id string) error {
	l.reconciled = append(l.reconciled, id)
	return nil
}

type fakeNarrator struct{ enabled bool }

func (n fakeNarrator) Enabled() bool { return n.enabled }

func (n fakeNarrator) Describe(_ context.Context, name string, v finance.View) (string, error) {
	return name + " moved within its range.", nil
}

type testEnv struct {
	router  *gin.Engine
	backend *fakeBackend
	ledger  *fakeLedger
}

func newTestEnv(t *testing.T, narrator Narrator) *testEnv {
	t.Helper()
	b := newFakeBackend()
	l := &fakeLedger{}
	h, err := New(b, l, admin.NewRunner(b, l, nil, nil), narrator, zap.NewNop(), Options{
		IndicatorLimit: 100,
		CacheTTL:       time.Minute,
		Location:       time.UTC,
		CORSOrigins:    []string{"*"},
	})
	require.NoError(t, err)
	r := gin.New()
	h.Register(r)
	return &testEnv{router: r, backend: b, ledger: l}
}

type reqOption func(*http.Request)

func asAdmin(r *http.Request) {
	r.AddCookie(&http.Cookie{Name: admin.CookieName, Value: adminToken})
}

func htmx(r *http.Request) { r.Header.Set("HX-Request", "true") }

func (e *testEnv) do(method, target string, body *bytes.Buffer, contentType string, opts ...reqOption) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, body)
		req.Header.Set("Content-Type", contentType)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, o := range opts {
		o(req)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) get(target string, opts ...reqOption) *httptest.ResponseRecorder {
	return e.do(http.MethodGet, target, nil, "", opts...)
}

func (e *testEnv) postForm(target string, form url.Values, opts ...reqOption) *httptest.ResponseRecorder {
	return e.do(http.MethodPost, target, bytes.NewBufferString(form.Encode()), "application/x-www-form-urlencoded", opts...)
}

// postMultipart sends fields plus files keyed by form name.
func (e *testEnv) postMultipart(t *testing.T, target string, fields map[string]string, files map[string]string, opts ...reqOption) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for k, content := range files {
		fw, err := mw.CreateFormFile(k, strings.TrimPrefix(k, "file")+".csv")
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return e.do(http.MethodPost, target, &buf, mw.FormDataContentType(), opts...)
}
