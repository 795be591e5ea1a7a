package web

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"macroIndicators/internal/admin"
	"macroIndicators/internal/backend"
	"macroIndicators/internal/finance"
	"macroIndicators/internal/storage"
)

//go:embed templates/*.html
var templateFS embed.FS

// Backend is the REST surface the pages use.
type Backend interface {
	admin.Backend
	GetCategories(ctx context.Context) ([]backend.Category, error)
	GetCategory(ctx context.Context, slug string) (*backend.CategoryWithIndicators, error)
	GetIndicator(ctx context.Context, slug string, limit int) (*backend.IndicatorWithData, error)
	GetDashboard(ctx context.Context) ([]backend.DashboardIndicator, error)
	GetSummary(ctx context.Context) (*backend.Summary, error)
	AdminStats(ctx context.Context, token string) (*backend.AdminStats, error)
	UpdateIndicator(ctx context.Context, token, slug string, upd backend.IndicatorUpdate) error
	DeleteIndicator(ctx context.Context, token, slug string) error
	ReorderIndicators(ctx context.Context, token string, order []backend.OrderEntry) error
}

type Ledger interface {
	RecentRuns(limit int) ([]storage.RunRecord, error)
	UnreconciledRuns() ([]storage.RunRecord, error)
	MarkReconciled(id string) error
}

type Narrator interface {
	Enabled() bool
	Describe(ctx context.Context, name string, v finance.View) (string, error)
}

type Options struct {
	IndicatorLimit int
	CacheTTL       time.Duration
	Location       *time.Location
	CookieSecure   bool
	CORSOrigins    []string
}

// snapshot is one fetched indicator together with its view memo.
type snapshot struct {
	ind *backend.IndicatorWithData
	sel *finance.Selector
}

type Handlers struct {
	backend  Backend
	ledger   Ledger
	runner   *admin.Runner
	narrator Narrator
	logger   *zap.Logger
	tmpl     *template.Template
	opts     Options

	snapshots *finance.Cache[*snapshot]
	dashboard *finance.Cache[[]backend.DashboardIndicator]
	images    *finance.Cache[[]byte]
	insights  *finance.Cache[string]
}

func New(b Backend, ledger Ledger, runner *admin.Runner, narrator Narrator, logger *zap.Logger, opts Options) (*Handlers, error) {
	tmpl, err := template.New("base").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Minute
	}
	return &Handlers{
		backend:   b,
		ledger:    ledger,
		runner:    runner,
		narrator:  narrator,
		logger:    logger,
		tmpl:      tmpl,
		opts:      opts,
		snapshots: finance.NewCache[*snapshot](opts.CacheTTL),
		dashboard: finance.NewCache[[]backend.DashboardIndicator](opts.CacheTTL),
		images:    finance.NewCache[[]byte](opts.CacheTTL),
		insights:  finance.NewCache[string](opts.CacheTTL),
	}, nil
}

// Register mounts every page and endpoint on r.
func (h *Handlers) Register(r *gin.Engine) {
	r.Use(admin.Middleware())

	r.GET("/", h.home)
	r.GET("/category/:slug", h.category)
	r.POST("/category/:slug/move", admin.RequireAdmin(loginPath), h.moveIndicator)
	r.GET("/indicator/:slug", h.indicator)
	r.GET("/indicator/:slug/insight", h.insight)
	r.GET("/chart/:file", h.chartPNG)
	r.GET("/sparkline/:file", h.sparklinePNG)

	api := r.Group("/api")
	api.Use(cors.New(corsConfig(h.opts.CORSOrigins)))
	api.GET("/view/:slug", h.viewJSON)

	r.GET(loginPath, h.loginPage)
	r.POST(loginPath, h.login)
	r.POST("/admin/logout", h.logout)
	adm := r.Group("/admin", admin.RequireAdmin(loginPath))
	adm.GET("", h.adminPage)
	adm.POST("/create", h.createIndicator)
	adm.POST("/upload", h.uploadCSV)
	adm.POST("/indicators/:slug/edit", h.editIndicator)
	adm.POST("/indicators/:slug/delete", h.deleteIndicator)
	adm.POST("/runs/:id/reconcile", h.reconcileRun)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{http.MethodGet, http.MethodOptions}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

var funcMap = template.FuncMap{
	"value":  finance.FormatValue,
	"number": finance.FormatNumber,
	"date":   finance.FormatDate,
	"label":  finance.TableLabel,
	"change": finance.FormatChange,
	"unit":   backend.UnitOf,
	"count":  func(n int) string { return humanize.Comma(int64(n)) },
	"rising": func(p *float64) bool { return p != nil && *p >= 0 },
	"path":   url.PathEscape,
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
}

// render executes name into a buffer first so a template error never
// leaves a half-written page.
func (h *Handlers) render(c *gin.Context, status int, name string, data any) {
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.Error("template error", zap.String("template", name), zap.Error(err))
		c.String(http.StatusInternalServerError, "Template Error")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

func isHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}

type errorPage struct {
	Session admin.Session
	Title   string
	Message string
}

// fail renders the error page for a backend error: 404 for missing
// resources, 502 for everything else.
func (h *Handlers) fail(c *gin.Context, what string, err error) {
	if backend.IsNotFound(err) {
		h.render(c, http.StatusNotFound, "error.html", errorPage{
			Session: admin.FromContext(c),
			Title:   what + " not found",
			Message: backend.Detail(err),
		})
		return
	}
	h.logger.Error("backend request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	h.render(c, http.StatusBadGateway, "error.html", errorPage{
		Session: admin.FromContext(c),
		Title:   "Failed to load " + strings.ToLower(what),
		Message: backend.Detail(err),
	})
}

func cacheKey(slug string) string { return strings.ToLower(slug) + "|" }

// snapshot returns the cached indicator for slug, fetching it on a miss.
func (h *Handlers) snapshot(ctx context.Context, slug string) (*snapshot, error) {
	key := cacheKey(slug)
	if s, ok := h.snapshots.Get(key); ok {
		return s, nil
	}
	ind, err := h.backend.GetIndicator(ctx, slug, h.opts.IndicatorLimit)
	if err != nil {
		return nil, err
	}
	s := &snapshot{ind: ind, sel: finance.NewSelector(ind.Snapshot(), h.opts.Location)}
	h.snapshots.Set(key, s)
	return s, nil
}

func (h *Handlers) dashboardCards(ctx context.Context) ([]backend.DashboardIndicator, error) {
	if cards, ok := h.dashboard.Get(""); ok {
		return cards, nil
	}
	cards, err := h.backend.GetDashboard(ctx)
	if err != nil {
		return nil, err
	}
	h.dashboard.Set("", cards)
	return cards, nil
}

// invalidate drops everything cached for slug after an admin change.
func (h *Handlers) invalidate(slug string) {
	key := cacheKey(slug)
	h.snapshots.Purge(key)
	h.images.Purge(key)
	h.insights.Purge(key)
	h.dashboard.Purge("")
}

func selectionOf(c *gin.Context) finance.Selection {
	return finance.Selection{
		SeriesType: c.Query("series"),
		Range:      finance.Range(c.Query("range")),
	}.Normalize()
}
