package web

import (
	"net/http"
	"net/url"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"macroIndicators/internal/admin"
	"macroIndicators/internal/backend"
	"macroIndicators/internal/finance"
)

const recentRows = 20

type homePage struct {
	Session    admin.Session
	Summary    *backend.Summary
	Categories []backend.Category
	Cards      []backend.DashboardIndicator
}

func (h *Handlers) home(c *gin.Context) {
	ctx := c.Request.Context()
	summary, err := h.backend.GetSummary(ctx)
	if err != nil {
		h.fail(c, "Dashboard", err)
		return
	}
	cats, err := h.backend.GetCategories(ctx)
	if err != nil {
		h.fail(c, "Categories", err)
		return
	}
	cards, err := h.dashboardCards(ctx)
	if err != nil {
		h.fail(c, "Dashboard", err)
		return
	}
	h.render(c, http.StatusOK, "home.html", homePage{
		Session:    admin.FromContext(c),
		Summary:    summary,
		Categories: cats,
		Cards:      cards,
	})
}

type categoryPage struct {
	Session  admin.Session
	Category *backend.CategoryWithIndicators
	Status   string
}

func (h *Handlers) category(c *gin.Context) {
	cat, err := h.backend.GetCategory(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.fail(c, "Category", err)
		return
	}
	h.render(c, http.StatusOK, "category.html", categoryPage{
		Session:  admin.FromContext(c),
		Category: cat,
		Status:   c.Query("error"),
	})
}

// moveIndicator swaps one indicator with its neighbour and sends the whole
// category order to the backend.
func (h *Handlers) moveIndicator(c *gin.Context) {
	ctx := c.Request.Context()
	slug := c.Param("slug")
	back := "/category/" + slug

	cat, err := h.backend.GetCategory(ctx, slug)
	if err != nil {
		h.fail(c, "Category", err)
		return
	}
	slugs := make([]string, len(cat.Indicators))
	for i, ind := range cat.Indicators {
		slugs[i] = ind.Slug
	}
	moved, ok := admin.Move(slugs, admin.IndexOf(slugs, c.PostForm("indicator")), admin.Direction(c.PostForm("direction")))
	if !ok {
		c.Redirect(http.StatusSeeOther, back)
		return
	}
	sess := admin.FromContext(c)
	if err := h.backend.ReorderIndicators(ctx, sess.Token, admin.OrderFor(moved)); err != nil {
		h.logger.Warn("reorder failed", zap.String("category", slug), zap.Error(err))
		c.Redirect(http.StatusSeeOther, back+"?error="+url.QueryEscape("Failed to reorder: "+backend.Detail(err)))
		return
	}
	h.dashboard.Purge("")
	c.Redirect(http.StatusSeeOther, back)
}

type seriesTab struct {
	SeriesType string
	Label      string
	Active     bool
}

type rangeButton struct {
	Range  finance.Range
	Active bool
}

// chartPanel is the part of the indicator page that HTMX swaps.
type chartPanel struct {
	Slug           string
	Name           string
	View           finance.View
	Tabs           []seriesTab
	Ranges         []rangeButton
	InsightEnabled bool
}

func (p chartPanel) ChartURL() string {
	q := url.Values{}
	q.Set("series", p.View.SeriesType)
	q.Set("range", string(p.View.Range))
	return "/chart/" + url.PathEscape(p.Slug) + ".png?" + q.Encode()
}

type indicatorPage struct {
	Session    admin.Session
	Indicator  *backend.IndicatorWithData
	Unit       string
	Latest     *float64
	LatestDate *finance.Date
	Change     *float64
	Panel      chartPanel
	Recent     []finance.DataPoint
}

func (h *Handlers) indicator(c *gin.Context) {
	slug := c.Param("slug")
	snap, err := h.snapshot(c.Request.Context(), slug)
	if err != nil {
		h.fail(c, "Indicator", err)
		return
	}
	panel := h.panel(slug, snap, selectionOf(c))
	if isHTMX(c) {
		h.render(c, http.StatusOK, "chart_panel", panel)
		return
	}

	page := indicatorPage{
		Session:   admin.FromContext(c),
		Indicator: snap.ind,
		Unit:      backend.UnitOf(snap.ind.Unit),
		Panel:     panel,
		Recent:    recent(snap.ind.DataPoints, recentRows),
	}
	if n := len(snap.ind.DataPoints); n > 0 {
		last := snap.ind.DataPoints[n-1]
		page.Latest = &last.Value
		page.LatestDate = &last.Date
		if n > 1 {
			page.Change = finance.ChangePercent(&last.Value, &snap.ind.DataPoints[n-2].Value)
		}
	}
	h.render(c, http.StatusOK, "indicator.html", page)
}

func (h *Handlers) panel(slug string, snap *snapshot, sel finance.Selection) chartPanel {
	v := snap.sel.View(sel)
	p := chartPanel{
		Slug:           slug,
		Name:           snap.ind.Name,
		View:           v,
		InsightEnabled: h.narrator != nil && h.narrator.Enabled(),
	}
	for _, s := range snap.sel.SeriesTypes() {
		label := s.Label
		if label == "" {
			label = s.SeriesType
		}
		p.Tabs = append(p.Tabs, seriesTab{SeriesType: s.SeriesType, Label: label, Active: s.SeriesType == v.SeriesType})
	}
	for _, r := range finance.Ranges {
		p.Ranges = append(p.Ranges, rangeButton{Range: r, Active: r == v.Range})
	}
	return p
}

// recent returns the last n points, newest first.
func recent(points []finance.DataPoint, n int) []finance.DataPoint {
	if len(points) > n {
		points = points[len(points)-n:]
	}
	out := make([]finance.DataPoint, len(points))
	for i, p := range points {
		out[len(points)-1-i] = p
	}
	return out
}

func (p chartPanel) InfoLine() string {
	st := p.View.Stats
	if st == nil {
		return "No data available for the selected time range"
	}
	return "Showing " + humanize.Comma(int64(st.Count)) + " data points from " +
		finance.ChartLabel(st.First) + " to " + finance.ChartLabel(st.Last)
}
