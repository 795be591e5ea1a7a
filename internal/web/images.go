package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"macroIndicators/internal/backend"
	"macroIndicators/internal/finance"
	"macroIndicators/internal/openai"
)

const sparklinePoints = 12

func pngSlug(file string) string {
	return strings.TrimSuffix(file, ".png")
}

func (h *Handlers) writePNG(c *gin.Context, png []byte) {
	c.Header("Cache-Control", "public, max-age="+strconv.Itoa(int(h.opts.CacheTTL.Seconds())))
	c.Data(http.StatusOK, "image/png", png)
}

// chartPNG serves /chart/{slug}.png?series=&range=. An empty view is a 404 so
// the page can show its placeholder instead.
func (h *Handlers) chartPNG(c *gin.Context) {
	slug := pngSlug(c.Param("file"))
	sel := selectionOf(c)
	key := finance.ChartKey(slug, sel)
	if png, ok := h.images.Get(key); ok {
		h.writePNG(c, png)
		return
	}
	snap, err := h.snapshot(c.Request.Context(), slug)
	if err != nil {
		h.imageError(c, err)
		return
	}
	png, err := finance.RenderChart(snap.sel.View(sel))
	if err != nil {
		h.imageError(c, err)
		return
	}
	h.images.Set(key, png)
	h.writePNG(c, png)
}

// sparklinePNG draws the latest dashboard values of slug.
func (h *Handlers) sparklinePNG(c *gin.Context) {
	slug := pngSlug(c.Param("file"))
	key := cacheKey(slug) + "spark"
	if png, ok := h.images.Get(key); ok {
		h.writePNG(c, png)
		return
	}
	cards, err := h.dashboardCards(c.Request.Context())
	if err != nil {
		h.imageError(c, err)
		return
	}
	var values []float64
	var change *float64
	for _, card := range cards {
		if strings.EqualFold(card.Slug, slug) {
			values, change = card.Sparkline, card.ChangePercent
			break
		}
	}
	if len(values) > sparklinePoints {
		values = values[len(values)-sparklinePoints:]
	}
	png, err := finance.RenderSparkline(values, trendRising(change, values))
	if err != nil {
		h.imageError(c, err)
		return
	}
	h.images.Set(key, png)
	h.writePNG(c, png)
}

// trendRising reports the card direction, falling back to the sparkline
// endpoints when no change is known.
func trendRising(change *float64, values []float64) bool {
	if change != nil {
		return *change >= 0
	}
	if len(values) < 2 {
		return true
	}
	return values[len(values)-1] >= values[0]
}

func (h *Handlers) imageError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, finance.ErrNoData), backend.IsNotFound(err):
		c.Status(http.StatusNotFound)
	default:
		h.logger.Error("chart render failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.Status(http.StatusBadGateway)
	}
}

type viewResponse struct {
	Slug   string       `json:"slug"`
	Name   string       `json:"name"`
	Unit   string       `json:"unit"`
	Labels []string     `json:"labels"`
	View   finance.View `json:"view"`
}

// viewJSON exposes the selector result for client-side charting.
func (h *Handlers) viewJSON(c *gin.Context) {
	slug := c.Param("slug")
	snap, err := h.snapshot(c.Request.Context(), slug)
	if err != nil {
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) {
			c.JSON(apiErr.Status, gin.H{"detail": apiErr.Detail})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"detail": err.Error()})
		return
	}
	v := snap.sel.View(selectionOf(c))
	c.JSON(http.StatusOK, viewResponse{
		Slug:   snap.ind.Slug,
		Name:   snap.ind.Name,
		Unit:   backend.UnitOf(snap.ind.Unit),
		Labels: v.Labels(),
		View:   v,
	})
}

type insightPartial struct {
	Text  string
	Error string
}

func (h *Handlers) insight(c *gin.Context) {
	if h.narrator == nil || !h.narrator.Enabled() {
		c.Status(http.StatusNotFound)
		return
	}
	slug := c.Param("slug")
	sel := selectionOf(c)
	key := finance.ChartKey(slug, sel)
	if text, ok := h.insights.Get(key); ok {
		h.render(c, http.StatusOK, "insight", insightPartial{Text: text})
		return
	}
	snap, err := h.snapshot(c.Request.Context(), slug)
	if err != nil {
		h.render(c, http.StatusOK, "insight", insightPartial{Error: backend.Detail(err)})
		return
	}
	text, err := h.narrator.Describe(c.Request.Context(), snap.ind.Name, snap.sel.View(sel))
	if err != nil {
		if !errors.Is(err, openai.ErrDisabled) {
			h.logger.Warn("insight failed", zap.String("slug", slug), zap.Error(err))
		}
		h.render(c, http.StatusOK, "insight", insightPartial{Error: "Insight is unavailable right now."})
		return
	}
	h.insights.Set(key, text)
	h.render(c, http.StatusOK, "insight", insightPartial{Text: text})
}
