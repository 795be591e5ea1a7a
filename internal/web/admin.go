package web

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"macroIndicators/internal/admin"
	"macroIndicators/internal/backend"
	"macroIndicators/internal/finance"
	"macroIndicators/internal/storage"
)

const (
	loginPath   = "/admin/login"
	fileRows    = 4
	ledgerRows  = 20
	maxCSVBytes = 20 << 20
)

type seriesOption struct {
	Value string
	Label string
}

var seriesOptions = []seriesOption{
	{finance.SeriesHistorical, "Historical"},
	{finance.SeriesInflationAdjusted, "Adjusted for Inflation"},
	{finance.SeriesAnnualChange, "Annual % Change"},
	{finance.SeriesAnnualAverage, "Annual Average"},
	{admin.SeriesOther, "Other (custom)"},
}

type loginPage struct {
	Session admin.Session
	Error   string
}

func (h *Handlers) loginPage(c *gin.Context) {
	if admin.FromContext(c).IsAdmin() {
		c.Redirect(http.StatusSeeOther, "/admin")
		return
	}
	h.render(c, http.StatusOK, "login.html", loginPage{})
}

// login accepts the token only if the backend answers the stats call with it.
func (h *Handlers) login(c *gin.Context) {
	token := strings.TrimSpace(c.PostForm("token"))
	if token == "" {
		h.render(c, http.StatusBadRequest, "login.html", loginPage{Error: "Please enter the admin token"})
		return
	}
	if _, err := h.backend.AdminStats(c.Request.Context(), token); err != nil {
		msg := "Invalid admin token"
		var apiErr *backend.APIError
		if !errors.As(err, &apiErr) || (apiErr.Status != http.StatusUnauthorized && apiErr.Status != http.StatusForbidden) {
			msg = "Could not verify token: " + backend.Detail(err)
		}
		h.render(c, http.StatusUnauthorized, "login.html", loginPage{Error: msg})
		return
	}
	admin.Login(c, token, h.opts.CookieSecure)
	h.logger.Info("admin: logged in", zap.String("client_ip", c.ClientIP()))
	c.Redirect(http.StatusSeeOther, "/admin")
}

func (h *Handlers) logout(c *gin.Context) {
	admin.Logout(c, h.opts.CookieSecure)
	c.Redirect(http.StatusSeeOther, "/")
}

type adminPage struct {
	Session      admin.Session
	Stats        *backend.AdminStats
	Categories   []backend.Category
	Runs         []storage.RunRecord
	Unreconciled []storage.RunRecord
	Series       []seriesOption
	FileRows     []int
	Status       string
	StatusError  bool
}

// renderAdmin shows the dashboard with an optional status line. A backend
// failure loading the page is shown as a status rather than an error page.
func (h *Handlers) renderAdmin(c *gin.Context, status string, isError bool) {
	ctx := c.Request.Context()
	sess := admin.FromContext(c)
	page := adminPage{
		Session:     sess,
		Series:      seriesOptions,
		Status:      status,
		StatusError: isError,
	}
	for i := 0; i < fileRows; i++ {
		page.FileRows = append(page.FileRows, i)
	}

	stats, err := h.backend.AdminStats(ctx, sess.Token)
	if err != nil {
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			admin.Logout(c, h.opts.CookieSecure)
			c.Redirect(http.StatusSeeOther, loginPath)
			return
		}
		page.Status, page.StatusError = "Failed to load stats: "+backend.Detail(err), true
	}
	page.Stats = stats
	if cats, err := h.backend.GetCategories(ctx); err == nil {
		page.Categories = cats
	}
	if h.ledger != nil {
		if page.Runs, err = h.ledger.RecentRuns(ledgerRows); err != nil {
			h.logger.Error("admin: load ledger", zap.Error(err))
		}
		if page.Unreconciled, err = h.ledger.UnreconciledRuns(); err != nil {
			h.logger.Error("admin: load unreconciled runs", zap.Error(err))
		}
	}
	h.render(c, http.StatusOK, "admin.html", page)
}

func (h *Handlers) adminPage(c *gin.Context) {
	h.renderAdmin(c, c.Query("status"), c.Query("error") == "1")
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	if fh.Size > maxCSVBytes {
		return nil, fmt.Errorf("%s is larger than %d MB", fh.Filename, maxCSVBytes>>20)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// fileInput reads the file row with the given form suffix. ok is false when
// the row has no file.
func fileInput(c *gin.Context, suffix string) (admin.FileInput, bool, error) {
	fh, err := c.FormFile("file" + suffix)
	if err != nil {
		return admin.FileInput{}, false, nil
	}
	data, err := readFile(fh)
	if err != nil {
		return admin.FileInput{}, false, err
	}
	return admin.FileInput{
		FileName:         fh.Filename,
		Data:             data,
		SeriesType:       c.PostForm("series_type" + suffix),
		CustomSeriesType: c.PostForm("custom_series_type" + suffix),
	}, true, nil
}

func (h *Handlers) createIndicator(c *gin.Context) {
	var files []admin.FileInput
	for i := 0; i < fileRows; i++ {
		in, ok, err := fileInput(c, fmt.Sprintf("_%d", i))
		if err != nil {
			h.renderAdmin(c, "Error: "+err.Error(), true)
			return
		}
		if ok {
			files = append(files, in)
		}
	}
	meta := backend.NewIndicator{
		Name:         c.PostForm("name"),
		Slug:         c.PostForm("slug"),
		CategorySlug: c.PostForm("category_slug"),
		Description:  c.PostForm("description"),
		Unit:         c.PostForm("unit"),
		Frequency:    c.PostForm("frequency"),
	}
	plan, err := admin.PlanNewIndicator(meta, files)
	if err != nil {
		h.renderAdmin(c, err.Error(), true)
		return
	}
	h.runPlan(c, plan)
}

func (h *Handlers) uploadCSV(c *gin.Context) {
	in, _, err := fileInput(c, "")
	if err != nil {
		h.renderAdmin(c, "Error: "+err.Error(), true)
		return
	}
	plan, err := admin.PlanUpload(c.PostForm("indicator"), in)
	if err != nil {
		h.renderAdmin(c, err.Error(), true)
		return
	}
	h.runPlan(c, plan)
}

func (h *Handlers) runPlan(c *gin.Context, plan admin.Plan) {
	rep := h.runner.Run(c.Request.Context(), admin.FromContext(c).Token, plan)
	if rep.Succeeded() > 0 {
		h.invalidate(plan.Slug)
	}
	h.renderAdmin(c, rep.Status(), rep.Failed() > 0)
}

func (h *Handlers) editIndicator(c *gin.Context) {
	slug := c.Param("slug")
	upd := backend.IndicatorUpdate{
		Name:        strings.TrimSpace(c.PostForm("name")),
		Description: strings.TrimSpace(c.PostForm("description")),
		Unit:        strings.TrimSpace(c.PostForm("unit")),
		Frequency:   strings.TrimSpace(c.PostForm("frequency")),
		Source:      strings.TrimSpace(c.PostForm("source")),
	}
	if upd == (backend.IndicatorUpdate{}) {
		h.renderAdmin(c, "Nothing to update", true)
		return
	}
	if err := h.backend.UpdateIndicator(c.Request.Context(), admin.FromContext(c).Token, slug, upd); err != nil {
		h.renderAdmin(c, "Error: "+backend.Detail(err), true)
		return
	}
	h.invalidate(slug)
	h.renderAdmin(c, fmt.Sprintf("Updated %q", slug), false)
}

func (h *Handlers) deleteIndicator(c *gin.Context) {
	slug := c.Param("slug")
	if c.PostForm("confirm") != slug {
		h.renderAdmin(c, fmt.Sprintf("Type %q to confirm deletion", slug), true)
		return
	}
	if err := h.backend.DeleteIndicator(c.Request.Context(), admin.FromContext(c).Token, slug); err != nil {
		h.renderAdmin(c, "Error: "+backend.Detail(err), true)
		return
	}
	h.invalidate(slug)
	h.logger.Info("admin: indicator deleted", zap.String("slug", slug))
	h.renderAdmin(c, fmt.Sprintf("Deleted %q", slug), false)
}

func (h *Handlers) reconcileRun(c *gin.Context) {
	if h.ledger == nil {
		c.Redirect(http.StatusSeeOther, "/admin")
		return
	}
	if err := h.ledger.MarkReconciled(c.Param("id")); err != nil {
		h.renderAdmin(c, "Error: "+err.Error(), true)
		return
	}
	c.Redirect(http.StatusSeeOther, "/admin")
}
