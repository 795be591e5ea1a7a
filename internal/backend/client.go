package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const previewLen = 120

// APIError is a non-2xx answer from the backend. Detail is safe to show to users.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Detail)
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Detail extracts the user-facing message of err.
func Detail(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return err.Error()
}

// Client talks to the indicators REST API. Requests are never retried.
type Client struct {
	base string
	http *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (c *Client) GetCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	if err := c.getJSON(ctx, "/api/categories", nil, &out); err != nil {
		return nil, errors.Wrap(err, "fetch categories")
	}
	return out, nil
}

func (c *Client) GetCategory(ctx context.Context, slug string) (*CategoryWithIndicators, error) {
	var out CategoryWithIndicators
	if err := c.getJSON(ctx, "/api/categories/"+url.PathEscape(slug), nil, &out); err != nil {
		return nil, errors.Wrapf(err, "fetch category %s", slug)
	}
	return &out, nil
}

func (c *Client) GetIndicator(ctx context.Context, slug string, limit int) (*IndicatorWithData, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out IndicatorWithData
	if err := c.getJSON(ctx, "/api/indicators/"+url.PathEscape(slug), q, &out); err != nil {
		return nil, errors.Wrapf(err, "fetch indicator %s", slug)
	}
	return &out, nil
}

func (c *Client) GetDashboard(ctx context.Context) ([]DashboardIndicator, error) {
	var out []DashboardIndicator
	if err := c.getJSON(ctx, "/api/dashboard", nil, &out); err != nil {
		return nil, errors.Wrap(err, "fetch dashboard")
	}
	return out, nil
}

func (c *Client) GetSummary(ctx context.Context) (*Summary, error) {
	var out Summary
	if err := c.getJSON(ctx, "/api/dashboard/summary", nil, &out); err != nil {
		return nil, errors.Wrap(err, "fetch summary")
	}
	return &out, nil
}

func (c *Client) AdminStats(ctx context.Context, token string) (*AdminStats, error) {
	var out AdminStats
	if err := c.getJSON(ctx, "/api/admin/stats", tokenQuery(token), &out); err != nil {
		return nil, errors.Wrap(err, "fetch admin stats")
	}
	return &out, nil
}

// CreateIndicator creates an indicator and loads its first series from up.
func (c *Client) CreateIndicator(ctx context.Context, token string, meta NewIndicator, up Upload) (*CreatedIndicator, error) {
	fields := map[string]string{
		"name":          meta.Name,
		"slug":          meta.Slug,
		"category_slug": meta.CategorySlug,
		"description":   meta.Description,
		"unit":          meta.Unit,
		"frequency":     meta.Frequency,
		"series_type":   up.SeriesType,
		"admin_token":   token,
	}
	var out CreatedIndicator
	if err := c.postMultipart(ctx, "/api/admin/create-indicator-from-csv", tokenQuery(token), fields, up, &out); err != nil {
		return nil, errors.Wrapf(err, "create indicator %s", meta.Slug)
	}
	return &out, nil
}

// UploadCSV adds or updates one series of an existing indicator.
func (c *Client) UploadCSV(ctx context.Context, token, slug string, up Upload) (*UploadResult, error) {
	q := tokenQuery(token)
	q.Set("series_type", up.SeriesType)
	fields := map[string]string{"series_type": up.SeriesType, "admin_token": token}
	var out UploadResult
	if err := c.postMultipart(ctx, "/api/admin/upload-csv/"+url.PathEscape(slug), q, fields, up, &out); err != nil {
		return nil, errors.Wrapf(err, "upload %s to %s", up.FileName, slug)
	}
	return &out, nil
}

func (c *Client) UpdateIndicator(ctx context.Context, token, slug string, upd IndicatorUpdate) error {
	q := tokenQuery(token)
	for k, v := range map[string]string{
		"name":        upd.Name,
		"description": upd.Description,
		"unit":        upd.Unit,
		"frequency":   upd.Frequency,
		"source":      upd.Source,
	} {
		if v != "" {
			q.Set(k, v)
		}
	}
	if err := c.do(ctx, http.MethodPut, "/api/admin/indicators/"+url.PathEscape(slug), q, nil, "", nil); err != nil {
		return errors.Wrapf(err, "update indicator %s", slug)
	}
	return nil
}

func (c *Client) DeleteIndicator(ctx context.Context, token, slug string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/admin/indicators/"+url.PathEscape(slug), tokenQuery(token), nil, "", nil); err != nil {
		return errors.Wrapf(err, "delete indicator %s", slug)
	}
	return nil
}

func (c *Client) ReorderIndicators(ctx context.Context, token string, order []OrderEntry) error {
	body, err := json.Marshal(order)
	if err != nil {
		return err
	}
	if err := c.do(ctx, http.MethodPost, "/api/admin/reorder-indicators", tokenQuery(token), bytes.NewReader(body), "application/json", nil); err != nil {
		return errors.Wrap(err, "reorder indicators")
	}
	return nil
}

func tokenQuery(token string) url.Values {
	q := url.Values{}
	q.Set("admin_token", token)
	return q
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, q, nil, "", out)
}

func (c *Client) postMultipart(ctx context.Context, path string, q url.Values, fields map[string]string, up Upload, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}
	fw, err := mw.CreateFormFile("file", up.FileName)
	if err != nil {
		return err
	}
	if _, err := fw.Write(up.Data); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, q, &buf, mw.FormDataContentType(), out)
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body io.Reader, contentType string, out any) error {
	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read backend response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Detail: errorDetail(resp.StatusCode, raw)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse backend json: %v; body: %s", err, preview(raw))
	}
	return nil
}

// errorDetail pulls FastAPI's {"detail": "..."} out of an error body.
func errorDetail(status int, raw []byte) string {
	var body struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if s, ok := body.Detail.(string); ok && s != "" {
			return s
		}
		if body.Detail != nil {
			b, _ := json.Marshal(body.Detail)
			return string(b)
		}
	}
	if p := preview(raw); p != "" {
		return p
	}
	return http.StatusText(status)
}

func preview(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > previewLen {
		s = s[:previewLen]
	}
	return s
}
