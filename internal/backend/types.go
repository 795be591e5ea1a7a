package backend

import "macroIndicators/internal/finance"

type Category struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	Slug         string  `json:"slug"`
	Description  *string `json:"description"`
	DisplayOrder int     `json:"display_order"`
}

type IndicatorSummary struct {
	ID            int           `json:"id"`
	Name          string        `json:"name"`
	Slug          string        `json:"slug"`
	Unit          *string       `json:"unit"`
	LatestValue   *float64      `json:"latest_value"`
	LatestDate    *finance.Date `json:"latest_date"`
	PreviousValue *float64      `json:"previous_value"`
	ChangePercent *float64      `json:"change_percent"`
}

type CategoryWithIndicators struct {
	Category
	Indicators []IndicatorSummary `json:"indicators"`
}

// IndicatorWithData carries the historical points in DataPoints and every
// series (historical included) in Series.
type IndicatorWithData struct {
	ID          int                  `json:"id"`
	Name        string               `json:"name"`
	Slug        string               `json:"slug"`
	Description *string              `json:"description"`
	Unit        *string              `json:"unit"`
	Frequency   string               `json:"frequency"`
	CategoryID  int                  `json:"category_id"`
	Source      string               `json:"source"`
	DataPoints  []finance.DataPoint  `json:"data_points"`
	Series      []finance.DataSeries `json:"series"`
}

// Snapshot converts the payload into the selector's input.
func (i IndicatorWithData) Snapshot() finance.Indicator {
	return finance.Indicator{
		Name:   i.Name,
		Unit:   deref(i.Unit),
		Data:   i.DataPoints,
		Series: i.Series,
	}
}

type DashboardIndicator struct {
	ID            int           `json:"id"`
	Name          string        `json:"name"`
	Slug          string        `json:"slug"`
	CategorySlug  string        `json:"category_slug"`
	Unit          *string       `json:"unit"`
	LatestValue   *float64      `json:"latest_value"`
	LatestDate    *finance.Date `json:"latest_date"`
	ChangePercent *float64      `json:"change_percent"`
	Sparkline     []float64     `json:"sparkline"`
}

type Summary struct {
	TotalIndicators int `json:"total_indicators"`
	TotalDataPoints int `json:"total_data_points"`
	TotalCategories int `json:"total_categories"`
	DataRange       struct {
		Oldest *finance.Date `json:"oldest"`
		Newest *finance.Date `json:"newest"`
	} `json:"data_range"`
}

type AdminIndicator struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	Slug       string  `json:"slug"`
	Category   string  `json:"category"`
	DataPoints int     `json:"data_points"`
	DateRange  *string `json:"date_range"`
}

type AdminStats struct {
	TotalCategories int              `json:"total_categories"`
	TotalIndicators int              `json:"total_indicators"`
	TotalDataPoints int              `json:"total_data_points"`
	Categories      []string         `json:"categories"`
	Indicators      []AdminIndicator `json:"indicators"`
}

// NewIndicator is the metadata sent with the first file of a new indicator.
type NewIndicator struct {
	Name         string
	Slug         string
	CategorySlug string
	Description  string
	Unit         string
	Frequency    string
}

type CreatedIndicator struct {
	Message   string `json:"message"`
	DataAdded int    `json:"data_added"`
	Indicator struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
		Slug string `json:"slug"`
	} `json:"indicator"`
}

type UploadResult struct {
	Message    string `json:"message"`
	Indicator  string `json:"indicator"`
	Added      int    `json:"added"`
	Updated    int    `json:"updated"`
	SeriesType string `json:"series_type"`
}

// IndicatorUpdate holds optional metadata edits; empty fields are left unchanged.
type IndicatorUpdate struct {
	Name        string
	Description string
	Unit        string
	Frequency   string
	Source      string
}

type OrderEntry struct {
	Slug         string `json:"slug"`
	DisplayOrder int    `json:"display_order"`
}

// Upload is one CSV file in memory.
type Upload struct {
	FileName   string
	SeriesType string
	Data       []byte
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// UnitOf returns the unit or "" when absent.
func UnitOf(s *string) string { return deref(s) }
