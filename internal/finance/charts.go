package finance

import (
	"errors"
	"strings"

	"github.com/vicanso/go-charts/v2"
)

// ErrNoData is returned by the renderers for an empty view.
var ErrNoData = errors.New("no data")

const (
	chartWidth      = 1000
	chartHeight     = 420
	sparklineWidth  = 180
	sparklineHeight = 56

	sparklineUp   = "sparkline-up"
	sparklineDown = "sparkline-down"
)

func init() {
	base := charts.ThemeOption{
		AxisStrokeColor:    charts.Color{R: 110, G: 112, B: 121, A: 255},
		AxisSplitLineColor: charts.Color{R: 224, G: 230, B: 242, A: 255},
		BackgroundColor:    charts.Color{R: 255, G: 255, B: 255, A: 255},
		TextColor:          charts.Color{R: 70, G: 70, B: 70, A: 255},
	}
	up, down := base, base
	up.SeriesColors = []charts.Color{{R: 22, G: 128, B: 61, A: 255}}
	down.SeriesColors = []charts.Color{{R: 185, G: 28, B: 28, A: 255}}
	charts.AddTheme(sparklineUp, up)
	charts.AddTheme(sparklineDown, down)
}

// axisFormatter returns the y axis label template for a unit.
func axisFormatter(unit string) string {
	switch {
	case unit == "%":
		return "{value}%"
	case strings.Contains(unit, "USD"):
		return "${value}"
	}
	return ""
}

func yAxisOption(v View) charts.YAxisOption {
	yMin, yMax := v.Domain.Min, v.Domain.Max
	return charts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5, Formatter: axisFormatter(v.Unit)}
}

func sparklineTheme(rising bool) string {
	if rising {
		return sparklineUp
	}
	return sparklineDown
}

// RenderChart draws the view as a PNG. Annual change series are drawn as bars.
func RenderChart(v View) ([]byte, error) {
	if v.Empty() || v.Domain == nil {
		return nil, ErrNoData
	}
	x := v.Labels()
	values := v.Values()
	split := 12
	if len(x) < split {
		split = len(x)
	}
	subtitle := string(v.Range)
	if v.Unit != "" {
		subtitle += " • " + v.Unit
	}
	opts := []charts.OptionFunc{
		charts.TitleTextOptionFunc(v.Label, subtitle),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: x, BoundaryGap: charts.FalseFlag(), SplitNumber: split}),
		charts.YAxisOptionFunc(yAxisOption(v)),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(chartWidth),
		charts.HeightOptionFunc(chartHeight),
	}
	var painter *charts.Painter
	var err error
	if v.SeriesType == SeriesAnnualChange {
		painter, err = charts.BarRender([][]float64{values}, opts...)
	} else {
		painter, err = charts.LineRender([][]float64{values}, opts...)
	}
	if err != nil {
		return nil, err
	}
	return painter.Bytes()
}

// RenderSparkline draws a small axis-less trend line of values, green when
// rising and red otherwise.
func RenderSparkline(values []float64, rising bool) ([]byte, error) {
	d, ok := valuesDomain(values)
	if !ok {
		return nil, ErrNoData
	}
	yMin, yMax := d.Min, d.Max
	painter, err := charts.LineRender([][]float64{values},
		charts.XAxisOptionFunc(charts.XAxisOption{Data: make([]string, len(values)), Show: charts.FalseFlag()}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, Show: charts.FalseFlag()}),
		charts.PaddingOptionFunc(charts.Box{Top: 4, Right: 4, Bottom: 4, Left: 4}),
		charts.ThemeOptionFunc(sparklineTheme(rising)),
		charts.WidthOptionFunc(sparklineWidth),
		charts.HeightOptionFunc(sparklineHeight),
	)
	if err != nil {
		return nil, err
	}
	return painter.Bytes()
}

// ChartKey identifies a rendered chart in a Cache.
func ChartKey(slug string, sel Selection) string {
	sel = sel.Normalize()
	return strings.ToLower(slug) + "|" + sel.SeriesType + "|" + string(sel.Range)
}
