package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	oa "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"macroIndicators/internal/finance"
)

// ErrDisabled is returned when no API key is configured.
var ErrDisabled = errors.New("insights are not configured")

const systemPrompt = `You describe macroeconomic time series for a dashboard.
Write two or three plain sentences about the level, the range and the overall direction of the numbers you are given.
Do not give investment advice, do not speculate about causes, and do not use markdown.`

type Narrator struct {
	cli     oa.Client
	model   string
	enabled bool
}

// NewNarrator builds a narrator; with an empty key it stays disabled.
func NewNarrator(apiKey string, opts ...option.RequestOption) *Narrator {
	if apiKey == "" {
		return &Narrator{}
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Narrator{cli: oa.NewClient(opts...), model: "gpt-4", enabled: true}
}

func (n *Narrator) Enabled() bool { return n != nil && n.enabled }

// Describe summarises the visible part of a chart for the indicator called name.
func (n *Narrator) Describe(ctx context.Context, name string, v finance.View) (string, error) {
	if !n.Enabled() {
		return "", ErrDisabled
	}
	if v.Empty() || v.Stats == nil {
		return "No data available for the selected time range.", nil
	}
	resp, err := n.cli.Chat.Completions.New(ctx, oa.ChatCompletionNewParams{
		Model: n.model,
		Messages: []oa.ChatCompletionMessageParamUnion{
			oa.SystemMessage(systemPrompt),
			oa.UserMessage(Prompt(name, v)),
		},
		MaxTokens: oa.Int(200),
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Prompt is the user message sent for v. Values are formatted the way the page shows them.
func Prompt(name string, v finance.View) string {
	st := v.Stats
	first, last := v.Points[0].Value, v.Points[len(v.Points)-1].Value
	var b strings.Builder
	fmt.Fprintf(&b, "Indicator: %s (%s)\n", name, v.Label)
	fmt.Fprintf(&b, "Range: %s, %d observations from %s to %s\n",
		v.Range, st.Count, finance.FormatDate(&st.First), finance.FormatDate(&st.Last))
	fmt.Fprintf(&b, "First: %s, last: %s\n", finance.FormatValue(&first, v.Unit), finance.FormatValue(&last, v.Unit))
	fmt.Fprintf(&b, "Low: %s, high: %s\n", finance.FormatValue(&st.Min, v.Unit), finance.FormatValue(&st.Max, v.Unit))
	if pct := finance.ChangePercent(&last, &first); pct != nil {
		fmt.Fprintf(&b, "Change over the range: %s\n", finance.FormatChange(pct))
	}
	return b.String()
}
