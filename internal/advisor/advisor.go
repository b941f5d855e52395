package advisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/marketcalls/quantbt/internal/backtest"
	"github.com/marketcalls/quantbt/internal/core"
	"github.com/marketcalls/quantbt/internal/report"
)

const reviewSystemPrompt = `You are a quantitative trading analyst reviewing backtest results.
Be direct and specific. Comment on: overall performance quality, risk profile
(drawdown vs return), trade statistics (win rate, profit factor, sample size),
and signs of overfitting or fragility. Suggest at most three concrete next
steps. Keep the review under 300 words.`

// Advisor produces reviews of backtest results using an LLM provider.
type Advisor struct {
	provider Provider
}

// New creates an advisor over the given provider
func New(provider Provider) *Advisor {
	return &Advisor{provider: provider}
}

// Review asks the LLM to interpret a single backtest result.
func (a *Advisor) Review(ctx context.Context, r *backtest.Result) (string, error) {
	resp, err := a.provider.Chat(ctx, ChatRequest{
		SystemPrompt: reviewSystemPrompt,
		Messages: []Message{
			{Role: "user", Content: report.Render(r)},
		},
		MaxTokens:   1024,
		Temperature: 0.3,
	})
	if err != nil {
		return "", core.WrapError(core.ErrAdvisorFailed, err)
	}
	return resp.Content, nil
}

// ReviewComparison asks the LLM to compare several runs of the same
// symbol and period.
func (a *Advisor) ReviewComparison(ctx context.Context, results []*backtest.Result) (string, error) {
	var b strings.Builder
	b.WriteString(report.RenderComparison(results))
	b.WriteString("\nWhich strategy would you deploy, and why? Consider risk-adjusted returns, not just total return.\n")

	resp, err := a.provider.Chat(ctx, ChatRequest{
		SystemPrompt: reviewSystemPrompt,
		Messages: []Message{
			{Role: "user", Content: b.String()},
		},
		MaxTokens:   1024,
		Temperature: 0.3,
	})
	if err != nil {
		return "", core.WrapError(core.ErrAdvisorFailed, err)
	}
	return resp.Content, nil
}

// ReviewWalkForward asks the LLM to interpret walk-forward stability.
func (a *Advisor) ReviewWalkForward(ctx context.Context, wf *backtest.WalkForwardResult) (string, error) {
	prompt := fmt.Sprintf("%s\nAssess whether these parameters are robust enough to trade live.\n",
		report.RenderWalkForward(wf))

	resp, err := a.provider.Chat(ctx, ChatRequest{
		SystemPrompt: reviewSystemPrompt,
		Messages: []Message{
			{Role: "user", Content: prompt},
		},
		MaxTokens:   1024,
		Temperature: 0.3,
	})
	if err != nil {
		return "", core.WrapError(core.ErrAdvisorFailed, err)
	}
	return resp.Content, nil
}
