package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-resty/resty/v2"

	"ReportScanner/internal/config"
	"ReportScanner/internal/domain"
	"ReportScanner/internal/ports"
)

// Sentinel summaries. Never empty: downstream formatting substitutes them
// directly into the notification template.
const (
	SummaryFailed    = "⚠️ Summary unavailable: the model backends could not be reached."
	SummaryNoContent = "⚠️ Summary unavailable: the report document could not be read."
)

const promptTemplate = "You are an equity research assistant. Summarize the following analyst report " +
	"for investors in at most three short plain-text bullet points: key thesis, supporting data, " +
	"and any rating or target change. Do not use markdown.\n\nReport: %s (%s)\n\n"

// GeminiClient summarizes extracted content via the generateContent REST API,
// walking a prioritized model-candidate list. Earlier candidates encode known
// quota and latency characteristics; the first well-formed response wins.
type GeminiClient struct {
	endpoint string
	apiKey   string
	models   []string
	clip     int
	client   *resty.Client
	logger   *slog.Logger
}

var _ ports.Summarizer = (*GeminiClient)(nil)

// NewGeminiClient builds a client from configuration.
func NewGeminiClient(cfg config.GeminiConfig, logger *slog.Logger) *GeminiClient {
	return &GeminiClient{
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
		apiKey:   cfg.APIKey,
		models:   cfg.Models,
		clip:     cfg.ClipChars,
		client:   resty.New().SetTimeout(cfg.Timeout()),
		logger:   logger,
	}
}

type generateRequest struct {
	Contents []requestContent `json:"contents"`
}

type requestContent struct {
	Parts []requestPart `json:"parts"`
}

type requestPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Summarize walks the candidate models and returns the first generated text.
// It never fails: unusable content or an exhausted candidate list yields a
// fixed sentinel so the notification can still go out.
func (g *GeminiClient) Summarize(ctx context.Context, report domain.Report, content domain.ExtractedContent) string {
	if content.Kind == domain.ContentUnavailable {
		return SummaryNoContent
	}
	if g.apiKey == "" {
		g.warn("gemini api key missing, skipping summarization", "report", report.ID)
		return SummaryFailed
	}

	payload := g.buildRequest(report, content)

	for _, model := range g.models {
		summary, err := g.generate(ctx, model, payload)
		if err != nil {
			g.warn("model candidate failed", "report", report.ID, "model", model, "error", err)
			continue
		}
		return summary
	}

	return SummaryFailed
}

func (g *GeminiClient) buildRequest(report domain.Report, content domain.ExtractedContent) generateRequest {
	prompt := fmt.Sprintf(promptTemplate, report.Title, report.Provider)

	parts := []requestPart{}
	switch content.Kind {
	case domain.ContentText:
		parts = append(parts, requestPart{Text: prompt + clip(content.Text, g.clipChars())})
	case domain.ContentImage:
		parts = append(parts,
			requestPart{Text: prompt},
			requestPart{InlineData: &inlineData{
				MIMEType: content.ImageMIME,
				Data:     base64.StdEncoding.EncodeToString(content.Image),
			}},
		)
	}

	return generateRequest{Contents: []requestContent{{Parts: parts}}}
}

func (g *GeminiClient) generate(ctx context.Context, model string, payload generateRequest) (string, error) {
	var parsed generateResponse

	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetQueryParam("key", g.apiKey).
		SetBody(payload).
		SetResult(&parsed).
		Post(fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.endpoint, model))
	if err != nil {
		return "", fmt.Errorf("call backend: %w", err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("backend returned %s", resp.Status())
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("malformed response body")
	}

	text := strings.TrimSpace(parsed.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", fmt.Errorf("empty generation")
	}

	return text, nil
}

func (g *GeminiClient) clipChars() int {
	if g.clip <= 0 {
		return 8000
	}
	return g.clip
}

// clip enforces the backend payload budget on text input.
func clip(text string, budget int) string {
	runes := []rune(text)
	if len(runes) <= budget {
		return text
	}
	return string(runes[:budget])
}

func (g *GeminiClient) warn(msg string, args ...any) {
	if g.logger != nil {
		g.logger.Warn(msg, args...)
	}
}
