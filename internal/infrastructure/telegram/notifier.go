package telegram

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strconv"

	"github.com/go-resty/resty/v2"

	"ReportScanner/internal/config"
	"ReportScanner/internal/domain"
	"ReportScanner/internal/ports"
)

// Notifier sends report notifications to a Telegram chat via the bot API.
// Missing credentials put it into a disabled mode that logs and no-ops, so
// the rest of the pipeline still runs without live channel access.
type Notifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *resty.Client
	logger   *slog.Logger
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier.
func NewNotifier(cfg config.TelegramConfig, logger *slog.Logger) *Notifier {
	n := &Notifier{
		botToken: cfg.BotToken,
		chatID:   cfg.ChatID,
		baseURL:  cfg.APIBaseURL,
		client:   resty.New(),
		logger:   logger,
	}
	if n.baseURL == "" {
		n.baseURL = "https://api.telegram.org"
	}
	if n.disabled() && logger != nil {
		logger.Warn("telegram credentials missing, notifications disabled")
	}
	return n
}

func (n *Notifier) disabled() bool {
	return n.botToken == "" || n.chatID == ""
}

type apiResponse struct {
	OK     bool `json:"ok"`
	Result struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

// Send posts an HTML-formatted message and returns its handle for later edits.
// In disabled mode it logs and returns the zero handle.
func (n *Notifier) Send(ctx context.Context, report domain.Report, summary string) (domain.MessageID, error) {
	if n.disabled() {
		n.info("skipping notification", "report", report.ID, "title", report.Title)
		return 0, nil
	}

	form := map[string]string{
		"chat_id":                  n.chatID,
		"text":                     formatMessage(report, summary),
		"parse_mode":               "HTML",
		"disable_web_page_preview": "true",
	}

	var parsed apiResponse
	resp, err := n.client.R().
		SetContext(ctx).
		SetFormData(form).
		SetResult(&parsed).
		Post(fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken))
	if err != nil {
		return 0, fmt.Errorf("send message: %w", err)
	}
	if resp.StatusCode() != 200 || !parsed.OK {
		return 0, fmt.Errorf("telegram error: %s", resp.Status())
	}

	return domain.MessageID(parsed.Result.MessageID), nil
}

// Update edits a previously sent message in place. Best effort: callers log
// and move on when it fails, since the original message remains valid.
func (n *Notifier) Update(ctx context.Context, id domain.MessageID, report domain.Report, summary string) error {
	if n.disabled() || id == 0 {
		return nil
	}

	form := map[string]string{
		"chat_id":                  n.chatID,
		"message_id":               strconv.FormatInt(int64(id), 10),
		"text":                     formatMessage(report, summary),
		"parse_mode":               "HTML",
		"disable_web_page_preview": "true",
	}

	var parsed apiResponse
	resp, err := n.client.R().
		SetContext(ctx).
		SetFormData(form).
		SetResult(&parsed).
		Post(fmt.Sprintf("%s/bot%s/editMessageText", n.baseURL, n.botToken))
	if err != nil {
		return fmt.Errorf("edit message: %w", err)
	}
	if resp.StatusCode() != 200 || !parsed.OK {
		return fmt.Errorf("telegram error: %s", resp.Status())
	}

	return nil
}

// formatMessage renders the fixed notification template. Generated text is
// not guaranteed to be HTML-safe, so interpolated values are escaped here.
func formatMessage(report domain.Report, summary string) string {
	return fmt.Sprintf(
		"<b>%s New %s Report</b>\n\n"+
			"Provider: <b>%s</b>\n"+
			"Title: %s\n"+
			"──────────\n"+
			"%s\n\n"+
			"<a href=\"%s\">👉 Open report</a>",
		report.Category.Icon(),
		report.Category.Label(),
		html.EscapeString(report.Provider),
		html.EscapeString(report.Title),
		html.EscapeString(summary),
		html.EscapeString(report.Link),
	)
}

func (n *Notifier) info(msg string, args ...any) {
	if n.logger != nil {
		n.logger.Info(msg, args...)
	}
}
