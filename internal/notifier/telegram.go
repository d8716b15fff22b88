package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/amishk599/jobpulse/internal/model"
	"github.com/amishk599/jobpulse/internal/ratelimit"
)

// Ensure TelegramNotifier implements model.Notifier.
var _ model.Notifier = (*TelegramNotifier)(nil)

// TelegramNotifier sends one digest per run through the Bot API.
type TelegramNotifier struct {
	apiURL     string
	token      string
	chatID     string
	opts       MessageOptions
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	logger     *slog.Logger
}

// NewTelegramNotifier returns a notifier posting to apiURL/bot<token>/sendMessage.
func NewTelegramNotifier(apiURL, token, chatID string, opts MessageOptions, httpClient *http.Client, logger *slog.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		apiURL:     strings.TrimRight(apiURL, "/"),
		token:      token,
		chatID:     chatID,
		opts:       opts.withDefaults(),
		httpClient: httpClient,
		logger:     logger,
	}
}

// WithLimiter spaces sends to the same chat through l. Telegram throttles
// bots at roughly one message per second per chat.
func (t *TelegramNotifier) WithLimiter(l *ratelimit.Limiter) *TelegramNotifier {
	t.limiter = l
	return t
}

type telegramMessage struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode,omitempty"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Notify sends the formatted digest. If Telegram rejects it, a plain-text
// fallback with only the count is sent; an error is returned only when both
// sends fail.
func (t *TelegramNotifier) Notify(ctx context.Context, added []model.Listing) error {
	err := t.send(ctx, telegramMessage{
		ChatID:    t.chatID,
		Text:      FormatTelegramMessage(added, t.opts),
		ParseMode: "MarkdownV2",
	})
	if err == nil {
		t.logger.Info("telegram alert sent", "listings", len(added))
		return nil
	}
	t.logger.Error("telegram alert failed, sending plain-text fallback", "error", err)

	if err := t.send(ctx, telegramMessage{
		ChatID: t.chatID,
		Text:   FallbackMessage(len(added), t.opts.Label),
	}); err != nil {
		return fmt.Errorf("telegram fallback: %w", err)
	}
	t.logger.Info("telegram fallback sent", "listings", len(added))
	return nil
}

func (t *TelegramNotifier) send(ctx context.Context, msg telegramMessage) error {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx, msg.ChatID); err != nil {
			return err
		}
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal telegram message: %w", err)
	}

	endpoint := t.apiURL + "/bot" + t.token + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.New("create telegram request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		// The request URL carries the bot token.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("post to telegram: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read telegram response: %w", err)
	}

	var tr telegramResponse
	_ = json.Unmarshal(respBytes, &tr)
	if resp.StatusCode != http.StatusOK || !tr.OK {
		return &model.HTTPError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("telegram returned: %s", orNA(tr.Description)),
		}
	}
	return nil
}

// FormatTelegramMessage renders the run digest as MarkdownV2.
func FormatTelegramMessage(added []model.Listing, opts MessageOptions) string {
	opts = opts.withDefaults()
	var b strings.Builder

	if len(added) == 0 {
		b.WriteString("🔍 *Daily Job Search Complete*\n\n")
		b.WriteString(EscapeMarkdownV2(fmt.Sprintf("No new %s positions found today from ATS sites.", opts.Label)))
		b.WriteString("\n\nThe automation searched through:\n")
		for _, p := range searchedPlatforms {
			b.WriteString("• " + EscapeMarkdownV2(p) + "\n")
		}
		b.WriteString("\nTry again tomorrow\\! 🚀\n\n")
		b.WriteString(EscapeMarkdownV2(hashtag("Job Search") + " " + hashtag(opts.Label) + " #India"))
		return b.String()
	}

	fmt.Fprintf(&b, "🎯 *%s*\n\n", EscapeMarkdownV2(fmt.Sprintf("%d New %s Jobs Found!", len(added), opts.Label)))

	shown, rest := opts.listed(added)
	for i, l := range shown {
		fmt.Fprintf(&b, "%d\\. *%s*\n", i+1, EscapeMarkdownV2(truncateTitle(orNA(l.Title), opts.TitleMaxLen)))
		fmt.Fprintf(&b, "🏢 %s\n", EscapeMarkdownV2(orNA(l.Company)))
		fmt.Fprintf(&b, "📍 %s\n", EscapeMarkdownV2(orNA(l.City())))
		fmt.Fprintf(&b, "🔗 [Apply Now](%s)\n\n", escapeMarkdownV2URL(l.Link))
	}
	if rest > 0 {
		b.WriteString(EscapeMarkdownV2(fmt.Sprintf("... and %d more jobs!", rest)))
		b.WriteString("\n\n")
	}
	if opts.DashboardURL != "" {
		fmt.Fprintf(&b, "📊 [View Full Dashboard](%s)\n\n", escapeMarkdownV2URL(opts.DashboardURL))
	}
	b.WriteString(EscapeMarkdownV2(hashtag(opts.Label) + " #Jobs #India #ATS"))
	return b.String()
}

var markdownV2Replacer = func() *strings.Replacer {
	const special = "\\_*[]()~`>#+-=|{}.!"
	pairs := make([]string, 0, 2*len(special))
	for _, c := range special {
		pairs = append(pairs, string(c), "\\"+string(c))
	}
	return strings.NewReplacer(pairs...)
}()

// EscapeMarkdownV2 escapes every character Telegram reserves in MarkdownV2
// text.
func EscapeMarkdownV2(s string) string {
	return markdownV2Replacer.Replace(s)
}

var markdownV2URLReplacer = strings.NewReplacer(`\`, `\\`, `)`, `\)`)

func escapeMarkdownV2URL(s string) string {
	return markdownV2URLReplacer.Replace(s)
}
