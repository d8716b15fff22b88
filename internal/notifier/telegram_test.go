package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amishk599/jobpulse/internal/model"
	"github.com/amishk599/jobpulse/internal/ratelimit"
)

func okHandler(rs *recordingServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rs.record(r)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}
}

func TestTelegramNotifier_SendsMarkdownDigest(t *testing.T) {
	rs := &recordingServer{}
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		okHandler(rs)(w, r)
	}))
	defer srv.Close()

	n := NewTelegramNotifier(srv.URL, "123:abc", "42", testOpts, srv.Client(), discardLogger())
	if err := n.Notify(context.Background(), sampleListings(2)); err != nil {
		t.Fatalf("Notify() = %v, want nil", err)
	}

	if gotPath != "/bot123:abc/sendMessage" {
		t.Errorf("path = %q", gotPath)
	}
	var msg telegramMessage
	if err := json.Unmarshal(rs.bodies[0], &msg); err != nil {
		t.Fatalf("unmarshal message: %v", err)
	}
	if msg.ChatID != "42" || msg.ParseMode != "MarkdownV2" || msg.DisableWebPagePreview {
		t.Errorf("message = %+v", msg)
	}
	if !strings.Contains(msg.Text, "2 New Product Manager Jobs Found\\!") {
		t.Errorf("text = %q", msg.Text)
	}
}

func TestTelegramNotifier_FallbackAfterRejection(t *testing.T) {
	rs := &recordingServer{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rs.record(r) == 1 {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"ok":false,"description":"Bad Request: can't parse entities"}`))
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier(srv.URL, "tok", "42", testOpts, srv.Client(), discardLogger())
	if err := n.Notify(context.Background(), sampleListings(8)); err != nil {
		t.Fatalf("Notify() = %v, want nil after fallback", err)
	}

	var msg telegramMessage
	if err := json.Unmarshal(rs.bodies[1], &msg); err != nil {
		t.Fatalf("unmarshal fallback: %v", err)
	}
	if msg.ParseMode != "" {
		t.Errorf("fallback parse_mode = %q, want none", msg.ParseMode)
	}
	if msg.Text != "🎯 Found 8 new Product Manager jobs today! Check your dashboard for details." {
		t.Errorf("fallback text = %q", msg.Text)
	}
}

func TestTelegramNotifier_LimiterSpacesFallback(t *testing.T) {
	var mu sync.Mutex
	var stamps []time.Time
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		stamps = append(stamps, time.Now())
		first := len(stamps) == 1
		mu.Unlock()
		if first {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"ok":false}`))
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier(srv.URL, "tok", "42", testOpts, srv.Client(), discardLogger()).
		WithLimiter(ratelimit.NewLimiter(100 * time.Millisecond))
	if err := n.Notify(context.Background(), sampleListings(1)); err != nil {
		t.Fatalf("Notify() = %v, want nil after fallback", err)
	}

	if len(stamps) != 2 {
		t.Fatalf("expected 2 sends, got %d", len(stamps))
	}
	if gap := stamps[1].Sub(stamps[0]); gap < 80*time.Millisecond {
		t.Errorf("fallback sent %v after primary, want >= 80ms", gap)
	}
}

func TestTelegramNotifier_BothSendsFail(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewTelegramNotifier(srv.URL, "secret-token", "42", testOpts, srv.Client(), discardLogger())
	err := n.Notify(context.Background(), sampleListings(1))
	if err == nil {
		t.Fatal("expected error when both sends fail")
	}
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusBadGateway {
		t.Errorf("expected HTTPError 502, got %v", err)
	}
	if c := calls.Load(); c != 2 {
		t.Errorf("expected 2 HTTP calls, got %d", c)
	}
}

func TestTelegramNotifier_TransportErrorHidesToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	n := NewTelegramNotifier(url, "secret-token", "42", testOpts, http.DefaultClient, discardLogger())
	err := n.Notify(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error for closed server")
	}
	if strings.Contains(err.Error(), "secret-token") {
		t.Errorf("error leaks bot token: %v", err)
	}
}

func TestFormatTelegramMessage_NoNewListings(t *testing.T) {
	text := FormatTelegramMessage(nil, testOpts)
	for _, want := range []string{
		"🔍 *Daily Job Search Complete*",
		"No new Product Manager positions found today from ATS sites\\.",
		"• Workday, Greenhouse, Lever",
		"• And 6\\+ more ATS platforms",
		"\\#JobSearch \\#ProductManager \\#India",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("message missing %q:\n%s", want, text)
		}
	}
}

func TestFormatTelegramMessage_Listings(t *testing.T) {
	listings := sampleListings(7)
	listings[0].Title = "Senior Product Manager - Payments (Cards & UPI) Platform Team"
	listings[1].Link = "https://boards.greenhouse.io/acme/jobs/1?gh_src=(x)"

	text := FormatTelegramMessage(listings, testOpts)

	for _, want := range []string{
		"🎯 *7 New Product Manager Jobs Found\\!*",
		"1\\. *Senior Product Manager \\- Payments \\(Cards & UPI\\) Pl*",
		"🏢 Company 1\n",
		"📍 Bengaluru\n",
		"🔗 [Apply Now](https://jobs.lever.co/acme/1)",
		"[Apply Now](https://boards.greenhouse.io/acme/jobs/1?gh_src=(x\\))",
		"\\.\\.\\. and 2 more jobs\\!",
		"📊 [View Full Dashboard](https://octo.github.io/pm-jobs)",
		"\\#ProductManager \\#Jobs \\#India \\#ATS",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("message missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "6\\. ") {
		t.Error("message should list at most 5 listings")
	}
}

func TestFormatTelegramMessage_NoDashboardURL(t *testing.T) {
	opts := testOpts
	opts.DashboardURL = ""
	if text := FormatTelegramMessage(sampleListings(1), opts); strings.Contains(text, "Dashboard") {
		t.Errorf("message should omit dashboard link:\n%s", text)
	}
}

func TestEscapeMarkdownV2(t *testing.T) {
	got := EscapeMarkdownV2(`a_b*c[d]e(f)g~h` + "`" + `i>j#k+l-m=n|o{p}q.r!s\t`)
	want := `a\_b\*c\[d\]e\(f\)g\~h` + "\\`" + `i\>j\#k\+l\-m\=n\|o\{p\}q\.r\!s\\t`
	if got != want {
		t.Errorf("EscapeMarkdownV2 = %q, want %q", got, want)
	}
}
