package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/amishk599/jobpulse/internal/ai"
	"github.com/amishk599/jobpulse/internal/filter"
	"github.com/amishk599/jobpulse/internal/model"
	"github.com/amishk599/jobpulse/internal/notifier"
	"github.com/amishk599/jobpulse/internal/store"
)

// --- Mock/Fake Implementations ---

// MockSearcher returns canned results or an error.
type MockSearcher struct {
	Results []model.SearchResult
	Err     error
}

func (m *MockSearcher) Search(_ context.Context) ([]model.SearchResult, error) {
	return m.Results, m.Err
}

// MockExtractor returns canned listings or an error and counts calls.
type MockExtractor struct {
	Listings []model.Listing
	Err      error
	Calls    int
}

func (m *MockExtractor) Extract(_ context.Context, _ []model.SearchResult) ([]model.Listing, error) {
	m.Calls++
	return m.Listings, m.Err
}

// InMemoryStore applies the real merge rules to a slice.
type InMemoryStore struct {
	Listings []model.Listing
	Err      error
}

func (s *InMemoryStore) Load(_ context.Context) ([]model.Listing, error) {
	return s.Listings, nil
}

func (s *InMemoryStore) Merge(_ context.Context, incoming []model.Listing) ([]model.Listing, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	var added []model.Listing
	s.Listings, added = store.Merge(s.Listings, incoming, 200)
	return added, nil
}

// RecordingNotifier records each Notify call.
type RecordingNotifier struct {
	Calls [][]model.Listing
	Err   error
}

func (n *RecordingNotifier) Notify(_ context.Context, added []model.Listing) error {
	n.Calls = append(n.Calls, added)
	return n.Err
}

// --- Helpers ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func someResults() []model.SearchResult {
	return []model.SearchResult{
		{Position: 1, Title: "Product Manager - Acme", Link: "https://jobs.lever.co/acme/1"},
		{Position: 2, Title: "Senior PM - Beta", Link: "https://boards.greenhouse.io/beta/2"},
	}
}

func makeListings(links ...string) []model.Listing {
	out := make([]model.Listing, len(links))
	for i, link := range links {
		out[i] = model.Listing{Title: "Product Manager", Company: "Acme", Link: link, DateFound: "2025-03-11"}
	}
	return out
}

// --- Tests ---

func TestRun_NewListingsAreSavedAndNotified(t *testing.T) {
	st := &InMemoryStore{Listings: makeListings("old")}
	n := &RecordingNotifier{}
	r := NewRunner(
		&MockSearcher{Results: someResults()},
		&MockExtractor{Listings: makeListings("old", "a", "b")},
		nil, st, n, discardLogger(),
	)

	sum, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Processed != 3 || sum.New() != 2 {
		t.Errorf("summary = %s, want processed=3 new=2", sum)
	}
	if sum.RunID == "" {
		t.Error("expected a run id")
	}
	if len(n.Calls) != 1 || len(n.Calls[0]) != 2 {
		t.Fatalf("notifier calls = %v", n.Calls)
	}
	if len(st.Listings) != 3 || st.Listings[0].Link != "a" {
		t.Errorf("store = %+v", st.Listings)
	}
}

func TestRun_SearchFailureAbortsRun(t *testing.T) {
	ext := &MockExtractor{}
	n := &RecordingNotifier{}
	r := NewRunner(&MockSearcher{Err: errors.New("HTTP 500")}, ext, nil, &InMemoryStore{}, n, discardLogger())

	_, err := r.Run(context.Background())
	if !errors.Is(err, ErrSearch) {
		t.Fatalf("expected ErrSearch, got %v", err)
	}
	if ext.Calls != 0 || len(n.Calls) != 0 {
		t.Errorf("run should stop after search failure: extract=%d notify=%d", ext.Calls, len(n.Calls))
	}
}

func TestRun_EmptySearchStillSendsStatus(t *testing.T) {
	ext := &MockExtractor{}
	n := &RecordingNotifier{}
	st := &InMemoryStore{Listings: makeListings("old")}
	r := NewRunner(&MockSearcher{}, ext, nil, st, n, discardLogger())

	sum, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ext.Calls != 0 {
		t.Errorf("extract calls = %d, want 0 for empty results", ext.Calls)
	}
	if len(n.Calls) != 1 || len(n.Calls[0]) != 0 {
		t.Fatalf("notifier calls = %v, want one call with no listings", n.Calls)
	}
	if sum.Processed != 0 || sum.New() != 0 || len(sum.Errors) != 0 {
		t.Errorf("summary = %+v", sum)
	}
	if len(st.Listings) != 1 {
		t.Errorf("store = %+v, want unchanged", st.Listings)
	}
}

func TestRun_EmptySearchSendsNoNewJobsTelegram(t *testing.T) {
	var sent []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		sent = append(sent, string(body))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tg := notifier.NewTelegramNotifier(srv.URL, "tok", "42",
		notifier.MessageOptions{Label: "Product Manager"}, srv.Client(), discardLogger())
	r := NewRunner(&MockSearcher{}, &MockExtractor{}, nil, &InMemoryStore{}, tg, discardLogger())

	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sent) != 1 || !strings.Contains(sent[0], "No new Product Manager positions") {
		t.Errorf("sent = %q, want one no-new-jobs message", sent)
	}
}

type fixedProvider struct{ response string }

func (p fixedProvider) Complete(_ context.Context, _, _ string) (string, error) {
	return p.response, nil
}

func TestRun_NonJSONModelOutputSendsNoNewJobsMessage(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	extractor := ai.NewLLMExtractor(fixedProvider{response: "I found some great jobs for you!"}, ai.ExtractListingsTemplate, ai.ExtractorOptions{
		Label:          "Product Manager",
		Roles:          []string{"product manager"},
		Locations:      []string{"Bangalore"},
		MaxResults:     30,
		MaxPromptChars: 4000,
	}, logger)

	var sent []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		sent = append(sent, string(body))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()
	n := notifier.NewTelegramNotifier(srv.URL, "tok", "42", notifier.MessageOptions{Label: "Product Manager"}, srv.Client(), logger)

	st := &InMemoryStore{Listings: makeListings("old")}
	r := NewRunner(&MockSearcher{Results: someResults()}, extractor, nil, st, n, logger)

	sum, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !sum.Failed(ErrExtract) || !sum.Failed(ai.ErrParse) {
		t.Errorf("summary errors = %v, want extraction parse error", sum.Errors)
	}
	if sum.New() != 0 || len(st.Listings) != 1 {
		t.Errorf("new = %d store = %d, want 0/1", sum.New(), len(st.Listings))
	}
	if len(sent) != 1 || !strings.Contains(sent[0], "Daily Job Search Complete") {
		t.Errorf("sent = %v, want one no-new-jobs message", sent)
	}
	if !strings.Contains(logs.String(), "extraction failed") {
		t.Errorf("expected parse error in logs:\n%s", logs.String())
	}
}

func TestRun_NotificationFailingTwiceIsNonFatal(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	n := notifier.NewTelegramNotifier(srv.URL, "tok", "42", notifier.MessageOptions{}, srv.Client(), logger)

	st := &InMemoryStore{}
	r := NewRunner(
		&MockSearcher{Results: someResults()},
		&MockExtractor{Listings: makeListings("a")},
		nil, st, n, logger,
	)

	sum, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 2 {
		t.Errorf("send attempts = %d, want 2", calls)
	}
	if !sum.Failed(ErrNotify) {
		t.Errorf("summary errors = %v, want ErrNotify", sum.Errors)
	}
	if len(st.Listings) != 1 {
		t.Errorf("listing should still be saved, store = %d", len(st.Listings))
	}
	if got := strings.Count(logs.String(), "level=ERROR"); got != 2 {
		t.Errorf("logged %d errors, want 2:\n%s", got, logs.String())
	}
}

func TestRun_PersistFailureNotifiesNothingNew(t *testing.T) {
	n := &RecordingNotifier{}
	r := NewRunner(
		&MockSearcher{Results: someResults()},
		&MockExtractor{Listings: makeListings("a")},
		nil, &InMemoryStore{Err: errors.New("disk full")}, n, discardLogger(),
	)

	sum, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !sum.Failed(ErrPersist) {
		t.Errorf("summary errors = %v, want ErrPersist", sum.Errors)
	}
	if len(n.Calls) != 1 || len(n.Calls[0]) != 0 {
		t.Errorf("notifier calls = %v, want one empty call", n.Calls)
	}
}

func TestRun_FilterDropsListings(t *testing.T) {
	listings := makeListings("https://jobs.lever.co/a", "https://www.naukri.com/b")
	listings[0].Title = "Product Manager"
	listings[1].Title = "Product Manager"

	st := &InMemoryStore{}
	r := NewRunner(
		&MockSearcher{Results: someResults()},
		&MockExtractor{Listings: listings},
		filter.NewListingFilter(nil, nil, []string{"naukri.com"}),
		st, &RecordingNotifier{}, discardLogger(),
	)

	sum, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Filtered != 1 || sum.Processed != 1 || sum.New() != 1 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestRun_SummaryLogNamesFailedStages(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	r := NewRunner(
		&MockSearcher{Results: someResults()},
		&MockExtractor{Err: errors.New("model down")},
		nil, &InMemoryStore{}, &RecordingNotifier{Err: errors.New("chat down")}, logger,
	)

	sum, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	stages := sum.FailedStages()
	if len(stages) != 2 || stages[0] != "extract" || stages[1] != "notify" {
		t.Errorf("FailedStages() = %v, want [extract notify]", stages)
	}
	if !strings.Contains(logs.String(), "failed=extract,notify") {
		t.Errorf("summary log missing failed stages:\n%s", logs.String())
	}
}

func TestSummary_FailedStagesEmptyOnCleanRun(t *testing.T) {
	if got := (Summary{}).FailedStages(); len(got) != 0 {
		t.Errorf("FailedStages() = %v, want none", got)
	}
}

func TestSummary_String(t *testing.T) {
	sum := Summary{Processed: 4, Added: makeListings("a")}
	if got := sum.String(); got != "processed=4 new=1" {
		t.Errorf("String() = %q", got)
	}
}
