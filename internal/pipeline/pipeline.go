package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/amishk599/jobpulse/internal/model"
)

// Failure categories. Only ErrSearch aborts a run; the others are recorded in
// Summary.Errors and the run continues with nothing new from that stage.
var (
	ErrSearch  = errors.New("search failed")
	ErrExtract = errors.New("extraction failed")
	ErrPersist = errors.New("persisting listings failed")
	ErrNotify  = errors.New("notification failed")
)

// Summary describes one pipeline run.
type Summary struct {
	RunID     string
	Results   int // raw search results
	Processed int // listings extracted and kept by the filter
	Filtered  int // listings dropped by the filter
	Added     []model.Listing
	Errors    []error
}

// New returns the number of listings added to the store.
func (s Summary) New() int { return len(s.Added) }

// Failed reports whether any recorded stage error matches target.
func (s Summary) Failed(target error) bool {
	for _, err := range s.Errors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// FailedStages names the stages that recorded an error, in pipeline order.
func (s Summary) FailedStages() []string {
	var out []string
	for _, st := range []struct {
		name string
		err  error
	}{
		{"extract", ErrExtract},
		{"persist", ErrPersist},
		{"notify", ErrNotify},
	} {
		if s.Failed(st.err) {
			out = append(out, st.name)
		}
	}
	return out
}

func (s Summary) String() string {
	return fmt.Sprintf("processed=%d new=%d", s.Processed, s.New())
}

// Runner owns one pass of search → extract → filter → persist → notify.
type Runner struct {
	searcher  model.Searcher
	extractor model.Extractor
	filter    model.ListingFilter
	store     model.ListingStore
	notifier  model.Notifier
	logger    *slog.Logger
}

// NewRunner creates a runner wired with all its dependencies. filter may be nil.
func NewRunner(
	searcher model.Searcher,
	extractor model.Extractor,
	filter model.ListingFilter,
	store model.ListingStore,
	notifier model.Notifier,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		searcher:  searcher,
		extractor: extractor,
		filter:    filter,
		store:     store,
		notifier:  notifier,
		logger:    logger,
	}
}

// Run executes one pass. The returned error is non-nil only when the search
// fails; other stage failures are logged and recorded in the summary. An empty
// search result skips extraction but still persists and notifies.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	sum := Summary{RunID: uuid.NewString()}
	logger := r.logger.With("run_id", sum.RunID)
	logger.Info("starting job search run")

	results, err := r.searcher.Search(ctx)
	if err != nil {
		logger.Error("search failed", "error", err)
		return sum, fmt.Errorf("%w: %w", ErrSearch, err)
	}
	sum.Results = len(results)

	var listings []model.Listing
	if len(results) == 0 {
		// Still persist and notify so the "no new jobs" status goes out.
		logger.Warn("no search results obtained, skipping extraction")
	} else {
		logger.Info("search complete", "results", len(results))
		listings, err = r.extractor.Extract(ctx, results)
		if err != nil {
			logger.Error("extraction failed", "error", err)
			sum.Errors = append(sum.Errors, fmt.Errorf("%w: %w", ErrExtract, err))
			listings = nil
		}
	}

	if r.filter != nil {
		kept := r.filter.Apply(listings)
		sum.Filtered = len(listings) - len(kept)
		listings = kept
	}
	sum.Processed = len(listings)

	added, err := r.store.Merge(ctx, listings)
	if err != nil {
		logger.Error("saving listings failed", "error", err)
		sum.Errors = append(sum.Errors, fmt.Errorf("%w: %w", ErrPersist, err))
		added = nil
	}
	sum.Added = added

	if err := r.notifier.Notify(ctx, added); err != nil {
		logger.Error("notification failed", "error", err)
		sum.Errors = append(sum.Errors, fmt.Errorf("%w: %w", ErrNotify, err))
	}

	attrs := []any{
		"results", sum.Results,
		"processed", sum.Processed,
		"filtered", sum.Filtered,
		"new", sum.New(),
	}
	if failed := sum.FailedStages(); len(failed) > 0 {
		attrs = append(attrs, "failed", strings.Join(failed, ","))
	}
	logger.Info("job search run complete", attrs...)
	return sum, nil
}
