package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"github.com/amishk599/jobpulse/internal/model"
)

// Ensure LLMExtractor implements model.Extractor.
var _ model.Extractor = (*LLMExtractor)(nil)

// ErrParse is returned when the model output is not a JSON array.
var ErrParse = errors.New("model output is not a JSON array")

// ExtractorOptions configures prompt rendering and result bounds.
type ExtractorOptions struct {
	Label           string
	Roles           []string
	Locations       []string
	MaxResults      int
	MaxPromptChars  int
	DefaultLocation string
	Location        *time.Location // timezone that defines "today"
}

// LLMExtractor turns raw search results into listings using an LLM.
type LLMExtractor struct {
	provider LLMProvider
	tmpl     *template.Template
	opts     ExtractorOptions
	now      func() time.Time
	logger   *slog.Logger
}

// NewLLMExtractor creates an extractor rendering tmpl for every call.
func NewLLMExtractor(provider LLMProvider, tmpl *template.Template, opts ExtractorOptions, logger *slog.Logger) *LLMExtractor {
	if opts.DefaultLocation == "" {
		opts.DefaultLocation = model.DefaultLocation
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &LLMExtractor{
		provider: provider,
		tmpl:     tmpl,
		opts:     opts,
		now:      time.Now,
		logger:   logger,
	}
}

type promptData struct {
	Label     string
	Roles     string
	Locations string
	Results   string
	Today     string
}

// Extract submits up to MaxResults results to the model and returns the
// validated listings. Model output that is not a JSON array yields an empty
// slice and an error wrapping ErrParse.
func (e *LLMExtractor) Extract(ctx context.Context, results []model.SearchResult) ([]model.Listing, error) {
	if len(results) == 0 {
		e.logger.Warn("no search results to process")
		return []model.Listing{}, nil
	}
	if len(results) > e.opts.MaxResults {
		results = results[:e.opts.MaxResults]
	}

	serialized, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return []model.Listing{}, fmt.Errorf("serialize results: %w", err)
	}

	today := model.FormatDate(e.now().In(e.opts.Location))

	var promptBuf bytes.Buffer
	if err := e.tmpl.Execute(&promptBuf, promptData{
		Label:     e.opts.Label,
		Roles:     quoteJoin(e.opts.Roles),
		Locations: strings.Join(e.opts.Locations, ", "),
		Results:   truncateRunes(string(serialized), e.opts.MaxPromptChars),
		Today:     today,
	}); err != nil {
		return []model.Listing{}, fmt.Errorf("render prompt: %w", err)
	}

	raw, err := e.provider.Complete(ctx, systemPrompt, promptBuf.String())
	if err != nil {
		return []model.Listing{}, fmt.Errorf("llm complete: %w", err)
	}

	listings, err := ParseListings(raw, today, e.opts.DefaultLocation)
	if err != nil {
		e.logger.Debug("unparseable model response", "response", truncateRunes(raw, 500))
		return []model.Listing{}, err
	}

	e.logger.Info("model extracted listings", "valid", len(listings), "results", len(results))
	return listings, nil
}

// ParseListings parses model output into listings. Elements missing title,
// company or link are dropped; missing optional fields are defaulted.
func ParseListings(raw, today, defaultLocation string) ([]model.Listing, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &elems); err != nil {
		return []model.Listing{}, fmt.Errorf("%w: %v", ErrParse, err)
	}

	listings := make([]model.Listing, 0, len(elems))
	for _, elem := range elems {
		var fields map[string]any
		if err := json.Unmarshal(elem, &fields); err != nil || fields == nil {
			continue
		}

		title, okTitle := stringField(fields, "title")
		company, okCompany := stringField(fields, "company")
		link, okLink := stringField(fields, "link")
		if !okTitle || !okCompany || !okLink {
			continue
		}

		l := model.Listing{
			Title:     plainText(title),
			Company:   plainText(company),
			Link:      strings.TrimSpace(link),
			Location:  defaultLocation,
			Snippet:   model.DefaultSnippet,
			DateFound: today,
		}
		if v, ok := stringField(fields, "location"); ok {
			l.Location = plainText(v)
		}
		if v, ok := stringField(fields, "snippet"); ok {
			l.Snippet = plainText(v)
		}
		if v, ok := stringField(fields, "date_found"); ok {
			l.DateFound = strings.TrimSpace(v)
		}
		listings = append(listings, l)
	}
	return listings, nil
}

func stringField(fields map[string]any, key string) (string, bool) {
	v, ok := fields[key].(string)
	return v, ok
}

func quoteJoin(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return strings.Join(quoted, ", ")
}
