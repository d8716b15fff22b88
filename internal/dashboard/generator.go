package dashboard

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/amishk599/jobpulse/internal/model"
)

// Output file names inside the output directory.
const (
	HTMLFile = "index.html"
	JSONFile = "jobs.json"
)

// Generator regenerates the static dashboard from the listing store.
type Generator struct {
	store     model.ListingStore
	outputDir string
	opts      Options
	location  *time.Location
	now       func() time.Time
	logger    *slog.Logger
}

// NewGenerator creates a generator writing into outputDir. loc defines the
// calendar day used for "today".
func NewGenerator(store model.ListingStore, outputDir string, opts Options, loc *time.Location, logger *slog.Logger) *Generator {
	if loc == nil {
		loc = time.Local
	}
	return &Generator{
		store:     store,
		outputDir: outputDir,
		opts:      opts,
		location:  loc,
		now:       time.Now,
		logger:    logger,
	}
}

// Generate rewrites index.html and jobs.json and returns the computed stats.
func (g *Generator) Generate(ctx context.Context) (Stats, error) {
	listings, err := g.store.Load(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("loading listings: %w", err)
	}

	page, summary := Build(listings, g.now().In(g.location), g.opts)

	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return Stats{}, fmt.Errorf("creating output directory: %w", err)
	}

	var html bytes.Buffer
	if err := RenderHTML(&html, page); err != nil {
		return Stats{}, err
	}
	if err := writeFile(filepath.Join(g.outputDir, HTMLFile), html.Bytes()); err != nil {
		return Stats{}, err
	}

	var js bytes.Buffer
	if err := RenderJSON(&js, summary); err != nil {
		return Stats{}, err
	}
	if err := writeFile(filepath.Join(g.outputDir, JSONFile), js.Bytes()); err != nil {
		return Stats{}, err
	}

	g.logger.Info("dashboard generated",
		"jobs", page.Stats.TotalJobs,
		"new_today", page.Stats.NewToday,
		"companies", page.Stats.Companies,
		"cities", page.Stats.Cities,
		"dir", g.outputDir,
	)
	return page.Stats, nil
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
