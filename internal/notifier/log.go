package notifier

import (
	"context"
	"log/slog"

	"github.com/amishk599/jobpulse/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes the run's new listings to the given logger as structured
// messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each listing via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs each listing with company, title, city and link.
// Returns nil (stdout logging does not fail).
func (n *LogNotifier) Notify(_ context.Context, added []model.Listing) error {
	if len(added) == 0 {
		n.logger.Info("no new listings found")
		return nil
	}
	for _, l := range added {
		n.logger.Info("new listing", "company", l.Company, "title", l.Title, "city", l.City(), "link", l.Link, "date_found", l.DateFound)
	}
	return nil
}
