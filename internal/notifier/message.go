package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/amishk599/jobpulse/internal/model"
)

// MessageOptions controls how a run's listings are summarized.
type MessageOptions struct {
	Label        string // role label, e.g. "Product Manager"
	MaxListed    int
	TitleMaxLen  int
	DashboardURL string
}

func (o MessageOptions) withDefaults() MessageOptions {
	if o.Label == "" {
		o.Label = "Product Manager"
	}
	if o.MaxListed <= 0 {
		o.MaxListed = 5
	}
	if o.TitleMaxLen <= 0 {
		o.TitleMaxLen = 50
	}
	return o
}

// listed returns the listings shown in a message and how many are left over.
func (o MessageOptions) listed(added []model.Listing) ([]model.Listing, int) {
	if len(added) <= o.MaxListed {
		return added, 0
	}
	return added[:o.MaxListed], len(added) - o.MaxListed
}

// searchedPlatforms is the platform summary sent when a run finds nothing.
var searchedPlatforms = []string{
	"Workday, Greenhouse, Lever",
	"ICIMS, SmartRecruiters, Taleo",
	"BambooHR, Breezy, JazzHR",
	"And 6+ more ATS platforms",
}

// FallbackMessage is the plain-text summary sent when the formatted message
// is rejected. It carries only the count.
func FallbackMessage(count int, label string) string {
	if label == "" {
		label = "Product Manager"
	}
	return fmt.Sprintf("🎯 Found %d new %s jobs today! Check your dashboard for details.", count, label)
}

func hashtag(label string) string {
	return "#" + strings.Join(strings.Fields(label), "")
}

func truncateTitle(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

// SendTestMessage sends a sample listing to verify the integration works.
func SendTestMessage(ctx context.Context, n model.Notifier) error {
	test := model.Listing{
		Title:     "Test Notification: Integration Verified",
		Company:   "JobPulse Test",
		Location:  "Bengaluru, Karnataka",
		Link:      "https://jobs.lever.co/example/test",
		Snippet:   "If you can read this, notifications are working.",
		DateFound: model.FormatDate(time.Now()),
	}
	return n.Notify(ctx, []model.Listing{test})
}
