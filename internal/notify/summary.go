package notify

import (
	"fmt"
	"strings"
	"time"
)

// RunReport is what a summary message describes
type RunReport struct {
	Date      time.Time
	Produced  int
	Attempted int
	Skipped   []string // "record_id: reason"
	StorePath string
}

// SummaryMessage formats a RunReport for recipient to
func SummaryMessage(to string, r RunReport) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Generated %d of %d attempted questions.\n", r.Produced, r.Attempted)
	fmt.Fprintf(&b, "Store: %s\n", r.StorePath)
	if len(r.Skipped) > 0 {
		fmt.Fprintf(&b, "\nSkipped %d rows:\n", len(r.Skipped))
		for _, s := range r.Skipped {
			fmt.Fprintf(&b, "  - %s\n", s)
		}
	}

	return Message{
		To:         to,
		Subject:    fmt.Sprintf("Generated Questions - %s", r.Date.Format("2006-01-02")),
		Body:       b.String(),
		Attachment: r.StorePath,
	}
}
