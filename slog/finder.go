package slog

import (
	"log/slog"
	"time"

	"github.com/fwojciec/carlot"
)

// Ensure LoggingContainerFinder implements carlot.ContainerFinder.
var _ carlot.ContainerFinder = (*LoggingContainerFinder)(nil)

// LoggingContainerFinder wraps a ContainerFinder with debug logging.
type LoggingContainerFinder struct {
	next   carlot.ContainerFinder
	logger *slog.Logger
}

// NewLoggingContainerFinder creates a new LoggingContainerFinder.
func NewLoggingContainerFinder(next carlot.ContainerFinder, logger *slog.Logger) *LoggingContainerFinder {
	return &LoggingContainerFinder{next: next, logger: logger}
}

// FindListingContainers delegates to the wrapped finder and logs how many
// candidates were found and the best score.
func (f *LoggingContainerFinder) FindListingContainers(doc *carlot.Document) (candidates []carlot.ContainerCandidate) {
	defer func(begin time.Time) {
		var url string
		if doc != nil {
			url = doc.URL
		}
		attrs := []any{"url", url, "candidates", len(candidates), "duration", time.Since(begin)}
		if len(candidates) > 0 {
			attrs = append(attrs, "top_score", candidates[0].Score)
		}
		f.logger.Info("find containers", attrs...)
	}(time.Now())
	return f.next.FindListingContainers(doc)
}
