package logging

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// Setup configures the global logrus logger for CLI output.
func Setup(quiet, debug bool) {
	log.SetFormatter(&log.TextFormatter{
		DisableTimestamp: true,
	})
	switch {
	case debug:
		log.SetLevel(log.DebugLevel)
	case quiet:
		log.SetLevel(log.WarnLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
}

// Summary is what a deploy run reports at the end.
type Summary struct {
	Uploaded      int
	Updated       int
	Redirects     int
	Skipped       int
	Failed        int
	FailedKeys    []string
	BytesUploaded int64
	Duration      time.Duration
}

// Print writes the end-of-run summary. Errors always print, even with
// --quiet, so a failed deploy is never silent.
func (s Summary) Print(quiet bool) {
	if quiet && s.Failed == 0 {
		return
	}

	fmt.Println()
	fmt.Println("=== Summary ===")
	fmt.Printf("Uploaded: %d new, %d changed (%s)\n", s.Uploaded, s.Updated, FormatBytes(s.BytesUploaded))
	fmt.Printf("Redirects: %d\n", s.Redirects)
	fmt.Printf("Skipped: %d\n", s.Skipped)
	if s.Failed > 0 {
		fmt.Printf("Failed: %d\n", s.Failed)
		for _, key := range s.FailedKeys {
			fmt.Printf("  failed: %s\n", key)
		}
	}
	fmt.Printf("Duration: %s\n", s.Duration.Round(time.Millisecond))
}

// FormatBytes formats a byte count in human readable form.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
