package formatter

import (
	"fmt"
	"time"
)

// PrintTimestamp prints the run timestamp and duration
func PrintTimestamp(runStartTime time.Time, runDuration time.Duration) {
	timeStr := runStartTime.Format("2006-01-02 15:04:05")
	durationStr := fmt.Sprintf("%.2fs", runDuration.Seconds())

	fmt.Printf("Run completed at %s (took %s)\n", timeStr, durationStr)
}
