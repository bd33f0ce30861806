package ui

import (
	"fmt"
	"time"
)

// RunSummary is what a finished download run reports
type RunSummary struct {
	Pages     int
	Posts     int
	Succeeded int
	Failed    int
	Elapsed   time.Duration
}

// PrintSummary prints the totals of a run
func PrintSummary(s RunSummary) {
	PrintInfo("Pages", fmt.Sprintf("%d", s.Pages))
	PrintInfo("Posts", fmt.Sprintf("%d", s.Posts))
	PrintInfo("Downloaded", fmt.Sprintf("%d", s.Succeeded))
	if s.Failed > 0 {
		PrintWarning("Failed", s.Failed)
	}
	PrintInfo("Elapsed", s.Elapsed.Round(time.Millisecond).String())
}
