package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"shuttersort/internal/stats"
)

const (
	ansiGreen = "\x1b[32m"
	ansiRed   = "\x1b[31m"
	ansiReset = "\x1b[0m"
)

var summaryOrder = []string{
	stats.Discovered,
	stats.Processed,
	stats.Moved,
	stats.Copied,
	stats.Skipped,
	stats.Errors,
	stats.NoDate,
	stats.MpgMerged,
	stats.Batches,
}

var titleCaser = cases.Title(language.English)

// renderSummary formats the end-of-run counters as a table, with throughput
// and byte totals underneath.
func renderSummary(snapshot stats.Snapshot, dryRun, colorize bool) string {
	rows := make([][]string, 0, len(summaryOrder))
	for _, name := range summaryOrder {
		value := snapshot.Counters[name]
		if value == 0 && !alwaysShown(name) {
			continue
		}
		display := humanize.Comma(value)
		if colorize && name == stats.Errors && value > 0 {
			display = ansiRed + display + ansiReset
		}
		rows = append(rows, []string{counterLabel(name), display})
	}

	var b strings.Builder
	heading := "Run summary"
	if dryRun {
		heading = "Run summary (dry run, nothing written)"
	}
	if colorize {
		heading = ansiGreen + heading + ansiReset
	}
	b.WriteString(heading)
	b.WriteByte('\n')
	b.WriteString(renderTable([]string{"Counter", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
	b.WriteByte('\n')

	fmt.Fprintf(&b, "%s in %s",
		humanize.Bytes(uint64(snapshot.Counters[stats.BytesProcessed])),
		snapshot.Duration().Round(time.Millisecond),
	)
	if rate := snapshot.FilesPerSecond(); rate > 0 {
		fmt.Fprintf(&b, " (%.1f files/s)", rate)
	}
	return b.String()
}

func alwaysShown(name string) bool {
	switch name {
	case stats.Discovered, stats.Processed, stats.Errors:
		return true
	}
	return false
}

func counterLabel(name string) string {
	return titleCaser.String(strings.ReplaceAll(name, "_", " "))
}
