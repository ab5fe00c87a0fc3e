package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"diapertrack/internal/core"
)

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseID reads a positive row id from a positional argument.
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// dateOrDash renders an unset date as "-".
func dateOrDash(d core.Date) string {
	if d.IsEmpty() {
		return "-"
	}
	return d.String()
}

func sizeOrDash(s core.Size) string {
	if s == core.SizeUnknown {
		return "-"
	}
	return s.String()
}
