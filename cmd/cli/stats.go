package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/akeren/signal-waitlist/domain/waitlist"
	"github.com/akeren/signal-waitlist/pkg/schema"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type countRow struct {
	Label string
	Count int
}

type waitlistStats struct {
	Storage    string
	Total      int
	ByPlatform []countRow
	ByCity     []countRow
}

func fetchWaitlist(ctx context.Context, client *http.Client, endpoint string) (*waitlist.ListWaitlistResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch waitlist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch waitlist: unexpected status %d", resp.StatusCode)
	}

	var list waitlist.ListWaitlistResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("decode waitlist: %w", err)
	}

	return &list, nil
}

// summarizeWaitlist counts entries per platform and per city. Cities that differ only in case
// or surrounding spaces are counted together.
func summarizeWaitlist(list *waitlist.ListWaitlistResponse) waitlistStats {
	fold := cases.Fold()
	title := cases.Title(language.English)

	platforms := make(map[string]int, len(schema.Platforms))
	cities := make(map[string]int)

	for _, entry := range list.Entries {
		platforms[entry.Platform]++

		city := strings.Join(strings.Fields(entry.City), " ")
		if city == "" {
			continue
		}
		cities[fold.String(city)]++
	}

	stats := waitlistStats{Storage: list.Message, Total: len(list.Entries)}

	for _, p := range schema.Platforms {
		stats.ByPlatform = append(stats.ByPlatform, countRow{Label: p, Count: platforms[p]})
	}

	for key, n := range cities {
		stats.ByCity = append(stats.ByCity, countRow{Label: title.String(key), Count: n})
	}
	sort.Slice(stats.ByCity, func(i, j int) bool {
		if stats.ByCity[i].Count != stats.ByCity[j].Count {
			return stats.ByCity[i].Count > stats.ByCity[j].Count
		}
		return stats.ByCity[i].Label < stats.ByCity[j].Label
	})

	return stats
}

func printStats(out io.Writer, stats waitlistStats) {
	fmt.Fprintf(out, "Storage: %s\n", stats.Storage)
	fmt.Fprintf(out, "Total entries: %d\n\n", stats.Total)

	fmt.Fprintln(out, "By platform:")
	for _, row := range stats.ByPlatform {
		fmt.Fprintf(out, "  %-10s %d\n", row.Label, row.Count)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "By city:")
	for _, row := range stats.ByCity {
		fmt.Fprintf(out, "  %-24s %d\n", row.Label, row.Count)
	}
}
