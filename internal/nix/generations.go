package nix

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Generation is one entry from the system's own versioning, as reported by
// `nix-env --list-generations`.
type Generation struct {
	ID      int
	Created string // raw timestamp text as reported by the backend
	Current bool
}

// Generations queries the backend for the known generations, oldest first.
func Generations(ctx context.Context, runner Runner) ([]Generation, error) {
	result, err := runner.Run(ctx, []string{"nix-env", "--list-generations"})
	if err != nil {
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}
	return parseGenerations(result.Stdout), nil
}

// CurrentGeneration returns the id of the active generation.
func CurrentGeneration(ctx context.Context, runner Runner) (int, error) {
	gens, err := Generations(ctx, runner)
	if err != nil {
		return 0, err
	}
	for _, g := range gens {
		if g.Current {
			return g.ID, nil
		}
	}
	return 0, fmt.Errorf("no current generation reported")
}

// InstalledItems returns the installed package identifiers, in the order the
// backend reports them.
func InstalledItems(ctx context.Context, runner Runner) ([]string, error) {
	result, err := runner.Run(ctx, []string{"nix-env", "-q"})
	if err != nil {
		return nil, fmt.Errorf("failed to query installed packages: %w", err)
	}

	var items []string
	for _, line := range strings.Split(result.Stdout, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			items = append(items, line)
		}
	}
	return items, nil
}

// parseGenerations parses `nix-env --list-generations` output. Lines look
// like:
//
//	  41   2024-02-27 09:12:44
//	  42   2024-03-01 12:00:05   (current)
//
// Unparseable lines are skipped rather than failing the whole listing.
func parseGenerations(out string) []Generation {
	var gens []Generation
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		id, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		g := Generation{
			ID:      id,
			Created: fields[1] + " " + fields[2],
			Current: len(fields) > 3 && fields[3] == "(current)",
		}
		gens = append(gens, g)
	}
	return gens
}
