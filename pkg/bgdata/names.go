package bgdata

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
)

// LoadNames reads the persisted list of background image names (a JSON array of strings).
// The list may contain duplicates, which are removed. The result is sorted, so that
// the [start,end) slice of a run is stable between runs.
func LoadNames(filename string) ([]string, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	names := []string{}
	if err := json.Unmarshal(raw, &names); err != nil {
		return nil, fmt.Errorf("Error loading name list %v: %w", filename, err)
	}
	return Dedup(names), nil
}

func SaveNames(filename string, names []string) error {
	raw, err := json.MarshalIndent(Dedup(names), "", "\t")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, raw, 0644)
}

// Dedup returns the sorted, distinct, non-empty names
func Dedup(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n != "" {
			out = append(out, n)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
