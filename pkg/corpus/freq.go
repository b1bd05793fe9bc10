package corpus

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var ErrEmptyCorpus = errors.New("corpus contains no characters")

// FrequencyTable maps a single character to its relative frequency (count / total characters).
// Keys are strings so that the table serializes naturally to JSON.
type FrequencyTable map[string]float64

type AggregateOptions struct {
	NormalizeNFC bool // Normalize every line to Unicode NFC before counting
}

// Aggregate computes per-character relative frequency over all lines of a corpus.
// Trailing line terminators are stripped. Lines are read one at a time, so the corpus
// is never held in memory. Returns the table and the total number of characters counted.
func Aggregate(r io.Reader, opts AggregateOptions) (FrequencyTable, int64, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	counts := map[rune]int64{}
	total := int64(0)
	for {
		line, err := br.ReadString('\n')
		if len(line) != 0 {
			line = strings.TrimRight(line, "\r\n")
			if opts.NormalizeNFC {
				line = norm.NFC.String(line)
			}
			for _, c := range line {
				counts[c]++
				total++
			}
		}
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, 0, err
		}
	}
	if total == 0 {
		return nil, 0, ErrEmptyCorpus
	}
	table := make(FrequencyTable, len(counts))
	for c, n := range counts {
		table[string(c)] = float64(n) / float64(total)
	}
	return table, total, nil
}

// AggregateFile runs Aggregate over the file at 'path'
func AggregateFile(path string, opts AggregateOptions) (FrequencyTable, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	return Aggregate(f, opts)
}

// Sum of all frequencies. This should be 1, within floating point tolerance.
func (t FrequencyTable) Sum() float64 {
	sum := 0.0
	for _, v := range t {
		sum += v
	}
	return sum
}

// Save writes the table as a single JSON blob
func (t FrequencyTable) Save(path string) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0644)
}

func LoadFrequencyTable(path string) (FrequencyTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t := FrequencyTable{}
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("Error loading frequency table %v: %w", path, err)
	}
	for k := range t {
		if utf8.RuneCountInString(k) != 1 {
			return nil, fmt.Errorf("Error loading frequency table %v: key %q is not a single character", path, k)
		}
	}
	return t, nil
}
