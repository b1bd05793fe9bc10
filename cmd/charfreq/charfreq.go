package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/akamensky/argparse"
	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/synthtext/pkg/corpus"
)

func check(err error) {
	if err != nil {
		panic(err)
	}
}

func main() {
	parser := argparse.NewParser("charfreq", "Compute the relative frequency of every character in a corpus")
	input := parser.String("i", "input", &argparse.Options{Help: "Corpus text file", Required: true})
	output := parser.String("o", "output", &argparse.Options{Help: "Output frequency table (JSON)", Required: true})
	nfc := parser.Flag("", "nfc", &argparse.Options{Help: "Normalize lines to Unicode NFC before counting"})
	top := parser.Int("t", "top", &argparse.Options{Help: "Print the N most frequent characters", Default: 0})
	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	logger, err := logs.NewLog()
	check(err)
	defer logger.Close()

	table, total, err := corpus.AggregateFile(*input, corpus.AggregateOptions{NormalizeNFC: *nfc})
	if err != nil {
		logger.Criticalf("Failed to read corpus %v: %v", *input, err)
		logger.Close()
		os.Exit(1)
	}
	logger.Infof("%v characters, %v distinct", total, len(table))
	check(table.Save(*output))

	if *top > 0 {
		chars := make([]string, 0, len(table))
		for c := range table {
			chars = append(chars, c)
		}
		sort.Slice(chars, func(i, j int) bool {
			return table[chars[i]] > table[chars[j]]
		})
		for _, c := range chars[:min(*top, len(chars))] {
			fmt.Printf("%q %.6f\n", c, table[c])
		}
	}
}
