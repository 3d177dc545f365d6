// Command evaluate scores cleaned volume text files for chunking
// readiness. It reads no configuration and calls no external service;
// run it after cleaning and before ingestion.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/collectedworks/backend/services/ingest"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var dir string
	flag.StringVar(&dir, "dir", "cleaned", "directory of volume .txt files to score")
	flag.Parse()

	reports, err := ingest.EvaluateDirectory(dir)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tCHARS\tLINES\tPARAS\tSCORE")
	for _, r := range reports {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", r.Name, r.Chars, r.Lines, r.Paragraphs, r.Score)
		if len(r.Issues) > 0 {
			fmt.Fprintf(w, "  issues: %s\t\t\t\t\n", strings.Join(r.Issues, ", "))
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	good := 0
	totalScore := 0
	for _, r := range reports {
		if r.Score >= ingest.GoodScore {
			good++
		}
		totalScore += r.Score
	}
	fmt.Printf("%d files, %d good (>=%d), avg score %.1f\n",
		len(reports), good, ingest.GoodScore, float64(totalScore)/float64(len(reports)))
	return nil
}
