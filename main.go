package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/morikuni/aec"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"

	"github.com/launchdarkly/folder-diff-report/compare"
	lcr "github.com/launchdarkly/folder-diff-report/config"
	gha "github.com/launchdarkly/folder-diff-report/internal/github_actions"
	"github.com/launchdarkly/folder-diff-report/internal/logging"
	"github.com/launchdarkly/folder-diff-report/internal/summary"
	"github.com/launchdarkly/folder-diff-report/internal/version"
)

const (
	exitOK        = 0
	exitFailure   = 1
	exitCancelled = 130
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	config, err := lcr.ValidateInputandParse(args)
	if errors.Is(err, pflag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		log.Println(err)
		return exitFailure
	}
	if config.ShowVersion {
		fmt.Println("folder-diff-report " + version.Version)
		return exitOK
	}

	color := useColor(config.Color, os.Stdout)
	var sink logging.Sink = logging.NewConsoleSink(os.Stdout, color)
	if gha.Running() {
		sink = gha.NewSink(os.Stdout)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	job := compare.Start(ctx, config, compare.Options{Log: logging.New(config.Verbose)})
	for e := range job.Events() {
		switch e.Kind {
		case compare.EventLog:
			sink.Emit(e.Entry)
		case compare.EventProgress:
			printProgress(os.Stdout, e.Progress, color)
		}
	}
	s := job.Wait()

	printSummary(os.Stdout, s)
	setOutputs(s)

	for _, err := range multierr.Errors(s.Err) {
		log.Println(err)
	}
	return exitCode(s)
}

func useColor(mode lcr.ColorMode, f *os.File) bool {
	switch mode {
	case lcr.ColorAlways:
		return true
	case lcr.ColorNever:
		return false
	}
	if gha.Running() || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func printProgress(w io.Writer, p compare.Progress, color bool) {
	counter := fmt.Sprintf("[%d/%d]", p.Current, p.Total)
	if color {
		counter = aec.Faint.Apply(counter)
	}
	fmt.Fprintf(w, "%s %s\n", counter, p.Key)
}

func printSummary(w io.Writer, s summary.Summary) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Outcome", "Compared", "Differing", "Identical", "Failed", "Only in A", "Only in B"})
	table.Append([]string{
		string(s.Outcome),
		strconv.Itoa(s.Compared),
		strconv.Itoa(s.Differing),
		strconv.Itoa(s.Identical),
		strconv.Itoa(s.Failed),
		strconv.Itoa(len(s.OnlyInA)),
		strconv.Itoa(len(s.OnlyInB)),
	})
	table.Render()
	if s.Reason != "" && s.Outcome != summary.Completed {
		fmt.Fprintln(w, s.Reason)
	}
}

func setOutputs(s summary.Summary) {
	if err := gha.SetOutput("compared_count", strconv.Itoa(s.Compared)); err != nil {
		log.Println("Failed to set outputs.compared_count")
	}
	if err := gha.SetOutput("differing_count", strconv.Itoa(s.Differing)); err != nil {
		log.Println("Failed to set outputs.differing_count")
	}
	if err := gha.SetOutput("failed_count", strconv.Itoa(s.Failed)); err != nil {
		log.Println("Failed to set outputs.failed_count")
	}
	if err := gha.SetOutput("any_differences", fmt.Sprintf("%t", s.AnyDifferences())); err != nil {
		log.Println("Failed to set outputs.any_differences")
	}
}

func exitCode(s summary.Summary) int {
	switch s.Outcome {
	case summary.Completed, summary.NothingToCompare:
		return exitOK
	case summary.Cancelled:
		return exitCancelled
	}
	return exitFailure
}
