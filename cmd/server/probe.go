package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"plaingov/internal/probe"
)

var probeFlags struct {
	out         string
	format      string
	concurrency int
}

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Call every tool for every program against the live sources and report",
	Long: `probe runs the full tool by program matrix in-process and writes a report.
A case passes when the answer is not an error and carries a source
attribution. The command exits non-zero when any case fails.`,
	Args: cobra.NoArgs,
	RunE: runProbe,
}

func init() {
	probeCmd.Flags().StringVarP(&probeFlags.out, "out", "o", "", "report file (default stdout)")
	probeCmd.Flags().StringVar(&probeFlags.format, "format", "markdown", "report format: markdown or json")
	probeCmd.Flags().IntVar(&probeFlags.concurrency, "concurrency", 4, "calls in flight")
}

func runProbe(cmd *cobra.Command, _ []string) error {
	if probeFlags.format != "markdown" && probeFlags.format != "json" {
		return fmt.Errorf("unknown report format %q", probeFlags.format)
	}

	a, err := newApp(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	var tools []string
	for _, t := range a.dispatcher.Tools() {
		tools = append(tools, t.Name)
	}
	cases, err := probe.Matrix(tools, a.registry.IDs())
	if err != nil {
		return err
	}

	a.logger.Info("probe starting", "cases", len(cases), "concurrency", probeFlags.concurrency)
	results := probe.Run(cmd.Context(), a.dispatcher, cases, probeFlags.concurrency)
	summary := probe.Summarize(results)
	a.logger.Info("probe finished", "passed", summary.Passed, "failed", summary.Failed)

	if err := writeReport(cmd.OutOrStdout(), results, time.Now()); err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d cases failed", summary.Failed, summary.Total)
	}
	return nil
}

func writeReport(stdout io.Writer, results []probe.Result, now time.Time) error {
	var body []byte
	if probeFlags.format == "json" {
		raw, err := probe.FormatJSON(results, now)
		if err != nil {
			return err
		}
		body = append(raw, '\n')
	} else {
		body = []byte(probe.FormatMarkdown(results, now))
	}

	if probeFlags.out == "" {
		_, err := stdout.Write(body)
		return err
	}
	if err := os.WriteFile(probeFlags.out, body, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
