package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/conformkit/conform/internal/config"
	"github.com/conformkit/conform/internal/engine"
	"github.com/conformkit/conform/internal/logger"
	"github.com/conformkit/conform/pkg/diff"
)

type verifyOptions struct {
	ConfigPath string
	Verbose    bool
	JSON       bool
	Timeout    time.Duration
}

var verifyCmdRunner = runVerify

func newVerifyCmd(root *rootFlags) *cobra.Command {
	opts := verifyOptions{}

	cmd := &cobra.Command{
		Use:   "verify <config-file>",
		Short: "Check whether the system matches a document without changing anything",
		Long: `Verify probes every resource in the document and reports its drift status.
Returns exit code 0 when everything is in the desired state, 2 when drift was
found, and 1 when a resource could not be checked.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ConfigPath = args[0]
			opts.Verbose = root.verbose

			return verifyCmdRunner(opts)
		},
	}

	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output results in JSON format")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "Timeout per resource; accepts Go duration strings (e.g. 60s)")

	return cmd
}

func runVerify(opts verifyOptions) error {
	cfg, err := config.ParseConfig(opts.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing configuration: %v\n", err)
		os.Exit(2)
	}

	level := "info"
	if opts.Verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Options{Level: level, HumanReadable: !opts.JSON})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(3)
	}

	ctx := context.Background()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		total := opts.Timeout * time.Duration(len(cfg.Resources))
		if len(cfg.Resources) == 0 {
			total = opts.Timeout
		}
		ctx, cancel = context.WithTimeout(ctx, total)
		defer cancel()
	}

	log.WithFields(map[string]any{
		"config":    opts.ConfigPath,
		"resources": len(cfg.Resources),
	}).Info("Starting verification")

	summary := engine.NewExecutor(log).Verify(ctx, cfg)

	log.WithFields(map[string]any{
		"total":     summary.Total,
		"satisfied": summary.Satisfied,
		"missing":   summary.Missing,
		"drifted":   summary.Drifted,
		"failed":    summary.Failed,
		"duration":  summary.Duration.String(),
	}).Info("Verification complete")

	if opts.JSON {
		printJSONOutput(summary, opts.ConfigPath)
	} else if opts.Verbose {
		printVerboseOutput(summary)
	} else {
		printTableOutput(summary)
	}

	os.Exit(summary.ExitCode())
	return nil
}

func printTableOutput(summary *engine.Summary) {
	fmt.Println("\nVerification Results:")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("%-30s %-12s %-8s %s\n", "Resource", "Status", "Duration", "Message")
	fmt.Println(strings.Repeat("-", 80))

	for _, result := range summary.Results {
		symbol := statusSymbol(result.Status)
		duration := fmt.Sprintf("%.2fs", result.Duration.Seconds())
		message := truncateString(result.Message, 40)

		fmt.Printf("%-30s %-12s %-8s %s\n",
			truncateString(result.ResourceID, 30),
			fmt.Sprintf("%s %s", symbol, result.Status),
			duration,
			message,
		)
	}

	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Total:       %d\n", summary.Total)
	fmt.Printf("  ✔ Satisfied: %d\n", summary.Satisfied)
	fmt.Printf("  ✖ Missing:   %d\n", summary.Missing)
	fmt.Printf("  ⚠ Drifted:   %d\n", summary.Drifted)
	fmt.Printf("  ! Failed:    %d\n", summary.Failed)
	fmt.Printf("  Duration:    %s\n", summary.Duration.String())

	if summary.AllSatisfied() {
		fmt.Println("\n✅ System matches the desired state")
	} else {
		fmt.Println("\n❌ Drift found - run 'conform apply' to fix")
	}
}

func printVerboseOutput(summary *engine.Summary) {
	printTableOutput(summary)

	hasDetails := false
	for _, result := range summary.Results {
		if len(result.Mismatches) > 0 {
			if !hasDetails {
				fmt.Println("\nDrift Details:")
				fmt.Println(strings.Repeat("=", 80))
				hasDetails = true
			}
			fmt.Printf("\n--- Resource: %s ---\n", result.ResourceID)
			for _, m := range result.Mismatches {
				fmt.Println(diff.Render(m.Property, m.Expected, m.Actual))
			}
		}
		if result.Error != nil {
			if !hasDetails {
				fmt.Println("\nError Details:")
				fmt.Println(strings.Repeat("=", 80))
				hasDetails = true
			}
			fmt.Printf("\n--- Resource: %s ---\n", result.ResourceID)
			fmt.Printf("Error: %v\n", result.Error)
		}
	}
}

func printJSONOutput(summary *engine.Summary, configPath string) {
	type JSONReason struct {
		Code   string `json:"code"`
		Phrase string `json:"phrase"`
	}

	type JSONResult struct {
		ResourceID string       `json:"resource_id"`
		Type       string       `json:"type"`
		Status     string       `json:"status"`
		Message    string       `json:"message"`
		Reasons    []JSONReason `json:"reasons,omitempty"`
		Error      string       `json:"error,omitempty"`
		Duration   float64      `json:"duration_seconds"`
		Timestamp  string       `json:"timestamp"`
	}

	type JSONSummary struct {
		Total     int     `json:"total"`
		Satisfied int     `json:"satisfied"`
		Missing   int     `json:"missing"`
		Drifted   int     `json:"drifted"`
		Failed    int     `json:"failed"`
		Duration  float64 `json:"duration_seconds"`
	}

	type JSONOutput struct {
		ConfigFile string       `json:"config_file"`
		Summary    JSONSummary  `json:"summary"`
		Results    []JSONResult `json:"results"`
	}

	jsonOutput := JSONOutput{
		ConfigFile: configPath,
		Summary: JSONSummary{
			Total:     summary.Total,
			Satisfied: summary.Satisfied,
			Missing:   summary.Missing,
			Drifted:   summary.Drifted,
			Failed:    summary.Failed,
			Duration:  summary.Duration.Seconds(),
		},
		Results: make([]JSONResult, len(summary.Results)),
	}

	for i, result := range summary.Results {
		jsonResult := JSONResult{
			ResourceID: result.ResourceID,
			Type:       result.Type,
			Status:     string(result.Status),
			Message:    result.Message,
			Duration:   result.Duration.Seconds(),
			Timestamp:  result.Timestamp.Format(time.RFC3339),
		}
		for _, reason := range result.Reasons {
			jsonResult.Reasons = append(jsonResult.Reasons, JSONReason{Code: reason.Code, Phrase: reason.Phrase})
		}
		if result.Error != nil {
			jsonResult.Error = result.Error.Error()
		}
		jsonOutput.Results[i] = jsonResult
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	encoder.Encode(jsonOutput)
}

func statusSymbol(status engine.Status) string {
	switch status {
	case engine.StatusSatisfied:
		return "✔"
	case engine.StatusMissing:
		return "✖"
	case engine.StatusDrifted:
		return "⚠"
	case engine.StatusFailed:
		return "!"
	default:
		return "?"
	}
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
