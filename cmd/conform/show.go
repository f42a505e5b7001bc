package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conformkit/conform/internal/config"
	"github.com/conformkit/conform/internal/engine"
	"github.com/conformkit/conform/internal/logger"
)

func newShowCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <config-file>",
		Short: "Probe every resource and print its observed state",
		Long: `Show reads a document, probes the live system for each entry, and prints
the populated resource states as YAML. Drifted properties are annotated with
reasons explaining what differs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, args[0], root.verbose)
		},
	}

	return cmd
}

func runShow(cmd *cobra.Command, configPath string, verbose bool) error {
	if err := validateConfigPath(configPath); err != nil {
		return err
	}

	cfg, err := config.ParseConfig(configPath)
	if err != nil {
		return err
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Options{Level: level, HumanReadable: true})
	if err != nil {
		return err
	}

	snapshots, err := engine.NewExecutor(log).Show(context.Background(), cfg)
	if err != nil {
		return err
	}

	type entryState struct {
		ID    string `yaml:"id"`
		Type  string `yaml:"type"`
		State any    `yaml:"state"`
	}

	states := make([]entryState, 0, len(snapshots))
	for _, snap := range snapshots {
		states = append(states, entryState{
			ID:    snap.ResourceID,
			Type:  snap.Type,
			State: snap.State,
		})
	}

	out, err := yaml.Marshal(states)
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), string(out))
	return nil
}
