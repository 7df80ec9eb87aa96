package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nihei9/depar/driver"
)

var extractFlags = struct {
	config *string
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "extract",
		Short:   "Replay a gold CoNLL corpus through the oracle and print the action sequence each sentence reduces to",
		Example: `  depar extract -c depar.toml train.conll`,
		Args:    cobra.MaximumNArgs(1),
		RunE:    runExtract,
	}
	extractFlags.config = cmd.Flags().StringP("config", "c", "", "configuration TOML file (required)")
	cmd.MarkFlagRequired("config")
	rootCmd.AddCommand(cmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(*extractFlags.config)
	if err != nil {
		return err
	}
	sys, err := systemFor(cfg)
	if err != nil {
		return err
	}

	var path string
	if len(args) > 0 {
		path = args[0]
	}
	sents, golds, err := readCorpus(path)
	if err != nil {
		return fmt.Errorf("cannot read corpus: %w", err)
	}

	results, stats := driver.ExtractTransitionSequence(sys, sents, golds)
	for i, r := range results {
		if r.Diverged {
			fmt.Printf("%d\tDIVERGED\n", i)
			continue
		}
		steps := make([]string, len(r.Actions))
		for j, a := range r.Actions {
			steps[j] = a.String()
		}
		fmt.Printf("%d\t%s\n", i, strings.Join(steps, " "))
	}
	fmt.Printf("# sentences=%d oracle-divergence=%d unreachable=%d\n", len(sents), stats.OracleDivergence, stats.UnreachableGraph)
	return nil
}
