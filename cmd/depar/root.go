package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "depar",
	Short: "Train and run a transition-based dependency parser",
	Long: `depar trains and runs a transition-based dependency parser:
- train builds a parsing model's dictionaries and classifier from a
  CoNLL-formatted training corpus and trains it with AdaGrad.
- finetune adapts a trained model onto a second (typically smaller)
  target-language corpus by swapping its word embeddings.
- predict decodes dependency graphs for a CoNLL-formatted input stream.
- extract replays a gold corpus through the oracle for debugging.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return err
	}
	return nil
}
