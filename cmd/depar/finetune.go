package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nihei9/depar/classifier"
	"github.com/nihei9/depar/driver"
)

var finetuneFlags = struct {
	config             *string
	model              *string
	dictCorpus         *string
	targetEmbeddings   *string
	dev                *string
	output             *string
	ledger             *string
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "finetune",
		Short:   "Fine-tune a trained model onto a target-language corpus",
		Example: `  depar finetune -c depar.toml -m source.bin --dict-corpus source.conll --target-embeddings target.vec -o target.bin target.conll`,
		Args:    cobra.ExactArgs(1),
		RunE:    runFinetune,
	}
	finetuneFlags.config = cmd.Flags().StringP("config", "c", "", "configuration TOML file (required)")
	finetuneFlags.model = cmd.Flags().StringP("model", "m", "", "source model file (required)")
	finetuneFlags.dictCorpus = cmd.Flags().String("dict-corpus", "", "CoNLL corpus the source model's dictionaries were built from (required)")
	finetuneFlags.targetEmbeddings = cmd.Flags().String("target-embeddings", "", "target-language pretrained word embeddings file")
	finetuneFlags.dev = cmd.Flags().String("dev", "", "development-set CoNLL file used for periodic evaluation")
	finetuneFlags.output = cmd.Flags().StringP("output", "o", "", "output model file path (default stdout)")
	finetuneFlags.ledger = cmd.Flags().String("ledger", "", "SQLite ledger file recording eval history")
	cmd.MarkFlagRequired("config")
	cmd.MarkFlagRequired("model")
	cmd.MarkFlagRequired("dict-corpus")
	rootCmd.AddCommand(cmd)
}

func runFinetune(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(*finetuneFlags.config)
	if err != nil {
		return err
	}
	sys, err := systemFor(cfg)
	if err != nil {
		return err
	}

	src, _, err := loadModel(cfg, sys, *finetuneFlags.dictCorpus, *finetuneFlags.model)
	if err != nil {
		return err
	}

	targetSents, targetGolds, err := readCorpus(args[0])
	if err != nil {
		return fmt.Errorf("cannot read target corpus: %w", err)
	}

	var devSents, devGolds = targetSents, targetGolds
	if *finetuneFlags.dev != "" {
		devSents, devGolds, err = readCorpus(*finetuneFlags.dev)
		if err != nil {
			return fmt.Errorf("cannot read development corpus: %w", err)
		}
	}

	var ledger *driver.Ledger
	if *finetuneFlags.ledger != "" {
		ledger, err = driver.OpenLedger(*finetuneFlags.ledger)
		if err != nil {
			return err
		}
		defer ledger.Close()
	}

	opts := driver.FineTuneOptions{
		Cfg:                  cfg,
		Sys:                  sys,
		Source:               src,
		TargetEmbeddingsPath: *finetuneFlags.targetEmbeddings,
		Ledger:               ledger,
	}

	m, _, stats, err := driver.FineTune(opts, targetSents, targetGolds, devSents, devGolds)
	if err != nil {
		return err
	}

	f, err := openOutput(*finetuneFlags.output)
	if err != nil {
		return err
	}
	defer closeIfFile(f)

	h := driver.BuildHeader(m, cfg)
	if err := classifier.SaveModel(f, m, h); err != nil {
		return fmt.Errorf("cannot write model file: %w", err)
	}

	fmt.Printf("fine-tuned %d iterations; best labeled-F=%.4f at iteration %d\n",
		stats.Iterations, stats.BestScore.LabeledF, stats.BestIteration)
	return nil
}
