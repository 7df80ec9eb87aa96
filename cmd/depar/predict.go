package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nihei9/depar/classifier"
	"github.com/nihei9/depar/conll"
	"github.com/nihei9/depar/driver"
	"github.com/nihei9/depar/engconfig"
	"github.com/nihei9/depar/feature"
	"github.com/nihei9/depar/transition"
)

var predictFlags = struct {
	config     *string
	model      *string
	dictCorpus *string
	output     *string
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "predict",
		Short:   "Predict dependency graphs for a CoNLL input stream",
		Example: `  depar predict -c depar.toml -m model.bin --dict-corpus train.conll sentences.conll`,
		Args:    cobra.MaximumNArgs(1),
		RunE:    runPredict,
	}
	predictFlags.config = cmd.Flags().StringP("config", "c", "", "configuration TOML file (required)")
	predictFlags.model = cmd.Flags().StringP("model", "m", "", "trained model file (required)")
	predictFlags.dictCorpus = cmd.Flags().String("dict-corpus", "", "CoNLL corpus the model's dictionaries were built from (required)")
	predictFlags.output = cmd.Flags().StringP("output", "o", "", "output CoNLL file path (default stdout)")
	cmd.MarkFlagRequired("config")
	cmd.MarkFlagRequired("model")
	cmd.MarkFlagRequired("dict-corpus")
	rootCmd.AddCommand(cmd)
}

func runPredict(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(*predictFlags.config)
	if err != nil {
		return err
	}
	sys, err := systemFor(cfg)
	if err != nil {
		return err
	}

	m, ext, err := loadModel(cfg, sys, *predictFlags.dictCorpus, *predictFlags.model)
	if err != nil {
		return err
	}

	var inputPath string
	if len(args) > 0 {
		inputPath = args[0]
	}
	sents, _, err := readCorpus(inputPath)
	if err != nil {
		return fmt.Errorf("cannot read input corpus: %w", err)
	}

	f, err := openOutput(*predictFlags.output)
	if err != nil {
		return err
	}
	defer closeIfFile(f)

	w := conll.NewWriter(f)
	for _, sent := range sents {
		graph := driver.Predict(sys, ext, m, sent, cfg.RootLabel)
		if err := w.Write(sent, graph); err != nil {
			return fmt.Errorf("cannot write prediction: %w", err)
		}
	}
	return nil
}

// loadModel rebuilds the dictionaries a model was trained with from its
// original training corpus (the model file itself carries only
// per-group token counts, not the tables themselves) and loads the
// model's parameters against them.
func loadModel(cfg *engconfig.Config, sys transition.System, dictCorpusPath, modelPath string) (*classifier.Model, *feature.Extractor, error) {
	dictSents, dictGolds, err := readCorpus(dictCorpusPath)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot read dictionary corpus: %w", err)
	}
	d := driver.BuildDictionaries(cfg, sys, dictSents, dictGolds)
	labels := driver.ActionLabels(d)
	actions := sys.Actions(labels)

	f, err := os.Open(modelPath)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	m, err := classifier.LoadModel(f, d, actions)
	if err != nil {
		return nil, nil, err
	}
	ext := feature.NewExtractor(m.Flags, d)
	return m, ext, nil
}
