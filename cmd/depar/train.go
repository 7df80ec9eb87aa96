package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/nihei9/depar/classifier"
	"github.com/nihei9/depar/driver"
)

var trainFlags = struct {
	config        *string
	dev           *string
	output        *string
	ledger        *string
	checkpointDir *string
	minibatch     *int
	seed          *int64
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "train",
		Short:   "Train a parsing model from a CoNLL training corpus",
		Example: `  depar train -c depar.toml -o model.bin train.conll`,
		Args:    cobra.MaximumNArgs(1),
		RunE:    runTrain,
	}
	trainFlags.config = cmd.Flags().StringP("config", "c", "", "configuration TOML file (required)")
	trainFlags.dev = cmd.Flags().String("dev", "", "development-set CoNLL file used for periodic evaluation")
	trainFlags.output = cmd.Flags().StringP("output", "o", "", "output model file path (default stdout)")
	trainFlags.ledger = cmd.Flags().String("ledger", "", "SQLite ledger file recording eval history and checkpoints")
	trainFlags.checkpointDir = cmd.Flags().String("checkpoint-dir", "", "directory periodic checkpoints are written to")
	trainFlags.minibatch = cmd.Flags().Int("minibatch", 64, "AdaGrad minibatch size")
	trainFlags.seed = cmd.Flags().Int64("seed", 0, "random seed (default: current time)")
	cmd.MarkFlagRequired("config")
	rootCmd.AddCommand(cmd)
}

func runTrain(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(*trainFlags.config)
	if err != nil {
		return err
	}
	sys, err := systemFor(cfg)
	if err != nil {
		return err
	}

	var trainPath string
	if len(args) > 0 {
		trainPath = args[0]
	}
	trainSents, trainGolds, err := readCorpus(trainPath)
	if err != nil {
		return fmt.Errorf("cannot read training corpus: %w", err)
	}

	var devSents, devGolds = trainSents, trainGolds
	if *trainFlags.dev != "" {
		devSents, devGolds, err = readCorpus(*trainFlags.dev)
		if err != nil {
			return fmt.Errorf("cannot read development corpus: %w", err)
		}
	}

	seed := *trainFlags.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	var ledger *driver.Ledger
	if *trainFlags.ledger != "" {
		ledger, err = driver.OpenLedger(*trainFlags.ledger)
		if err != nil {
			return err
		}
		defer ledger.Close()
	}

	opts := driver.TrainOptions{
		Cfg:           cfg,
		Sys:           sys,
		Rand:          rand.New(rand.NewSource(seed)),
		MinibatchSize: *trainFlags.minibatch,
		Ledger:        ledger,
		CheckpointDir: *trainFlags.checkpointDir,
	}

	m, _, stats, err := driver.Train(opts, trainSents, trainGolds, devSents, devGolds)
	if err != nil {
		return err
	}

	f, err := openOutput(*trainFlags.output)
	if err != nil {
		return err
	}
	defer closeIfFile(f)

	h := driver.BuildHeader(m, cfg)
	if err := classifier.SaveModel(f, m, h); err != nil {
		return fmt.Errorf("cannot write model file: %w", err)
	}

	fmt.Printf("trained %d iterations; best labeled-F=%.4f at iteration %d (oracle-divergence=%d, unreachable=%d)\n",
		stats.Iterations, stats.BestScore.LabeledF, stats.BestIteration, stats.OracleDivergence, stats.UnreachableGraph)
	return nil
}
