package main

import (
	"fmt"
	"os"

	"github.com/nihei9/depar/conll"
	"github.com/nihei9/depar/engconfig"
	"github.com/nihei9/depar/sentence"
	"github.com/nihei9/depar/transition"
)

// loadConfig reads and validates the TOML configuration file at path.
func loadConfig(path string) (*engconfig.Config, error) {
	return engconfig.Load(path)
}

// systemFor dispatches cfg.Oracle to the matching transition.System, the
// way the teacher's grammar package dispatched a class.Class to the
// matching construction strategy.
func systemFor(cfg *engconfig.Config) (transition.System, error) {
	switch cfg.Oracle {
	case "arceager":
		return transition.NewArcEager(), nil
	case "listsystem":
		return transition.NewListSystem(), nil
	default:
		return nil, fmt.Errorf("unknown oracle %q: must be \"arceager\" or \"listsystem\"", cfg.Oracle)
	}
}

// readCorpus loads every (sentence, gold graph) pair from a CoNLL file
// at path. An empty path reads from stdin.
func readCorpus(path string) ([]*sentence.Sentence, []*sentence.Graph, error) {
	var f *os.File
	if path == "" {
		f = os.Stdin
	} else {
		var err error
		f, err = os.Open(path)
		if err != nil {
			return nil, nil, err
		}
		defer f.Close()
	}
	return conll.ReadAll(conll.NewReader(f))
}

// openOutput opens path for writing, truncating it, or returns stdout
// when path is empty.
func openOutput(path string) (*os.File, error) {
	if path == "" {
		return os.Stdout, nil
	}
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
}

// closeIfFile closes f unless it is stdout/stdin.
func closeIfFile(f *os.File) {
	if f != os.Stdout && f != os.Stdin {
		f.Close()
	}
}
