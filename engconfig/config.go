// Package engconfig loads depar's configuration surface from a TOML
// file, the way dekarrin/tunaq's internal/tqw marshaling layer leans on
// BurntSushi/toml for structured key-value persistence rather than a
// hand-rolled key=value parser.
package engconfig

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/nihei9/depar/perr"
)

// Config holds one field per key spec.md §6's configuration surface
// names. Field names follow the TOML keys verbatim via struct tags so
// the file on disk reads the same names this document does.
type Config struct {
	Labeled bool `toml:"labeled"`

	// Delexicalized, when true, builds the words table with no UNKNOWN
	// row (see dict.Builder.Build) so word identity plays no part in
	// features or embeddings — only POS, cluster and the other
	// delexicalized feature groups do.
	Delexicalized bool   `toml:"delexicalized"`
	Oracle        string `toml:"oracle"` // "arceager" or "listsystem"
	Language      string `toml:"language"`

	UsePOS      bool `toml:"use_postag"`
	UseDistance bool `toml:"use_distance"`
	UseValency  bool `toml:"use_valency"`
	UseCluster  bool `toml:"use_cluster"`
	UseLength   bool `toml:"use_length"`

	EmbeddingSize         int `toml:"embedding_size"`
	DistanceEmbeddingSize int `toml:"distance_embedding_size"`
	ValencyEmbeddingSize  int `toml:"valency_embedding_size"`
	ClusterEmbeddingSize  int `toml:"cluster_embedding_size"`
	LengthEmbeddingSize   int `toml:"length_embedding_size"`
	HiddenSize            int `toml:"hidden_size"`

	NumBasicTokens   int `toml:"num_basic_tokens"`
	NumDistTokens    int `toml:"num_dist_tokens"`
	NumValencyTokens int `toml:"num_valency_tokens"`
	NumClusterTokens int `toml:"num_cluster_tokens"`
	NumLengthTokens  int `toml:"num_length_tokens"`
	NumTokens        int `toml:"num_tokens"`
	NumPreComputed   int `toml:"num_pre_computed"`

	WordCutOff            int     `toml:"word_cut_off"`
	InitRange             float64 `toml:"init_range"`
	MaxIter               int     `toml:"max_iter"`
	FinetuneIter          int     `toml:"finetune_iter"`
	EvalPerIter           int     `toml:"eval_per_iter"`
	ClearGradientPerIter  int     `toml:"clear_gradient_per_iter"`
	SaveIntermediate      bool    `toml:"save_intermediate"`
	FixWordEmbeddings     bool    `toml:"fix_word_embeddings"`
	TrainingThreads       int     `toml:"training_threads"`
	Debug                 bool    `toml:"debug"`

	// RootLabel is the arc label reserved for attachments to ROOT, used
	// both by dict.Builder.ObserveLabel and by driver's headless repair
	// fallback.
	RootLabel string `toml:"root_label"`

	// RootLabelPlacement overrides where root_label sits in the frozen
	// labels table; "" (the default) places it at len-2, the canonical
	// placement design note 2 confirms. No other placement is
	// implemented, so this field only documents the override point.
	RootLabelPlacement string `toml:"root_label_placement"`

	LearningRate float64 `toml:"learning_rate"`
	Epsilon      float64 `toml:"epsilon"`
	L2           float64 `toml:"l2"`

	WordEmbeddingsPath string `toml:"word_embeddings_path"`
}

// Load reads and decodes a TOML configuration file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, perr.Wrap(perr.IOFailure, path, "cannot open configuration file", err)
	}
	defer f.Close()

	var cfg Config
	if _, err := toml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, perr.Wrap(perr.ConfigInvalid, path, "cannot decode configuration", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the small set of keys whose absence or contradiction
// would otherwise surface as a confusing failure deep inside dict or
// classifier construction.
func (c *Config) Validate() error {
	if c.Oracle != "arceager" && c.Oracle != "listsystem" {
		return perr.New(perr.ConfigInvalid, "oracle", "must be \"arceager\" or \"listsystem\"")
	}
	if c.RootLabel == "" {
		return perr.New(perr.ConfigInvalid, "root_label", "must be set")
	}
	if c.TrainingThreads <= 0 {
		return perr.New(perr.ConfigInvalid, "training_threads", "must be >= 1")
	}
	if c.HiddenSize <= 0 {
		return perr.New(perr.ConfigInvalid, "hidden_size", "must be >= 1")
	}
	return nil
}
