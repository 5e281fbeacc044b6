package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// tuningFile mirrors the optional YAML tuning document. Only the retrieval
// constants live here; credentials and endpoints stay in the environment.
type tuningFile struct {
	Search   SearchConfig   `yaml:"search"`
	Session  SessionConfig  `yaml:"session"`
	OpLog    OpLogConfig    `yaml:"oplog"`
	Backfill BackfillConfig `yaml:"backfill"`
}

func applyTuningFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	// Seed with current values so omitted keys keep their defaults.
	tf := tuningFile{
		Search:   cfg.Search,
		Session:  cfg.Session,
		OpLog:    cfg.OpLog,
		Backfill: cfg.Backfill,
	}
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return err
	}

	cfg.Search = tf.Search
	cfg.Session = tf.Session
	cfg.OpLog = tf.OpLog
	cfg.Backfill = tf.Backfill
	return nil
}
