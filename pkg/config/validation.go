package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/mxl-space/gr-hdfs/pkg/blocks"
)

// Validate checks the configuration for errors.
//
// Struct tags cover the basic fields; typed fields (sample types, write
// modes) are range-checked explicitly because their invalid values cannot be
// expressed as tags.
func Validate(cfg *Config) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return err
	}

	if !cfg.Sink.SampleType.Valid() {
		return fmt.Errorf("sink: unknown sample type %d", int(cfg.Sink.SampleType))
	}
	if !cfg.Source.SampleType.Valid() {
		return fmt.Errorf("source: unknown sample type %d", int(cfg.Source.SampleType))
	}
	if cfg.Sink.Mode != blocks.ModeAppend && cfg.Sink.Mode != blocks.ModeOverwrite {
		return fmt.Errorf("sink: unknown write mode %d", int(cfg.Sink.Mode))
	}

	return nil
}
