package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ApplyPipelineFile overlays the YAML file at path onto p. Keys missing from
// the file keep their current values; unknown keys are rejected. Durations
// are written as Go duration strings ("8s").
func ApplyPipelineFile(p *Pipeline, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open pipeline config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode pipeline config %s: %w", path, err)
	}
	return nil
}
