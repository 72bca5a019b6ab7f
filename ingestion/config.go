package ingestion

import (
	"fmt"
	"strings"

	"github.com/poiesic/vectorprep/chunking"
	"github.com/poiesic/vectorprep/loader"
)

// Config is the immutable configuration of a Pipeline.
type Config struct {
	// Location names the documents: a directory or an ordered file list.
	Location loader.Location

	// Policy selects the splitter and carries its parameters and output directory.
	Policy chunking.Policy

	// EmbeddingModel identifies the embedding model; it is recorded in the index manifest.
	EmbeddingModel string
}

// Validate checks the location, the policy and the model name.
func (c Config) Validate() error {
	if err := c.Location.Validate(); err != nil {
		return err
	}
	if err := c.Policy.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.EmbeddingModel) == "" {
		return ErrEmbeddingModelRequired
	}
	return nil
}

func (c Config) String() string {
	return fmt.Sprintf("%s -> %s [%s]", c.Location, c.Policy, c.EmbeddingModel)
}
