package experiment

import (
	"fmt"
	"io"
	"os"

	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/dynamo"
)

// OpenInput returns the reader the ingest initializer consumes, or nil when
// cfg generates its particles. An empty path or "-" means standard input.
func OpenInput(cfg *config.Config) (io.ReadCloser, error) {
	if cfg.Init != config.InitIngest {
		return nil, nil
	}
	if ReadsStdin(cfg) {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(cfg.Input)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dynamo.ErrIngest, err)
	}
	return f, nil
}

func ReadsStdin(cfg *config.Config) bool {
	return cfg.Init == config.InitIngest && (cfg.Input == "" || cfg.Input == "-")
}
