package runtime

import (
	"context"

	"github.com/tinnou/router/internal/config"
	"github.com/tinnou/router/internal/core/ports"
)

// staticConfig is a ConfigProvider that never changes.
type staticConfig struct {
	cfg *config.Config
}

var _ ports.ConfigProvider = (*staticConfig)(nil)

func (s *staticConfig) Load(ctx context.Context) (*config.Config, error) {
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}
	return s.cfg, nil
}

func (s *staticConfig) Watch(ctx context.Context, onChange func(*config.Config)) error {
	return nil
}

func (s *staticConfig) Close() error {
	return nil
}
