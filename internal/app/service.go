package app

import (
	"fmt"

	"github.com/shrimpsizemoose/dezhurka/internal/scoring"
	"github.com/shrimpsizemoose/dezhurka/internal/store"
	"github.com/shrimpsizemoose/dezhurka/internal/week"
)

type Service struct {
	Config *Config
	Store  store.DeductionStore
	Auth   *Auth
	Board  *scoring.Board
}

func NewService(configPath string) (*Service, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	store, err := NewStore(config.Database.DSN, config.Database.MigrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	auth, err := NewAuth(config)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to init auth: %w", err)
	}

	svc, err := NewServiceWith(config, store, auth)
	if err != nil {
		store.Close()
		auth.Close()
		return nil, err
	}
	return svc, nil
}

// NewServiceWith wires a service from ready parts.
func NewServiceWith(config *Config, store store.DeductionStore, auth *Auth) (*Service, error) {
	clock, err := week.LoadClock(config.Week.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to init week clock: %w", err)
	}

	return &Service{
		Config: config,
		Store:  store,
		Auth:   auth,
		Board:  scoring.NewBoard(store, clock),
	}, nil
}

func (s *Service) Close() error {
	var errs []error

	if err := s.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	if err := s.Auth.Close(); err != nil {
		errs = append(errs, fmt.Errorf("auth: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors while closing: %v", errs)
	}
	return nil
}
