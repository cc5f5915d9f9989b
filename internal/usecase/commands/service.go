package commands

import (
	"context"
	"fmt"
	"strings"

	"pladderBot/internal/domain"
	"pladderBot/internal/script"
)

// AliasDTO es la forma en que la API y la CLI exponen un alias.
type AliasDTO struct {
	Name   string `json:"name" yaml:"name"`
	Data   string `json:"data" yaml:"data"`
	Source string `json:"source" yaml:"-"`
}

type ImportReport struct {
	Added   []string `json:"added"`
	Skipped []string `json:"skipped"`
}

// Service agrupa las operaciones de alias que no pasan por el intérprete.
type Service struct {
	store    domain.AliasRepository
	registry *script.Registry
}

func NewService(store domain.AliasRepository, registry *script.Registry) *Service {
	return &Service{store: store, registry: registry}
}

func (s *Service) List(ctx context.Context) ([]AliasDTO, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("alias service unavailable")
	}
	aliases, err := s.store.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]AliasDTO, 0, len(aliases))
	for _, a := range aliases {
		out = append(out, aliasDTOFromDomain(a))
	}
	return out, nil
}

// Export devuelve un script de add-alias, una línea por alias, que recrea el store.
func (s *Service) Export(ctx context.Context) (string, error) {
	list, err := s.List(ctx)
	if err != nil {
		return "", err
	}
	lines := make([]string, 0, len(list))
	for _, a := range list {
		lines = append(lines, a.Source)
	}
	return strings.Join(lines, "\n"), nil
}

// Import agrega los alias que no chocan con ningún comando ya resoluble.
func (s *Service) Import(ctx context.Context, aliases []AliasDTO) (ImportReport, error) {
	if s == nil || s.store == nil {
		return ImportReport{}, fmt.Errorf("alias service unavailable")
	}
	var report ImportReport
	for _, a := range aliases {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			continue
		}
		b, err := s.registry.LookupCommand(ctx, name)
		if err != nil {
			return report, err
		}
		if b != nil {
			report.Skipped = append(report.Skipped, name)
			continue
		}
		if err := s.store.Add(ctx, name, a.Data); err != nil {
			return report, fmt.Errorf("import %q: %w", name, err)
		}
		report.Added = append(report.Added, name)
	}
	return report, nil
}

func aliasDTOFromDomain(a domain.Alias) AliasDTO {
	return AliasDTO{
		Name:   a.Name,
		Data:   a.Data,
		Source: fmt.Sprintf("add-alias %s %s", script.Escape(a.Name), script.Escape(a.Data)),
	}
}
