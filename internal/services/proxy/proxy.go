// Package proxy forwards bot API documents without caching them.
package proxy

import (
	"context"
	"fmt"

	"github.com/vshulcz/harmonia/internal/domain"
	"github.com/vshulcz/harmonia/internal/ports"
)

// Service fetches a fresh upstream document on every call.
type Service struct {
	src ports.RawSource
}

// New wraps an upstream source.
func New(src ports.RawSource) *Service {
	return &Service{src: src}
}

// Catalog is a filtered view of the command list.
type Catalog struct {
	Categories []string         `json:"categories"`
	Commands   []domain.Command `json:"commands"`
}

// Stats returns the upstream stats body byte-for-byte.
func (s *Service) Stats(ctx context.Context) ([]byte, error) {
	return forward(s.src.RawStats(ctx))
}

// Commands returns the upstream command catalog byte-for-byte.
func (s *Service) Commands(ctx context.Context) ([]byte, error) {
	return forward(s.src.RawCommands(ctx))
}

// SearchCommands fetches the catalog and filters it by category and term.
// Categories always lists every category of the unfiltered catalog.
func (s *Service) SearchCommands(ctx context.Context, category, term string) (Catalog, error) {
	body, err := s.src.RawCommands(ctx)
	if err != nil {
		return Catalog{}, err
	}
	cmds, err := domain.DecodeCommands(body)
	if err != nil {
		return Catalog{}, err
	}
	return Catalog{
		Categories: domain.Categories(cmds),
		Commands:   domain.FilterCommands(cmds, category, term),
	}, nil
}

func forward(body []byte, err error) ([]byte, error) {
	if err != nil {
		return nil, err
	}
	if !domain.ValidJSON(body) {
		return nil, fmt.Errorf("%w: body is not valid JSON", domain.ErrMalformedResponse)
	}
	return body, nil
}
