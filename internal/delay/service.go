package delay

import (
	"context"
	"sort"

	"crate/internal/services"
)

// Source lists stored delay profiles.
type Source interface {
	All(ctx context.Context) ([]Profile, error)
}

// Service resolves which delay profiles apply to an artist's tags.
type Service struct {
	source Source
}

func NewService(source Source) *Service {
	return &Service{source: source}
}

// AllForTags returns the profiles applying to tags, lowest order first.
func (s *Service) AllForTags(ctx context.Context, tags []int) ([]Profile, error) {
	profiles, err := s.source.All(ctx)
	if err != nil {
		return nil, err
	}
	matching := make([]Profile, 0, len(profiles))
	for _, p := range profiles {
		if p.AppliesTo(tags) {
			matching = append(matching, p)
		}
	}
	sort.SliceStable(matching, func(i, j int) bool {
		return matching[i].Order < matching[j].Order
	})
	return matching, nil
}

// BestForTags returns the applicable profile with the lowest order.
func (s *Service) BestForTags(ctx context.Context, tags []int) (Profile, error) {
	matching, err := s.AllForTags(ctx, tags)
	if err != nil {
		return Profile{}, err
	}
	if len(matching) == 0 {
		return Profile{}, services.Wrap(services.ErrConfiguration, "delay", "best for tags", "no delay profile applies; the default profile is missing", nil)
	}
	return matching[0], nil
}
