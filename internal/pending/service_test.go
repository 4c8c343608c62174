package pending_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"crate/internal/delay"
	"crate/internal/pending"
	"crate/internal/services"
)

func TestNewServiceRequiresCollaborators(t *testing.T) {
	_, err := pending.NewService(pending.Options{}, pending.Dependencies{})
	assert.ErrorIs(t, err, services.ErrConfiguration)
}

func TestNewServiceRejectsNegativeDurations(t *testing.T) {
	h := newHarness(t)
	_, err := pending.NewService(pending.Options{MinimumAge: -time.Minute}, pending.Dependencies{
		Repository: h.repo,
		Artists:    h.catalog,
		Mapper:     &flakyMapper{},
		Delays:     delay.NewService(h.delays),
		Schedule:   h.schedule,
	})
	assert.ErrorIs(t, err, services.ErrConfiguration)
}
