package dispatch

import (
	"io"
	"log/slog"

	"github.com/dmitrymomot/relay/core/config"
	"github.com/dmitrymomot/relay/core/plugin"
	"github.com/dmitrymomot/relay/core/response"
)

type settings struct {
	logger   *slog.Logger
	prefs    config.Preferences
	registry *plugin.Registry
	statuses *response.StatusTable
	bus      *plugin.Bus
}

func defaultSettings() *settings {
	return &settings{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		prefs:    config.DefaultPreferences(),
		statuses: response.NewStatusTable(),
	}
}

// Option configures a root group. Mounted groups use the settings of the
// root they are served from.
type Option func(*settings)

// WithLogger sets the logger for build warnings and unhandled errors.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPreferences sets retry bounds and the production flag.
func WithPreferences(p config.Preferences) Option {
	return func(s *settings) {
		s.prefs = p.WithDefaults()
	}
}

// WithRegistry sets the registry of static plugin callbacks. NewGroup freezes it.
func WithRegistry(r *plugin.Registry) Option {
	return func(s *settings) { s.registry = r }
}

// WithStatusTable sets the table that maps unclassified errors to statuses.
func WithStatusTable(t *response.StatusTable) Option {
	return func(s *settings) {
		if t != nil {
			s.statuses = t
		}
	}
}
