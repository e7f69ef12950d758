package core

import (
	"github.com/oneconcern/refstore/pkg/model"
	"github.com/oneconcern/refstore/pkg/vcs"
	"go.uber.org/zap"
)

// Option sets options for the registry, repository and project stores
type Option func(*Settings)

// Settings defines various settings for core stores
type Settings struct {
	logger    *zap.Logger
	git       *vcs.Git
	name      string
	readOnly  bool
	config    model.Config
	hasConfig bool
}

// WithLogger sets the logger. It defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithGit sets the version control adapter. It defaults to the git binary found in $PATH.
func WithGit(g *vcs.Git) Option {
	return func(s *Settings) {
		if g != nil {
			s.git = g
		}
	}
}

// RegistryName sets the name under which a registry is known. It defaults to "local".
func RegistryName(name string) Option {
	return func(s *Settings) {
		s.name = name
	}
}

// ReadOnly registries refuse all mutations
func ReadOnly(enabled bool) Option {
	return func(s *Settings) {
		s.readOnly = enabled
	}
}

// WithConfig overrides the configuration loaded from the data directory
func WithConfig(cfg model.Config) Option {
	return func(s *Settings) {
		s.config = cfg
		s.hasConfig = true
	}
}

func defaultSettings() Settings {
	return Settings{
		logger: zap.NewNop(),
		name:   model.LocalRegistry,
		config: model.DefaultConfig(),
	}
}

func newSettings(opts []Option) Settings {
	s := defaultSettings()
	for _, apply := range opts {
		apply(&s)
	}
	if s.git == nil {
		s.git = vcs.New(vcs.WithLogger(s.logger))
	}
	return s
}

// SearchOption sets options for searching references
type SearchOption func(*searchSettings)

type searchSettings struct {
	scope    string
	limit    int
	registry string
	metadata bool
	content  bool
}

const (
	defaultSearchLimit = 50
)

// SearchScope restricts the search to one reference
func SearchScope(name string) SearchOption {
	return func(s *searchSettings) {
		s.scope = name
	}
}

// SearchLimit caps the number of results. It defaults to 50; 0 restores the default.
func SearchLimit(limit int) SearchOption {
	return func(s *searchSettings) {
		if limit <= 0 {
			s.limit = defaultSearchLimit
			return
		}
		s.limit = limit
	}
}

// SearchRegistry restricts the search to one registry
func SearchRegistry(name string) SearchOption {
	return func(s *searchSettings) {
		s.registry = name
	}
}

// SearchContentOnly skips matches on names, descriptions and tags
func SearchContentOnly() SearchOption {
	return func(s *searchSettings) {
		s.metadata = false
		s.content = true
	}
}

// SearchMetadataOnly skips matches on file contents
func SearchMetadataOnly() SearchOption {
	return func(s *searchSettings) {
		s.metadata = true
		s.content = false
	}
}

func defaultSearchSettings() searchSettings {
	return searchSettings{
		limit:    defaultSearchLimit,
		metadata: true,
		content:  true,
	}
}
