package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/oneconcern/refstore/pkg/core/status"
)

// Scope gates whether tool-surface callers may invoke write operations
type Scope string

// Supported scopes
const (
	ScopeReadOnly  Scope = "read_only"
	ScopeReadWrite Scope = "read_write"
)

// ParseScope parses a scope, accepting hyphens or underscores
func ParseScope(s string) (Scope, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_") {
	case "", string(ScopeReadOnly), "ro":
		return ScopeReadOnly, nil
	case string(ScopeReadWrite), "rw":
		return ScopeReadWrite, nil
	default:
		return "", status.ErrInvalidConfig.For("key", ConfigKeyScope).Wrap(fmt.Errorf("unknown scope %q", s))
	}
}

// Configuration keys
const (
	ConfigKeyScope         = "mcp_scope"
	ConfigKeyGitDepth      = "git_depth"
	ConfigKeyDefaultBranch = "default_branch"
	ConfigKeyRegistries    = "registries"
)

// DefaultGitDepth is the default depth of shallow clones
const DefaultGitDepth = 1

// RemoteRegistry records a remote registry added to the repository
type RemoteRegistry struct {
	Name string `json:"name" yaml:"name" mapstructure:"name"`
	URL  string `json:"url" yaml:"url" mapstructure:"url"`
}

// Config holds global settings consumed by the engine
type Config struct {
	MCPScope      Scope            `json:"mcp_scope" yaml:"mcp_scope" mapstructure:"mcp_scope"`
	GitDepth      int              `json:"git_depth" yaml:"git_depth" mapstructure:"git_depth"`
	DefaultBranch string           `json:"default_branch,omitempty" yaml:"default_branch,omitempty" mapstructure:"default_branch"`
	Registries    []RemoteRegistry `json:"registries,omitempty" yaml:"registries,omitempty" mapstructure:"registries"`
}

// DefaultConfig returns the settings used when no configuration file exists
func DefaultConfig() Config {
	return Config{
		MCPScope: ScopeReadOnly,
		GitDepth: DefaultGitDepth,
	}
}

// Validate the configuration values
func (c Config) Validate() error {
	if _, err := ParseScope(string(c.MCPScope)); err != nil {
		return err
	}
	if c.GitDepth < 1 {
		return status.ErrInvalidConfig.For("key", ConfigKeyGitDepth).
			Wrap(fmt.Errorf("depth must be at least 1, got %d", c.GitDepth))
	}
	return nil
}

// AllowsWrites tells if tool-surface callers may invoke write operations
func (c Config) AllowsWrites() bool {
	return c.MCPScope == ScopeReadWrite
}

// Depth returns the shallow clone depth, defaulting to 1
func (c Config) Depth() int {
	if c.GitDepth < 1 {
		return DefaultGitDepth
	}
	return c.GitDepth
}

// Get returns the string value of a configuration key
func (c Config) Get(key string) (string, error) {
	switch key {
	case ConfigKeyScope:
		return string(c.MCPScope), nil
	case ConfigKeyGitDepth:
		return strconv.Itoa(c.GitDepth), nil
	case ConfigKeyDefaultBranch:
		return c.DefaultBranch, nil
	case ConfigKeyRegistries:
		names := make([]string, 0, len(c.Registries))
		for _, r := range c.Registries {
			names = append(names, r.Name+"="+r.URL)
		}
		return strings.Join(names, ","), nil
	default:
		return "", status.ErrInvalidConfig.For("key", key).Wrap(fmt.Errorf("unknown key"))
	}
}

// Set updates a configuration key from its string value.
//
// Registries are managed by the repository and cannot be set directly.
func (c *Config) Set(key, value string) error {
	switch key {
	case ConfigKeyScope:
		scope, err := ParseScope(value)
		if err != nil {
			return err
		}
		c.MCPScope = scope
	case ConfigKeyGitDepth:
		depth, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || depth < 1 {
			return status.ErrInvalidConfig.For("key", key).Wrap(fmt.Errorf("expected a positive integer, got %q", value))
		}
		c.GitDepth = depth
	case ConfigKeyDefaultBranch:
		c.DefaultBranch = strings.TrimSpace(value)
	case ConfigKeyRegistries:
		return status.ErrInvalidConfig.For("key", key).Wrap(fmt.Errorf("registries are managed with registry add/remove"))
	default:
		return status.ErrInvalidConfig.For("key", key).Wrap(fmt.Errorf("unknown key"))
	}
	return nil
}

// TrackRegistry records a remote registry, replacing any previous record with the same name
func (c *Config) TrackRegistry(name, url string) {
	c.UntrackRegistry(name)
	c.Registries = append(c.Registries, RemoteRegistry{Name: name, URL: url})
	sort.Slice(c.Registries, func(i, j int) bool { return c.Registries[i].Name < c.Registries[j].Name })
}

// UntrackRegistry forgets a remote registry
func (c *Config) UntrackRegistry(name string) {
	kept := c.Registries[:0]
	for _, r := range c.Registries {
		if r.Name != name {
			kept = append(kept, r)
		}
	}
	c.Registries = kept
	if len(c.Registries) == 0 {
		c.Registries = nil
	}
}

// ConfigKeys lists the supported configuration keys
func ConfigKeys() []string {
	return []string{ConfigKeyScope, ConfigKeyGitDepth, ConfigKeyDefaultBranch, ConfigKeyRegistries}
}
