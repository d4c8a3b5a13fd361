// Package config resolves opl settings from opline.yml, .env and the
// OPENPROJECT_* environment. Later sources win: defaults, then opline.yml,
// then .env, then the process environment; command flags are layered on
// top by the cmd package.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variable names. These are also the keys `opl config set`
// accepts.
const (
	EnvBaseURL        = "OPENPROJECT_BASE_URL"
	EnvAuthMode       = "OPENPROJECT_AUTH_MODE"
	EnvAPIToken       = "OPENPROJECT_API_TOKEN"
	EnvUsername       = "OPENPROJECT_USERNAME"
	EnvPassword       = "OPENPROJECT_PASSWORD"
	EnvDefaultProject = "OPENPROJECT_DEFAULT_PROJECT"
	EnvKnowledgeDir   = "OPENPROJECT_KNOWLEDGE_DIR"
	EnvDecisionLogDir = "OPENPROJECT_DECISION_LOG_DIR"
	EnvTimeoutSeconds = "OPENPROJECT_TIMEOUT_SECONDS"
)

const (
	defaultAuthMode     = "token"
	defaultKnowledgeDir = "project-knowledge"
	defaultTimeout      = 30
)

// Settings models opline.yml plus the OPENPROJECT_* environment.
type Settings struct {
	BaseURL        string `yaml:"base_url"`
	AuthMode       string `yaml:"auth_mode"`
	APIToken       string `yaml:"api_token"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	DefaultProject string `yaml:"default_project"`
	KnowledgeDir   string `yaml:"knowledge_dir"`
	DecisionLogDir string `yaml:"decision_log_dir"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Default returns the built-in settings layer.
func Default() Settings {
	return Settings{
		AuthMode:       defaultAuthMode,
		KnowledgeDir:   defaultKnowledgeDir,
		TimeoutSeconds: defaultTimeout,
	}
}

// Path returns the opline.yml path for a working directory.
func Path(dir string) string {
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, "opline.yml")
}

// EnvPath returns the .env path for a working directory.
func EnvPath(dir string) string {
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, ".env")
}

// Load assembles settings from dir. Missing files are fine; file-only
// commands must work with no configuration at all.
func Load(dir string) (Settings, error) {
	s := Default()

	if data, err := os.ReadFile(Path(dir)); err == nil {
		loaded, err := FromYAML(data)
		if err != nil {
			return s, err
		}
		s = merge(s, loaded)
	} else if !os.IsNotExist(err) {
		return s, err
	}

	fileEnv, err := ReadEnvFile(EnvPath(dir))
	if err != nil {
		return s, err
	}
	if err := s.applyLookup(func(key string) (string, bool) {
		v, ok := fileEnv[key]
		return v, ok
	}); err != nil {
		return s, err
	}
	if err := s.applyLookup(os.LookupEnv); err != nil {
		return s, err
	}

	s.normalize()
	return s, nil
}

// FromYAML parses a settings overlay from raw YAML.
func FromYAML(data []byte) (Settings, error) {
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("invalid opline.yml: %w", err)
	}
	return s, nil
}

// Validate checks that whatever is set is coherent. It does not require
// API credentials; the client constructor enforces those when an API
// command actually runs.
func (s Settings) Validate() error {
	switch s.AuthMode {
	case "", defaultAuthMode, "basic":
	default:
		return fmt.Errorf("unsupported auth mode %q: use \"token\" (default) or \"basic\"", s.AuthMode)
	}
	if s.BaseURL != "" {
		u, err := url.Parse(s.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s is not a valid URL: %q", EnvBaseURL, s.BaseURL)
		}
	}
	if s.TimeoutSeconds <= 0 {
		return fmt.Errorf("%s must be a positive number of seconds", EnvTimeoutSeconds)
	}
	return nil
}

// Timeout returns the request timeout as a duration.
func (s Settings) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// StatusDir is where weekly summaries land.
func (s Settings) StatusDir() string {
	return filepath.Join(s.knowledgeRoot(), "status")
}

// DecisionDir is where decision log entries land. A dedicated override
// beats the knowledge root.
func (s Settings) DecisionDir() string {
	if d := strings.TrimSpace(s.DecisionLogDir); d != "" {
		return d
	}
	return filepath.Join(s.knowledgeRoot(), "decisions")
}

func (s Settings) knowledgeRoot() string {
	if k := strings.TrimSpace(s.KnowledgeDir); k != "" {
		return k
	}
	return defaultKnowledgeDir
}

// Redacted returns a copy safe for display, with secrets masked.
func (s Settings) Redacted() Settings {
	if s.APIToken != "" {
		s.APIToken = "***"
	}
	if s.Password != "" {
		s.Password = "***"
	}
	return s
}

func (s *Settings) applyLookup(lookup func(string) (string, bool)) error {
	set := func(field *string, key string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*field = strings.TrimSpace(v)
		}
	}
	set(&s.BaseURL, EnvBaseURL)
	set(&s.AuthMode, EnvAuthMode)
	set(&s.APIToken, EnvAPIToken)
	set(&s.Username, EnvUsername)
	set(&s.Password, EnvPassword)
	set(&s.DefaultProject, EnvDefaultProject)
	set(&s.KnowledgeDir, EnvKnowledgeDir)
	set(&s.DecisionLogDir, EnvDecisionLogDir)

	if v, ok := lookup(EnvTimeoutSeconds); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s must be an integer, got %q", EnvTimeoutSeconds, v)
		}
		s.TimeoutSeconds = n
	}
	return nil
}

func (s *Settings) normalize() {
	s.BaseURL = strings.TrimRight(strings.TrimSpace(s.BaseURL), "/")
	s.AuthMode = strings.ToLower(strings.TrimSpace(s.AuthMode))
	s.DefaultProject = strings.TrimSpace(s.DefaultProject)
}

// merge overlays non-zero fields of over onto base.
func merge(base, over Settings) Settings {
	out := base
	if over.BaseURL != "" {
		out.BaseURL = over.BaseURL
	}
	if over.AuthMode != "" {
		out.AuthMode = over.AuthMode
	}
	if over.APIToken != "" {
		out.APIToken = over.APIToken
	}
	if over.Username != "" {
		out.Username = over.Username
	}
	if over.Password != "" {
		out.Password = over.Password
	}
	if over.DefaultProject != "" {
		out.DefaultProject = over.DefaultProject
	}
	if over.KnowledgeDir != "" {
		out.KnowledgeDir = over.KnowledgeDir
	}
	if over.DecisionLogDir != "" {
		out.DecisionLogDir = over.DecisionLogDir
	}
	if over.TimeoutSeconds != 0 {
		out.TimeoutSeconds = over.TimeoutSeconds
	}
	return out
}
