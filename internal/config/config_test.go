package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every OPENPROJECT_* variable so host settings cannot
// leak into a test. Load skips empty values.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range EnvKeys() {
		t.Setenv(key, "")
	}
}

func TestDefaultSettings(t *testing.T) {
	s := Default()
	assert.Equal(t, "token", s.AuthMode)
	assert.Equal(t, "project-knowledge", s.KnowledgeDir)
	assert.Equal(t, 30, s.TimeoutSeconds)
	assert.Empty(t, s.BaseURL)
}

func TestLoadMissingFilesUsesDefaults(t *testing.T) {
	clearEnv(t)

	s, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestLoadLayersSources(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	yml := "base_url: https://yaml.example.com\nauth_mode: basic\ntimeout_seconds: 10\n"
	require.NoError(t, os.WriteFile(Path(dir), []byte(yml), 0o644))

	env := "OPENPROJECT_BASE_URL=https://dotenv.example.com\nOPENPROJECT_API_TOKEN=tok-123\n"
	require.NoError(t, os.WriteFile(EnvPath(dir), []byte(env), 0o600))

	t.Setenv(EnvBaseURL, "https://process.example.com/")

	s, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "https://process.example.com", s.BaseURL, "process env wins and trailing slash is trimmed")
	assert.Equal(t, "basic", s.AuthMode, "yaml survives when nothing overrides it")
	assert.Equal(t, "tok-123", s.APIToken, ".env survives when the process env is silent")
	assert.Equal(t, 10, s.TimeoutSeconds)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(Path(dir), []byte(":\t not yaml ["), 0o644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid opline.yml")
}

func TestLoadRejectsNonNumericTimeout(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(EnvPath(dir), []byte("OPENPROJECT_TIMEOUT_SECONDS=soon\n"), 0o600))

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENPROJECT_TIMEOUT_SECONDS must be an integer")
}

func TestLoadNormalizesValues(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	env := "OPENPROJECT_BASE_URL=https://op.example.com/\nOPENPROJECT_AUTH_MODE=TOKEN\nOPENPROJECT_DEFAULT_PROJECT= acme \n"
	require.NoError(t, os.WriteFile(EnvPath(dir), []byte(env), 0o600))

	s, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "https://op.example.com", s.BaseURL)
	assert.Equal(t, "token", s.AuthMode)
	assert.Equal(t, "acme", s.DefaultProject)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr string
	}{
		{name: "defaults pass", mutate: func(s *Settings) {}},
		{
			name:   "base url set and valid",
			mutate: func(s *Settings) { s.BaseURL = "https://op.example.com" },
		},
		{
			name:    "unknown auth mode",
			mutate:  func(s *Settings) { s.AuthMode = "oauth" },
			wantErr: `unsupported auth mode "oauth"`,
		},
		{
			name:    "url without scheme",
			mutate:  func(s *Settings) { s.BaseURL = "op.example.com" },
			wantErr: "OPENPROJECT_BASE_URL is not a valid URL",
		},
		{
			name:    "url without host",
			mutate:  func(s *Settings) { s.BaseURL = "https://" },
			wantErr: "OPENPROJECT_BASE_URL is not a valid URL",
		},
		{
			name:    "zero timeout",
			mutate:  func(s *Settings) { s.TimeoutSeconds = 0 },
			wantErr: "OPENPROJECT_TIMEOUT_SECONDS must be a positive number",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTimeoutDuration(t *testing.T) {
	s := Settings{TimeoutSeconds: 45}
	assert.Equal(t, 45*time.Second, s.Timeout())
}

func TestKnowledgeDirs(t *testing.T) {
	s := Default()
	assert.Equal(t, filepath.Join("project-knowledge", "status"), s.StatusDir())
	assert.Equal(t, filepath.Join("project-knowledge", "decisions"), s.DecisionDir())

	s.KnowledgeDir = "kb"
	assert.Equal(t, filepath.Join("kb", "status"), s.StatusDir())
	assert.Equal(t, filepath.Join("kb", "decisions"), s.DecisionDir())

	s.DecisionLogDir = filepath.Join("docs", "adr")
	assert.Equal(t, filepath.Join("docs", "adr"), s.DecisionDir())
	assert.Equal(t, filepath.Join("kb", "status"), s.StatusDir(), "decision override leaves the status dir alone")
}

func TestRedactedMasksSecrets(t *testing.T) {
	s := Settings{APIToken: "tok-123", Password: "hunter2", Username: "grace"}
	r := s.Redacted()

	assert.Equal(t, "***", r.APIToken)
	assert.Equal(t, "***", r.Password)
	assert.Equal(t, "grace", r.Username)
	assert.Equal(t, "tok-123", s.APIToken, "the original must stay intact")

	empty := Settings{}.Redacted()
	assert.Empty(t, empty.APIToken)
	assert.Empty(t, empty.Password)
}
