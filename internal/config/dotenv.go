package config

import (
	"bufio"
	"fmt"
	"os"
	"slices"
	"strings"
)

// EnvKeys lists the settings `opl config set` knows about, in display order.
func EnvKeys() []string {
	return []string{
		EnvBaseURL,
		EnvAuthMode,
		EnvAPIToken,
		EnvUsername,
		EnvPassword,
		EnvDefaultProject,
		EnvKnowledgeDir,
		EnvDecisionLogDir,
		EnvTimeoutSeconds,
	}
}

// NormalizeKey maps a user-supplied key like "api-token" or
// "openproject.base_url" to its canonical environment name.
func NormalizeKey(key string) (string, error) {
	k := strings.ToUpper(strings.TrimSpace(key))
	k = strings.ReplaceAll(k, "-", "_")
	k = strings.ReplaceAll(k, ".", "_")
	if k != "" && !strings.HasPrefix(k, "OPENPROJECT_") {
		k = "OPENPROJECT_" + k
	}
	if !slices.Contains(EnvKeys(), k) {
		return "", fmt.Errorf("unknown setting %q. Known settings: %s", key, strings.Join(EnvKeys(), ", "))
	}
	return k, nil
}

// ReadEnvFile parses a dotenv file into a key/value map. A missing file
// yields an empty map.
func ReadEnvFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	defer f.Close()

	out := map[string]string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		out[key] = unquote(strings.TrimSpace(value))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return out, nil
}

// SetEnvValue writes key=value into the dotenv file at path, replacing an
// existing assignment in place and appending otherwise.
func SetEnvValue(path, key, value string) error {
	var lines []string
	if f, err := os.Open(path); err == nil {
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		f.Close()
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read %s: %w", path, err)
	}

	assignment := key + "=" + value
	seen := false
	for i, line := range lines {
		trimmed := strings.TrimPrefix(strings.TrimSpace(line), "export ")
		if strings.HasPrefix(trimmed, key+"=") {
			lines[i] = assignment
			seen = true
		}
	}
	if !seen {
		lines = append(lines, assignment)
	}

	content := strings.Join(lines, "\n")
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	// The file can hold API credentials, so keep it owner-only.
	return os.WriteFile(path, []byte(content), 0o600)
}

func unquote(v string) string {
	if len(v) >= 2 {
		first, last := v[0], v[len(v)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return v[1 : len(v)-1]
		}
	}
	return v
}
