// Package identity manages the durable device identifier that lets a
// restarted client re-identify itself to an existing room.
package identity

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DefaultFileName is the file the identifier is persisted under when the
// caller does not override the path.
const DefaultFileName = "device_id"

// DefaultPath returns the default identity file location under the user
// config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve config dir: %w", err)
	}
	return filepath.Join(dir, "trinque", DefaultFileName), nil
}

// LoadOrCreate reads the device identifier from path, generating and
// persisting a fresh one on first use.
func LoadOrCreate(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		id := strings.TrimSpace(string(data))
		if id != "" {
			return id, nil
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("failed to read identity file: %w", err)
	}

	id := uuid.New().String()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create identity dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("failed to write identity file: %w", err)
	}

	return id, nil
}
