package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const sessionFile = "session"

// SaveSession stores the backend session cookie value in dir, readable only
// by the current user.
func SaveSession(dir, cookie string) error {
	cookie = strings.TrimSpace(cookie)
	if cookie == "" {
		return fmt.Errorf("session cookie is empty")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, sessionFile), []byte(cookie+"\n"), 0600)
}

// LoadSession returns the saved session cookie value.
func LoadSession(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, sessionFile))
	if os.IsNotExist(err) {
		return "", ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("read session: %w", err)
	}
	cookie := strings.TrimSpace(string(data))
	if cookie == "" {
		return "", ErrNoSession
	}
	return cookie, nil
}

// ClearSession deletes the saved session. A missing session is not an error.
func ClearSession(dir string) error {
	err := os.Remove(filepath.Join(dir, sessionFile))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
