package host

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const identityFileName = "identity.json"

// Identity marks which world user this client acts as.
type Identity struct {
	UserID string    `json:"user_id"`
	Source string    `json:"source"` // "env" | "file"
	SetAt  time.Time `json:"set_at"` // when we saved to file
}

func identityDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, ".tabletodo"), nil
}

func identityPath() (string, error) {
	dir, err := identityDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, identityFileName), nil
}

// CurrentIdentity resolves the active user: the TABLETODO_USER env var wins,
// then the identity file. Returns nil when no identity is set.
func CurrentIdentity() (*Identity, error) {
	// 1) env override
	if env := strings.TrimSpace(os.Getenv("TABLETODO_USER")); env != "" {
		return &Identity{UserID: env, Source: "env"}, nil
	}

	// 2) file
	p, err := identityPath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil // not logged in
		}
		return nil, fmt.Errorf("read identity: %w", err)
	}
	var id Identity
	if err := json.Unmarshal(b, &id); err != nil {
		return nil, fmt.Errorf("parse identity: %w", err)
	}
	return &id, nil
}

// SetIdentity records userID as the active user in the identity file.
func SetIdentity(userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("empty user id")
	}
	dir, err := identityDir()
	if err != nil {
		return err
	}
	// ensure ~/.tabletodo exists with 0700
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	id := Identity{
		UserID: userID,
		Source: "file",
		SetAt:  time.Now(),
	}
	b, err := json.MarshalIndent(id, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	p, _ := identityPath()
	// write with 0600 (owner-only)
	if err := os.WriteFile(p, b, 0o600); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// ClearIdentity removes the identity file. Already-absent is not an error.
func ClearIdentity() error {
	p, err := identityPath()
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}
