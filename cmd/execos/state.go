package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// sessionState is the slice of session data persisted between
// invocations. Only the token is stored; the user is re-fetched on
// resume so a revoked session never looks alive.
type sessionState struct {
	Token string `json:"token"`
}

func statePath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config dir: %w", err)
	}
	return filepath.Join(base, "execos", "session.json"), nil
}

func loadState() (sessionState, error) {
	path, err := statePath()
	if err != nil {
		return sessionState{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return sessionState{}, nil
		}
		return sessionState{}, fmt.Errorf("failed to read session state: %w", err)
	}

	var st sessionState
	if err := json.Unmarshal(data, &st); err != nil {
		return sessionState{}, fmt.Errorf("failed to parse session state: %w", err)
	}
	return st, nil
}

func saveState(st sessionState) error {
	path, err := statePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session state: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session state: %w", err)
	}
	return nil
}

func clearState() error {
	path, err := statePath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session state: %w", err)
	}
	return nil
}
