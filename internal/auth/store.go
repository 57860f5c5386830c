// Package auth persists the GitHub credential with keyring-preferred,
// file-fallback semantics. The OS secret service (service "gh-notifier",
// entry "github_auth_token") is tried first; any backend failure falls back
// to a mode-0600 token.json in the config directory. Loading from the file
// opportunistically re-saves to the secret service so a credential created
// on a machine without a keyring migrates once one becomes available.
//
// The package never logs token material.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zalando/go-keyring"
	"go.uber.org/zap"
)

const (
	keyringService = "gh-notifier"
	keyringEntry   = "github_auth_token"
	fallbackFile   = "token.json"
)

// storedCredential is the explicit serialization form of a Credential,
// used for both the keyring payload and the fallback file. It is the only
// place where the raw token crosses into bytes.
type storedCredential struct {
	Token            string `json:"token"`
	Scheme           string `json:"scheme"`
	AccessExpiresAt  *int64 `json:"access_expires_at,omitempty"`
	RefreshToken     string `json:"refresh_token,omitempty"`
	RefreshExpiresAt *int64 `json:"refresh_expires_at,omitempty"`
}

// Store persists a single Credential.
type Store struct {
	configDir string
	logger    *zap.Logger

	// keyringSet/keyringGet/keyringDelete are swappable for tests; they
	// default to the zalando/go-keyring package functions.
	keyringSet    func(service, user, password string) error
	keyringGet    func(service, user string) (string, error)
	keyringDelete func(service, user string) error
}

// NewStore creates a credential store rooted at configDir.
func NewStore(configDir string, logger *zap.Logger) (*Store, error) {
	if configDir == "" {
		return nil, fmt.Errorf("%w: config directory is required", ErrInitialization)
	}
	return &Store{
		configDir:     configDir,
		logger:        logger.Named("credential_store"),
		keyringSet:    keyring.Set,
		keyringGet:    keyring.Get,
		keyringDelete: keyring.Delete,
	}, nil
}

func (s *Store) fallbackPath() string {
	return filepath.Join(s.configDir, fallbackFile)
}

// Save persists the credential, preferring the OS secret service and falling
// back to the token.json file on any keyring failure.
func (s *Store) Save(cred Credential) error {
	payload, err := json.Marshal(storedCredential{
		Token:            cred.Token.Reveal(),
		Scheme:           cred.Scheme,
		AccessExpiresAt:  cred.AccessExpiresAt,
		RefreshToken:     cred.RefreshToken.Reveal(),
		RefreshExpiresAt: cred.RefreshExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("%w: marshal credential: %s", ErrCredentialStore, err)
	}

	if err := s.keyringSet(keyringService, keyringEntry, string(payload)); err == nil {
		s.logger.Debug("credential saved to secret service")
		return nil
	} else {
		s.logger.Warn("secret service unavailable, falling back to file",
			zap.Error(err))
	}

	if err := os.WriteFile(s.fallbackPath(), payload, 0o600); err != nil {
		return fmt.Errorf("%w: write fallback file: %s", ErrCredentialStore, err)
	}
	s.logger.Debug("credential saved to fallback file")
	return nil
}

// Load retrieves the stored credential. The secret service is consulted
// first; if it holds nothing and the fallback file exists, the credential is
// read from the file and opportunistically re-saved to the secret service.
// Returns ErrNoCredential when neither backend holds one.
func (s *Store) Load() (Credential, error) {
	if payload, err := s.keyringGet(keyringService, keyringEntry); err == nil {
		return s.decode([]byte(payload))
	} else if !errors.Is(err, keyring.ErrNotFound) {
		s.logger.Debug("secret service lookup failed, trying fallback file",
			zap.Error(err))
	}

	payload, err := os.ReadFile(s.fallbackPath())
	if err != nil {
		if os.IsNotExist(err) {
			return Credential{}, ErrNoCredential
		}
		return Credential{}, fmt.Errorf("%w: read fallback file: %s", ErrCredentialStore, err)
	}

	cred, err := s.decode(payload)
	if err != nil {
		return Credential{}, err
	}

	// Migration: the file exists but the secret service had nothing. Try to
	// promote the credential; a failure here is non-fatal.
	if err := s.keyringSet(keyringService, keyringEntry, string(payload)); err == nil {
		s.logger.Info("credential migrated from fallback file to secret service")
	}

	return cred, nil
}

// Delete removes the credential from both backends. Absent entries count as
// success, making Delete idempotent.
func (s *Store) Delete() error {
	if err := s.keyringDelete(keyringService, keyringEntry); err != nil &&
		!errors.Is(err, keyring.ErrNotFound) {
		s.logger.Debug("secret service delete failed", zap.Error(err))
	}
	if err := os.Remove(s.fallbackPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: remove fallback file: %s", ErrCredentialStore, err)
	}
	return nil
}

// SeedFromEnv saves a credential from GITHUB_TOKEN or APP_TOKEN when the
// store is empty. Returns the credential in use and whether seeding happened.
func (s *Store) SeedFromEnv() (Credential, bool, error) {
	if cred, err := s.Load(); err == nil {
		return cred, false, nil
	} else if !errors.Is(err, ErrNoCredential) {
		return Credential{}, false, err
	}

	raw := os.Getenv("GITHUB_TOKEN")
	if raw == "" {
		raw = os.Getenv("APP_TOKEN")
	}
	if raw == "" {
		return Credential{}, false, ErrNoCredential
	}

	cred := NewCredential(raw)
	if err := s.Save(cred); err != nil {
		return Credential{}, false, err
	}
	s.logger.Info("credential seeded from environment")
	return cred, true, nil
}

func (s *Store) decode(payload []byte) (Credential, error) {
	var sc storedCredential
	if err := json.Unmarshal(payload, &sc); err != nil {
		return Credential{}, fmt.Errorf("%w: decode credential: %s", ErrTokenRetrieval, err)
	}
	if sc.Token == "" {
		return Credential{}, fmt.Errorf("%w: stored credential has empty token", ErrTokenRetrieval)
	}
	if sc.Scheme == "" {
		sc.Scheme = "Bearer"
	}
	return Credential{
		Token:            NewToken(sc.Token),
		Scheme:           sc.Scheme,
		AccessExpiresAt:  sc.AccessExpiresAt,
		RefreshToken:     NewToken(sc.RefreshToken),
		RefreshExpiresAt: sc.RefreshExpiresAt,
	}, nil
}
