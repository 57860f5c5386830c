package auth

import (
	"errors"
	"os"
	"testing"

	"github.com/zalando/go-keyring"
	"go.uber.org/zap"
)

// fakeKeyring is an in-memory stand-in for the OS secret service. failing
// simulates a machine without a usable keyring backend.
type fakeKeyring struct {
	entries map[string]string
	failing bool
}

func newFakeKeyring() *fakeKeyring {
	return &fakeKeyring{entries: map[string]string{}}
}

func (f *fakeKeyring) set(service, user, password string) error {
	if f.failing {
		return errors.New("secret service unavailable")
	}
	f.entries[service+"/"+user] = password
	return nil
}

func (f *fakeKeyring) get(service, user string) (string, error) {
	if f.failing {
		return "", errors.New("secret service unavailable")
	}
	v, ok := f.entries[service+"/"+user]
	if !ok {
		return "", keyring.ErrNotFound
	}
	return v, nil
}

func (f *fakeKeyring) delete(service, user string) error {
	if f.failing {
		return errors.New("secret service unavailable")
	}
	if _, ok := f.entries[service+"/"+user]; !ok {
		return keyring.ErrNotFound
	}
	delete(f.entries, service+"/"+user)
	return nil
}

func newTestStore(t *testing.T, fk *fakeKeyring) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	s.keyringSet = fk.set
	s.keyringGet = fk.get
	s.keyringDelete = fk.delete
	return s
}

func TestStoreSaveLoadDelete(t *testing.T) {
	t.Parallel()

	fk := newFakeKeyring()
	s := newTestStore(t, fk)

	cred := NewCredential("ghp_token")
	if err := s.Save(cred); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Token.Reveal() != "ghp_token" || got.Scheme != "Bearer" {
		t.Errorf("Load() = %+v, want saved credential", got)
	}

	// Keyring path: no fallback file should exist.
	if _, err := os.Stat(s.fallbackPath()); !os.IsNotExist(err) {
		t.Errorf("fallback file written despite working keyring: %v", err)
	}

	if err := s.Delete(); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Load(); !errors.Is(err, ErrNoCredential) {
		t.Errorf("Load() after delete = %v, want ErrNoCredential", err)
	}
	// Deleting again is fine.
	if err := s.Delete(); err != nil {
		t.Errorf("second Delete() error = %v", err)
	}
}

func TestStoreFallsBackToFile(t *testing.T) {
	t.Parallel()

	fk := newFakeKeyring()
	fk.failing = true
	s := newTestStore(t, fk)

	if err := s.Save(NewCredential("ghp_token")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(s.fallbackPath())
	if err != nil {
		t.Fatalf("fallback file missing: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("fallback file mode = %o, want 600", perm)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Token.Reveal() != "ghp_token" {
		t.Errorf("Load() token = %q", got.Token.Reveal())
	}
}

func TestStoreMigratesFileToKeyring(t *testing.T) {
	t.Parallel()

	fk := newFakeKeyring()
	s := newTestStore(t, fk)

	// Simulate a credential saved while the keyring was unavailable.
	payload := `{"token":"ghp_token","scheme":"Bearer"}`
	if err := os.WriteFile(s.fallbackPath(), []byte(payload), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, err := fk.get(keyringService, keyringEntry); err != nil {
		t.Errorf("credential not migrated to keyring: %v", err)
	}
}

func TestStoreLoadEmpty(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, newFakeKeyring())
	if _, err := s.Load(); !errors.Is(err, ErrNoCredential) {
		t.Errorf("Load() = %v, want ErrNoCredential", err)
	}
}

func TestStoreDecodeRejectsEmptyToken(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, newFakeKeyring())
	if err := os.WriteFile(s.fallbackPath(), []byte(`{"token":""}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(); !errors.Is(err, ErrTokenRetrieval) {
		t.Errorf("Load(empty token) = %v, want ErrTokenRetrieval", err)
	}
}

func TestSeedFromEnv(t *testing.T) {
	fk := newFakeKeyring()
	s := newTestStore(t, fk)

	t.Setenv("GITHUB_TOKEN", "ghp_fromenv")
	t.Setenv("APP_TOKEN", "")

	cred, seeded, err := s.SeedFromEnv()
	if err != nil {
		t.Fatalf("SeedFromEnv() error = %v", err)
	}
	if !seeded {
		t.Error("seeded = false, want true")
	}
	if cred.Token.Reveal() != "ghp_fromenv" {
		t.Errorf("token = %q", cred.Token.Reveal())
	}

	// A stored credential wins over the environment on subsequent calls.
	t.Setenv("GITHUB_TOKEN", "ghp_other")
	cred, seeded, err = s.SeedFromEnv()
	if err != nil {
		t.Fatalf("second SeedFromEnv() error = %v", err)
	}
	if seeded {
		t.Error("seeded = true on second call, want false")
	}
	if cred.Token.Reveal() != "ghp_fromenv" {
		t.Errorf("token = %q, want the stored one", cred.Token.Reveal())
	}
}

func TestSeedFromEnvEmpty(t *testing.T) {
	s := newTestStore(t, newFakeKeyring())

	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("APP_TOKEN", "")

	if _, _, err := s.SeedFromEnv(); !errors.Is(err, ErrNoCredential) {
		t.Errorf("SeedFromEnv() = %v, want ErrNoCredential", err)
	}
}
