package broker

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"golang.org/x/crypto/argon2"
)

// argon2 cost profile for password hashing (spec.md §4.3.1 expansion).
const (
	argonTime    = 1
	argonMemory  = 64 * 1024 // KiB
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16
)

// AccountRecord is one on-disk account: a name and its salted password
// hash. The password itself is never stored or logged.
type AccountRecord struct {
	Name        string `json:"name"`
	PasswordHash string `json:"pw_hash,omitempty"`
	CreatedUnix int64  `json:"created_unix"`
}

// Accounts is the broker's flat password-hash file (spec.md §6 "the
// account password file on disk" — an external, out-of-scope store whose
// interface this type implements against).
type Accounts struct {
	mu     sync.Mutex
	path   string
	byName map[string]AccountRecord
}

// LoadAccounts reads path if present; a missing file starts empty.
func LoadAccounts(path string) (*Accounts, error) {
	a := &Accounts{path: path, byName: make(map[string]AccountRecord)}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return a, nil
		}
		return nil, fmt.Errorf("read accounts %s: %w", path, err)
	}
	var recs []AccountRecord
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("parse accounts %s: %w", path, err)
	}
	for _, r := range recs {
		a.byName[r.Name] = r
	}
	return a, nil
}

// Exists reports whether name already has an account.
func (a *Accounts) Exists(name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.byName[name]
	return ok
}

// Create stores a new account with a freshly salted argon2id hash of
// password, returning an error if name already exists.
func (a *Accounts) Create(name, password string, nowUnix int64) error {
	hash, err := hashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.byName[name]; exists {
		return fmt.Errorf("account %q already exists", name)
	}
	a.byName[name] = AccountRecord{Name: name, PasswordHash: hash, CreatedUnix: nowUnix}
	return a.save()
}

// Verify reports whether password matches name's stored hash.
func (a *Accounts) Verify(name, password string) bool {
	a.mu.Lock()
	rec, ok := a.byName[name]
	a.mu.Unlock()
	if !ok || rec.PasswordHash == "" {
		return false
	}
	ok, err := verifyPassword(password, rec.PasswordHash)
	return err == nil && ok
}

// save persists the account table atomically (write-tmp, rename), the
// teacher's own file-swap convention for durable small state.
func (a *Accounts) save() error {
	recs := make([]AccountRecord, 0, len(a.byName))
	for _, r := range a.byName {
		recs = append(recs, r)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Name < recs[j].Name })
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal accounts: %w", err)
	}
	tmp := a.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write accounts tmp: %w", err)
	}
	if err := os.Rename(tmp, a.path); err != nil {
		return fmt.Errorf("rename accounts file: %w", err)
	}
	return nil
}

// hashPassword returns a self-describing argon2id hash string, in the
// same spirit as golang.org/x/crypto/bcrypt's self-describing hashes (the
// ecosystem convention golang.org/x/crypto reaches for when it isn't
// bcrypt itself).
func hashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}
	sum := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum),
	), nil
}

// verifyPassword re-derives the hash using the parameters and salt
// embedded in encoded ("$argon2id$v=19$m=...,t=...,p=...$salt$sum") and
// compares in constant time.
func verifyPassword(password, encoded string) (bool, error) {
	// ["argon2id", "v=19", "m=...,t=...,p=...", salt, sum] once the
	// leading empty field (from the hash's leading '$') is dropped.
	parts := splitHashFields(encoded)
	if len(parts) != 5 {
		return false, fmt.Errorf("malformed argon2 hash: %d fields", len(parts))
	}
	var memory, iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[2], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false, fmt.Errorf("parse argon2 params: %w", err)
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil {
		return false, fmt.Errorf("decode salt: %w", err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("decode sum: %w", err)
	}
	got := argon2.IDKey([]byte(password), salt, iterations, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

func splitHashFields(s string) []string {
	var out []string
	cur := ""
	for _, r := range s {
		if r == '$' {
			out = append(out, cur)
			cur = ""
			continue
		}
		cur += string(r)
	}
	out = append(out, cur)
	// splitHashFields("$argon2id$v=19$m=...$salt$sum") yields a leading
	// empty field from the leading '$'; drop it.
	if len(out) > 0 && out[0] == "" {
		out = out[1:]
	}
	return out
}
