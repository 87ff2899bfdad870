/**
 * @description
 * File-backed implementations of the SessionStore and AccountCache
 * contracts. Each adapter owns one JSON document under the state directory
 * and replaces it atomically (write to a .tmp sibling, then rename) so a
 * crash mid-write never leaves a torn record behind.
 */
package store

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ALTER-2357/bank-app-thing/internal/domain"
)

const (
	sessionFileName = "session.json"
	accountFileName = "account.json"
)

// FileSessionStore keeps the PAN in a single JSON file.
type FileSessionStore struct {
	path string
}

// NewFileSessionStore creates a session store rooted at stateDir. The
// directory is created if missing; failure here means no durable storage is
// available, which callers should treat as fatal at startup.
func NewFileSessionStore(stateDir string) (*FileSessionStore, error) {
	if err := os.MkdirAll(stateDir, 0o700); err != nil {
		return nil, &domain.PersistenceError{Op: "create state dir", Err: err}
	}
	return &FileSessionStore{path: filepath.Join(stateDir, sessionFileName)}, nil
}

type sessionRecord struct {
	PAN string `json:"pan"`
}

func (s *FileSessionStore) Get() (string, error) {
	var rec sessionRecord
	found, err := readJSONFile(s.path, &rec)
	if err != nil {
		return "", &domain.PersistenceError{Op: "read session", Err: err}
	}
	if !found {
		return "", nil
	}
	return rec.PAN, nil
}

func (s *FileSessionStore) Set(pan string) error {
	if err := writeJSONFile(s.path, sessionRecord{PAN: pan}); err != nil {
		return &domain.PersistenceError{Op: "write session", Err: err}
	}
	return nil
}

func (s *FileSessionStore) Clear() error {
	if err := removeFile(s.path); err != nil {
		return &domain.PersistenceError{Op: "clear session", Err: err}
	}
	return nil
}

// FileAccountCache keeps the single account snapshot in a JSON file.
type FileAccountCache struct {
	path string
}

// NewFileAccountCache creates an account cache rooted at stateDir.
func NewFileAccountCache(stateDir string) (*FileAccountCache, error) {
	if err := os.MkdirAll(stateDir, 0o700); err != nil {
		return nil, &domain.PersistenceError{Op: "create state dir", Err: err}
	}
	return &FileAccountCache{path: filepath.Join(stateDir, accountFileName)}, nil
}

func (c *FileAccountCache) Read() (*domain.AccountSnapshot, error) {
	var snapshot domain.AccountSnapshot
	found, err := readJSONFile(c.path, &snapshot)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "read snapshot", Err: err}
	}
	if !found || snapshot.PAN == "" {
		return nil, nil
	}
	return &snapshot, nil
}

func (c *FileAccountCache) Write(snapshot *domain.AccountSnapshot) error {
	if snapshot == nil || snapshot.PAN == "" {
		return &domain.PersistenceError{Op: "write snapshot", Err: errors.New("snapshot must carry a PAN")}
	}
	if err := writeJSONFile(c.path, snapshot); err != nil {
		return &domain.PersistenceError{Op: "write snapshot", Err: err}
	}
	return nil
}

func (c *FileAccountCache) Clear() error {
	if err := removeFile(c.path); err != nil {
		return &domain.PersistenceError{Op: "clear snapshot", Err: err}
	}
	return nil
}

// readJSONFile decodes path into v. A missing file is not an error; it
// reports found=false so callers can distinguish "empty" from "broken".
func readJSONFile(path string, v any) (found bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(v); err != nil {
		return false, err
	}
	return true, nil
}

// writeJSONFile writes v to path atomically via a tmp sibling and rename.
func writeJSONFile(path string, v any) error {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
