package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStorage keeps the session slots in a 0600 JSON file. It is the fallback
// for machines without a usable keyring (CI runners, containers).
type FileStorage struct {
	path string
	mu   sync.Mutex
}

// NewFileStorage creates file-backed storage at path.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// DefaultFilePath returns ~/.config/bones/session-<namespace>.json
func DefaultFilePath(apiURL string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	name := fmt.Sprintf("session-%s.json", sanitize(Namespace(apiURL)))
	return filepath.Join(homeDir, ".config", "bones", name), nil
}

func sanitize(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}

// errCorruptFile marks a session file that exists but is not a JSON object.
// Writes start over from an empty file instead of failing forever.
var errCorruptFile = errors.New("session file is corrupt")

func (f *FileStorage) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	slots := map[string]string{}
	if err := json.Unmarshal(data, &slots); err != nil {
		return nil, fmt.Errorf("%w: %v", errCorruptFile, err)
	}
	return slots, nil
}

func (f *FileStorage) save(slots map[string]string) error {
	if len(slots) == 0 {
		if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove session file: %w", err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(slots, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session file: %w", err)
	}

	if err := os.WriteFile(f.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Get reads a slot from the file.
func (f *FileStorage) Get(key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	slots, err := f.load()
	if err != nil {
		return "", err
	}
	value, ok := slots[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

// Set writes a slot to the file.
func (f *FileStorage) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	slots, err := f.load()
	if errors.Is(err, errCorruptFile) {
		slots, err = map[string]string{}, nil
	}
	if err != nil {
		return err
	}
	slots[key] = value
	return f.save(slots)
}

// Delete removes a slot; the file is removed once empty. A corrupt file is
// removed outright.
func (f *FileStorage) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	slots, err := f.load()
	if errors.Is(err, errCorruptFile) {
		return f.save(nil)
	}
	if err != nil {
		return err
	}
	if _, ok := slots[key]; !ok {
		return nil
	}
	delete(slots, key)
	return f.save(slots)
}
