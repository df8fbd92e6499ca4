package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FileStore keeps one JSON document per profile at {dir}/{id}.json.
type FileStore struct {
	dir string
	now func() time.Time
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create profiles dir: %w", err)
	}
	return &FileStore{dir: dir, now: time.Now}, nil
}

func (s *FileStore) pathFor(id string) (string, error) {
	if id == "" || id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("%w: invalid id %q", ErrNotFound, id)
	}
	return filepath.Join(s.dir, id+".json"), nil
}

// List returns every readable profile. Corrupt files are skipped so one bad
// document does not hide the rest.
func (s *FileStore) List(ctx context.Context) ([]*Profile, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	sort.Strings(matches)

	var profiles []*Profile
	for _, path := range matches {
		if strings.HasPrefix(filepath.Base(path), ".") {
			continue
		}
		p, err := readProfile(path)
		if err != nil {
			continue
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// Get loads one profile.
func (s *FileStore) Get(ctx context.Context, id string) (*Profile, error) {
	path, err := s.pathFor(id)
	if err != nil {
		return nil, err
	}
	p, err := readProfile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("read profile %s: %w", id, err)
	}
	return p, nil
}

// Save writes to a temp file in the same directory and renames it over the
// target.
func (s *FileStore) Save(ctx context.Context, p *Profile) error {
	path, err := s.pathFor(p.ID)
	if err != nil {
		return err
	}

	out := p.Clone()
	out.normalize()
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+p.ID+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write profile: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync profile: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close profile: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename profile: %w", err)
	}
	return nil
}

// Delete removes a profile.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	path, err := s.pathFor(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}

// Backup copies the profile document to {dir}/backups/{id}_{timestamp}.json
// and returns the new path. A second backup within the same second gets a
// _2, _3, ... suffix instead of replacing the first.
func (s *FileStore) Backup(ctx context.Context, id string) (string, error) {
	path, err := s.pathFor(id)
	if err != nil {
		return "", err
	}
	src, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return "", fmt.Errorf("open profile: %w", err)
	}
	defer src.Close()

	backupDir := filepath.Join(s.dir, "backups")
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	ts := s.now().UTC().Format("20060102_150405")
	dst, f, err := createBackupFile(backupDir, id+"_"+ts)
	if err != nil {
		return "", fmt.Errorf("create backup: %w", err)
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		return "", fmt.Errorf("copy backup: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close backup: %w", err)
	}
	return dst, nil
}

func createBackupFile(dir, base string) (string, *os.File, error) {
	for n := 1; ; n++ {
		name := base + ".json"
		if n > 1 {
			name = fmt.Sprintf("%s_%d.json", base, n)
		}
		path := filepath.Join(dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", nil, err
		}
		return path, f, nil
	}
}

func readProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if p.ID == "" {
		return nil, fmt.Errorf("decode profile: missing id")
	}
	p.normalize()
	return &p, nil
}
