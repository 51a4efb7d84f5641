package waitlist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/akeren/signal-waitlist/internal/models"
	"github.com/akeren/signal-waitlist/pkg/constants"
	apperrors "github.com/akeren/signal-waitlist/pkg/errors"
)

// fileWaitlistRepository keeps the whole waitlist as one indented JSON array.
// Every read-modify-write cycle holds mu, and writes replace the file through a rename.
type fileWaitlistRepository struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

func NewFileWaitlistRepository(path string) WaitlistRepository {
	return &fileWaitlistRepository{path: path, now: time.Now}
}

func (fr *fileWaitlistRepository) AppendEntry(ctx context.Context, entry *models.WaitlistEntry) (*models.WaitlistEntry, error) {
	if entry == nil {
		return nil, apperrors.NewInvalidRequestError("entry cannot be nil", nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewPersistenceError("unable to save waitlist entry", err)
	}

	fr.mu.Lock()
	defer fr.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(fr.path), 0o755); err != nil {
		return nil, apperrors.NewPersistenceError("unable to prepare waitlist storage", err)
	}

	entries, err := fr.load()
	if err != nil {
		return nil, err
	}

	stored := *entry
	stored.ID = ""
	stored.CreatedAt = time.Time{}
	stored.AssignIdentity(fr.now())

	entries = append(entries, &stored)

	if err := fr.save(entries); err != nil {
		return nil, err
	}

	return &stored, nil
}

func (fr *fileWaitlistRepository) GetAllEntries(ctx context.Context) ([]*models.WaitlistEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewPersistenceError("unable to read waitlist entries", err)
	}

	fr.mu.Lock()
	defer fr.mu.Unlock()

	return fr.load()
}

func (fr *fileWaitlistRepository) StorageLabel() string {
	return constants.StorageLabelFile
}

func (fr *fileWaitlistRepository) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fr.mu.Lock()
	defer fr.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(fr.path), 0o755); err != nil {
		return apperrors.NewPersistenceError("waitlist storage directory unavailable", err)
	}

	info, err := os.Stat(fr.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return apperrors.NewPersistenceError("waitlist storage file unavailable", err)
	}
	if !info.Mode().IsRegular() {
		return apperrors.NewPersistenceError("waitlist storage path is not a regular file", nil)
	}

	return nil
}

// load must be called with mu held. A missing or blank file is an empty waitlist.
func (fr *fileWaitlistRepository) load() ([]*models.WaitlistEntry, error) {
	raw, err := os.ReadFile(fr.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []*models.WaitlistEntry{}, nil
		}
		return nil, apperrors.NewPersistenceError("unable to read waitlist entries", err)
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return []*models.WaitlistEntry{}, nil
	}

	var entries []*models.WaitlistEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, apperrors.NewPersistenceError("waitlist storage file is corrupt", err)
	}
	if entries == nil {
		entries = []*models.WaitlistEntry{}
	}

	return entries, nil
}

// save must be called with mu held.
func (fr *fileWaitlistRepository) save(entries []*models.WaitlistEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return apperrors.NewPersistenceError("unable to encode waitlist entries", err)
	}

	dir := filepath.Dir(fr.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(fr.path)+".*.tmp")
	if err != nil {
		return apperrors.NewPersistenceError("unable to save waitlist entry", err)
	}
	tmpName := tmp.Name()

	cleanup := func(cause error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return apperrors.NewPersistenceError("unable to save waitlist entry", cause)
	}

	if _, err := tmp.Write(data); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return apperrors.NewPersistenceError("unable to save waitlist entry", err)
	}

	if err := os.Rename(tmpName, fr.path); err != nil {
		_ = os.Remove(tmpName)
		return apperrors.NewPersistenceError("unable to save waitlist entry", fmt.Errorf("replace %s: %w", fr.path, err))
	}

	return nil
}
