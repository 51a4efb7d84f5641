package config

import (
	"path/filepath"
	"strings"

	"github.com/akeren/signal-waitlist/pkg/utils"
)

type StorageBackend string

const (
	StorageBackendFile     StorageBackend = "file"
	StorageBackendDatabase StorageBackend = "database"
)

const (
	DefaultWaitlistDataDir  = "data"
	DefaultWaitlistDataFile = "waitlist.json"
)

// StorageConfig decides where waitlist entries are persisted. The database backend is
// selected only when a database is configured; the JSON file is the default.
type StorageConfig struct {
	Backend  StorageBackend
	DataDir  string
	DataFile string
}

func NewStorageConfig() *StorageConfig {
	backend := StorageBackendFile
	if IsDatabaseConfigured() {
		backend = StorageBackendDatabase
	}

	return &StorageConfig{
		Backend:  backend,
		DataDir:  utils.EnvOr("WAITLIST_DATA_DIR", DefaultWaitlistDataDir),
		DataFile: utils.EnvOr("WAITLIST_DATA_FILE", DefaultWaitlistDataFile),
	}
}

// IsDatabaseConfigured requires APP_DATABASE_URL, or both POSTGRES_HOST and POSTGRES_DB_NAME.
func IsDatabaseConfigured() bool {
	if utils.Env("APP_DATABASE_URL") != "" {
		return true
	}
	return utils.Env("POSTGRES_HOST") != "" && utils.Env("POSTGRES_DB_NAME") != ""
}

func (sc *StorageConfig) UsesDatabase() bool {
	return sc.Backend == StorageBackendDatabase
}

func (sc *StorageConfig) FilePath() string {
	dir := strings.TrimSpace(sc.DataDir)
	if dir == "" {
		dir = DefaultWaitlistDataDir
	}

	file := strings.TrimSpace(sc.DataFile)
	if file == "" {
		file = DefaultWaitlistDataFile
	}

	return filepath.Join(dir, file)
}
