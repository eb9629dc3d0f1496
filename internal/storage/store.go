package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/raine/vinscripted/internal/listing"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// Setting keys.
const (
	KeyLanguage   = "language"
	KeyBackendURL = "backendUrl"
)

// DefaultBackendURL is used when no backend URL has been saved.
const DefaultBackendURL = "https://backend-teeflo.vercel.app"

// Settings are the user preferences read when a generation starts.
type Settings struct {
	Language   listing.Language
	BackendURL string
}

// DefaultSettings returns the settings used before anything is saved.
func DefaultSettings() Settings {
	return Settings{Language: listing.DefaultLanguage, BackendURL: DefaultBackendURL}
}

// SettingsStore persists user preferences.
type SettingsStore interface {
	GetSettings() (Settings, error)
	SetSetting(key, value string) error
}

// SQLiteStore implements SettingsStore and the analysis cache using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (or creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Configure SQLite with WAL mode and busy timeout for better concurrency
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}

	// Set file permissions once the file exists
	if err := os.Chmod(dbPath, 0600); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("dbPath", dbPath).Msg("failed to restrict database permissions")
	}

	return store, nil
}

func (s *SQLiteStore) init() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`)
	if err != nil {
		return fmt.Errorf("failed to create settings table: %w", err)
	}

	_, err = s.db.Exec(`
	CREATE TABLE IF NOT EXISTS analysis_cache (
		hash TEXT PRIMARY KEY,
		result TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	`)
	if err != nil {
		return fmt.Errorf("failed to create analysis_cache table: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetSetting returns a raw setting value, or "" when unset.
func (s *SQLiteStore) GetSetting(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query setting: %w", err)
	}
	return value, nil
}

// GetSettings returns the saved settings with defaults for missing values.
func (s *SQLiteStore) GetSettings() (Settings, error) {
	settings := DefaultSettings()

	lang, err := s.GetSetting(KeyLanguage)
	if err != nil {
		return settings, err
	}
	if l, ok := listing.ParseLanguage(lang); ok {
		settings.Language = l
	}

	backendURL, err := s.GetSetting(KeyBackendURL)
	if err != nil {
		return settings, err
	}
	if backendURL != "" {
		settings.BackendURL = backendURL
	}

	return settings, nil
}

// SetSetting saves a setting. Only known keys are accepted and the language
// must be supported.
func (s *SQLiteStore) SetSetting(key, value string) error {
	switch key {
	case KeyLanguage:
		if _, ok := listing.ParseLanguage(value); !ok {
			return fmt.Errorf("unsupported language: %s", value)
		}
	case KeyBackendURL:
	default:
		return fmt.Errorf("unknown setting: %s", key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save setting: %w", err)
	}
	return nil
}

// GetAnalysisCache retrieves a cached analysis result by hash.
// Returns nil, nil if not found.
func (s *SQLiteStore) GetAnalysisCache(hash string) (*listing.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var raw string
	err := s.db.QueryRow("SELECT result FROM analysis_cache WHERE hash = ?", hash).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis cache: %w", err)
	}

	var result listing.Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("failed to decode cached analysis: %w", err)
	}
	return &result, nil
}

// SetAnalysisCache stores an analysis result.
func (s *SQLiteStore) SetAnalysisCache(hash string, result *listing.Result) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode analysis: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(`
		INSERT INTO analysis_cache (hash, result, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET
			result = excluded.result,
			created_at = excluded.created_at
	`, hash, string(raw), time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to save analysis cache: %w", err)
	}
	return nil
}

// PruneAnalysisCache removes entries older than maxAge and returns how many
// were deleted.
func (s *SQLiteStore) PruneAnalysisCache(maxAge time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("DELETE FROM analysis_cache WHERE created_at < ?", time.Now().Add(-maxAge).UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to prune analysis cache: %w", err)
	}
	return res.RowsAffected()
}
