package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dentalscan/scanctl/internal/errors"
	"github.com/dentalscan/scanctl/internal/logger"
	"github.com/dentalscan/scanctl/internal/model"
)

const slowQueryThreshold = 200 * time.Millisecond

// kvEntry is one persisted key. The table mirrors a browser's local storage: a flat
// string map, here holding only the token and the serialized user.
type kvEntry struct {
	Key       string `gorm:"primaryKey;size:64"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (kvEntry) TableName() string { return "kv_entries" }

// SQLiteStore persists credentials in a small sqlite file
type SQLiteStore struct {
	db   *gorm.DB
	path string
}

// OpenSQLiteStore opens or creates the store at path. The file is readable by the
// owner only since it holds a bearer token.
func OpenSQLiteStore(path string, log logger.Logger) (*SQLiteStore, error) {
	if log == nil {
		log = logger.NewDiscard()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryFileIO).
			Context(errors.ContextOperation, "create_session_dir").
			Build()
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.NewGormLoggerAdapter(log, slowQueryThreshold),
	})
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to open session store: %w", err)).
			Category(errors.CategoryStorage).
			Context(errors.ContextOperation, "open_session_store").
			Build()
	}

	if err := db.AutoMigrate(&kvEntry{}); err != nil {
		return nil, errors.New(fmt.Errorf("failed to migrate session store: %w", err)).
			Category(errors.CategoryStorage).
			Context(errors.ContextOperation, "migrate_session_store").
			Build()
	}

	if err := os.Chmod(path, 0o600); err != nil && !os.IsNotExist(err) {
		log.Warn("failed to restrict session store permissions",
			logger.String("path", path),
			logger.Error(err))
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Load returns the stored credentials. A stored user that no longer decodes is
// treated as absent; the token still counts.
func (s *SQLiteStore) Load() (Credentials, error) {
	var entries []kvEntry
	if err := s.db.Where("`key` IN ?", []string{KeyToken, KeyUser}).Find(&entries).Error; err != nil {
		return Credentials{}, storageError(err, "load_credentials")
	}

	var creds Credentials
	for _, e := range entries {
		switch e.Key {
		case KeyToken:
			creds.Token = e.Value
		case KeyUser:
			var u model.User
			if err := json.Unmarshal([]byte(e.Value), &u); err == nil {
				creds.User = &u
			}
		}
	}
	return creds, nil
}

// Save replaces both keys in one transaction
func (s *SQLiteStore) Save(creds Credentials) error {
	entries := []kvEntry{{Key: KeyToken, Value: creds.Token}}
	if creds.User != nil {
		data, err := json.Marshal(creds.User)
		if err != nil {
			return fmt.Errorf("encode user: %w", err)
		}
		entries = append(entries, kvEntry{Key: KeyUser, Value: string(data)})
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if creds.User == nil {
			if err := tx.Where("`key` = ?", KeyUser).Delete(&kvEntry{}).Error; err != nil {
				return err
			}
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&entries).Error
	})
	if err != nil {
		return storageError(err, "save_credentials")
	}
	return nil
}

// Clear removes the token and user
func (s *SQLiteStore) Clear() error {
	if err := s.db.Where("`key` IN ?", []string{KeyToken, KeyUser}).Delete(&kvEntry{}).Error; err != nil {
		return storageError(err, "clear_credentials")
	}
	return nil
}

// Path returns the database file location
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close releases the database handle
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func storageError(err error, op string) error {
	return errors.New(err).
		Category(errors.CategoryStorage).
		Context(errors.ContextOperation, op).
		Build()
}
