// ABOUTME: SQLite session store using GORM over the pure-Go modernc driver
// ABOUTME: Schema is applied from embedded goose migrations; sessions survive restarts

package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/eondash/eon-dashboard/models"
	"github.com/pressly/goose/v3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SessionModel is the sessions table row
type SessionModel struct {
	ID        string `gorm:"primaryKey"`
	Token     string `gorm:"not null"`
	UserID    string `gorm:"not null"`
	Username  string `gorm:"not null"`
	RoleID    string `gorm:"not null"`
	CSRFToken string `gorm:"column:csrf_token;not null"`
	CreatedAt time.Time
	ExpiresAt time.Time `gorm:"not null;index"`
}

func (SessionModel) TableName() string { return "sessions" }

// Open opens (creating if needed) the SQLite database at path.
func Open(path string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        path,
	}, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
}

// RunMigrations brings the schema up to date.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}

	goose.SetBaseFS(migrationsFS)
	if err := goose.UpContext(ctx, sqlDB, "migrations"); err != nil {
		return fmt.Errorf("applying session migrations: %w", err)
	}

	return nil
}

// SQLiteStore persists sessions in a SQLite database.
type SQLiteStore struct {
	db *gorm.DB
}

// NewSQLiteStore opens the database at path and applies migrations.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening session database: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, session *models.Session) error {
	m := SessionModel{
		ID:        session.ID,
		Token:     session.Token,
		UserID:    session.UserID,
		Username:  session.Username,
		RoleID:    session.RoleID,
		CSRFToken: session.CSRFToken,
		CreatedAt: session.CreatedAt.UTC(),
		ExpiresAt: session.ExpiresAt.UTC(),
	}
	return s.db.WithContext(ctx).Save(&m).Error
}

func (s *SQLiteStore) Load(ctx context.Context, id string) (*models.Session, error) {
	var m SessionModel
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	session := &models.Session{
		ID:        m.ID,
		Token:     m.Token,
		UserID:    m.UserID,
		Username:  m.Username,
		RoleID:    m.RoleID,
		CSRFToken: m.CSRFToken,
		CreatedAt: m.CreatedAt,
		ExpiresAt: m.ExpiresAt,
	}
	if session.Expired(time.Now()) {
		if err := s.Delete(ctx, id); err != nil {
			slog.Warn("Failed to delete expired session", "error", err)
		}
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&SessionModel{}).Error
}

// PurgeExpired removes every session that expired at or before now.
func (s *SQLiteStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", now.UTC()).Delete(&SessionModel{})
	return res.RowsAffected, res.Error
}

// RunPurger calls PurgeExpired every interval until ctx is done.
func (s *SQLiteStore) RunPurger(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := s.PurgeExpired(ctx, now)
			if err != nil {
				slog.Warn("Session purge failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Debug("Purged expired sessions", "count", n)
			}
		}
	}
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
