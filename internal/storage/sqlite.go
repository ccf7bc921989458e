package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx so repositories can run
// inside or outside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	path string
	db   *sql.DB

	*sqliteRepos
}

// NewSQLiteStorage creates a new SQLite storage.
func NewSQLiteStorage(path string) *SQLiteStorage {
	return &SQLiteStorage{path: path}
}

// Open initializes the database connection.
func (s *SQLiteStorage) Open() error {
	ctx := context.Background()

	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Set("_time_format", "sqlite")
	dsn := "file:" + s.path + "?" + q.Encode()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	// SQLite is single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return fmt.Errorf("execute PRAGMA journal_mode: %w", err)
	}

	s.db = db
	s.sqliteRepos = newRepos(db)

	return nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying database connection for health checks.
func (s *SQLiteStorage) DB() *sql.DB {
	return s.db
}

// Ping verifies the database connection.
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	if s.db == nil {
		return errors.New("database not open")
	}
	return s.db.PingContext(ctx)
}

// Migrate runs database migrations.
func (s *SQLiteStorage) Migrate() error {
	return runMigrations(context.Background(), s.db)
}

// InTx runs fn in a transaction, committing only when fn succeeds.
func (s *SQLiteStorage) InTx(ctx context.Context, fn func(Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	// Rollback after Commit is a no-op; this also covers panics in fn.
	defer tx.Rollback() //nolint:errcheck

	if err := fn(newRepos(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// sqliteRepos binds every repository to one dbtx.
type sqliteRepos struct {
	users         *sqliteUserRepo
	projects      *sqliteProjectRepo
	members       *sqliteMemberRepo
	tasks         *sqliteTaskRepo
	messages      *sqliteMessageRepo
	notifications *sqliteNotificationRepo
	settings      *sqliteSettingsRepo
	tokens        *sqliteTokenRepo
}

func newRepos(q dbtx) *sqliteRepos {
	return &sqliteRepos{
		users:         &sqliteUserRepo{db: q},
		projects:      &sqliteProjectRepo{db: q},
		members:       &sqliteMemberRepo{db: q},
		tasks:         &sqliteTaskRepo{db: q},
		messages:      &sqliteMessageRepo{db: q},
		notifications: &sqliteNotificationRepo{db: q},
		settings:      &sqliteSettingsRepo{db: q},
		tokens:        &sqliteTokenRepo{db: q},
	}
}

// Users returns the user repository.
func (r *sqliteRepos) Users() UserRepository { return r.users }

// Projects returns the project repository.
func (r *sqliteRepos) Projects() ProjectRepository { return r.projects }

// Members returns the membership repository.
func (r *sqliteRepos) Members() MemberRepository { return r.members }

// Tasks returns the task repository.
func (r *sqliteRepos) Tasks() TaskRepository { return r.tasks }

// Messages returns the message repository.
func (r *sqliteRepos) Messages() MessageRepository { return r.messages }

// Notifications returns the notification repository.
func (r *sqliteRepos) Notifications() NotificationRepository { return r.notifications }

// Settings returns the user settings repository.
func (r *sqliteRepos) Settings() SettingsRepository { return r.settings }

// Tokens returns the token repository.
func (r *sqliteRepos) Tokens() TokenRepository { return r.tokens }

// wrapErr annotates err with op and maps uniqueness violations to
// ErrDuplicate.
func wrapErr(op string, err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%s: %w", op, ErrDuplicate)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
