/*
Package ledger implements the optional append-only issuance log.

Stateless issuance is the default: the engine keeps no record of what it minted.
Deployments that need auditability point AUDIT_DATABASE_URL at a PostgreSQL
instance and every successful issuance is recorded asynchronously. The signed
token itself is never stored, only the policy-derived metadata. The write path
is a buffered channel drained by one background goroutine, so a slow or dead
database can never block the issue path; at worst records are dropped with a
warning.
*/
package ledger

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"peertoken/internal/pkg/logx"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// queueSize bounds the number of pending records before writes are dropped.
const queueSize = 256

// Entry is one issuance event. Either UID or Account is set, never both.
type Entry struct {
	Kind      string
	Channel   string
	UID       uint32
	Account   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	RemoteIP  string
}

// Ledger records issuance events. Implementations must not block the caller.
type Ledger interface {
	// Record enqueues one issuance event.
	Record(e Entry)

	// Close stops accepting records and drains pending writes.
	Close(ctx context.Context) error
}

// New returns a PostgreSQL-backed ledger, or a no-op ledger when dsn is empty.
func New(dsn string) (Ledger, error) {
	if dsn == "" {
		return nopLedger{}, nil
	}
	return newPGLedger(dsn)
}

// nopLedger is the disabled ledger. Issuance stays fully stateless.
type nopLedger struct{}

func (nopLedger) Record(Entry)                 {}
func (nopLedger) Close(context.Context) error { return nil }

// pgLedger appends issuance rows to PostgreSQL from a single writer goroutine.
type pgLedger struct {
	pool    *pgxpool.Pool
	entries chan Entry
	done    chan struct{}

	// mu guards closed so Record can never send on a closed channel, no
	// matter how Close is ordered relative to in-flight requests.
	mu     sync.Mutex
	closed bool
}

// newPGLedger opens the connection pool, applies migrations, and starts the writer.
func newPGLedger(dsn string) (*pgLedger, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse audit database DSN: %w", err)
	}

	config.MaxConns = 5
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping audit database: %w", err)
	}

	sqlDB := stdlib.OpenDB(*pool.Config().ConnConfig)
	defer sqlDB.Close()

	if err := runMigrations(sqlDB); err != nil {
		pool.Close()
		return nil, err
	}

	l := &pgLedger{
		pool:    pool,
		entries: make(chan Entry, queueSize),
		done:    make(chan struct{}),
	}

	go l.writeLoop()

	return l, nil
}

// runMigrations applies all pending migrations from the embedded file system.
func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply audit migrations: %w", err)
	}

	return nil
}

// Record enqueues the entry, dropping it if the queue is full or the ledger is
// already closed. Auditing is best-effort; issuance must never wait on the
// database.
func (l *pgLedger) Record(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		logx.Warn("issuance ledger closed, dropping record",
			"kind", e.Kind,
		)
		return
	}

	select {
	case l.entries <- e:
	default:
		logx.Warn("issuance ledger queue full, dropping record",
			"kind", e.Kind,
		)
	}
}

// writeLoop drains the queue until Close is called.
func (l *pgLedger) writeLoop() {
	defer close(l.done)

	for e := range l.entries {
		l.insert(e)
	}
}

// insert writes one row. Failures are logged and the record is lost.
func (l *pgLedger) insert(e Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := l.pool.Exec(ctx,
		`INSERT INTO issuances (kind, channel, uid, account, issued_at, expires_at, remote_ip)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.Kind, e.Channel, int64(e.UID), e.Account, e.IssuedAt, e.ExpiresAt, e.RemoteIP,
	)
	if err != nil {
		logx.Error(err, "failed to append issuance record", "kind", e.Kind)
	}
}

// Close stops the writer and waits for pending records, bounded by ctx.
// Calling Close more than once is a no-op.
func (l *pgLedger) Close(ctx context.Context) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	close(l.entries)
	l.mu.Unlock()

	var drainErr error
	select {
	case <-l.done:
	case <-ctx.Done():
		drainErr = ctx.Err()
	}

	if l.pool != nil {
		l.pool.Close()
	}
	return drainErr
}
