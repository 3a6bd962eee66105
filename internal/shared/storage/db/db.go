package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as database/sql driver

	"jobtracker/internal/shared/apperr"
)

const opAcquire = "AcquireConnection"

// Options controls database pool and connectivity behavior.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
	// ConnectTimeout bounds a whole connection attempt, including the OnConnect hook.
	ConnectTimeout time.Duration
	// OpTimeout bounds a single repository statement.
	OpTimeout time.Duration
}

var openDB = sql.Open

// DefaultServerOptions returns defaults for long-running server processes.
func DefaultServerOptions() Options {
	return Options{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxIdleTime: 2 * time.Minute,
		ConnMaxLifetime: time.Hour,
		PingTimeout:     5 * time.Second,
		ConnectTimeout:  30 * time.Second,
		OpTimeout:       5 * time.Second,
	}
}

// DefaultMigrateOptions returns defaults for short-lived CLI migrations.
func DefaultMigrateOptions() Options {
	return Options{
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxIdleTime: 2 * time.Minute,
		ConnMaxLifetime: time.Hour,
		PingTimeout:     5 * time.Second,
		ConnectTimeout:  time.Minute,
		OpTimeout:       time.Minute,
	}
}

// OptionsFromEnv overrides defaults with DB_* env vars if present.
func OptionsFromEnv(defaults Options) Options {
	opts := defaults
	if v, ok := readEnvInt("DB_MAX_OPEN_CONNS"); ok {
		opts.MaxOpenConns = v
	}
	if v, ok := readEnvInt("DB_MAX_IDLE_CONNS"); ok {
		opts.MaxIdleConns = v
	}
	if v, ok := readEnvDuration("DB_CONN_MAX_LIFETIME"); ok {
		opts.ConnMaxLifetime = v
	}
	if v, ok := readEnvDuration("DB_CONN_MAX_IDLE_TIME"); ok {
		opts.ConnMaxIdleTime = v
	}
	if v, ok := readEnvDuration("DB_PING_TIMEOUT"); ok {
		opts.PingTimeout = v
	}
	if v, ok := readEnvDuration("DB_CONNECT_TIMEOUT"); ok {
		opts.ConnectTimeout = v
	}
	if v, ok := readEnvDuration("DB_OP_TIMEOUT"); ok {
		opts.OpTimeout = v
	}
	return opts
}

// Connect opens a *sql.DB using the provided DATABASE_URL and verifies connectivity.
// The returned *sql.DB should be shared and re-used by callers.
func Connect(ctx context.Context, databaseURL string, opts Options) (*sql.DB, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, apperr.Configuration(apperr.LayerStorage, opAcquire, "DATABASE_URL is empty")
	}

	db, err := openDB("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	applyOptions(db, opts)

	pingTimeout := opts.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logPoolStats(db, "db init")
	return db, nil
}

// Cache owns the process-wide connection handle. The first Acquire starts a connection
// attempt; callers arriving while it is in flight wait for the same attempt. A successful
// handle is reused for the life of the cache, a failed attempt is forgotten so the next
// Acquire starts over.
type Cache struct {
	url  string
	opts Options
	// OnConnect runs once per successful attempt before the handle is published.
	OnConnect func(ctx context.Context, db *sql.DB) error

	mu       sync.Mutex
	db       *sql.DB
	inFlight *attempt
	// closes counts Close calls. An attempt started before a Close never publishes its handle.
	closes uint64
}

type attempt struct {
	done  chan struct{}
	db    *sql.DB
	err   error
	epoch uint64
}

// NewCache constructs a Cache for databaseURL. No connection is made until Acquire.
func NewCache(databaseURL string, opts Options) *Cache {
	return &Cache{url: strings.TrimSpace(databaseURL), opts: opts}
}

// CacheOf wraps a handle opened elsewhere. Acquire returns it until Close.
func CacheOf(db *sql.DB, opts Options) *Cache {
	return &Cache{opts: opts, db: db}
}

// Acquire returns the cached handle, connecting if needed.
func (c *Cache) Acquire(ctx context.Context) (*sql.DB, error) {
	c.mu.Lock()
	if c.db != nil {
		db := c.db
		c.mu.Unlock()
		return db, nil
	}
	if c.url == "" {
		c.mu.Unlock()
		return nil, apperr.Configuration(apperr.LayerStorage, opAcquire, "DATABASE_URL is not set")
	}
	if a := c.inFlight; a != nil {
		c.mu.Unlock()
		return waitAttempt(ctx, a)
	}
	a := &attempt{done: make(chan struct{}), epoch: c.closes}
	c.inFlight = a
	c.mu.Unlock()

	// The attempt is shared, so it must not die with the first caller's request.
	dialCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.connectTimeout())
	a.db, a.err = c.dial(dialCtx)
	cancel()

	c.mu.Lock()
	var orphan *sql.DB
	if a.err == nil && a.epoch != c.closes {
		orphan, a.db = a.db, nil
		a.err = apperr.New(apperr.KindTransport, apperr.LayerStorage, opAcquire, "connection cache closed while connecting")
	}
	if a.err == nil {
		c.db = a.db
	}
	if c.inFlight == a {
		c.inFlight = nil
	}
	c.mu.Unlock()
	close(a.done)
	if orphan != nil {
		orphan.Close()
	}

	if a.err != nil {
		log.Printf("db cache connect failed: %v", a.err)
		return nil, a.err
	}
	log.Printf("db cache cold-start init")
	return a.db, nil
}

// OpContext derives a context bounded by the per-statement timeout.
func (c *Cache) OpContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.opts.OpTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.opts.OpTimeout)
}

// Connected reports whether a handle is cached.
func (c *Cache) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db != nil
}

// Stats returns pool statistics of the cached handle, or zero stats when not connected.
func (c *Cache) Stats() sql.DBStats {
	c.mu.Lock()
	db := c.db
	c.mu.Unlock()
	if db == nil {
		return sql.DBStats{}
	}
	return db.Stats()
}

// Close closes the cached handle and abandons any attempt in flight; that attempt closes its
// own handle when it finishes. A later Acquire reconnects.
func (c *Cache) Close() error {
	c.mu.Lock()
	db := c.db
	c.db = nil
	c.inFlight = nil
	c.closes++
	c.mu.Unlock()
	if db == nil {
		return nil
	}
	logPoolStats(db, "db close")
	return db.Close()
}

func (c *Cache) dial(ctx context.Context) (*sql.DB, error) {
	db, err := Connect(ctx, c.url, c.opts)
	if err != nil {
		return nil, err
	}
	if c.OnConnect != nil {
		if err := c.OnConnect(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("on connect: %w", err)
		}
	}
	return db, nil
}

func (c *Cache) connectTimeout() time.Duration {
	if c.opts.ConnectTimeout > 0 {
		return c.opts.ConnectTimeout
	}
	return 30 * time.Second
}

func waitAttempt(ctx context.Context, a *attempt) (*sql.DB, error) {
	select {
	case <-a.done:
		return a.db, a.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func applyOptions(db *sql.DB, opts Options) {
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = 10
	}
	if opts.MaxIdleConns <= 0 {
		opts.MaxIdleConns = 5
	}
	if opts.ConnMaxLifetime <= 0 {
		opts.ConnMaxLifetime = time.Hour
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	if opts.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}
}

func logPoolStats(db *sql.DB, label string) {
	stats := db.Stats()
	log.Printf("%s: open=%d in_use=%d idle=%d wait=%d max_open=%d",
		label,
		stats.OpenConnections,
		stats.InUse,
		stats.Idle,
		stats.WaitCount,
		stats.MaxOpenConnections,
	)
}

func readEnvInt(key string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("db env %s invalid int: %v", key, err)
		return 0, false
	}
	return val, true
}

func readEnvDuration(key string) (time.Duration, bool) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("db env %s invalid duration: %v", key, err)
		return 0, false
	}
	return val, true
}
