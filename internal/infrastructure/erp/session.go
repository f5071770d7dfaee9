package erp

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "github.com/microsoft/go-mssqldb"
	"go.uber.org/zap"
)

const driverName = "sqlserver"

type sqlOpenFunc func(driverName, dsn string) (*sql.DB, error)

// Session hands out a live *sql.DB for the ERP company database. The handle
// is opened lazily and discarded when a ping fails, so the next call
// reconnects.
type Session struct {
	dsn         string
	openDB      sqlOpenFunc
	pingTimeout time.Duration
	logger      *zap.Logger

	mu     sync.Mutex
	db     *sql.DB
	closed bool
}

// SessionOption configures a Session
type SessionOption func(*Session)

// WithPingTimeout bounds the liveness check done before each use
func WithPingTimeout(d time.Duration) SessionOption {
	return func(s *Session) {
		s.pingTimeout = d
	}
}

// WithSessionLogger sets the logger for the session
func WithSessionLogger(logger *zap.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// NewSession creates a session for the sqlserver DSN. No connection is made
// until the first call to DB.
func NewSession(dsn string, opts ...SessionOption) *Session {
	s := &Session{
		dsn:         dsn,
		openDB:      sql.Open,
		pingTimeout: 15 * time.Second,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB returns a handle that answered a ping
func (s *Session) DB(ctx context.Context) (*sql.DB, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	db := s.db
	if db == nil {
		var err error
		db, err = s.openDB(driverName, s.dsn)
		if err != nil {
			s.mu.Unlock()
			return nil, &ConnectionError{Op: "open", Err: err}
		}
		s.db = db
	}
	s.mu.Unlock()

	pingCtx, cancel := context.WithTimeout(ctx, s.pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		s.discard(db)
		s.logger.Warn("ERP ping failed, connection discarded", zap.Error(err))
		return nil, &ConnectionError{Op: "ping", Err: err}
	}
	return db, nil
}

// discard drops db if it is still the current handle
func (s *Session) discard(db *sql.DB) {
	s.mu.Lock()
	if s.db == db {
		s.db = nil
	}
	s.mu.Unlock()
	_ = db.Close()
}

// Close releases the current handle; later calls to DB fail
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
