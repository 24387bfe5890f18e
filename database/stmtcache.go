// Package database holds small sql.DB helpers shared by persistent
// storage layers (currently just utxocache.SQLiteCoinStore).
package database

import (
	"database/sql"
	"sync"
)

// StmtCache memoizes prepared statements by query text so a hot path
// (coin lookup on every mempool admission and script verification) pays
// the prepare cost once per query shape, not once per call.
type StmtCache struct {
	db *sql.DB
	m  sync.Map
}

func NewStmtCache(db *sql.DB) *StmtCache {
	return &StmtCache{db: db}
}

// Prepare returns the cached *sql.Stmt for query, preparing and caching
// it on first use.
func (sc *StmtCache) Prepare(query string) (*sql.Stmt, error) {
	if cached, ok := sc.m.Load(query); ok {
		return cached.(*sql.Stmt), nil
	}
	stmt, err := sc.db.Prepare(query)
	if err != nil {
		return nil, err
	}
	actual, loaded := sc.m.LoadOrStore(query, stmt)
	if loaded {
		_ = stmt.Close()
	}
	return actual.(*sql.Stmt), nil
}

// Close releases every statement this cache has prepared.
func (sc *StmtCache) Close() error {
	var firstErr error
	sc.m.Range(func(k, v interface{}) bool {
		if err := v.(*sql.Stmt).Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		sc.m.Delete(k)
		return true
	})
	return firstErr
}
