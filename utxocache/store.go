package utxocache

import (
	"database/sql"
	"encoding/hex"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/TEENet-io/btc-fullnode/database"
)

// SQLiteCoinStore is the bottom, persistent layer of the cache stack
// (spec.md §6's CoinStore). It is grounded on the teacher's
// btcvault.VaultSQLiteStorage / chaintxmgrdb.SQLiteChainTxMgrDB shape:
// sql.Open + an idempotent init() + typed Insert/Query/Delete methods.
// Every query goes through a database.StmtCache since AccessCoin runs on
// every mempool admission and script verification.
type SQLiteCoinStore struct {
	db    *sql.DB
	stmts *database.StmtCache
}

// NewSQLiteCoinStore opens (creating if absent) the coin table at
// dbFilePath.
func NewSQLiteCoinStore(dbFilePath string) (*SQLiteCoinStore, error) {
	db, err := sql.Open("sqlite3", dbFilePath)
	if err != nil {
		return nil, err
	}
	store := &SQLiteCoinStore{db: db, stmts: database.NewStmtCache(db)}
	if err := store.init(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLiteCoinStore) init() error {
	query := `
	CREATE TABLE IF NOT EXISTS utxo (
		tx_id TEXT NOT NULL,
		vout INTEGER NOT NULL,
		value INTEGER NOT NULL,
		pkscript BLOB NOT NULL,
		height INTEGER NOT NULL,
		is_coinbase BOOLEAN NOT NULL,
		PRIMARY KEY (tx_id, vout)
	);
	CREATE INDEX IF NOT EXISTS idx_utxo_height ON utxo (height);
	`
	_, err := s.db.Exec(query)
	return err
}

// Close releases every prepared statement and the underlying database
// handle.
func (s *SQLiteCoinStore) Close() error {
	_ = s.stmts.Close()
	return s.db.Close()
}

// AccessCoin implements CoinViewer.
func (s *SQLiteCoinStore) AccessCoin(op OutPoint) (*Coin, bool) {
	stmt, err := s.stmts.Prepare(`SELECT value, pkscript, height, is_coinbase FROM utxo WHERE tx_id = ? AND vout = ?;`)
	if err != nil {
		return nil, false
	}
	row := stmt.QueryRow(txIDHex(op), op.Index)
	var c Coin
	var pkscriptHex string
	if err := row.Scan(&c.Value, &pkscriptHex, &c.Height, &c.IsCoinbase); err != nil {
		return nil, false
	}
	pk, err := hex.DecodeString(pkscriptHex)
	if err != nil {
		return nil, false
	}
	c.PkScript = pk
	return &c, true
}

// PutCoin implements CoinWriter.
func (s *SQLiteCoinStore) PutCoin(op OutPoint, c *Coin) error {
	stmt, err := s.stmts.Prepare(
		`INSERT INTO utxo (tx_id, vout, value, pkscript, height, is_coinbase)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(tx_id, vout) DO UPDATE SET value=excluded.value, pkscript=excluded.pkscript, height=excluded.height, is_coinbase=excluded.is_coinbase;`)
	if err != nil {
		return err
	}
	_, err = stmt.Exec(txIDHex(op), op.Index, c.Value, hex.EncodeToString(c.PkScript), c.Height, c.IsCoinbase)
	return err
}

// DeleteCoin implements CoinWriter.
func (s *SQLiteCoinStore) DeleteCoin(op OutPoint) error {
	stmt, err := s.stmts.Prepare(`DELETE FROM utxo WHERE tx_id = ? AND vout = ?;`)
	if err != nil {
		return err
	}
	_, err = stmt.Exec(txIDHex(op), op.Index)
	return err
}

// Height returns the block height a coin's creating transaction was
// mined at, or false if the coin is unknown to this store. It exists so
// rawtx.GetRaw can compute confirmations without a full tx-index.
func (s *SQLiteCoinStore) Height(txid chainhash.Hash) (int32, bool) {
	stmt, err := s.stmts.Prepare(`SELECT MIN(height) FROM utxo WHERE tx_id = ?;`)
	if err != nil {
		return 0, false
	}
	row := stmt.QueryRow(txid.String())
	var height sql.NullInt64
	if err := row.Scan(&height); err != nil || !height.Valid {
		return 0, false
	}
	return int32(height.Int64), true
}

func txIDHex(op OutPoint) string {
	return op.Hash.String()
}
