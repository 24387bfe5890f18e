// Package keystore defines the read-only key/script lookup interface the
// script engine and the signing RPC consume (spec.md §3's KeyStore), plus
// a transient in-memory implementation built per-request from
// signrawtransaction's priv_keys argument.
//
// Grounded on the teacher's WIF handling in btcman/assembler/legacy.go
// (DecodeWIF) and btc/wallet/wallet.go (NewBasicWallet).
package keystore

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/chaincfg"
)

// KeyStore is the read-only capability the core needs from a wallet or a
// transient, RPC-supplied key set. It is intentionally narrow: the core
// never mutates or enumerates a keystore, only looks things up by hash.
type KeyStore interface {
	// GetKey returns the private key controlling pubKeyHash, if known.
	GetKey(pubKeyHash []byte) (*btcec.PrivateKey, bool)
	// GetScript returns the redeem script whose HASH160 is scriptHash.
	GetScript(scriptHash []byte) ([]byte, bool)
}

// Transient is a KeyStore owned exclusively by one RPC call's stack frame,
// built from priv_keys/redeem-script hints rather than the wallet.
type Transient struct {
	keys    map[string]*btcec.PrivateKey
	scripts map[string][]byte
}

// NewTransient returns an empty transient keystore.
func NewTransient() *Transient {
	return &Transient{
		keys:    make(map[string]*btcec.PrivateKey),
		scripts: make(map[string][]byte),
	}
}

// AddWIF decodes a wallet-import-format private key string and indexes it
// by both compressed and uncompressed pubkey-hash, since the caller may
// not know which form the destination script was built with.
func (t *Transient) AddWIF(wifStr string, params *chaincfg.Params) error {
	if len(base58.Decode(wifStr)) == 0 {
		return errInvalidWIF
	}
	wif, err := btcutil.DecodeWIF(wifStr)
	if err != nil {
		return err
	}
	pub := wif.PrivKey.PubKey()
	t.keys[string(btcutil.Hash160(pub.SerializeCompressed()))] = wif.PrivKey
	t.keys[string(btcutil.Hash160(pub.SerializeUncompressed()))] = wif.PrivKey
	return nil
}

// AddKey indexes an already-parsed private key directly, for callers that
// did not receive it as a WIF string (e.g. wallet-backed key material).
func (t *Transient) AddKey(priv *btcec.PrivateKey) {
	pub := priv.PubKey()
	t.keys[string(btcutil.Hash160(pub.SerializeCompressed()))] = priv
	t.keys[string(btcutil.Hash160(pub.SerializeUncompressed()))] = priv
}

// AddScript indexes a redeem script by its HASH160, for P2SH signing.
func (t *Transient) AddScript(script []byte) {
	t.scripts[string(btcutil.Hash160(script))] = script
}

// GetKey implements KeyStore.
func (t *Transient) GetKey(pubKeyHash []byte) (*btcec.PrivateKey, bool) {
	k, ok := t.keys[string(pubKeyHash)]
	return k, ok
}

// GetScript implements KeyStore.
func (t *Transient) GetScript(scriptHash []byte) ([]byte, bool) {
	s, ok := t.scripts[string(scriptHash)]
	return s, ok
}
