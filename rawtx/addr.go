package rawtx

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
)

func btcutilDecodeAddress(addr string, params *chaincfg.Params) (btcutil.Address, error) {
	a, err := btcutil.DecodeAddress(addr, params)
	if err != nil {
		return nil, fmt.Errorf("rawtx: invalid address %q: %w", addr, err)
	}
	return a, nil
}

// btcutilScriptHashAddress returns the P2SH address script would have if
// it were used as a redeem script.
func btcutilScriptHashAddress(script []byte, params *chaincfg.Params) (string, error) {
	addr, err := btcutil.NewAddressScriptHash(script, params)
	if err != nil {
		return "", err
	}
	return addr.EncodeAddress(), nil
}
