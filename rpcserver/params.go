package rpcserver

import "github.com/btcsuite/btcd/chaincfg"

// Network names a chain and maps it to its chaincfg.Params, defaulting to
// mainnet for an unrecognized name. NewServer does not take a Network: it
// receives the resolved *chaincfg.Params directly and keeps them for the
// lifetime of the Server.
type Network string

const (
	NetworkMainNet Network = "mainnet"
	NetworkTestNet Network = "testnet3"
	NetworkRegTest Network = "regtest"
)

func (n Network) Params() *chaincfg.Params {
	switch n {
	case NetworkTestNet:
		return &chaincfg.TestNet3Params
	case NetworkRegTest:
		return &chaincfg.RegressionNetParams
	default:
		return &chaincfg.MainNetParams
	}
}
