package rpcserver

import (
	"encoding/hex"
	"net/http"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/gin-gonic/gin"

	"github.com/TEENet-io/btc-fullnode/rawtx"
	"github.com/TEENet-io/btc-fullnode/scriptengine"
	"github.com/TEENet-io/btc-fullnode/wireformat"
)

// --- createrawtransaction ---

type createRawTxInput struct {
	Txid     string  `json:"txid" binding:"required"`
	Vout     uint32  `json:"vout"`
	Sequence *uint32 `json:"sequence"`
}

type createRawTxOutput struct {
	Address string `json:"address"`
	Amount  int64  `json:"amount"`
	Data    string `json:"data"`
}

type createRawTxRequest struct {
	Inputs   []createRawTxInput  `json:"inputs" binding:"required"`
	Outputs  []createRawTxOutput `json:"outputs" binding:"required"`
	Locktime uint32              `json:"locktime"`
}

func (s *Server) handleCreateRawTransaction(c *gin.Context) {
	var req createRawTxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, newRPCError(CodeInvalidParameter, "%v", err))
		return
	}

	inputs := make([]rawtx.Input, len(req.Inputs))
	for i, in := range req.Inputs {
		inputs[i] = rawtx.Input{Txid: in.Txid, Vout: in.Vout, Sequence: in.Sequence}
	}

	outputs := make([]rawtx.Output, len(req.Outputs))
	for i, out := range req.Outputs {
		var data []byte
		if out.Data != "" {
			decoded, err := hex.DecodeString(out.Data)
			if err != nil {
				writeError(c, newRPCError(CodeInvalidParameter, "invalid data hex: %v", err))
				return
			}
			data = decoded
		}
		outputs[i] = rawtx.Output{Address: out.Address, Amount: out.Amount, Data: data}
	}

	tx, err := rawtx.Create(inputs, outputs, req.Locktime, s.Params)
	if err != nil {
		writeError(c, asRPCError(err))
		return
	}

	txHex, err := wireformat.EncodeHex(tx)
	if err != nil {
		writeError(c, asRPCError(err))
		return
	}
	writeResult(c, txHex)
}

// --- decoderawtransaction ---

type hexRequest struct {
	Hex string `json:"hex" binding:"required"`
}

func (s *Server) handleDecodeRawTransaction(c *gin.Context) {
	var req hexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, newRPCError(CodeInvalidParameter, "%v", err))
		return
	}
	decoded, err := rawtx.DecodeVerbose(req.Hex, s.Params)
	if err != nil {
		writeError(c, asRPCError(err))
		return
	}
	writeResult(c, decoded)
}

// --- decodescript ---

func (s *Server) handleDecodeScript(c *gin.Context) {
	var req hexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, newRPCError(CodeInvalidParameter, "%v", err))
		return
	}
	script, err := hex.DecodeString(req.Hex)
	if err != nil {
		writeError(c, newRPCError(CodeDeserializationError, "invalid script hex: %v", err))
		return
	}
	writeResult(c, rawtx.DecodeScript(script, s.Params))
}

// --- signrawtransaction ---

type prevTxHintRequest struct {
	Txid         string `json:"txid" binding:"required"`
	Vout         uint32 `json:"vout"`
	ScriptPubKey string `json:"scriptPubKey" binding:"required"`
	Amount       int64  `json:"amount"`
}

type signRawTxRequest struct {
	Hex         string              `json:"hex" binding:"required"`
	PrevTxs     []prevTxHintRequest `json:"prevtxs"`
	PrivKeys    []string            `json:"privkeys"`
	SigHashType string              `json:"sighashtype"`
}

func (s *Server) handleSignRawTransaction(c *gin.Context) {
	var req signRawTxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, newRPCError(CodeInvalidParameter, "%v", err))
		return
	}

	hints := make([]rawtx.PrevTxHint, len(req.PrevTxs))
	for i, p := range req.PrevTxs {
		pkScript, err := hex.DecodeString(p.ScriptPubKey)
		if err != nil {
			writeError(c, newRPCError(CodeInvalidParameter, "invalid scriptPubKey hex: %v", err))
			return
		}
		hints[i] = rawtx.PrevTxHint{Txid: p.Txid, Vout: p.Vout, ScriptPubKey: pkScript, Amount: p.Amount}
	}

	ks, rerr := keystoreFromWIFs(req.PrivKeys, s.Params)
	if rerr != nil {
		writeError(c, rerr)
		return
	}

	hashType, rerr := parseSigHashType(req.SigHashType)
	if rerr != nil {
		writeError(c, rerr)
		return
	}

	result, err := rawtx.Sign(req.Hex, hints, ks, hashType, s.view())
	if err != nil {
		writeError(c, asRPCError(err))
		return
	}
	writeResult(c, result)
}

func parseSigHashType(s string) (scriptengine.SigHashType, *RPCError) {
	switch s {
	case "", "ALL":
		return scriptengine.SigHashAll, nil
	case "NONE":
		return scriptengine.SigHashNone, nil
	case "SINGLE":
		return scriptengine.SigHashSingle, nil
	case "ALL|ANYONECANPAY":
		return scriptengine.SigHashAll | scriptengine.SigHashAnyOneCanPay, nil
	case "NONE|ANYONECANPAY":
		return scriptengine.SigHashNone | scriptengine.SigHashAnyOneCanPay, nil
	case "SINGLE|ANYONECANPAY":
		return scriptengine.SigHashSingle | scriptengine.SigHashAnyOneCanPay, nil
	default:
		return 0, newRPCError(CodeInvalidParameter, "unrecognized sighashtype %q", s)
	}
}

// --- sendrawtransaction ---

type sendRawTxRequest struct {
	Hex           string `json:"hex" binding:"required"`
	AllowHighFees bool   `json:"allowhighfees"`
}

func (s *Server) handleSendRawTransaction(c *gin.Context) {
	var req sendRawTxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, newRPCError(CodeInvalidParameter, "%v", err))
		return
	}

	txid, reject, err := rawtx.Send(req.Hex, req.AllowHighFees, s.Mempool, s.view(), s.Network, s.ChainStore.ActiveHeight())
	if err != nil {
		writeError(c, asRPCError(err))
		return
	}
	if reject != nil {
		s.Log.WithFields(map[string]interface{}{"txid": txid.String(), "reason": reject.Reason}).Warn("transaction rejected")
		writeError(c, rejectToRPCError(reject))
		return
	}
	writeResult(c, txid.String())
}

// --- gettxoutproof ---

type getTxOutProofRequest struct {
	TxIDs     []string `json:"txids" binding:"required"`
	BlockHash string   `json:"blockhash"`
}

func (s *Server) handleGetTxOutProof(c *gin.Context) {
	var req getTxOutProofRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, newRPCError(CodeInvalidParameter, "%v", err))
		return
	}

	txids := make([]chainhash.Hash, len(req.TxIDs))
	for i, t := range req.TxIDs {
		h, rerr := parseHash(t)
		if rerr != nil {
			writeError(c, rerr)
			return
		}
		txids[i] = h
	}

	var blockHash *chainhash.Hash
	if req.BlockHash != "" {
		h, rerr := parseHash(req.BlockHash)
		if rerr != nil {
			writeError(c, rerr)
			return
		}
		blockHash = &h
	}

	proof, err := rawtx.GetProof(txids, blockHash, s.view(), s.ChainStore)
	if err != nil {
		writeError(c, asRPCError(err))
		return
	}
	writeResult(c, proof)
}

// --- verifytxoutproof ---

type proofRequest struct {
	Proof string `json:"proof" binding:"required"`
}

func (s *Server) handleVerifyTxOutProof(c *gin.Context) {
	var req proofRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, newRPCError(CodeInvalidParameter, "%v", err))
		return
	}
	matched, err := rawtx.VerifyProof(req.Proof)
	if err != nil {
		writeError(c, asRPCError(err))
		return
	}
	writeResult(c, matched)
}

// --- getrawtransaction ---

type getRawTxRequest struct {
	Txid    string `json:"txid" binding:"required"`
	Verbose bool   `json:"verbose"`
}

func (s *Server) handleGetRawTransaction(c *gin.Context) {
	var req getRawTxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, newRPCError(CodeInvalidParameter, "%v", err))
		return
	}
	txid, rerr := parseHash(req.Txid)
	if rerr != nil {
		writeError(c, rerr)
		return
	}

	if !req.Verbose {
		result, err := rawtx.GetRaw(txid, s.Mempool, s.Store, s.ChainStore)
		if err != nil {
			writeError(c, asRPCError(err))
			return
		}
		writeResult(c, result.Hex)
		return
	}

	verbose, err := rawtx.GetRawVerbose(txid, s.Mempool, s.Store, s.ChainStore, s.Params)
	if err != nil {
		writeError(c, asRPCError(err))
		return
	}
	writeResult(c, verbose)
}

// health is not an RPC method but a plain liveness probe, grounded in the
// teacher's own /hello example route.
func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
