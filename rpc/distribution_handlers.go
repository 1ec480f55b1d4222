package rpc

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"merkledrop/native/distribution"
	"merkledrop/observability/metrics"
)

type setRootParams struct {
	Caller string `json:"caller"`
	Cycle  uint64 `json:"cycle"`
	Root   string `json:"root"`
}

type claimParams struct {
	Caller string   `json:"caller"`
	Cycle  uint64   `json:"cycle"`
	Amount string   `json:"amount"`
	Proof  []string `json:"proof"`
}

type cycleQueryParams struct {
	Cycle uint64 `json:"cycle"`
}

type hasClaimedParams struct {
	Cycle   uint64 `json:"cycle"`
	Account string `json:"account"`
}

func decodeParams(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("expected exactly one parameter object")
	}
	return json.Unmarshal(req.Params[0], out)
}

func parseAddress(value string) ([20]byte, error) {
	var addr [20]byte
	decoded, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(value), "0x"))
	if err != nil {
		return addr, fmt.Errorf("invalid address: %w", err)
	}
	if len(decoded) != len(addr) {
		return addr, fmt.Errorf("address must be %d bytes", len(addr))
	}
	copy(addr[:], decoded)
	return addr, nil
}

func parseHash(value string) ([32]byte, error) {
	var hash [32]byte
	decoded, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(value), "0x"))
	if err != nil {
		return hash, fmt.Errorf("invalid hash: %w", err)
	}
	if len(decoded) != len(hash) {
		return hash, fmt.Errorf("hash must be %d bytes", len(hash))
	}
	copy(hash[:], decoded)
	return hash, nil
}

func formatHash(hash [32]byte) string {
	return "0x" + hex.EncodeToString(hash[:])
}

// errorCode maps engine sentinel errors onto JSON-RPC error codes.
func errorCode(err error) int {
	switch {
	case errors.Is(err, distribution.ErrUnauthorized):
		return codeUnauthorized
	case errors.Is(err, distribution.ErrEmptyRoot),
		errors.Is(err, distribution.ErrZeroAmount):
		return codeInvalidParams
	case errors.Is(err, distribution.ErrRootAlreadySet),
		errors.Is(err, distribution.ErrAlreadyClaimed),
		errors.Is(err, distribution.ErrRootNotSet):
		return codeStateConflict
	case errors.Is(err, distribution.ErrCycleNotStarted),
		errors.Is(err, distribution.ErrRootWindowClosed),
		errors.Is(err, distribution.ErrClaimWindowClosed):
		return codeWindowClosed
	case errors.Is(err, distribution.ErrProgramFinished),
		errors.Is(err, distribution.ErrExceedsDistributable),
		errors.Is(err, distribution.ErrExceedsTotalPool):
		return codeAccounting
	case errors.Is(err, distribution.ErrInvalidProof):
		return codeInvalidProof
	case errors.Is(err, distribution.ErrReentrantCall):
		return codeReentrancy
	case errors.Is(err, distribution.ErrTransferFailed):
		return codeTransferFailed
	default:
		return codeServerError
	}
}

func rejectionReason(err error) string {
	for _, candidate := range []struct {
		target error
		reason string
	}{
		{distribution.ErrZeroAmount, "zero_amount"},
		{distribution.ErrAlreadyClaimed, "already_claimed"},
		{distribution.ErrRootNotSet, "root_not_set"},
		{distribution.ErrClaimWindowClosed, "window_closed"},
		{distribution.ErrProgramFinished, "program_finished"},
		{distribution.ErrExceedsDistributable, "exceeds_distributable"},
		{distribution.ErrExceedsTotalPool, "exceeds_total_pool"},
		{distribution.ErrInvalidProof, "invalid_proof"},
		{distribution.ErrReentrantCall, "reentrant_call"},
		{distribution.ErrTransferFailed, "transfer_failed"},
	} {
		if errors.Is(err, candidate.target) {
			return candidate.reason
		}
	}
	return "internal"
}

func (s *Server) handleSetRoot(w http.ResponseWriter, req *RPCRequest) {
	var params setRootParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return
	}
	root, err := parseHash(params.Root)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return
	}
	if err := s.engine.SetRoot(caller, params.Cycle, root); err != nil {
		writeError(w, http.StatusOK, req.ID, errorCode(err), err.Error())
		return
	}
	metrics.Distribution().ObserveRootPublished()
	writeResult(w, req.ID, map[string]interface{}{"cycle": params.Cycle, "root": formatHash(root)})
}

func (s *Server) handleClaim(w http.ResponseWriter, req *RPCRequest) {
	var params claimParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return
	}
	amount, ok := new(big.Int).SetString(strings.TrimSpace(params.Amount), 10)
	if !ok {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid amount")
		return
	}
	proof := make([][32]byte, 0, len(params.Proof))
	for _, encoded := range params.Proof {
		hash, err := parseHash(encoded)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
			return
		}
		proof = append(proof, hash)
	}
	if err := s.engine.Claim(caller, params.Cycle, amount, proof); err != nil {
		metrics.Distribution().ObserveClaimRejected(rejectionReason(err))
		writeError(w, http.StatusOK, req.ID, errorCode(err), err.Error())
		return
	}
	metrics.Distribution().ObserveClaimPaid()
	s.refreshPoolGauges()
	writeResult(w, req.ID, map[string]interface{}{
		"cycle":   params.Cycle,
		"account": params.Caller,
		"amount":  amount.String(),
	})
}

// refreshPoolGauges republishes the pool accounting gauges after a payout.
func (s *Server) refreshPoolGauges() {
	if claimed, err := s.engine.TotalClaimed(); err == nil {
		metrics.Distribution().SetClaimedTotal(wholeTokens(claimed))
	}
	if distributable, err := s.engine.RemainingDistributable(); err == nil {
		metrics.Distribution().SetDistributable(wholeTokens(distributable))
	}
}

// wholeTokens converts a base-unit amount to whole tokens for gauge export.
func wholeTokens(amount *big.Int) float64 {
	unit := new(big.Float).SetInt(new(big.Int).Exp(
		big.NewInt(10), big.NewInt(distribution.TokenDecimals), nil))
	value, _ := new(big.Float).Quo(new(big.Float).SetInt(amount), unit).Float64()
	return value
}

func (s *Server) handleGetRoot(w http.ResponseWriter, req *RPCRequest) {
	var params cycleQueryParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return
	}
	root, ok, err := s.engine.CycleRoot(params.Cycle)
	if err != nil {
		writeError(w, http.StatusOK, req.ID, codeServerError, err.Error())
		return
	}
	result := map[string]interface{}{"cycle": params.Cycle, "set": ok}
	if ok {
		result["root"] = formatHash(root)
	}
	writeResult(w, req.ID, result)
}

func (s *Server) handleHasClaimed(w http.ResponseWriter, req *RPCRequest) {
	var params hasClaimedParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return
	}
	account, err := parseAddress(params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return
	}
	claimed, err := s.engine.HasClaimed(params.Cycle, account)
	if err != nil {
		writeError(w, http.StatusOK, req.ID, codeServerError, err.Error())
		return
	}
	writeResult(w, req.ID, map[string]interface{}{
		"cycle":   params.Cycle,
		"account": params.Account,
		"claimed": claimed,
	})
}

func (s *Server) handleCycleInfo(w http.ResponseWriter, req *RPCRequest) {
	var params cycleQueryParams
	if len(req.Params) > 0 {
		if err := decodeParams(req, &params); err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
			return
		}
	} else {
		params.Cycle = s.engine.CurrentCycle()
	}
	total, err := s.engine.CycleTotal(params.Cycle)
	if err != nil {
		writeError(w, http.StatusOK, req.ID, codeServerError, err.Error())
		return
	}
	writeResult(w, req.ID, map[string]interface{}{
		"currentCycle": s.engine.CurrentCycle(),
		"cycle":        params.Cycle,
		"start":        s.engine.CycleStartTime(params.Cycle),
		"end":          s.engine.CycleEndTime(params.Cycle),
		"plannedEnd":   s.engine.PlannedEndTime(),
		"claimedTotal": total.String(),
	})
}

func (s *Server) handlePoolInfo(w http.ResponseWriter, req *RPCRequest) {
	remaining, err := s.engine.RemainingPool()
	if err != nil {
		writeError(w, http.StatusOK, req.ID, codeServerError, err.Error())
		return
	}
	distributable, err := s.engine.RemainingDistributable()
	if err != nil {
		writeError(w, http.StatusOK, req.ID, codeServerError, err.Error())
		return
	}
	claimed, err := s.engine.TotalClaimed()
	if err != nil {
		writeError(w, http.StatusOK, req.ID, codeServerError, err.Error())
		return
	}
	finished, err := s.engine.IsProgramFinished()
	if err != nil {
		writeError(w, http.StatusOK, req.ID, codeServerError, err.Error())
		return
	}
	balance, err := s.engine.ContractBalance()
	if err != nil {
		writeError(w, http.StatusOK, req.ID, codeServerError, err.Error())
		return
	}
	cfg := s.engine.Config()
	writeResult(w, req.ID, map[string]interface{}{
		"totalPool":              cfg.TotalPool.String(),
		"totalClaimed":           claimed.String(),
		"remainingPool":          remaining.String(),
		"remainingDistributable": distributable.String(),
		"finished":               finished,
		"contractBalance":        balance.String(),
	})
}
