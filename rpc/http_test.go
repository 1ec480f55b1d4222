package rpc

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"merkledrop/native/distribution"
	statedist "merkledrop/state/distribution"
	"merkledrop/state/token"
	"merkledrop/storage"
)

var (
	testSetter  = [20]byte{0x5E}
	testAccount = [20]byte{0xA1}
	testAsset   = [20]byte{0xAA}
	programAcct = [20]byte{0x90}
)

func tokens(n int64) *big.Int {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(distribution.TokenDecimals), nil)
	return scale.Mul(scale, big.NewInt(n))
}

func addressHex(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

func hashHex(hash [32]byte) string {
	return "0x" + hex.EncodeToString(hash[:])
}

func newTestServer(t *testing.T) (*Server, *distribution.Engine) {
	t.Helper()
	db := storage.NewMemDB()
	ledger, err := statedist.NewLedger(db)
	require.NoError(t, err)
	tokenLedger, err := token.NewLedger(db, testAsset, programAcct)
	require.NoError(t, err)

	start := time.Now().Unix() + 3600
	engine, err := distribution.NewEngine(distribution.Config{
		RewardAsset:   testAsset,
		RootSetter:    testSetter,
		TotalPool:     tokens(100_000),
		CycleDuration: 30 * 24 * 60 * 60,
		StartTime:     start,
	})
	require.NoError(t, err)
	engine.SetState(ledger)
	engine.SetTokenLedger(tokenLedger)
	engine.SetNowFunc(func() int64 { return start })

	require.NoError(t, tokenLedger.Mint(programAcct, tokens(100_000)))
	return NewServer(engine), engine
}

func doRPC(t *testing.T, handler http.Handler, method string, params interface{}) RPCResponse {
	t.Helper()
	body := map[string]interface{}{
		"jsonrpc": jsonRPCVersion,
		"id":      1,
		"method":  method,
	}
	if params != nil {
		body["params"] = []interface{}{params}
	}
	encoded, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(encoded))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var resp RPCResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestSetRootAndClaimOverRPC(t *testing.T) {
	server, _ := newTestServer(t)
	handler := server.Router()

	amount := tokens(10_000)
	leaf := distribution.LeafHash(testAccount, amount)
	other := distribution.LeafHash([20]byte{0xB2}, tokens(2_000))
	leaves := [][32]byte{leaf, other}
	root := distribution.ComputeRoot(leaves)

	resp := doRPC(t, handler, "distribution_setRoot", setRootParams{
		Caller: addressHex(testSetter),
		Cycle:  0,
		Root:   hashHex(root),
	})
	require.Nil(t, resp.Error)

	proof := distribution.ComputeProof(leaves, 0)
	encodedProof := make([]string, len(proof))
	for i := range proof {
		encodedProof[i] = hashHex(proof[i])
	}
	resp = doRPC(t, handler, "distribution_claim", claimParams{
		Caller: addressHex(testAccount),
		Cycle:  0,
		Amount: amount.String(),
		Proof:  encodedProof,
	})
	require.Nil(t, resp.Error)

	resp = doRPC(t, handler, "distribution_hasClaimed", hasClaimedParams{
		Cycle:   0,
		Account: addressHex(testAccount),
	})
	require.Nil(t, resp.Error)
	result := resp.Result.(map[string]interface{})
	require.Equal(t, true, result["claimed"])

	resp = doRPC(t, handler, "distribution_poolInfo", nil)
	require.Nil(t, resp.Error)
	pool := resp.Result.(map[string]interface{})
	require.Equal(t, amount.String(), pool["totalClaimed"])
	require.Equal(t, tokens(40_000).String(), pool["remainingDistributable"])
	require.Equal(t, false, pool["finished"])
	require.Equal(t, tokens(90_000).String(), pool["contractBalance"])
}

func TestClaimRefreshesPoolGauges(t *testing.T) {
	server, _ := newTestServer(t)
	handler := server.Router()

	amount := tokens(10_000)
	leaves := [][32]byte{distribution.LeafHash(testAccount, amount)}
	root := distribution.ComputeRoot(leaves)

	resp := doRPC(t, handler, "distribution_setRoot", setRootParams{
		Caller: addressHex(testSetter),
		Cycle:  0,
		Root:   hashHex(root),
	})
	require.Nil(t, resp.Error)

	resp = doRPC(t, handler, "distribution_claim", claimParams{
		Caller: addressHex(testAccount),
		Cycle:  0,
		Amount: amount.String(),
		Proof:  []string{},
	})
	require.Nil(t, resp.Error)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	require.Contains(t, body, "distribution_claimed_tokens 10000\n")
	require.Contains(t, body, "distribution_distributable_tokens 40000\n")
}

func TestSetRootUnauthorizedCode(t *testing.T) {
	server, _ := newTestServer(t)
	handler := server.Router()

	resp := doRPC(t, handler, "distribution_setRoot", setRootParams{
		Caller: addressHex(testAccount),
		Cycle:  0,
		Root:   hashHex([32]byte{0x01}),
	})
	require.NotNil(t, resp.Error)
	require.Equal(t, codeUnauthorized, resp.Error.Code)
}

func TestClaimErrorCodes(t *testing.T) {
	server, _ := newTestServer(t)
	handler := server.Router()

	// No root published yet.
	resp := doRPC(t, handler, "distribution_claim", claimParams{
		Caller: addressHex(testAccount),
		Cycle:  0,
		Amount: tokens(1).String(),
	})
	require.NotNil(t, resp.Error)
	require.Equal(t, codeStateConflict, resp.Error.Code)

	resp = doRPC(t, handler, "distribution_claim", claimParams{
		Caller: addressHex(testAccount),
		Cycle:  0,
		Amount: "0",
	})
	require.NotNil(t, resp.Error)
	require.Equal(t, codeInvalidParams, resp.Error.Code)
}

func TestGetRootUnsetCycle(t *testing.T) {
	server, _ := newTestServer(t)
	resp := doRPC(t, server.Router(), "distribution_getRoot", cycleQueryParams{Cycle: 9})
	require.Nil(t, resp.Error)
	result := resp.Result.(map[string]interface{})
	require.Equal(t, false, result["set"])
}

func TestCycleInfoDefaultsToCurrentCycle(t *testing.T) {
	server, _ := newTestServer(t)
	resp := doRPC(t, server.Router(), "distribution_cycleInfo", nil)
	require.Nil(t, resp.Error)
	result := resp.Result.(map[string]interface{})
	require.Equal(t, float64(0), result["currentCycle"])
	require.Equal(t, "0", result["claimedTotal"])
}

func TestMethodNotFound(t *testing.T) {
	server, _ := newTestServer(t)
	resp := doRPC(t, server.Router(), "distribution_unknown", nil)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeMethodNotFound, resp.Error.Code)
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
