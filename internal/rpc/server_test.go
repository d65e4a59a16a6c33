package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hola-official/ReverseDutchAuctionSwap/internal/core/assets"
	"github.com/hola-official/ReverseDutchAuctionSwap/internal/core/auction"
	"github.com/hola-official/ReverseDutchAuctionSwap/internal/events"
	"github.com/hola-official/ReverseDutchAuctionSwap/internal/storage/eventlog"
)

// testEnv wires the Services singleton against two in-memory token
// ledgers, an in-memory event log and a bus, with a clock the test
// controls.
type testEnv struct {
	ledger *auction.Ledger
	log    *eventlog.Log
	bus    *events.Bus
	now    time.Time
}

func setupTestServices(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	sellToken := assets.NewTokenLedger("SOLD")
	buyToken := assets.NewTokenLedger("PAID")
	sellToken.Mint("alice", 1_000)
	buyToken.Mint("bob", 10_000)
	sellToken.Approve("alice", auction.EscrowAccount, 1_000)
	buyToken.Approve("bob", auction.EscrowAccount, 10_000)

	registry := assets.MapRegistry{
		"SOLD": sellToken.Binding(auction.EscrowAccount),
		"PAID": buyToken.Binding(auction.EscrowAccount),
	}

	env.bus = events.NewBus()
	env.ledger = auction.NewLedger(registry,
		auction.WithClock(func() time.Time { return env.now }),
		auction.WithPublisher(env.bus),
	)

	cfg := eventlog.DefaultConfig()
	cfg.Backend = "memory"
	cfg.Compressor = "none"
	l, err := eventlog.Open(cfg)
	require.NoError(t, err)
	env.log = l

	oldServices := Services
	Services = &ServiceContainer{
		Ledger:   env.ledger,
		EventLog: env.log,
		Started:  env.now,
	}
	t.Cleanup(func() {
		Services = oldServices
		env.bus.Close()
		l.Close()
	})

	return env
}

func guestContext() *RpcContext {
	return &RpcContext{
		Context:    context.Background(),
		Role:       RoleGuest,
		ApiVersion: ApiVersion1,
	}
}

func createParamsJSON(t *testing.T) json.RawMessage {
	t.Helper()
	params, err := json.Marshal(map[string]interface{}{
		"seller":        "alice",
		"sell_asset":    "SOLD",
		"buy_asset":     "PAID",
		"sell_amount":   100,
		"start_price":   3600,
		"duration":      3600,
		"decrease_rate": 1,
	})
	require.NoError(t, err)
	return params
}

func resultMap(t *testing.T, result interface{}) map[string]interface{} {
	t.Helper()
	data, err := json.Marshal(result)
	require.NoError(t, err)
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestAuctionCreateMethod(t *testing.T) {
	setupTestServices(t)

	method := &AuctionCreateMethod{}

	result, rpcErr := method.Handle(guestContext(), createParamsJSON(t))
	require.Nil(t, rpcErr)
	assert.Equal(t, float64(0), resultMap(t, result)["auction_id"])

	// Sequential ids
	result, rpcErr = method.Handle(guestContext(), createParamsJSON(t))
	require.Nil(t, rpcErr)
	assert.Equal(t, float64(1), resultMap(t, result)["auction_id"])
}

func TestAuctionCreateMethodValidation(t *testing.T) {
	setupTestServices(t)

	method := &AuctionCreateMethod{}

	t.Run("missing seller", func(t *testing.T) {
		_, rpcErr := method.Handle(guestContext(), json.RawMessage(`{"sell_asset":"SOLD"}`))
		require.NotNil(t, rpcErr)
		assert.Equal(t, RpcINVALID_PARAMS, rpcErr.Code)
	})

	t.Run("zero amount", func(t *testing.T) {
		_, rpcErr := method.Handle(guestContext(), json.RawMessage(
			`{"seller":"alice","sell_asset":"SOLD","buy_asset":"PAID","sell_amount":0,"start_price":10,"duration":60,"decrease_rate":1}`))
		require.NotNil(t, rpcErr)
		assert.Equal(t, RpcINVALID_PARAMS, rpcErr.Code)
		assert.Equal(t, "invalidParams", rpcErr.ErrorString)
	})

	t.Run("underfunded seller", func(t *testing.T) {
		_, rpcErr := method.Handle(guestContext(), json.RawMessage(
			`{"seller":"alice","sell_asset":"SOLD","buy_asset":"PAID","sell_amount":5000,"start_price":10,"duration":60,"decrease_rate":1}`))
		require.NotNil(t, rpcErr)
		assert.Equal(t, RpcINSUFFICIENT_BALANCE, rpcErr.Code)
		assert.Equal(t, "insufficientBalance", rpcErr.ErrorString)
	})
}

func TestAuctionPriceMethod(t *testing.T) {
	env := setupTestServices(t)

	_, rpcErr := (&AuctionCreateMethod{}).Handle(guestContext(), createParamsJSON(t))
	require.Nil(t, rpcErr)

	method := &AuctionPriceMethod{}

	result, rpcErr := method.Handle(guestContext(), json.RawMessage(`{"auction_id":0}`))
	require.Nil(t, rpcErr)
	assert.Equal(t, float64(3600), resultMap(t, result)["price"])

	env.now = env.now.Add(1800 * time.Second)
	result, rpcErr = method.Handle(guestContext(), json.RawMessage(`{"auction_id":0}`))
	require.Nil(t, rpcErr)
	assert.Equal(t, float64(1800), resultMap(t, result)["price"])

	t.Run("missing auction_id", func(t *testing.T) {
		_, rpcErr := method.Handle(guestContext(), json.RawMessage(`{}`))
		require.NotNil(t, rpcErr)
		assert.Equal(t, RpcINVALID_PARAMS, rpcErr.Code)
	})

	t.Run("unknown auction", func(t *testing.T) {
		_, rpcErr := method.Handle(guestContext(), json.RawMessage(`{"auction_id":42}`))
		require.NotNil(t, rpcErr)
		assert.Equal(t, RpcAUCTION_NOT_FOUND, rpcErr.Code)
		assert.Equal(t, "auctionNotFound", rpcErr.ErrorString)
	})
}

func TestAuctionExecuteMethod(t *testing.T) {
	env := setupTestServices(t)

	_, rpcErr := (&AuctionCreateMethod{}).Handle(guestContext(), createParamsJSON(t))
	require.Nil(t, rpcErr)

	env.now = env.now.Add(1800 * time.Second)

	method := &AuctionExecuteMethod{}
	result, rpcErr := method.Handle(guestContext(), json.RawMessage(`{"auction_id":0,"buyer":"bob"}`))
	require.Nil(t, rpcErr)

	m := resultMap(t, result)
	assert.Equal(t, "bob", m["buyer"])
	assert.Equal(t, float64(1800), m["final_price"])
	assert.Equal(t, "executed", m["outcome"])

	t.Run("already settled", func(t *testing.T) {
		_, rpcErr := method.Handle(guestContext(), json.RawMessage(`{"auction_id":0,"buyer":"bob"}`))
		require.NotNil(t, rpcErr)
		assert.Equal(t, RpcAUCTION_NOT_ACTIVE, rpcErr.Code)
	})
}

func TestAuctionExecuteMethodRejectsSeller(t *testing.T) {
	setupTestServices(t)

	_, rpcErr := (&AuctionCreateMethod{}).Handle(guestContext(), createParamsJSON(t))
	require.Nil(t, rpcErr)

	_, rpcErr = (&AuctionExecuteMethod{}).Handle(guestContext(), json.RawMessage(`{"auction_id":0,"buyer":"alice"}`))
	require.NotNil(t, rpcErr)
	assert.Equal(t, RpcSELLER_CANNOT_BUY, rpcErr.Code)
	assert.Equal(t, "sellerCannotBuy", rpcErr.ErrorString)
}

func TestAuctionCancelMethod(t *testing.T) {
	setupTestServices(t)

	_, rpcErr := (&AuctionCreateMethod{}).Handle(guestContext(), createParamsJSON(t))
	require.Nil(t, rpcErr)

	method := &AuctionCancelMethod{}

	t.Run("non-seller rejected", func(t *testing.T) {
		_, rpcErr := method.Handle(guestContext(), json.RawMessage(`{"auction_id":0,"seller":"mallory"}`))
		require.NotNil(t, rpcErr)
		assert.Equal(t, RpcONLY_SELLER_CAN_CANCEL, rpcErr.Code)
	})

	result, rpcErr := method.Handle(guestContext(), json.RawMessage(`{"auction_id":0,"seller":"alice"}`))
	require.Nil(t, rpcErr)
	assert.Equal(t, "cancelled", resultMap(t, result)["outcome"])
}

func TestAuctionInfoMethod(t *testing.T) {
	setupTestServices(t)

	_, rpcErr := (&AuctionCreateMethod{}).Handle(guestContext(), createParamsJSON(t))
	require.Nil(t, rpcErr)

	result, rpcErr := (&AuctionInfoMethod{}).Handle(guestContext(), json.RawMessage(`{"auction_id":0}`))
	require.Nil(t, rpcErr)

	m := resultMap(t, result)
	assert.Equal(t, float64(3600), m["current_price"])

	record := m["auction"].(map[string]interface{})
	assert.Equal(t, "alice", record["seller"])
	assert.Equal(t, "SOLD", record["sell_asset"])
	assert.Equal(t, float64(100), record["sell_amount"])
	assert.Equal(t, true, record["active"])
	assert.Equal(t, "pending", record["outcome"])
}

func TestAuctionListMethodLedgerFallback(t *testing.T) {
	setupTestServices(t)

	create := &AuctionCreateMethod{}
	for i := 0; i < 3; i++ {
		_, rpcErr := create.Handle(guestContext(), createParamsJSON(t))
		require.Nil(t, rpcErr)
	}
	_, rpcErr := (&AuctionCancelMethod{}).Handle(guestContext(), json.RawMessage(`{"auction_id":1,"seller":"alice"}`))
	require.Nil(t, rpcErr)

	method := &AuctionListMethod{}

	t.Run("all newest first", func(t *testing.T) {
		result, rpcErr := method.Handle(guestContext(), json.RawMessage(`{}`))
		require.Nil(t, rpcErr)

		m := resultMap(t, result)
		assert.Equal(t, "ledger", m["source"])
		assert.Equal(t, float64(3), m["total"])

		auctions := m["auctions"].([]interface{})
		require.Len(t, auctions, 3)
		assert.Equal(t, float64(2), auctions[0].(map[string]interface{})["auction_id"])
	})

	t.Run("filter by outcome", func(t *testing.T) {
		result, rpcErr := method.Handle(guestContext(), json.RawMessage(`{"outcome":"cancelled"}`))
		require.Nil(t, rpcErr)

		auctions := resultMap(t, result)["auctions"].([]interface{})
		require.Len(t, auctions, 1)
		assert.Equal(t, float64(1), auctions[0].(map[string]interface{})["auction_id"])
	})

	t.Run("limit", func(t *testing.T) {
		result, rpcErr := method.Handle(guestContext(), json.RawMessage(`{"limit":2}`))
		require.Nil(t, rpcErr)
		assert.Len(t, resultMap(t, result)["auctions"].([]interface{}), 2)
	})
}

func TestAuctionHistoryMethod(t *testing.T) {
	env := setupTestServices(t)

	created := events.NewAuctionCreatedEvent(0, "alice", "SOLD", "PAID", 100, 3600, env.now, 3600*time.Second, 1)
	payload, err := json.Marshal(created)
	require.NoError(t, err)
	_, err = env.log.Append(events.TypeAuctionCreated, 0, payload)
	require.NoError(t, err)

	cancelled := events.NewAuctionCancelledEvent(0, env.now)
	payload, err = json.Marshal(cancelled)
	require.NoError(t, err)
	_, err = env.log.Append(events.TypeAuctionCancelled, 0, payload)
	require.NoError(t, err)

	result, rpcErr := (&AuctionHistoryMethod{}).Handle(guestContext(), json.RawMessage(`{"auction_id":0}`))
	require.Nil(t, rpcErr)

	evts := resultMap(t, result)["events"].([]interface{})
	require.Len(t, evts, 2)
	assert.Equal(t, events.TypeAuctionCreated, evts[0].(map[string]interface{})["kind"])
	assert.Equal(t, events.TypeAuctionCancelled, evts[1].(map[string]interface{})["kind"])
}

func TestServerInfoMethod(t *testing.T) {
	setupTestServices(t)

	result, rpcErr := (&ServerInfoMethod{}).Handle(guestContext(), nil)
	require.Nil(t, rpcErr)

	m := resultMap(t, result)
	require.Contains(t, m, "info")
	info := m["info"].(map[string]interface{})
	assert.Equal(t, buildVersion, info["build_version"])
	assert.Equal(t, "full", info["server_state"])
	assert.Contains(t, info, "auctions")
	assert.Contains(t, info, "event_log")
}

func TestPingMethod(t *testing.T) {
	result, rpcErr := (&PingMethod{}).Handle(guestContext(), nil)
	require.Nil(t, rpcErr)
	assert.Equal(t, map[string]interface{}{}, result)
}

// postRPC issues a JSON-RPC POST and decodes the result object.
func postRPC(t *testing.T, url, method string, params interface{}) map[string]interface{} {
	t.Helper()

	request := map[string]interface{}{"method": method}
	if params != nil {
		request["params"] = []interface{}{params}
	}
	body, err := json.Marshal(request)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	require.Contains(t, decoded, "result")
	return decoded["result"].(map[string]interface{})
}

func TestServerLifecycleOverHTTP(t *testing.T) {
	env := setupTestServices(t)

	ts := httptest.NewServer(NewServer(30 * time.Second))
	defer ts.Close()

	// create
	result := postRPC(t, ts.URL, "auction_create", map[string]interface{}{
		"seller":        "alice",
		"sell_asset":    "SOLD",
		"buy_asset":     "PAID",
		"sell_amount":   100,
		"start_price":   3600,
		"duration":      3600,
		"decrease_rate": 1,
	})
	require.Equal(t, "success", result["status"])
	assert.Equal(t, float64(0), result["auction_id"])

	// price after decay
	env.now = env.now.Add(600 * time.Second)
	result = postRPC(t, ts.URL, "auction_price", map[string]interface{}{"auction_id": 0})
	require.Equal(t, "success", result["status"])
	assert.Equal(t, float64(3000), result["price"])

	// execute
	result = postRPC(t, ts.URL, "auction_execute", map[string]interface{}{"auction_id": 0, "buyer": "bob"})
	require.Equal(t, "success", result["status"])
	assert.Equal(t, float64(3000), result["final_price"])

	// terminal record stays queryable
	result = postRPC(t, ts.URL, "auction_info", map[string]interface{}{"auction_id": 0})
	require.Equal(t, "success", result["status"])
	record := result["auction"].(map[string]interface{})
	assert.Equal(t, false, record["active"])
	assert.Equal(t, "executed", record["outcome"])
	assert.Equal(t, "bob", record["buyer"])
}

func TestServerErrorResponsesOverHTTP(t *testing.T) {
	setupTestServices(t)

	ts := httptest.NewServer(NewServer(30 * time.Second))
	defer ts.Close()

	t.Run("unknown method", func(t *testing.T) {
		result := postRPC(t, ts.URL, "no_such_method", nil)
		assert.Equal(t, "error", result["status"])
		assert.Equal(t, "unknownCmd", result["error"])
	})

	t.Run("domain error carries code and request echo", func(t *testing.T) {
		result := postRPC(t, ts.URL, "auction_execute", map[string]interface{}{"auction_id": 7, "buyer": "bob"})
		assert.Equal(t, "error", result["status"])
		assert.Equal(t, "auctionNotFound", result["error"])
		assert.Equal(t, float64(RpcAUCTION_NOT_FOUND), result["error_code"])

		request := result["request"].(map[string]interface{})
		assert.Equal(t, "auction_execute", request["command"])
	})

	t.Run("subscribe rejected over HTTP", func(t *testing.T) {
		result := postRPC(t, ts.URL, "subscribe", map[string]interface{}{"streams": []string{"auctions"}})
		assert.Equal(t, "error", result["status"])
		assert.Equal(t, "notSupported", result["error"])
	})
}

func TestServerGetDefaultsToServerInfo(t *testing.T) {
	setupTestServices(t)

	ts := httptest.NewServer(NewServer(30 * time.Second))
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	result := decoded["result"].(map[string]interface{})
	assert.Equal(t, "success", result["status"])
	assert.Contains(t, result, "info")
}
