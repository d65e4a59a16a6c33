package rpc

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/hola-official/ReverseDutchAuctionSwap/internal/core/auction"
	"github.com/hola-official/ReverseDutchAuctionSwap/internal/storage/eventlog"
	"github.com/hola-official/ReverseDutchAuctionSwap/internal/storage/relationaldb"
)

// errHistoryFull aborts an event-log scan once the requested limit is
// reached.
var errHistoryFull = errors.New("history limit reached")

// auctionView is the wire representation of an auction record.
type auctionView struct {
	ID           uint64 `json:"auction_id"`
	Seller       string `json:"seller"`
	SellAsset    string `json:"sell_asset"`
	BuyAsset     string `json:"buy_asset"`
	SellAmount   uint64 `json:"sell_amount"`
	StartPrice   uint64 `json:"start_price"`
	StartTime    string `json:"start_time"`
	Duration     uint64 `json:"duration"`
	DecreaseRate uint64 `json:"decrease_rate"`
	Active       bool   `json:"active"`
	Outcome      string `json:"outcome"`
	Buyer        string `json:"buyer,omitempty"`
	FinalPrice   uint64 `json:"final_price,omitempty"`
}

func viewOf(a auction.Auction) auctionView {
	return auctionView{
		ID:           a.ID,
		Seller:       a.Seller,
		SellAsset:    a.SellAsset,
		BuyAsset:     a.BuyAsset,
		SellAmount:   a.SellAmount,
		StartPrice:   a.StartPrice,
		StartTime:    a.StartTime.UTC().Format(time.RFC3339),
		Duration:     uint64(a.Duration / time.Second),
		DecreaseRate: a.DecreaseRate,
		Active:       a.Active,
		Outcome:      a.Outcome.String(),
		Buyer:        a.Buyer,
		FinalPrice:   a.FinalPrice,
	}
}

// AuctionCreateMethod handles the auction_create RPC method
type AuctionCreateMethod struct{}

func (m *AuctionCreateMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var req struct {
		Seller       string `json:"seller"`
		SellAsset    string `json:"sell_asset"`
		BuyAsset     string `json:"buy_asset"`
		SellAmount   uint64 `json:"sell_amount"`
		StartPrice   uint64 `json:"start_price"`
		Duration     uint64 `json:"duration"` // seconds
		DecreaseRate uint64 `json:"decrease_rate"`
	}

	if params != nil {
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, RpcErrorInvalidParams("Invalid parameters: " + err.Error())
		}
	}

	if req.Seller == "" {
		return nil, RpcErrorMissingField("seller")
	}

	if Services == nil || Services.Ledger == nil {
		return nil, RpcErrorInternal("Auction ledger not available")
	}

	id, err := Services.Ledger.Create(auction.CreateParams{
		Seller:       req.Seller,
		SellAsset:    req.SellAsset,
		BuyAsset:     req.BuyAsset,
		SellAmount:   req.SellAmount,
		StartPrice:   req.StartPrice,
		Duration:     time.Duration(req.Duration) * time.Second,
		DecreaseRate: req.DecreaseRate,
	})
	if err != nil {
		return nil, RpcErrorFromLedger(err)
	}

	return map[string]interface{}{
		"auction_id": id,
	}, nil
}

func (m *AuctionCreateMethod) RequiredRole() Role {
	return RoleGuest
}

func (m *AuctionCreateMethod) SupportedApiVersions() []int {
	return []int{ApiVersion1, ApiVersion2}
}

// AuctionPriceMethod handles the auction_price RPC method
type AuctionPriceMethod struct{}

func (m *AuctionPriceMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var req struct {
		AuctionID *uint64 `json:"auction_id"`
	}

	if params != nil {
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, RpcErrorInvalidParams("Invalid parameters: " + err.Error())
		}
	}

	if req.AuctionID == nil {
		return nil, RpcErrorMissingField("auction_id")
	}

	if Services == nil || Services.Ledger == nil {
		return nil, RpcErrorInternal("Auction ledger not available")
	}

	price, err := Services.Ledger.CurrentPrice(*req.AuctionID)
	if err != nil {
		return nil, RpcErrorFromLedger(err)
	}

	return map[string]interface{}{
		"auction_id": *req.AuctionID,
		"price":      price,
	}, nil
}

func (m *AuctionPriceMethod) RequiredRole() Role {
	return RoleGuest
}

func (m *AuctionPriceMethod) SupportedApiVersions() []int {
	return []int{ApiVersion1, ApiVersion2}
}

// AuctionExecuteMethod handles the auction_execute RPC method
type AuctionExecuteMethod struct{}

func (m *AuctionExecuteMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var req struct {
		AuctionID *uint64 `json:"auction_id"`
		Buyer     string  `json:"buyer"`
	}

	if params != nil {
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, RpcErrorInvalidParams("Invalid parameters: " + err.Error())
		}
	}

	if req.AuctionID == nil {
		return nil, RpcErrorMissingField("auction_id")
	}
	if req.Buyer == "" {
		return nil, RpcErrorMissingField("buyer")
	}

	if Services == nil || Services.Ledger == nil {
		return nil, RpcErrorInternal("Auction ledger not available")
	}

	if err := Services.Ledger.Execute(req.Buyer, *req.AuctionID); err != nil {
		return nil, RpcErrorFromLedger(err)
	}

	record, err := Services.Ledger.Get(*req.AuctionID)
	if err != nil {
		return nil, RpcErrorInternal("Failed to read settled auction: " + err.Error())
	}

	return map[string]interface{}{
		"auction_id":  record.ID,
		"buyer":       record.Buyer,
		"final_price": record.FinalPrice,
		"outcome":     record.Outcome.String(),
	}, nil
}

func (m *AuctionExecuteMethod) RequiredRole() Role {
	return RoleGuest
}

func (m *AuctionExecuteMethod) SupportedApiVersions() []int {
	return []int{ApiVersion1, ApiVersion2}
}

// AuctionCancelMethod handles the auction_cancel RPC method
type AuctionCancelMethod struct{}

func (m *AuctionCancelMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var req struct {
		AuctionID *uint64 `json:"auction_id"`
		Seller    string  `json:"seller"`
	}

	if params != nil {
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, RpcErrorInvalidParams("Invalid parameters: " + err.Error())
		}
	}

	if req.AuctionID == nil {
		return nil, RpcErrorMissingField("auction_id")
	}
	if req.Seller == "" {
		return nil, RpcErrorMissingField("seller")
	}

	if Services == nil || Services.Ledger == nil {
		return nil, RpcErrorInternal("Auction ledger not available")
	}

	if err := Services.Ledger.Cancel(req.Seller, *req.AuctionID); err != nil {
		return nil, RpcErrorFromLedger(err)
	}

	return map[string]interface{}{
		"auction_id": *req.AuctionID,
		"outcome":    auction.OutcomeCancelled.String(),
	}, nil
}

func (m *AuctionCancelMethod) RequiredRole() Role {
	return RoleGuest
}

func (m *AuctionCancelMethod) SupportedApiVersions() []int {
	return []int{ApiVersion1, ApiVersion2}
}

// AuctionInfoMethod handles the auction_info RPC method
type AuctionInfoMethod struct{}

func (m *AuctionInfoMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var req struct {
		AuctionID *uint64 `json:"auction_id"`
	}

	if params != nil {
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, RpcErrorInvalidParams("Invalid parameters: " + err.Error())
		}
	}

	if req.AuctionID == nil {
		return nil, RpcErrorMissingField("auction_id")
	}

	if Services == nil || Services.Ledger == nil {
		return nil, RpcErrorInternal("Auction ledger not available")
	}

	record, err := Services.Ledger.Get(*req.AuctionID)
	if err != nil {
		return nil, RpcErrorFromLedger(err)
	}

	result := map[string]interface{}{
		"auction": viewOf(record),
	}

	// Active auctions also report their live price.
	if record.Active {
		if price, err := Services.Ledger.CurrentPrice(record.ID); err == nil {
			result["current_price"] = price
		}
	}

	return result, nil
}

func (m *AuctionInfoMethod) RequiredRole() Role {
	return RoleGuest
}

func (m *AuctionInfoMethod) SupportedApiVersions() []int {
	return []int{ApiVersion1, ApiVersion2}
}

// AuctionListMethod handles the auction_list RPC method.
// It prefers the relational index when one is wired; otherwise it scans
// the in-memory ledger.
type AuctionListMethod struct{}

func (m *AuctionListMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var req struct {
		Seller  string `json:"seller,omitempty"`
		Outcome string `json:"outcome,omitempty"`
		Limit   int    `json:"limit,omitempty"`
		Offset  int    `json:"offset,omitempty"`
	}

	if params != nil {
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, RpcErrorInvalidParams("Invalid parameters: " + err.Error())
		}
	}

	if Services == nil || Services.Ledger == nil {
		return nil, RpcErrorInternal("Auction ledger not available")
	}

	if req.Limit <= 0 {
		req.Limit = 50
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	if Services.Index != nil {
		records, err := Services.Index.Auction().ListAuctions(ctx.Context, relationaldb.AuctionQueryOptions{
			Seller:  req.Seller,
			Outcome: req.Outcome,
			Limit:   uint32(req.Limit),
			Offset:  uint32(req.Offset),
		})
		if err != nil {
			return nil, RpcErrorInternal("Index query failed: " + err.Error())
		}
		total, err := Services.Index.Auction().CountAuctions(ctx.Context)
		if err != nil {
			return nil, RpcErrorInternal("Index query failed: " + err.Error())
		}
		return map[string]interface{}{
			"auctions": records,
			"total":    total,
			"source":   "index",
		}, nil
	}

	// In-memory fallback: newest first, same ordering as the index.
	count := Services.Ledger.Count()
	views := make([]auctionView, 0, req.Limit)
	skipped := 0
	for id := count; id > 0 && len(views) < req.Limit; id-- {
		record, err := Services.Ledger.Get(id - 1)
		if err != nil {
			continue
		}
		if req.Seller != "" && record.Seller != req.Seller {
			continue
		}
		if req.Outcome != "" && record.Outcome.String() != req.Outcome {
			continue
		}
		if skipped < req.Offset {
			skipped++
			continue
		}
		views = append(views, viewOf(record))
	}

	return map[string]interface{}{
		"auctions": views,
		"total":    count,
		"source":   "ledger",
	}, nil
}

func (m *AuctionListMethod) RequiredRole() Role {
	return RoleGuest
}

func (m *AuctionListMethod) SupportedApiVersions() []int {
	return []int{ApiVersion1, ApiVersion2}
}

// AuctionHistoryMethod handles the auction_history RPC method: the
// ordered event trail of one auction, read from the persistent log.
type AuctionHistoryMethod struct{}

func (m *AuctionHistoryMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var req struct {
		AuctionID *uint64 `json:"auction_id"`
		Limit     int     `json:"limit,omitempty"`
	}

	if params != nil {
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, RpcErrorInvalidParams("Invalid parameters: " + err.Error())
		}
	}

	if req.AuctionID == nil {
		return nil, RpcErrorMissingField("auction_id")
	}

	if Services == nil || Services.EventLog == nil {
		return nil, RpcErrorInternal("Event log not available")
	}

	if req.Limit <= 0 {
		req.Limit = 200
	}

	type historyEntry struct {
		Seq        uint64          `json:"seq"`
		Kind       string          `json:"kind"`
		RecordedAt string          `json:"recorded_at"`
		Event      json.RawMessage `json:"event"`
	}

	entries := make([]historyEntry, 0, 4)
	err := Services.EventLog.ForAuction(*req.AuctionID, func(e *eventlog.Entry) error {
		if len(entries) >= req.Limit {
			return errHistoryFull
		}
		entries = append(entries, historyEntry{
			Seq:        e.Seq,
			Kind:       e.Kind,
			RecordedAt: e.RecordedAt.UTC().Format(time.RFC3339),
			Event:      json.RawMessage(e.Payload),
		})
		return nil
	})
	if err != nil && !errors.Is(err, errHistoryFull) {
		return nil, RpcErrorInternal("Event log read failed: " + err.Error())
	}

	return map[string]interface{}{
		"auction_id": *req.AuctionID,
		"events":     entries,
	}, nil
}

func (m *AuctionHistoryMethod) RequiredRole() Role {
	return RoleGuest
}

func (m *AuctionHistoryMethod) SupportedApiVersions() []int {
	return []int{ApiVersion1, ApiVersion2}
}
