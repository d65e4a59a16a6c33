package rpc

import (
	"context"
	"encoding/json"
)

// JSON-RPC 2.0 Request
type JsonRpcRequest struct {
	JsonRpc string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      interface{}     `json:"id,omitempty"`
}

// JSON-RPC 2.0 Response
type JsonRpcResponse struct {
	JsonRpc string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RpcError   `json:"error,omitempty"`
	ID      interface{} `json:"id,omitempty"`
}

// API Version constants
const (
	ApiVersion1 = 1
	ApiVersion2 = 2

	DefaultApiVersion = ApiVersion1
)

// Role-based access control
type Role int

const (
	RoleGuest Role = iota
	RoleUser
	RoleAdmin
)

// RpcContext contains request-specific information
type RpcContext struct {
	Context    context.Context
	Role       Role
	ApiVersion int
	IsAdmin    bool
	ClientIP   string
}

// Method handler interface - all RPC methods implement this
type MethodHandler interface {
	Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError)
	RequiredRole() Role
	SupportedApiVersions() []int
}

// Method registry for dynamic method registration
type MethodRegistry struct {
	methods map[string]MethodHandler
}

func NewMethodRegistry() *MethodRegistry {
	return &MethodRegistry{
		methods: make(map[string]MethodHandler),
	}
}

func (r *MethodRegistry) Register(name string, handler MethodHandler) {
	r.methods[name] = handler
}

func (r *MethodRegistry) Get(name string) (MethodHandler, bool) {
	handler, exists := r.methods[name]
	return handler, exists
}

func (r *MethodRegistry) List() []string {
	methods := make([]string, 0, len(r.methods))
	for name := range r.methods {
		methods = append(methods, name)
	}
	return methods
}

// WebSocket specific structures
type WebSocketCommand struct {
	Command    string          `json:"command"`
	ID         interface{}     `json:"id,omitempty"`
	ApiVersion *int            `json:"api_version,omitempty"`
	Params     json.RawMessage `json:",inline,omitempty"`
}

type WebSocketResponse struct {
	Type       string      `json:"type"`
	ID         interface{} `json:"id,omitempty"`
	Status     string      `json:"status,omitempty"`
	Result     interface{} `json:"result,omitempty"`
	Error      *RpcError   `json:"error,omitempty"`
	ApiVersion int         `json:"api_version,omitempty"`
}

// Subscription types for WebSocket streams
type SubscriptionType string

const (
	// SubAuctions streams every auction lifecycle event: created,
	// executed, cancelled.
	SubAuctions SubscriptionType = "auctions"
	// SubServer streams server status changes.
	SubServer SubscriptionType = "server"
)

// Subscription request structure
type SubscriptionRequest struct {
	Streams []SubscriptionType `json:"streams,omitempty"`
}

// StreamMessage is the shape pushed to auctions-stream subscribers. Type
// carries the event kind discriminator; Event the full event payload as
// the ledger published it.
type StreamMessage struct {
	Type      string           `json:"type"`
	Stream    SubscriptionType `json:"stream"`
	AuctionID uint64           `json:"auction_id"`
	Event     json.RawMessage  `json:"event,omitempty"`
}

// Pagination parameters
type PaginationParams struct {
	Limit  uint32      `json:"limit,omitempty"`
	Marker interface{} `json:"marker,omitempty"`
}
