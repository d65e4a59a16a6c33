package rpc

import (
	"time"

	"github.com/hola-official/ReverseDutchAuctionSwap/internal/core/auction"
	"github.com/hola-official/ReverseDutchAuctionSwap/internal/storage/eventlog"
	"github.com/hola-official/ReverseDutchAuctionSwap/internal/storage/relationaldb"
)

// Services provides access to core services from RPC handlers.
// This is a singleton set once at startup, before the server accepts
// requests.
var Services *ServiceContainer

// ServiceContainer holds references to all services needed by RPC handlers
type ServiceContainer struct {
	// Ledger is the in-memory auction ledger. Required.
	Ledger *auction.Ledger

	// EventLog is the persistent append-only event log. Optional; the
	// auction_history method degrades when absent.
	EventLog *eventlog.Log

	// Index is the relational query index. Optional.
	Index relationaldb.RepositoryManager

	// Started is used for uptime reporting.
	Started time.Time
}

// SetServices installs the service container used by all handlers.
func SetServices(c *ServiceContainer) {
	Services = c
}
