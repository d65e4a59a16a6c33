package rpc

import (
	"encoding/json"
	"time"
)

const buildVersion = "1.0.0-dutchd"

// ServerInfoMethod handles the server_info RPC method
type ServerInfoMethod struct{}

func (m *ServerInfoMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	if Services == nil || Services.Ledger == nil {
		return nil, RpcErrorInternal("Auction ledger not available")
	}

	started := Services.Started
	if started.IsZero() {
		started = time.Now()
	}
	uptime := int64(time.Since(started).Seconds())

	info := map[string]interface{}{
		"build_version": buildVersion,
		"hostid":        "dutchd",
		"server_state":  "full",
		"uptime":        uptime,
		"auctions": map[string]interface{}{
			"count": Services.Ledger.Count(),
		},
	}

	if Services.EventLog != nil {
		stats := Services.EventLog.Stats()
		info["event_log"] = map[string]interface{}{
			"backend":  stats.BackendName,
			"appends":  stats.Appends,
			"next_seq": Services.EventLog.NextSeq(),
		}
	}

	if Services.Index != nil {
		indexState := "available"
		if err := Services.Index.System().Ping(ctx.Context); err != nil {
			indexState = "unreachable"
		}
		info["index"] = map[string]interface{}{
			"state": indexState,
		}
	}

	return map[string]interface{}{
		"info": info,
	}, nil
}

func (m *ServerInfoMethod) RequiredRole() Role {
	return RoleGuest
}

func (m *ServerInfoMethod) SupportedApiVersions() []int {
	return []int{ApiVersion1, ApiVersion2}
}

// PingMethod handles the ping RPC method
type PingMethod struct{}

func (m *PingMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	// Ping is used to test connectivity and measure round-trip time.
	// It simply returns an empty success response.
	return map[string]interface{}{}, nil
}

func (m *PingMethod) RequiredRole() Role {
	return RoleGuest
}

func (m *PingMethod) SupportedApiVersions() []int {
	return []int{ApiVersion1, ApiVersion2}
}

// VersionMethod handles the version RPC method
type VersionMethod struct{}

func (m *VersionMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	return map[string]interface{}{
		"version": map[string]interface{}{
			"first": ApiVersion1,
			"last":  ApiVersion2,
			"good":  DefaultApiVersion,
		},
	}, nil
}

func (m *VersionMethod) RequiredRole() Role {
	return RoleGuest
}

func (m *VersionMethod) SupportedApiVersions() []int {
	return []int{ApiVersion1, ApiVersion2}
}
