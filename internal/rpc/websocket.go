package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hola-official/ReverseDutchAuctionSwap/internal/events"
)

// WebSocketServer handles WebSocket connections for real-time
// subscriptions to the auction event streams.
type WebSocketServer struct {
	upgrader         websocket.Upgrader
	methodRegistry   *MethodRegistry
	connections      map[string]*WebSocketConnection
	connectionsMutex sync.RWMutex
	timeout          time.Duration
}

// WebSocketConnection represents a single WebSocket connection
type WebSocketConnection struct {
	ID            string
	conn          *websocket.Conn
	subscriptions map[SubscriptionType]struct{}
	sendChannel   chan []byte
	mutex         sync.RWMutex
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewWebSocketServer creates a new WebSocket server
func NewWebSocketServer(timeout time.Duration) *WebSocketServer {
	ws := &WebSocketServer{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		methodRegistry: NewMethodRegistry(),
		connections:    make(map[string]*WebSocketConnection),
		timeout:        timeout,
	}

	// Share the HTTP server's method set
	server := &Server{registry: ws.methodRegistry}
	server.registerAllMethods()

	return ws
}

// ServeHTTP handles WebSocket upgrade requests
func (ws *WebSocketServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	wsConn := &WebSocketConnection{
		ID:            generateConnectionID(),
		conn:          conn,
		subscriptions: make(map[SubscriptionType]struct{}),
		sendChannel:   make(chan []byte, 256),
		ctx:           ctx,
		cancel:        cancel,
	}

	ws.connectionsMutex.Lock()
	ws.connections[wsConn.ID] = wsConn
	ws.connectionsMutex.Unlock()

	go ws.handleConnection(wsConn)
	go ws.handleSend(wsConn)
}

// handleConnection processes messages from a WebSocket connection
func (ws *WebSocketServer) handleConnection(wsConn *WebSocketConnection) {
	defer ws.closeConnection(wsConn)

	wsConn.conn.SetReadLimit(512 * 1024) // 512KB max message size
	wsConn.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	wsConn.conn.SetPongHandler(func(string) error {
		wsConn.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		select {
		case <-wsConn.ctx.Done():
			return
		default:
			_, message, err := wsConn.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
					log.Printf("WebSocket error: %v", err)
				}
				return
			}

			ws.handleMessage(wsConn, message)
		}
	}
}

// handleSend processes outgoing messages for a WebSocket connection
func (ws *WebSocketServer) handleSend(wsConn *WebSocketConnection) {
	// Keepalive pings between outgoing messages
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-wsConn.ctx.Done():
			return
		case <-ticker.C:
			wsConn.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := wsConn.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("WebSocket ping failed: %v", err)
				return
			}
		case message := <-wsConn.sendChannel:
			wsConn.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := wsConn.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("WebSocket send failed: %v", err)
				return
			}
		}
	}
}

// handleMessage processes a single message from WebSocket
func (ws *WebSocketServer) handleMessage(wsConn *WebSocketConnection, message []byte) {
	// Command and params arrive at the top level of the message
	var cmdMap map[string]interface{}
	if err := json.Unmarshal(message, &cmdMap); err != nil {
		ws.sendError(wsConn, RpcErrorInvalidParams("Invalid JSON: "+err.Error()), nil)
		return
	}

	command, ok := cmdMap["command"].(string)
	if !ok || command == "" {
		ws.sendError(wsConn, NewRpcError(RpcMISSING_COMMAND, "missingCommand", "missingCommand", "Missing command field"), nil)
		return
	}

	var id interface{}
	if idVal, exists := cmdMap["id"]; exists {
		id = idVal
	}

	cmd := WebSocketCommand{
		Command: command,
		ID:      id,
	}

	// Remove command and id; the rest of the fields are the params
	delete(cmdMap, "command")
	delete(cmdMap, "id")

	apiVersion := DefaultApiVersion
	if apiVer, exists := cmdMap["api_version"]; exists {
		if ver, ok := apiVer.(float64); ok {
			apiVersion = int(ver)
		}
		delete(cmdMap, "api_version")
	}

	if len(cmdMap) > 0 {
		paramsBytes, _ := json.Marshal(cmdMap)
		cmd.Params = paramsBytes
	}

	rpcCtx := &RpcContext{
		Context:    wsConn.ctx,
		Role:       RoleGuest,
		ApiVersion: apiVersion,
		IsAdmin:    false,
		ClientIP:   getWebSocketClientIP(wsConn.conn),
	}

	// Subscription commands mutate per-connection state, so they are
	// handled here rather than through the registry.
	switch cmd.Command {
	case "subscribe":
		ws.handleSubscribe(wsConn, rpcCtx, cmd)
		return
	case "unsubscribe":
		ws.handleUnsubscribe(wsConn, rpcCtx, cmd)
		return
	}

	ws.handleRPCMethod(wsConn, rpcCtx, cmd)
}

// parseStreams extracts and validates the streams list of a subscribe or
// unsubscribe command.
func parseStreams(params json.RawMessage) ([]SubscriptionType, *RpcError) {
	if len(params) == 0 {
		return nil, RpcErrorMissingField("streams")
	}

	var request SubscriptionRequest
	if err := json.Unmarshal(params, &request); err != nil {
		return nil, RpcErrorInvalidParams("Invalid subscription parameters: " + err.Error())
	}
	if len(request.Streams) == 0 {
		return nil, RpcErrorMissingField("streams")
	}

	for _, stream := range request.Streams {
		switch stream {
		case SubAuctions, SubServer:
		default:
			return nil, NewRpcError(RpcSTREAM_MALFORMED, "malformedStream", "malformedStream", "Unknown stream: "+string(stream))
		}
	}

	return request.Streams, nil
}

// handleSubscribe processes subscribe commands
func (ws *WebSocketServer) handleSubscribe(wsConn *WebSocketConnection, ctx *RpcContext, cmd WebSocketCommand) {
	streams, rpcErr := parseStreams(cmd.Params)
	if rpcErr != nil {
		ws.sendError(wsConn, rpcErr, cmd.ID)
		return
	}

	wsConn.mutex.Lock()
	for _, stream := range streams {
		wsConn.subscriptions[stream] = struct{}{}
	}
	wsConn.mutex.Unlock()

	response := WebSocketResponse{
		Type:       "response",
		ID:         cmd.ID,
		Status:     "success",
		Result:     map[string]interface{}{"subscribed": true},
		ApiVersion: ctx.ApiVersion,
	}

	ws.sendResponse(wsConn, response)
}

// handleUnsubscribe processes unsubscribe commands
func (ws *WebSocketServer) handleUnsubscribe(wsConn *WebSocketConnection, ctx *RpcContext, cmd WebSocketCommand) {
	streams, rpcErr := parseStreams(cmd.Params)
	if rpcErr != nil {
		ws.sendError(wsConn, rpcErr, cmd.ID)
		return
	}

	wsConn.mutex.Lock()
	for _, stream := range streams {
		delete(wsConn.subscriptions, stream)
	}
	wsConn.mutex.Unlock()

	response := WebSocketResponse{
		Type:       "response",
		ID:         cmd.ID,
		Status:     "success",
		Result:     map[string]interface{}{"unsubscribed": true},
		ApiVersion: ctx.ApiVersion,
	}

	ws.sendResponse(wsConn, response)
}

// handleRPCMethod processes regular RPC method calls over WebSocket
func (ws *WebSocketServer) handleRPCMethod(wsConn *WebSocketConnection, ctx *RpcContext, cmd WebSocketCommand) {
	handler, exists := ws.methodRegistry.Get(cmd.Command)
	if !exists {
		ws.sendError(wsConn, RpcErrorMethodNotFound(cmd.Command), cmd.ID)
		return
	}

	if ctx.Role < handler.RequiredRole() {
		ws.sendError(wsConn, NewRpcError(RpcCOMMAND_UNTRUSTED, "commandUntrusted", "commandUntrusted",
			fmt.Sprintf("Command '%s' requires higher privileges", cmd.Command)), cmd.ID)
		return
	}

	result, rpcErr := handler.Handle(ctx, cmd.Params)

	if rpcErr != nil {
		ws.sendError(wsConn, rpcErr, cmd.ID)
	} else {
		response := WebSocketResponse{
			Type:       "response",
			ID:         cmd.ID,
			Status:     "success",
			Result:     result,
			ApiVersion: ctx.ApiVersion,
		}
		ws.sendResponse(wsConn, response)
	}
}

// sendResponse sends a WebSocket response
func (ws *WebSocketServer) sendResponse(wsConn *WebSocketConnection, response WebSocketResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		log.Printf("Failed to marshal WebSocket response: %v", err)
		return
	}

	select {
	case wsConn.sendChannel <- data:
	case <-wsConn.ctx.Done():
	default:
		// Channel full, close connection
		log.Printf("WebSocket send channel full, closing connection %s", wsConn.ID)
		ws.closeConnection(wsConn)
	}
}

// sendError sends a WebSocket error response with flat error fields
func (ws *WebSocketServer) sendError(wsConn *WebSocketConnection, rpcErr *RpcError, id interface{}) {
	response := map[string]interface{}{
		"type":          "response",
		"status":        "error",
		"error":         rpcErr.ErrorString,
		"error_code":    rpcErr.Code,
		"error_message": rpcErr.Message,
	}
	if id != nil {
		response["id"] = id
	}

	data, err := json.Marshal(response)
	if err != nil {
		log.Printf("Failed to marshal WebSocket error response: %v", err)
		return
	}

	select {
	case wsConn.sendChannel <- data:
	case <-wsConn.ctx.Done():
	default:
		log.Printf("WebSocket send channel full, closing connection %s", wsConn.ID)
		ws.closeConnection(wsConn)
	}
}

// closeConnection closes a WebSocket connection
func (ws *WebSocketServer) closeConnection(wsConn *WebSocketConnection) {
	wsConn.cancel()

	ws.connectionsMutex.Lock()
	delete(ws.connections, wsConn.ID)
	ws.connectionsMutex.Unlock()

	wsConn.conn.Close()
}

// BroadcastToSubscribers sends a message to all connections subscribed
// to a specific stream
func (ws *WebSocketServer) BroadcastToSubscribers(stream SubscriptionType, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Failed to marshal broadcast message: %v", err)
		return
	}

	ws.connectionsMutex.RLock()
	defer ws.connectionsMutex.RUnlock()

	for _, conn := range ws.connections {
		conn.mutex.RLock()
		_, subscribed := conn.subscriptions[stream]
		conn.mutex.RUnlock()
		if !subscribed {
			continue
		}
		select {
		case conn.sendChannel <- data:
		default:
			// Channel full, skip this connection
			log.Printf("Skipping slow WebSocket connection %s", conn.ID)
		}
	}
}

// Consume drains a bus subscription, pushing each auction event to the
// auctions stream. It returns when the subscription channel closes.
func (ws *WebSocketServer) Consume(sub <-chan events.Envelope) {
	go func() {
		for env := range sub {
			ws.BroadcastToSubscribers(SubAuctions, StreamMessage{
				Type:      env.Kind,
				Stream:    SubAuctions,
				AuctionID: env.AuctionID,
				Event:     json.RawMessage(env.Payload),
			})
		}
	}()
}

// Helper functions

var connSeq uint64

func generateConnectionID() string {
	return fmt.Sprintf("conn_%d_%d", time.Now().UnixNano(), atomic.AddUint64(&connSeq, 1))
}

func getWebSocketClientIP(conn *websocket.Conn) string {
	remoteAddr := conn.RemoteAddr().String()
	for i := len(remoteAddr) - 1; i >= 0; i-- {
		if remoteAddr[i] == ':' {
			return remoteAddr[:i]
		}
	}
	return remoteAddr
}

// SubscribeMethod rejects subscribe over plain HTTP; subscriptions are
// only meaningful on a WebSocket connection.
type SubscribeMethod struct{}

func (m *SubscribeMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	return nil, NewRpcError(RpcNOT_SUPPORTED, "notSupported", "notSupported", "subscribe requires a WebSocket connection")
}

func (m *SubscribeMethod) RequiredRole() Role {
	return RoleGuest
}

func (m *SubscribeMethod) SupportedApiVersions() []int {
	return []int{ApiVersion1, ApiVersion2}
}

// UnsubscribeMethod rejects unsubscribe over plain HTTP.
type UnsubscribeMethod struct{}

func (m *UnsubscribeMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	return nil, NewRpcError(RpcNOT_SUPPORTED, "notSupported", "notSupported", "unsubscribe requires a WebSocket connection")
}

func (m *UnsubscribeMethod) RequiredRole() Role {
	return RoleGuest
}

func (m *UnsubscribeMethod) SupportedApiVersions() []int {
	return []int{ApiVersion1, ApiVersion2}
}
