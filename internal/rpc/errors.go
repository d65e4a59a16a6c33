package rpc

import (
	"errors"

	"github.com/hola-official/ReverseDutchAuctionSwap/internal/core/auction"
)

// RpcError represents an RPC error with code and message
type RpcError struct {
	Code        int    `json:"error_code"`
	ErrorString string `json:"error"`
	Type        string `json:"type"`
	Message     string `json:"error_message,omitempty"`
}

func (e RpcError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.ErrorString
}

// Error codes. The negative block follows JSON-RPC 2.0; the positive
// block is specific to this server and stable across releases.
const (
	// Universal errors
	RpcUNKNOWN          = -1
	RpcJSON_RPC         = -32600
	RpcMETHOD_NOT_FOUND = -32601
	RpcINVALID_PARAMS   = -32602
	RpcINTERNAL         = -32603
	RpcPARSE_ERROR      = -32700

	// General purpose errors
	RpcGENERAL           = 1
	RpcMISSING_COMMAND   = 2
	RpcCOMMAND_UNTRUSTED = 3
	RpcTOO_BUSY          = 6
	RpcSLOW_DOWN         = 7

	// Subscription errors
	RpcSTREAM_MALFORMED = 26

	RpcNOT_SUPPORTED       = 32
	RpcINVALID_API_VERSION = 38

	// Auction errors
	RpcAUCTION_NOT_FOUND      = 60
	RpcAUCTION_NOT_ACTIVE     = 61
	RpcAUCTION_ENDED          = 62
	RpcSELLER_CANNOT_BUY      = 63
	RpcONLY_SELLER_CAN_CANCEL = 64
	RpcINSUFFICIENT_BALANCE   = 65
	RpcTRANSFER_FAILED        = 66
	RpcREENTRANT_CALL         = 67

	// Object errors
	RpcOBJECT_NOT_FOUND = 92
)

// Standard error constructors
func NewRpcError(code int, error, errorType, message string) *RpcError {
	return &RpcError{
		Code:        code,
		ErrorString: error,
		Type:        errorType,
		Message:     message,
	}
}

func RpcErrorUnknown(message string) *RpcError {
	return NewRpcError(RpcUNKNOWN, "unknown", "unknown", message)
}

func RpcErrorInvalidParams(message string) *RpcError {
	return NewRpcError(RpcINVALID_PARAMS, "invalidParams", "invalidParams", message)
}

func RpcErrorMethodNotFound(method string) *RpcError {
	return NewRpcError(RpcMETHOD_NOT_FOUND, "unknownCmd", "unknownCmd", "Unknown method: "+method)
}

func RpcErrorInternal(message string) *RpcError {
	return NewRpcError(RpcINTERNAL, "internal", "internal", message)
}

func RpcErrorTooBusy(message string) *RpcError {
	return NewRpcError(RpcTOO_BUSY, "tooBusy", "tooBusy", message)
}

func RpcErrorInvalidApiVersion(version string) *RpcError {
	return NewRpcError(RpcINVALID_API_VERSION, "invalidApiVersion", "invalidApiVersion", "Invalid API version: "+version)
}

func RpcErrorAuctionNotFound(message string) *RpcError {
	return NewRpcError(RpcAUCTION_NOT_FOUND, "auctionNotFound", "auctionNotFound", message)
}

// RpcErrorMissingField returns an error for a missing required field
func RpcErrorMissingField(field string) *RpcError {
	return NewRpcError(RpcINVALID_PARAMS, "invalidParams", "invalidParams", "Missing field '"+field+"'.")
}

// RpcErrorFromLedger maps an auction ledger error to its RPC equivalent.
// Unrecognized errors come back as internal so callers never see raw
// engine text with a success-shaped code.
func RpcErrorFromLedger(err error) *RpcError {
	switch {
	case errors.Is(err, auction.ErrInvalidParameters):
		return RpcErrorInvalidParams(err.Error())
	case errors.Is(err, auction.ErrInvalidAuctionID):
		return RpcErrorAuctionNotFound(err.Error())
	case errors.Is(err, auction.ErrAuctionNotActive):
		return NewRpcError(RpcAUCTION_NOT_ACTIVE, "auctionNotActive", "auctionNotActive", err.Error())
	case errors.Is(err, auction.ErrAuctionEnded):
		return NewRpcError(RpcAUCTION_ENDED, "auctionEnded", "auctionEnded", err.Error())
	case errors.Is(err, auction.ErrSellerCannotBuy):
		return NewRpcError(RpcSELLER_CANNOT_BUY, "sellerCannotBuy", "sellerCannotBuy", err.Error())
	case errors.Is(err, auction.ErrOnlySellerCanCancel):
		return NewRpcError(RpcONLY_SELLER_CAN_CANCEL, "onlySellerCanCancel", "onlySellerCanCancel", err.Error())
	case errors.Is(err, auction.ErrInsufficientBalance):
		return NewRpcError(RpcINSUFFICIENT_BALANCE, "insufficientBalance", "insufficientBalance", err.Error())
	case errors.Is(err, auction.ErrTransferFailed):
		return NewRpcError(RpcTRANSFER_FAILED, "transferFailed", "transferFailed", err.Error())
	case errors.Is(err, auction.ErrReentrantCall):
		return NewRpcError(RpcREENTRANT_CALL, "reentrantCall", "reentrantCall", err.Error())
	default:
		return RpcErrorInternal(err.Error())
	}
}
