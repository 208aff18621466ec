// Package mcp exposes the ignr pipeline as Model Context Protocol tools
// over stdio.
package mcp

import (
	"context"
	"errors"
	"fmt"

	ierrors "github.com/byteowlz/ignr/internal/errors"
)

// Custom MCP error codes for ignr.
const (
	// ErrCodeNotGitRepo indicates the directory is outside a git repository.
	ErrCodeNotGitRepo = -32001

	// ErrCodeScanFailed indicates the project directory could not be read.
	ErrCodeScanFailed = -32002

	// ErrCodeTimeout indicates the request timed out or was cancelled.
	ErrCodeTimeout = -32003

	// ErrCodeWriteFailed indicates the ignore file could not be read or written.
	ErrCodeWriteFailed = -32004

	// Standard JSON-RPC error codes.
	ErrCodeInvalidParams = -32602
	ErrCodeInternalError = -32603
)

// MCPError represents an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts internal errors to MCP errors.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var mcpErr *MCPError
	if errors.As(err, &mcpErr) {
		return mcpErr
	}

	if ie, ok := ierrors.As(err); ok {
		return mapIgnrError(ie)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request timed out."}
	case errors.Is(err, context.Canceled):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request was canceled."}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: "Internal server error."}
	}
}

// NewInvalidParamsError creates an error for invalid parameters with a custom message.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParams, Message: msg}
}

// mapIgnrError converts an IgnrError, appending its suggestion.
func mapIgnrError(ie *ierrors.IgnrError) *MCPError {
	message := ie.Message
	if ie.Suggestion != "" {
		message = fmt.Sprintf("%s. %s", ie.Message, ie.Suggestion)
	}

	switch ie.Code {
	case ierrors.ErrCodeNotGitRepo:
		return &MCPError{Code: ErrCodeNotGitRepo, Message: message}
	case ierrors.ErrCodeRootUnreadable:
		return &MCPError{Code: ErrCodeScanFailed, Message: message}
	case ierrors.ErrCodeTargetUnreadable, ierrors.ErrCodeWriteFailed:
		return &MCPError{Code: ErrCodeWriteFailed, Message: message}
	}

	switch ie.Category {
	case ierrors.CategoryNetwork:
		return &MCPError{Code: ErrCodeTimeout, Message: message}
	case ierrors.CategoryValidation:
		return &MCPError{Code: ErrCodeInvalidParams, Message: message}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: message}
	}
}
