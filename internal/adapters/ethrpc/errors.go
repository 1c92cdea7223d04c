package ethrpc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"

	"github.com/bft-labs/caseledger/internal/ports"
)

// JSON-RPC error codes used by wallet providers and nodes.
const (
	codeUserRejected   = 4001
	codeUnauthorized   = 4100
	codeReverted       = 3
	codeMethodNotFound = -32601
)

// classify wraps err with the port sentinel matching its RPC error code.
func classify(method string, err error) error {
	if err == nil {
		return nil
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		switch rpcErr.ErrorCode() {
		case codeUserRejected, codeUnauthorized:
			return fmt.Errorf("%s: %w: %w", method, ports.ErrUserRejected, err)
		case codeReverted:
			return fmt.Errorf("%s: %w: %w", method, ports.ErrExecutionReverted, err)
		}
		if strings.Contains(strings.ToLower(rpcErr.Error()), "execution reverted") {
			return fmt.Errorf("%s: %w: %w", method, ports.ErrExecutionReverted, err)
		}
		return fmt.Errorf("%s: %w", method, err)
	}
	return fmt.Errorf("%s: %w", method, err)
}

func isMethodNotFound(err error) bool {
	var rpcErr rpc.Error
	return errors.As(err, &rpcErr) && rpcErr.ErrorCode() == codeMethodNotFound
}

// isTransport reports whether err came from the connection rather than
// from the remote handler.
func isTransport(err error) bool {
	var rpcErr rpc.Error
	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		return true
	}
	return !errors.As(err, &rpcErr)
}
