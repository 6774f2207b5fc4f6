package adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rpc"

	fnerrors "github.com/onchain-formulas/internal/errors"
)

// RPCClient is the subset of a JSON-RPC client the adapters use
type RPCClient interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
	Close()
}

// RPCDialer opens a JSON-RPC client for an endpoint
type RPCDialer func(ctx context.Context, endpoint string) (RPCClient, error)

// DialRPC dials endpoint with go-ethereum's rpc client
func DialRPC(ctx context.Context, endpoint string) (RPCClient, error) {
	client, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fnerrors.NewDefaultError(fmt.Errorf("failed to dial %s: %w", endpoint, err))
	}
	return client, nil
}

// call runs one JSON-RPC method against endpoint and maps transport failures
func (a *Adapters) call(ctx context.Context, endpoint string, result interface{}, method string, args ...interface{}) error {
	client, err := a.dialRPC(ctx, endpoint)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.CallContext(ctx, result, method, args...); err != nil {
		return rpcError(method, err)
	}
	return nil
}

func rpcError(method string, err error) error {
	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		return fnerrors.NewNetworkError(httpErr.StatusCode)
	}
	var fnErr *fnerrors.FunctionError
	if errors.As(err, &fnErr) {
		return err
	}
	return fnerrors.NewDefaultError(fmt.Errorf("%s failed: %w", method, err))
}
