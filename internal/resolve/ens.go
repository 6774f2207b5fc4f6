package resolve

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// ENSRegistry is the mainnet ENS registry
var ENSRegistry = common.HexToAddress("0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e")

var (
	resolverSelector = crypto.Keccak256([]byte("resolver(bytes32)"))[:4]
	addrSelector     = crypto.Keccak256([]byte("addr(bytes32)"))[:4]
)

// ContractCaller executes read-only contract calls
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// ENSResolver resolves ENS names through the registry and the name's resolver contract
type ENSResolver struct {
	caller   ContractCaller
	registry common.Address
	closer   func()
}

// NewENSResolver creates a resolver over caller using the mainnet registry
func NewENSResolver(caller ContractCaller) *ENSResolver {
	return &ENSResolver{caller: caller, registry: ENSRegistry}
}

// DialENS connects to an Ethereum JSON-RPC endpoint
func DialENS(ctx context.Context, rpcURL string) (*ENSResolver, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial ENS RPC: %w", err)
	}
	r := NewENSResolver(client)
	r.closer = client.Close
	return r, nil
}

// Close releases the RPC connection
func (r *ENSResolver) Close() {
	if r.closer != nil {
		r.closer()
	}
}

// Namehash computes the EIP-137 node of name
func Namehash(name string) common.Hash {
	var node common.Hash
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return node
	}
	labels := strings.Split(name, ".")
	for i := len(labels) - 1; i >= 0; i-- {
		labelHash := crypto.Keccak256([]byte(labels[i]))
		node = common.BytesToHash(crypto.Keccak256(node.Bytes(), labelHash))
	}
	return node
}

// ResolveName implements NameResolver
func (r *ENSResolver) ResolveName(ctx context.Context, name string) (string, error) {
	node := Namehash(name)

	resolver, err := r.callAddress(ctx, r.registry, resolverSelector, node)
	if err != nil {
		return "", fmt.Errorf("registry lookup: %w", err)
	}
	if resolver == (common.Address{}) {
		return "", nil
	}

	addr, err := r.callAddress(ctx, resolver, addrSelector, node)
	if err != nil {
		return "", fmt.Errorf("resolver lookup: %w", err)
	}
	if addr == (common.Address{}) {
		return "", nil
	}
	return addr.Hex(), nil
}

func (r *ENSResolver) callAddress(ctx context.Context, to common.Address, selector []byte, node common.Hash) (common.Address, error) {
	data := make([]byte, 0, len(selector)+common.HashLength)
	data = append(data, selector...)
	data = append(data, node.Bytes()...)

	out, err := r.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return common.Address{}, err
	}
	if len(out) < common.HashLength {
		return common.Address{}, nil
	}
	return common.BytesToAddress(out[:common.HashLength]), nil
}
