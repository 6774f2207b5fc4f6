// Package adapter implements one fetch operation per external provider. Each operation takes
// validated parameters, resolves identifiers, calls the provider through the transport and
// returns normalized rows.
package adapter

import (
	"context"
	"net/http"
	"time"

	"github.com/onchain-formulas/internal/config"
	"github.com/onchain-formulas/internal/resolve"
	"github.com/onchain-formulas/internal/router"
	"github.com/onchain-formulas/internal/transport"
	"github.com/onchain-formulas/internal/types"
	"github.com/onchain-formulas/internal/validate"
)

// Func is the shape shared by every adapter operation
type Func func(ctx context.Context, p validate.Params) (types.Result, error)

// Endpoints holds every provider base URL so tests can point adapters at fakes
type Endpoints struct {
	Etherscan   string
	Basescan    string
	Gnosisscan  string
	Blockscout  map[types.ChainID]string
	Coingecko   string
	Llama       string
	Yields      string
	Safe        string
	Neynar      string
	Firefly     string
	DuneSim     string
	Onchain     string
	GnosisPay   string
	CirclesRPC  string
	ChainList   string
	EtherscanV2 string
}

// DefaultEndpoints returns the production endpoints
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Etherscan:   "https://api.etherscan.io/v2/api",
		Basescan:    "https://api.basescan.org/api",
		Gnosisscan:  "https://api.gnosisscan.io/api",
		Blockscout:  types.BlockscoutHosts,
		Coingecko:   "https://api.coingecko.com/api/v3",
		Llama:       "https://api.llama.fi",
		Yields:      "https://yields.llama.fi",
		Safe:        "https://api.safe.global/tx-service",
		Neynar:      resolve.NeynarBaseURL,
		Firefly:     "https://openapi.firefly.land/v1/fileverse/fetch",
		DuneSim:     "https://api.sim.dune.com/v1/evm",
		Onchain:     config.DefaultOnchainProxyURL,
		GnosisPay:   "https://api.gnosispay.com/api/v1",
		CirclesRPC:  "https://rpc.aboutcircles.com",
		ChainList:   resolve.ChainListURL,
		EtherscanV2: resolve.EtherscanV2URL,
	}
}

// EndpointsFromConfig overlays configured endpoints on the defaults
func EndpointsFromConfig(cfg *config.Config) Endpoints {
	e := DefaultEndpoints()
	if cfg == nil {
		return e
	}
	if cfg.Proxy.OnchainBaseURL != "" {
		e.Onchain = cfg.Proxy.OnchainBaseURL
	}
	if cfg.Providers.CirclesRPCURL != "" {
		e.CirclesRPC = cfg.Providers.CirclesRPCURL
	}
	if cfg.Providers.ChainListURL != "" {
		e.ChainList = cfg.Providers.ChainListURL
	}
	return e
}

// Options configures an Adapters set
type Options struct {
	HTTPClient *http.Client
	Router     *router.Router
	Names      resolve.NameResolver
	Endpoints  Endpoints
	DialRPC    RPCDialer
	Now        func() time.Time
}

// Adapters holds the shared collaborators of every provider adapter
type Adapters struct {
	client    *transport.Client
	router    *router.Router
	addresses *resolve.AddressResolver
	usernames *resolve.UsernameResolver
	blocks    *resolve.BlockResolver
	chains    *resolve.ChainNames
	endpoints Endpoints
	dialRPC   RPCDialer
	now       func() time.Time
}

// New creates the adapter set
func New(opts Options) *Adapters {
	client := transport.NewClient(opts.HTTPClient, opts.Router)
	e := opts.Endpoints
	if e.Etherscan == "" {
		e = DefaultEndpoints()
	}
	dial := opts.DialRPC
	if dial == nil {
		dial = DialRPC
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Adapters{
		client:    client,
		router:    opts.Router,
		addresses: resolve.NewAddressResolver(opts.Names),
		usernames: resolve.NewUsernameResolver(client, e.Neynar),
		blocks:    resolve.NewBlockResolver(client, e.EtherscanV2),
		chains:    resolve.NewChainNames(client, e.ChainList),
		endpoints: e,
		dialRPC:   dial,
		now:       now,
	}
}

// credential returns the stored value for service, or "" when absent
func (a *Adapters) credential(ctx context.Context, service router.Service) (string, error) {
	if a.router == nil {
		return "", nil
	}
	v, _, err := a.router.Credential(ctx, service)
	return v, err
}

func rows(r []types.Row) (types.Result, error) {
	return types.RowsResult(r), nil
}
