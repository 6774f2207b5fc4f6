// Package types provides common type definitions shared by the formula functions.
package types

import "strings"

// ErrorKind names one member of the closed error taxonomy
type ErrorKind string

const (
	// KindMissingParam represents a required argument that was not supplied
	KindMissingParam ErrorKind = "MISSING_PARAM"
	// KindInvalidParam represents an argument that failed a schema or semantic check
	KindInvalidParam ErrorKind = "INVALID_PARAM"
	// KindInvalidChain represents a chain name with no known identifier
	KindInvalidChain ErrorKind = "INVALID_CHAIN"
	// KindInvalidAddress represents an input that is not address-shaped where one is expected
	KindInvalidAddress ErrorKind = "INVALID_ADDRESS"
	// KindENS represents a name that did not resolve to an address
	KindENS ErrorKind = "ENS"
	// KindMissingKey represents a service credential that is not stored
	KindMissingKey ErrorKind = "MISSING_KEY"
	// KindInvalidAPIKey represents a credential rejected by the provider
	KindInvalidAPIKey ErrorKind = "INVALID_API_KEY"
	// KindRateLimit represents provider or transport rate limiting
	KindRateLimit ErrorKind = "RATE_LIMIT"
	// KindNetworkError represents a non-2xx HTTP response
	KindNetworkError ErrorKind = "NETWORK_ERROR"
	// KindMaxPageLimit represents a page size above MaxPageLimit
	KindMaxPageLimit ErrorKind = "MAX_PAGE_LIMIT"
	// KindCustom represents an adapter-specific structured failure
	KindCustom ErrorKind = "CUSTOM"
	// KindDefault represents any other failure
	KindDefault ErrorKind = "DEFAULT"
)

// MaxPageLimit is the global page size ceiling
const MaxPageLimit = 250

// LatestBlockSentinel stands in for "latest" when an end block cannot be resolved
const LatestBlockSentinel int64 = 99999999

// ErrorResult is the only error shape returned by a top-level function
type ErrorResult struct {
	Message      string    `json:"message"`
	Type         ErrorKind `json:"type"`
	FunctionName string    `json:"functionName"`
	Reason       any       `json:"reason,omitempty"`
}

func (e *ErrorResult) Error() string {
	return e.Message
}

// Row is a flat record: string keys to scalar values (string, number, bool or nil)
type Row map[string]any

// Result is what a function call produces: exactly one of Rows, Value or Err is meaningful.
type Result struct {
	Rows   []Row
	Value  any
	Scalar bool
	Err    *ErrorResult
}

// RowsResult wraps rows into a Result
func RowsResult(rows []Row) Result {
	if rows == nil {
		rows = []Row{}
	}
	return Result{Rows: rows}
}

// ScalarResult wraps a single value into a Result
func ScalarResult(v any) Result {
	return Result{Value: v, Scalar: true}
}

// ErrResult wraps an error result
func ErrResult(err *ErrorResult) Result {
	return Result{Err: err}
}

// IsError reports whether the result carries an error
func (r Result) IsError() bool {
	return r.Err != nil
}

// Payload returns the value to hand back to a caller: rows, a scalar, or the error object.
func (r Result) Payload() any {
	switch {
	case r.Err != nil:
		return r.Err
	case r.Scalar:
		return r.Value
	default:
		return r.Rows
	}
}

// ChainID represents a chain name accepted by the functions
type ChainID string

const (
	ChainEthereum ChainID = "ethereum"
	ChainGnosis   ChainID = "gnosis"
	ChainBase     ChainID = "base"
	ChainArbitrum ChainID = "arbitrum"
	ChainOptimism ChainID = "optimism"
	ChainSoneium  ChainID = "soneium"
	ChainUnichain ChainID = "unichain"
)

// ExplorerChainIDs maps chain names to Etherscan v2 chain ids
var ExplorerChainIDs = map[ChainID]int64{
	ChainEthereum: 1,
	ChainGnosis:   100,
	ChainBase:     8453,
}

// BlockscoutHosts maps chain names to Blockscout instances
var BlockscoutHosts = map[ChainID]string{
	ChainEthereum: "https://eth.blockscout.com",
	ChainGnosis:   "https://gnosis.blockscout.com",
	ChainArbitrum: "https://arbitrum.blockscout.com",
	ChainOptimism: "https://optimism.blockscout.com",
	ChainSoneium:  "https://soneium.blockscout.com",
	ChainUnichain: "https://unichain.blockscout.com",
}

// SafeChainPrefixes maps chain names to Safe transaction-service short names
var SafeChainPrefixes = map[ChainID]string{
	ChainEthereum: "eth",
	ChainGnosis:   "gno",
}

// SimChainIDs maps chain names accepted by Dune Sim to numeric chain ids
var SimChainIDs = map[string]int64{
	"eth":       1,
	"ethereum":  1,
	"base":      8453,
	"polygon":   137,
	"arbitrum":  42161,
	"optimism":  10,
	"gnosis":    100,
	"bsc":       56,
	"avalanche": 43114,
	"fantom":    250,
	"scroll":    534352,
	"linea":     59144,
}

// ExplorerChainID looks up the explorer chain id for a chain name
func ExplorerChainID(chain string) (int64, bool) {
	id, ok := ExplorerChainIDs[ChainID(strings.TrimSpace(chain))]
	return id, ok
}

// SplitList splits a comma-separated argument, trimming entries and dropping blanks
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
