package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	fnerrors "github.com/onchain-formulas/internal/errors"
	"github.com/onchain-formulas/internal/normalize"
	"github.com/onchain-formulas/internal/router"
	"github.com/onchain-formulas/internal/transport"
	"github.com/onchain-formulas/internal/types"
	"github.com/onchain-formulas/internal/validate"
)

// Explorer transaction types
const (
	TxnsAll   = "all-txns"
	TxnsToken = "token-txns"
	TxnsNFT   = "nft-txns"
	TxnsGas   = "gas"
)

var explorerActions = map[string]string{
	TxnsAll:   "txlist",
	TxnsToken: "tokentx",
	TxnsNFT:   "tokennfttx",
	TxnsGas:   "gasoracle",
}

// ExplorerResult is an explorer-style body decoded into a tagged variant.
// Exactly one of Rows, Object or ProviderError is set.
type ExplorerResult struct {
	Status        string
	Message       string
	Rows          []any
	Object        map[string]any
	ProviderError string
}

// ParseExplorer decodes an explorer body. A string "result" is a provider error.
func ParseExplorer(body []byte) (*ExplorerResult, error) {
	if !gjson.ValidBytes(body) {
		return nil, fnerrors.NewDefaultError(fmt.Errorf("invalid explorer response"))
	}
	parsed := gjson.ParseBytes(body)
	res := &ExplorerResult{
		Status:  parsed.Get("status").String(),
		Message: parsed.Get("message").String(),
	}

	result := parsed.Get("result")
	switch {
	case result.Type == gjson.String:
		res.ProviderError = result.String()
	case result.IsArray():
		if err := json.Unmarshal([]byte(result.Raw), &res.Rows); err != nil {
			return nil, fnerrors.NewDefaultError(fmt.Errorf("failed to decode explorer rows: %w", err))
		}
	case result.IsObject():
		if err := json.Unmarshal([]byte(result.Raw), &res.Object); err != nil {
			return nil, fnerrors.NewDefaultError(fmt.Errorf("failed to decode explorer result: %w", err))
		}
	default:
		res.Rows = []any{}
	}
	return res, nil
}

// Err maps in-body error signaling onto the taxonomy
func (r *ExplorerResult) Err(keyName string) error {
	switch {
	case r.ProviderError == "":
		return nil
	case strings.Contains(r.ProviderError, "Invalid API Key"):
		return fnerrors.NewInvalidAPIKeyError(keyName)
	case strings.Contains(r.ProviderError, "Max rate limit reached"):
		return fnerrors.NewRateLimitError(keyName)
	default:
		return fnerrors.NewCustomError(r.ProviderError, firstNonEmpty(r.Message, r.ProviderError))
	}
}

// Objects returns the result as a list of objects
func (r *ExplorerResult) Objects() []any {
	if r.Object != nil {
		return []any{r.Object}
	}
	return r.Rows
}

var explorerFields = []validate.Field{
	{Name: "address", Required: true},
	{Name: "startDate", Type: validate.TypeDateOrTimestamp},
	{Name: "endDate", Type: validate.TypeDateOrTimestamp},
	{Name: "page", Type: validate.TypeNumber, Default: int64(1), Min: validate.Bound(1)},
	{Name: "limit", Type: validate.TypeNumber, Default: int64(10), PageLimit: true},
	{Name: "columns"},
}

func explorerTypeField() validate.Field {
	return validate.Field{Name: "type", Required: true, Type: validate.TypeEnum, Enum: []string{TxnsAll, TxnsToken, TxnsNFT, TxnsGas}}
}

// EtherscanSchema is the ETHERSCAN argument list
var EtherscanSchema = &validate.Schema{
	Function: "ETHERSCAN",
	Fields: append([]validate.Field{
		explorerTypeField(),
		{Name: "chain", Required: true},
	}, explorerFields...),
}

// BaseSchema is the BASE argument list
var BaseSchema = &validate.Schema{
	Function: "BASE",
	Fields:   append([]validate.Field{explorerTypeField()}, explorerFields...),
}

// GnosisSchema is the GNOSIS argument list
var GnosisSchema = &validate.Schema{
	Function: "GNOSIS",
	Fields:   append([]validate.Field{explorerTypeField()}, explorerFields...),
}

type scanTarget struct {
	baseURL string
	service router.Service
	chainID int64
}

// Etherscan fetches transactions or gas metrics from Etherscan v2
func (a *Adapters) Etherscan(ctx context.Context, p validate.Params) (types.Result, error) {
	chain := p.String("chain")
	chainID, ok := types.ExplorerChainID(chain)
	if !ok {
		return types.Result{}, fnerrors.NewInvalidChainError(chain)
	}
	return a.scan(ctx, p, scanTarget{baseURL: a.endpoints.Etherscan, service: router.ServiceEtherscan, chainID: chainID})
}

// Base fetches transactions or gas metrics from Basescan
func (a *Adapters) Base(ctx context.Context, p validate.Params) (types.Result, error) {
	return a.scan(ctx, p, scanTarget{baseURL: a.endpoints.Basescan, service: router.ServiceBasescan, chainID: types.ExplorerChainIDs[types.ChainBase]})
}

// Gnosis fetches transactions or gas metrics from Gnosisscan
func (a *Adapters) Gnosis(ctx context.Context, p validate.Params) (types.Result, error) {
	return a.scan(ctx, p, scanTarget{baseURL: a.endpoints.Gnosisscan, service: router.ServiceGnosisscan, chainID: types.ExplorerChainIDs[types.ChainGnosis]})
}

func (a *Adapters) scan(ctx context.Context, p validate.Params, target scanTarget) (types.Result, error) {
	txType := p.String("type")
	action, ok := explorerActions[txType]
	if !ok {
		return types.Result{}, fnerrors.NewInvalidParamError("type", txType)
	}

	apiKey, err := a.credential(ctx, target.service)
	if err != nil {
		return types.Result{}, err
	}

	q := url.Values{}
	q.Set("chainid", strconv.FormatInt(target.chainID, 10))
	q.Set("apikey", apiKey)

	if txType == TxnsGas {
		q.Set("module", "gastracker")
		q.Set("action", action)
	} else {
		address, err := a.addresses.Resolve(ctx, p.String("address"))
		if err != nil {
			return types.Result{}, err
		}

		blockKey, err := a.credential(ctx, router.ServiceEtherscan)
		if err != nil {
			return types.Result{}, err
		}
		rng := a.blocks.ResolveRange(ctx, p["startDate"], p["endDate"], target.chainID, blockKey)

		q.Set("module", "account")
		q.Set("action", action)
		q.Set("address", address)
		q.Set("startblock", strconv.FormatInt(rng.Start, 10))
		q.Set("endblock", strconv.FormatInt(rng.End, 10))
		q.Set("page", p.IntString("page"))
		q.Set("offset", p.IntString("limit"))
		q.Set("sort", "asc")
	}

	body, err := a.client.Fetch(ctx, transport.Request{URL: target.baseURL + "?" + q.Encode(), Service: target.service})
	if err != nil {
		return types.Result{}, err
	}
	res, err := ParseExplorer(body)
	if err != nil {
		return types.Result{}, err
	}
	if err := res.Err(a.router.KeyName(target.service)); err != nil {
		return types.Result{}, err
	}

	out := normalize.FlattenRows(res.Objects(), normalize.ExpandArrays)
	return rows(normalize.Project(out, p.String("columns")))
}

// EOASchema is the EOA argument list. startTime and endTime are required for txns only.
var EOASchema = &validate.Schema{
	Function: "EOA",
	Fields: []validate.Field{
		{Name: "addresses", Required: true},
		{Name: "category", Required: true, Type: validate.TypeEnum, Enum: []string{"balance", "txns"}},
		{Name: "chains", Required: true},
		{Name: "startTime", Type: validate.TypeDateOrTimestamp},
		{Name: "endTime", Type: validate.TypeDateOrTimestamp},
		{Name: "page", Type: validate.TypeNumber, Default: int64(1), Min: validate.Bound(1)},
		{Name: "offset", Type: validate.TypeNumber, Default: int64(10), PageLimit: true},
		{Name: "columns"},
	},
	Refinements: []validate.Refinement{
		func(p validate.Params) error {
			if p.String("category") != "txns" {
				return nil
			}
			for _, f := range []string{"startTime", "endTime"} {
				if !p.Has(f) {
					return fnerrors.NewMissingParamError(f)
				}
			}
			return nil
		},
	},
}

const balanceChunk = 20

// EOA fetches balances or token transfers for every address on every chain. Requests run
// one at a time in chain-major order and the first failure aborts the batch.
func (a *Adapters) EOA(ctx context.Context, p validate.Params) (types.Result, error) {
	apiKey, err := a.credential(ctx, router.ServiceEtherscan)
	if err != nil {
		return types.Result{}, err
	}
	if _, err := a.router.Access(ctx, router.ServiceEtherscan); err != nil {
		return types.Result{}, err
	}

	book, err := a.addresses.ResolveBatch(ctx, p.String("addresses"))
	if err != nil {
		return types.Result{}, err
	}
	addrs := book.Addresses()
	keyName := a.router.KeyName(router.ServiceEtherscan)

	var out []types.Row
	for _, chain := range types.SplitList(p.String("chains")) {
		chainID, ok := types.ExplorerChainID(chain)
		if !ok {
			return types.Result{}, fnerrors.NewInvalidChainError(chain)
		}

		switch p.String("category") {
		case "balance":
			for i := 0; i < len(addrs); i += balanceChunk {
				end := i + balanceChunk
				if end > len(addrs) {
					end = len(addrs)
				}
				chunk := addrs[i:end]

				q := eoaQuery(chainID, apiKey, "addresstokenbalance", strings.Join(chunk, ","))
				q.Set("page", p.IntString("page"))
				q.Set("offset", "100")

				items, err := a.fetchEOA(ctx, q, keyName)
				if err != nil {
					return types.Result{}, err
				}
				// a multi-address response does not say which holder a balance belongs to;
				// rows are tagged with the chunk's first address
				out = appendTagged(out, items, chain, chunk[0], book.Name(chunk[0]))
			}

		case "txns":
			rng, err := a.blocks.ResolveStrictRange(ctx, p["startTime"], p["endTime"], chainID, apiKey, "startTime", "endTime")
			if err != nil {
				return types.Result{}, err
			}
			for _, addr := range addrs {
				q := eoaQuery(chainID, apiKey, "tokentx", addr)
				q.Set("startblock", strconv.FormatInt(rng.Start, 10))
				q.Set("endblock", strconv.FormatInt(rng.End, 10))
				q.Set("page", p.IntString("page"))
				q.Set("offset", p.IntString("offset"))
				q.Set("sort", "asc")

				items, err := a.fetchEOA(ctx, q, keyName)
				if err != nil {
					return types.Result{}, err
				}
				out = appendTagged(out, items, chain, addr, book.Name(addr))
			}
		}
	}

	return rows(normalize.Project(out, p.String("columns")))
}

func eoaQuery(chainID int64, apiKey, action, address string) url.Values {
	q := url.Values{}
	q.Set("chainid", strconv.FormatInt(chainID, 10))
	q.Set("module", "account")
	q.Set("action", action)
	q.Set("address", address)
	q.Set("apikey", apiKey)
	return q
}

func (a *Adapters) fetchEOA(ctx context.Context, q url.Values, keyName string) ([]any, error) {
	body, err := a.client.Fetch(ctx, transport.Request{URL: a.endpoints.Etherscan + "?" + q.Encode(), Service: router.ServiceEtherscan})
	if err != nil {
		return nil, err
	}
	res, err := ParseExplorer(body)
	if err != nil {
		return nil, err
	}
	if err := res.Err(keyName); err != nil && fnerrors.KindOf(err) != types.KindCustom {
		return nil, err
	}
	if res.Status == "0" && res.Message != "No transactions found" {
		msg := firstNonEmpty(res.Message, "Api Error")
		return nil, fnerrors.NewCustomError(msg, firstNonEmpty(res.Message, res.ProviderError))
	}
	if res.ProviderError != "" {
		return nil, fnerrors.NewCustomError(res.ProviderError, res.ProviderError)
	}
	return res.Objects(), nil
}

func appendTagged(out []types.Row, items []any, chain, address string, name any) []types.Row {
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		row := types.Row{"chain": chain, "address": address, "name": name}
		for k, v := range normalize.Flatten(obj, normalize.ExpandArrays) {
			row[k] = v
		}
		out = append(out, row)
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
