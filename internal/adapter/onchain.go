package adapter

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"

	fnerrors "github.com/onchain-formulas/internal/errors"
	"github.com/onchain-formulas/internal/normalize"
	"github.com/onchain-formulas/internal/transport"
	"github.com/onchain-formulas/internal/types"
	"github.com/onchain-formulas/internal/validate"
)

func graphSchema(function string, graphTypes []string) *validate.Schema {
	return &validate.Schema{
		Function: function,
		Fields: []validate.Field{
			{Name: "graphType", Required: true, Type: validate.TypeEnum, Enum: graphTypes},
			{Name: "category", Required: true, Type: validate.TypeEnum, Enum: []string{"tokens", "markets"}},
			{Name: "param1", Required: true},
			{Name: "param2"},
			{Name: "columns"},
		},
	}
}

// UniswapSchema is the UNISWAP argument list
var UniswapSchema = graphSchema("UNISWAP", []string{"v3", "v3-raw"})

// AaveSchema is the AAVE argument list
var AaveSchema = graphSchema("AAVE", []string{"v2", "v2-raw"})

// TallySchema is the TALLY argument list
var TallySchema = &validate.Schema{
	Function: "TALLY",
	Fields: []validate.Field{
		{Name: "query", Required: true, Type: validate.TypeEnum, Enum: []string{"organisation"}},
		{Name: "slug", Required: true},
	},
}

// PriceSchema is the PRICE argument list. A token address in input1 needs exactly one chain in
// input2.
var PriceSchema = &validate.Schema{
	Function: "PRICE",
	Fields: []validate.Field{
		{Name: "input1", Required: true},
		{Name: "input2"},
		{Name: "input3"},
	},
	Refinements: []validate.Refinement{
		func(p validate.Params) error {
			if !validate.IsAddress(p.String("input1")) {
				return nil
			}
			if !p.Has("input2") {
				return fnerrors.NewInvalidParamErrorf("input2", p["input2"], "chain is required to query token price")
			}
			if len(types.SplitList(p.String("input2"))) != 1 {
				return fnerrors.NewInvalidParamErrorf("input2", p["input2"], "exactly one chain is required for a token address")
			}
			return nil
		},
	},
}

// WalletSchema is the WALLET argument list
var WalletSchema = &validate.Schema{
	Function: "WALLET",
	Fields: []validate.Field{
		{Name: "addresses", Required: true},
		{Name: "chains", Required: true},
		{Name: "query", Required: true, Type: validate.TypeEnum, Enum: []string{"txns", "balance"}},
		{Name: "time"},
	},
}

// thirdParty calls the onchain proxy. A 400 carries a caller-facing message.
func (a *Adapters) thirdParty(ctx context.Context, q url.Values) ([]byte, error) {
	resp, err := a.client.Do(ctx, transport.Request{URL: a.endpoints.Onchain + "/third-party?" + q.Encode()})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusBadRequest {
		msg := gjson.GetBytes(resp.Body, "message").String()
		return nil, fnerrors.NewCustomError(firstNonEmpty(msg, "Bad request"), string(resp.Body))
	}
	if !resp.OK() {
		return nil, fnerrors.NewNetworkError(resp.StatusCode)
	}
	return resp.Body, nil
}

// Uniswap fetches Uniswap token or market data
func (a *Adapters) Uniswap(ctx context.Context, p validate.Params) (types.Result, error) {
	return a.graph(ctx, "uniswap", p)
}

// Aave fetches Aave token or market data
func (a *Adapters) Aave(ctx context.Context, p validate.Params) (types.Result, error) {
	return a.graph(ctx, "aave", p)
}

func (a *Adapters) graph(ctx context.Context, service string, p validate.Params) (types.Result, error) {
	q := url.Values{}
	q.Set("service", service)
	q.Set("graphType", p.String("graphType"))
	q.Set("category", p.String("category"))
	q.Set("input1", p.String("param1"))
	if p.Has("param2") {
		q.Set("input2", p.String("param2"))
	}

	body, err := a.thirdParty(ctx, q)
	if err != nil {
		return types.Result{}, err
	}
	var data any
	if err := transport.Decode(body, &data); err != nil {
		return types.Result{}, err
	}

	columns := p.String("columns")
	switch t := data.(type) {
	case []any:
		return rows(normalize.Project(normalize.ScalarRows(t), columns))
	case map[string]any:
		return rows([]types.Row{normalize.ProjectObject(t, columns)})
	default:
		return rows(nil)
	}
}

// Tally fetches governance organisation data
func (a *Adapters) Tally(ctx context.Context, p validate.Params) (types.Result, error) {
	q := url.Values{}
	q.Set("service", "tally")
	q.Set("input1", p.String("query"))
	q.Set("input2", p.String("slug"))

	body, err := a.thirdParty(ctx, q)
	if err != nil {
		return types.Result{}, err
	}
	var data any
	if err := transport.Decode(body, &data); err != nil {
		return types.Result{}, err
	}
	return rows(normalize.FlattenRows(normalize.ToObjects(data), normalize.DropArrays))
}

// Price fetches coin or token prices. A coin with no time returns the single latest price.
func (a *Adapters) Price(ctx context.Context, p validate.Params) (types.Result, error) {
	q := url.Values{}
	q.Set("service", "price")

	single := false
	input1 := p.String("input1")
	if validate.IsAddress(input1) {
		q.Set("token", input1)
		q.Set("chain", p.String("input2"))
		if p.Has("input3") {
			q.Set("time", p.String("input3"))
		}
	} else {
		q.Set("coin", input1)
		if p.Has("input2") {
			q.Set("time", p.String("input2"))
		} else {
			single = true
		}
	}

	body, err := a.thirdParty(ctx, q)
	if err != nil {
		return types.Result{}, err
	}

	prices := gjson.GetBytes(body, "price")
	if single {
		first := prices.Get("0.price")
		if !first.Exists() {
			return types.Result{}, fnerrors.NewCustomError("Price not found", input1)
		}
		return types.ScalarResult(first.Value()), nil
	}
	return rows(normalize.FlattenRows(normalize.ToObjects(prices.Value()), normalize.DropArrays))
}

// Wallet fetches transactions or balances for a set of addresses across chains
func (a *Adapters) Wallet(ctx context.Context, p validate.Params) (types.Result, error) {
	q := url.Values{}
	q.Set("service", "wallet")
	q.Set("addresses", p.String("addresses"))
	q.Set("chains", p.String("chains"))
	q.Set("query", p.String("query"))
	if p.Has("time") {
		q.Set("time", p.String("time"))
	}

	body, err := a.thirdParty(ctx, q)
	if err != nil {
		return types.Result{}, err
	}

	key := "balances"
	if p.String("query") == "txns" {
		key = "transactions"
	}
	return rows(normalize.FlattenRows(normalize.ToObjects(gjson.GetBytes(body, key).Value()), normalize.DropArrays))
}
