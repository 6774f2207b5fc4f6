package adapter

import (
	"context"

	"github.com/onchain-formulas/internal/normalize"
	"github.com/onchain-formulas/internal/router"
	"github.com/onchain-formulas/internal/types"
	"github.com/onchain-formulas/internal/validate"
)

// DefiLlama categories
const (
	LlamaProtocols = "protocols"
	LlamaYields    = "yields"
	LlamaDex       = "dex"
	LlamaFees      = "fees"
)

const llamaCap = 500

// DefillamaSchema is the DEFILLAMA argument list
var DefillamaSchema = &validate.Schema{
	Function: "DEFILLAMA",
	Fields: []validate.Field{
		{Name: "category", Required: true, Type: validate.TypeEnum, Enum: []string{LlamaProtocols, LlamaYields, LlamaDex, LlamaFees}},
	},
}

// YieldSchema is the YIELD argument list
var YieldSchema = &validate.Schema{
	Function: "YIELD",
	Fields: []validate.Field{
		{Name: "category", Required: true, Type: validate.TypeEnum, Enum: []string{"all", "stablecoins"}},
	},
}

func (a *Adapters) llamaURL(category string) string {
	switch category {
	case LlamaProtocols:
		return a.endpoints.Llama + "/protocols"
	case LlamaYields:
		return a.endpoints.Yields + "/pools"
	case LlamaDex:
		return a.endpoints.Llama + "/overview/dexs?excludeTotalDataChart=true&excludeTotalDataChartBreakdown=true"
	case LlamaFees:
		return a.endpoints.Llama + "/overview/fees?excludeTotalDataChart=true&excludeTotalDataChartBreakdown=true&dataType=dailyFees"
	}
	return ""
}

// Defillama fetches protocol, yield pool, dex or fee listings. Nested structure is dropped.
func (a *Adapters) Defillama(ctx context.Context, p validate.Params) (types.Result, error) {
	r, err := a.llama(ctx, p.String("category"))
	if err != nil {
		return types.Result{}, err
	}
	return rows(r)
}

func (a *Adapters) llama(ctx context.Context, category string) ([]types.Row, error) {
	var data any
	if err := a.client.GetJSON(ctx, a.llamaURL(category), router.ServiceDefillama, nil, &data); err != nil {
		return nil, err
	}

	var items []any
	switch category {
	case LlamaProtocols:
		items = normalize.ToObjects(data)
	case LlamaYields:
		items = field(data, "data")
	case LlamaDex, LlamaFees:
		items = field(data, "protocols")
	}
	if len(items) > llamaCap {
		items = items[:llamaCap]
	}
	return normalize.ScalarRows(items), nil
}

// Yield returns DefiLlama yield pools, optionally only stablecoin pools
func (a *Adapters) Yield(ctx context.Context, p validate.Params) (types.Result, error) {
	pools, err := a.llama(ctx, LlamaYields)
	if err != nil {
		return types.Result{}, err
	}
	if p.String("category") == "all" {
		return rows(pools)
	}

	out := make([]types.Row, 0, len(pools))
	for _, pool := range pools {
		if truthy(pool["stablecoin"]) {
			out = append(out, pool)
		}
	}
	return rows(out)
}

func field(data any, key string) []any {
	obj, ok := data.(map[string]any)
	if !ok {
		return nil
	}
	items, _ := obj[key].([]any)
	return items
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	default:
		return true
	}
}
