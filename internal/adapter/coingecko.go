package adapter

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"unicode"

	"github.com/tidwall/gjson"

	fnerrors "github.com/onchain-formulas/internal/errors"
	"github.com/onchain-formulas/internal/normalize"
	"github.com/onchain-formulas/internal/router"
	"github.com/onchain-formulas/internal/transport"
	"github.com/onchain-formulas/internal/types"
	"github.com/onchain-formulas/internal/validate"
)

var trendWindows = []string{"1h", "24h", "7d"}

var marketEcosystems = map[string]string{
	"all":         "",
	"ethereum":    "ethereum-ecosystem",
	"base":        "base-ecosystem",
	"solana":      "solana-ecosystem",
	"gnosis":      "gnosis-chain",
	"hyperliquid": "hyperliquid-ecosystem",
	"bitcoin":     "bitcoin-ecosystem",
	"pump":        "pump-ecosystem",
	"aiagents":    "ai-agents",
	"meme":        "meme-token",
}

const derivativesCap = 200

func coingeckoCase(param1 validate.Field, param2 validate.Field) *validate.Schema {
	return &validate.Schema{
		Function: "COINGECKO",
		Fields: []validate.Field{
			{Name: "category", Required: true},
			param1,
			param2,
		},
	}
}

// CoingeckoSchema is the COINGECKO argument list, discriminated on category
var CoingeckoSchema = validate.NewDiscriminated("category", map[string]*validate.Schema{
	"price": coingeckoCase(
		validate.Field{Name: "param1", Required: true},
		validate.Field{Name: "param2"},
	),
	"market": coingeckoCase(
		validate.Field{Name: "param1", Required: true, Type: validate.TypeEnum, Enum: sortedKeys(marketEcosystems)},
		validate.Field{Name: "param2", Type: validate.TypeEnum, Enum: trendWindows},
	),
	"stablecoins": coingeckoCase(
		validate.Field{Name: "param1", Required: true, Type: validate.TypeEnum, Enum: []string{"all", "yield-bearing-stablecoins", "crypto-backed-stablecoin"}},
		validate.Field{Name: "param2", Type: validate.TypeEnum, Enum: trendWindows},
	),
	"derivatives": coingeckoCase(
		validate.Field{Name: "param1", Required: true},
		validate.Field{Name: "param2"},
	),
}, "category", "param1", "param2")

// Coingecko fetches prices, market listings, stablecoins or derivatives
func (a *Adapters) Coingecko(ctx context.Context, p validate.Params) (types.Result, error) {
	apiKey, err := a.credential(ctx, router.ServiceCoingecko)
	if err != nil {
		return types.Result{}, err
	}

	category := strings.ToLower(p.String("category"))
	param1 := p.String("param1")
	param2 := p.String("param2")
	base := a.endpoints.Coingecko

	q := url.Values{}
	var target string
	switch category {
	case "price":
		q.Set("vs_currencies", firstNonEmpty(param2, "usd"))
		q.Set("symbols", param1)
		target = base + "/simple/price?" + q.Encode()
	case "market":
		q.Set("vs_currency", "usd")
		q.Set("include_tokens", "top")
		q.Set("page", "1")
		q.Set("per_page", "100")
		if slug := marketEcosystems[strings.ToLower(param1)]; slug != "" {
			q.Set("category", slug)
		}
		if param2 != "" {
			q.Set("price_change_percentage", param2)
		}
		target = base + "/coins/markets?" + q.Encode()
	case "stablecoins":
		slug := strings.ToLower(param1)
		if slug == "" || slug == "all" {
			slug = "stablecoins"
		}
		q.Set("vs_currency", "usd")
		q.Set("category", slug)
		q.Set("order", "market_cap_desc")
		q.Set("page", "1")
		q.Set("per_page", "100")
		if param2 != "" {
			q.Set("price_change_percentage", param2)
		}
		target = base + "/coins/markets?" + q.Encode()
	case "derivatives":
		if param1 == "" || param1 == "all" {
			target = base + "/derivatives"
		} else {
			target = base + "/derivatives/exchanges/" + url.PathEscape(param1) + "?include_tickers=all"
		}
	default:
		return types.Result{}, fnerrors.NewInvalidParamError("category", category)
	}

	resp, err := a.client.Do(ctx, transport.Request{
		URL:     target,
		Service: router.ServiceCoingecko,
		Headers: map[string]string{"x-cg-demo-api-key": apiKey},
	})
	if err != nil {
		return types.Result{}, err
	}
	if !resp.OK() {
		if strings.Contains(gjson.GetBytes(resp.Body, "status.error_message").String(), "API Key Missing") {
			return types.Result{}, fnerrors.NewInvalidAPIKeyError(a.router.KeyName(router.ServiceCoingecko))
		}
		return types.Result{}, fnerrors.NewNetworkError(resp.StatusCode)
	}

	var data any
	if err := transport.Decode(resp.Body, &data); err != nil {
		return types.Result{}, err
	}

	switch category {
	case "price":
		return rows(priceRows(data))
	case "derivatives":
		data = derivatives(data, param1)
	}
	return rows(normalize.ScalarRows(normalize.ToObjects(data)))
}

// priceRows turns {token: {currency: value}} into one row keyed Token_CURRENCY
func priceRows(data any) []types.Row {
	row := types.Row{}
	prices, _ := data.(map[string]any)
	for token, byCurrency := range prices {
		values, ok := byCurrency.(map[string]any)
		if !ok {
			continue
		}
		for currency, v := range values {
			row[capitalize(token)+"_"+strings.ToUpper(currency)] = v
		}
	}
	return []types.Row{row}
}

func derivatives(data any, exchange string) any {
	if list, ok := data.([]any); ok {
		if len(list) > derivativesCap {
			return list[:derivativesCap]
		}
		return list
	}

	obj, ok := data.(map[string]any)
	if !ok || exchange == "all" {
		return data
	}
	tickers, ok := obj["tickers"].([]any)
	if !ok {
		return data
	}
	if len(tickers) > derivativesCap {
		tickers = tickers[:derivativesCap]
	}

	details := map[string]any{
		"exchange_id":                        exchange,
		"exchange_name":                      obj["name"],
		"exchange_logo":                      obj["logo"],
		"exchange_url":                       obj["url"],
		"exchange_trade_volume_24h_btc":      obj["trade_volume_24h_btc"],
		"exchange_number_of_futures_pairs":   obj["number_of_futures_pairs"],
		"exchange_number_of_perpetual_pairs": obj["number_of_perpetual_pairs"],
		"exchange_open_interest_btc":         obj["open_interest_btc"],
	}

	out := make([]any, 0, len(tickers))
	for _, t := range tickers {
		ticker, ok := t.(map[string]any)
		if !ok {
			continue
		}
		merged := make(map[string]any, len(ticker)+len(details)+1)
		for k, v := range ticker {
			merged[k] = v
		}
		for k, v := range details {
			merged[k] = v
		}
		var usd any
		if converted, ok := ticker["converted_volume"].(map[string]any); ok {
			usd = converted["usd"]
		}
		merged["usd_volume"] = usd
		out = append(out, merged)
	}
	return out
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
