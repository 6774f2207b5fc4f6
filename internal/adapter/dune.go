package adapter

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	fnerrors "github.com/onchain-formulas/internal/errors"
	"github.com/onchain-formulas/internal/logging"
	"github.com/onchain-formulas/internal/normalize"
	"github.com/onchain-formulas/internal/router"
	"github.com/onchain-formulas/internal/types"
	"github.com/onchain-formulas/internal/validate"
)

// Dune Sim query types
const (
	DuneActivity     = "activity"
	DunePrice        = "price"
	DuneTokenHolders = "token-holders"
)

var historicalPricesPattern = regexp.MustCompile(`^\s*(\d{1,2})(\s*,\s*\d{1,2}){0,2}\s*$`)

const firstAcquiredLayout = "January 2, 2006 at 3:04 PM"

func duneCase(fields ...validate.Field) *validate.Schema {
	return &validate.Schema{
		Function: "DUNE",
		Fields:   append([]validate.Field{{Name: "type", Required: true}}, fields...),
	}
}

// DuneSchema is the DUNE argument list, discriminated on type
var DuneSchema = validate.NewDiscriminated("type", map[string]*validate.Schema{
	DuneActivity: duneCase(
		validate.Field{Name: "input1", Required: true},
		validate.Field{Name: "input2"},
		validate.Field{Name: "input3", Type: validate.TypeNumber, Min: validate.Bound(1), Max: validate.Bound(100)},
	),
	DunePrice: func() *validate.Schema {
		s := duneCase(
			validate.Field{Name: "input1", Required: true},
			validate.Field{Name: "input2", Pattern: historicalPricesPattern},
			validate.Field{Name: "input3"},
			validate.Field{Name: "input4", Type: validate.TypeNumber, Min: validate.Bound(1), Max: validate.Bound(500)},
		)
		s.Refinements = []validate.Refinement{checkHourOffsets}
		return s
	}(),
	DuneTokenHolders: duneCase(
		validate.Field{Name: "input1", Required: true},
		validate.Field{Name: "input2", Required: true},
		validate.Field{Name: "input3", Type: validate.TypeNumber, Min: validate.Bound(1), Max: validate.Bound(500)},
	),
}, "type", "input1", "input2", "input3", "input4")

func checkHourOffsets(p validate.Params) error {
	if !p.Has("input2") {
		return nil
	}
	for _, part := range types.SplitList(p.String("input2")) {
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 || n > 24 {
			return fnerrors.NewInvalidParamErrorf("input2", p["input2"], "each offset must be between 1 and 24")
		}
	}
	return nil
}

// simChain maps a chain name to its Sim chain id, passing unknown values through
func simChain(chain string) string {
	if id, ok := types.SimChainIDs[strings.ToLower(strings.TrimSpace(chain))]; ok {
		return strconv.FormatInt(id, 10)
	}
	return strings.TrimSpace(chain)
}

// Dune queries Dune Sim for wallet activity, token prices or token holders
func (a *Adapters) Dune(ctx context.Context, p validate.Params) (types.Result, error) {
	kind := p.String("type")
	q := url.Values{}
	var route string

	switch kind {
	case DuneActivity:
		address, err := a.addresses.Resolve(ctx, p.String("input1"))
		if err != nil {
			return types.Result{}, err
		}
		if p.Has("input2") {
			q.Set("chain_ids", simChain(p.String("input2")))
		}
		if p.Has("input3") {
			q.Set("limit", p.IntString("input3"))
		}
		route = "activity/" + address

	case DunePrice:
		q.Set("chain_ids", simChain(p.String("input1")))
		if p.Has("input2") {
			q.Set("historical_prices", strings.Join(types.SplitList(p.String("input2")), ","))
		}
		if p.Has("input4") {
			q.Set("limit", p.IntString("input4"))
		}
		route = "token-info/" + firstNonEmpty(p.String("input3"), "native")

	case DuneTokenHolders:
		if p.Has("input3") {
			q.Set("limit", p.IntString("input3"))
		}
		route = fmt.Sprintf("token-holders/%s/%s", simChain(p.String("input2")), p.String("input1"))

	default:
		return types.Result{}, fnerrors.NewInvalidParamError("type", kind)
	}

	var data map[string]any
	if err := a.sim(ctx, route, q, &data); err != nil {
		return types.Result{}, err
	}

	listKey := map[string]string{DuneActivity: "activity", DunePrice: "tokens", DuneTokenHolders: "holders"}[kind]
	items := normalize.ToObjects(data[listKey])
	if _, ok := data[listKey]; !ok {
		items = normalize.ToObjects(data)
	}

	var holderDecimals *int32
	out := make([]types.Row, 0, len(items))
	for _, it := range items {
		item, ok := it.(map[string]any)
		if !ok {
			continue
		}

		if d, ok := intValue(item["decimals"]); ok && d > 0 {
			for _, k := range []string{"total_supply", "fully_diluted_value"} {
				if v, ok := item[k]; ok && v != nil {
					item[k] = formatCompact(v, int32(d))
				}
			}
		}
		if s, ok := item["first_acquired"].(string); ok {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				item["first_acquired"] = t.UTC().Format(firstAcquiredLayout)
			}
		}
		if prices, ok := item["historical_prices"].([]any); ok {
			for _, pr := range prices {
				point, ok := pr.(map[string]any)
				if !ok {
					continue
				}
				item[fmt.Sprintf("price_%vh", point["offset_hours"])] = point["price_usd"]
			}
		}

		switch kind {
		case DunePrice:
			delete(item, "chain_id")
			delete(item, "decimals")
			delete(item, "logo")
		case DuneActivity:
			if id, ok := intValue(item["chain_id"]); ok {
				if name, found := a.chains.Name(ctx, id); found {
					item["chain_id"] = name
				}
			}
		case DuneTokenHolders:
			if balance, ok := item["balance"]; ok && balance != nil {
				if holderDecimals == nil {
					d := a.tokenDecimals(ctx, p.String("input1"), p.String("input2"))
					holderDecimals = &d
				}
				item["balance"] = formatCompact(balance, *holderDecimals)
			}
		}

		out = append(out, normalize.Flatten(item, normalize.ExpandArrays))
	}
	return rows(out)
}

func (a *Adapters) sim(ctx context.Context, route string, q url.Values, out any) error {
	apiKey, err := a.credential(ctx, router.ServiceDuneSim)
	if err != nil {
		return err
	}
	target := a.endpoints.DuneSim + "/" + route
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	return a.client.GetJSON(ctx, target, router.ServiceDuneSim, map[string]string{"X-Sim-Api-Key": apiKey}, out)
}

// tokenDecimals looks up token decimals for holder balances. Failures leave balances raw.
func (a *Adapters) tokenDecimals(ctx context.Context, token, chain string) int32 {
	q := url.Values{}
	q.Set("chain_ids", simChain(chain))
	var info struct {
		Tokens []struct {
			Decimals int32 `json:"decimals"`
		} `json:"tokens"`
	}
	if err := a.sim(ctx, "token-info/"+token, q, &info); err != nil {
		logging.FromContext(ctx).WithError(err).Warn("failed to load token decimals")
		return 0
	}
	if len(info.Tokens) == 0 {
		return 0
	}
	return info.Tokens[0].Decimals
}

var compactUnits = []struct {
	exp    int32
	suffix string
}{
	{12, "T"},
	{9, "B"},
	{6, "M"},
	{3, "K"},
}

// formatCompact scales a base-unit amount by decimals and renders it in compact notation
// with at most two fraction digits, e.g. 1.23M. Zero decimals or unparseable input returns raw.
func formatCompact(raw any, decimals int32) any {
	if decimals <= 0 {
		return raw
	}
	d, err := decimal.NewFromString(fmt.Sprint(raw))
	if err != nil {
		return raw
	}
	d = d.Shift(-decimals)
	for _, u := range compactUnits {
		if d.Abs().GreaterThanOrEqual(decimal.New(1, u.exp)) {
			return d.Shift(-u.exp).Round(2).String() + u.suffix
		}
	}
	return d.Round(2).String()
}

func intValue(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	}
	return 0, false
}
