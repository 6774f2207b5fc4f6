package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	fnerrors "github.com/onchain-formulas/internal/errors"
	"github.com/onchain-formulas/internal/normalize"
	"github.com/onchain-formulas/internal/transport"
	"github.com/onchain-formulas/internal/types"
	"github.com/onchain-formulas/internal/validate"
)

// BlockscoutSchema is the BLOCKSCOUT argument list
var BlockscoutSchema = &validate.Schema{
	Function: "BLOCKSCOUT",
	Fields: []validate.Field{
		{Name: "address", Required: true},
		{Name: "type", Required: true, Type: validate.TypeEnum, Enum: []string{"stat", "txns", "tokens"}},
		{Name: "chain", Default: string(types.ChainEthereum)},
		{Name: "startTimestamp", Type: validate.TypeDateOrTimestamp},
		{Name: "endTimestamp", Type: validate.TypeDateOrTimestamp},
		{Name: "page", Type: validate.TypeNumber, Default: int64(1), Min: validate.Bound(1)},
		{Name: "offset", Type: validate.TypeNumber, Default: int64(10), PageLimit: true},
		{Name: "columns"},
	},
}

const blockscoutLookback = 30 * 24 * time.Hour

// Blockscout fetches address counters, transactions or token balances from a Blockscout instance
func (a *Adapters) Blockscout(ctx context.Context, p validate.Params) (types.Result, error) {
	address, err := a.addresses.Resolve(ctx, p.String("address"))
	if err != nil {
		return types.Result{}, err
	}

	chain := p.String("chain")
	host, ok := a.endpoints.Blockscout[types.ChainID(chain)]
	if !ok {
		return types.Result{}, fnerrors.NewInvalidChainError(chain)
	}

	start := p.Int("startTimestamp")
	if !p.Has("startTimestamp") {
		start = a.now().Add(-blockscoutLookback).Unix()
	}

	var target string
	switch p.String("type") {
	case "stat":
		target = fmt.Sprintf("%s/api/v2/addresses/%s/counters", host, address)
	case "txns":
		q := url.Values{}
		q.Set("module", "account")
		q.Set("action", "txlist")
		q.Set("address", address)
		q.Set("start_timestamp", strconv.FormatInt(start, 10))
		if p.Has("endTimestamp") {
			q.Set("end_timestamp", p.IntString("endTimestamp"))
		}
		q.Set("page", p.IntString("page"))
		q.Set("offset", p.IntString("offset"))
		q.Set("sort", "asc")
		target = host + "/api?" + q.Encode()
	case "tokens":
		q := url.Values{}
		q.Set("module", "account")
		q.Set("action", "tokenlist")
		q.Set("address", address)
		target = host + "/api?" + q.Encode()
	default:
		return types.Result{}, fnerrors.NewInvalidParamError("type", p.String("type"))
	}

	body, err := a.client.Fetch(ctx, transport.Request{URL: target})
	if err != nil {
		return types.Result{}, err
	}

	if result := gjson.GetBytes(body, "result"); result.Type == gjson.String {
		switch msg := result.String(); {
		case strings.Contains(msg, "Invalid parameter(s)"):
			return types.Result{}, fnerrors.NewCustomError("Invalid parameters", msg)
		case strings.Contains(msg, "Not found"):
			return types.Result{}, fnerrors.NewCustomError("Address information not found", msg)
		default:
			return types.Result{}, fnerrors.NewCustomError(msg, msg)
		}
	}

	var items []any
	if p.String("type") == "stat" {
		var obj map[string]any
		if err := transport.Decode(body, &obj); err != nil {
			return types.Result{}, err
		}
		items = []any{obj}
	} else {
		raw := gjson.GetBytes(body, "result")
		if raw.IsArray() {
			if err := json.Unmarshal([]byte(raw.Raw), &items); err != nil {
				return types.Result{}, fnerrors.NewDefaultError(fmt.Errorf("failed to decode blockscout rows: %w", err))
			}
		}
	}

	out := normalize.FlattenRows(items, normalize.ExpandArrays)
	return rows(normalize.Project(out, p.String("columns")))
}
