package adapter

import (
	"context"
	"fmt"
	"net/url"

	fnerrors "github.com/onchain-formulas/internal/errors"
	"github.com/onchain-formulas/internal/normalize"
	"github.com/onchain-formulas/internal/router"
	"github.com/onchain-formulas/internal/types"
	"github.com/onchain-formulas/internal/validate"
)

// SafeSchema is the SAFE argument list
var SafeSchema = &validate.Schema{
	Function: "SAFE",
	Fields: []validate.Field{
		{Name: "address", Required: true},
		{Name: "utility", Required: true, Type: validate.TypeEnum, Enum: []string{"txns"}},
		{Name: "chain", Required: true},
		{Name: "limit", Type: validate.TypeNumber, Default: int64(10), PageLimit: true},
		{Name: "offset", Type: validate.TypeNumber, Default: int64(0), PageLimit: true},
		{Name: "columns"},
	},
}

// Safe lists multisig transactions of a Safe
func (a *Adapters) Safe(ctx context.Context, p validate.Params) (types.Result, error) {
	chain := p.String("chain")
	prefix, ok := types.SafeChainPrefixes[types.ChainID(chain)]
	if !ok {
		return types.Result{}, fnerrors.NewInvalidChainError(chain)
	}

	address, err := a.addresses.Resolve(ctx, p.String("address"))
	if err != nil {
		return types.Result{}, err
	}

	apiKey, err := a.credential(ctx, router.ServiceSafe)
	if err != nil {
		return types.Result{}, err
	}

	q := url.Values{}
	q.Set("limit", p.IntString("limit"))
	q.Set("offset", p.IntString("offset"))
	target := fmt.Sprintf("%s/%s/api/v2/safes/%s/multisig-transactions?%s", a.endpoints.Safe, prefix, address, q.Encode())

	var body map[string]any
	err = a.client.GetJSON(ctx, target, router.ServiceSafe, map[string]string{"Authorization": "Bearer " + apiKey}, &body)
	if err != nil {
		return types.Result{}, err
	}

	results, ok := body["results"].([]any)
	if !ok {
		return types.Result{}, fnerrors.NewCustomError("Invalid API response", "results is not a list")
	}

	out := make([]types.Row, 0, len(results))
	for _, item := range results {
		tx, ok := item.(map[string]any)
		if !ok {
			continue
		}
		delete(tx, "confirmations")
		delete(tx, "dataDecoded")
		out = append(out, normalize.ScalarsOnly(tx))
	}
	return rows(normalize.Project(out, p.String("columns")))
}
