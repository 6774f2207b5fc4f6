package adapter

import (
	"context"
	"encoding/json"
	"time"

	"github.com/tidwall/gjson"

	"github.com/onchain-formulas/internal/credentials"
	fnerrors "github.com/onchain-formulas/internal/errors"
	"github.com/onchain-formulas/internal/router"
	"github.com/onchain-formulas/internal/transport"
	"github.com/onchain-formulas/internal/types"
	"github.com/onchain-formulas/internal/validate"
)

// GnosisPaySchema is the GNOSISPAY argument list
var GnosisPaySchema = &validate.Schema{Function: "GNOSISPAY"}

// gnosisPayAccessTTL is how long a granted access token stays usable
const gnosisPayAccessTTL = time.Hour

type gnosisPayAccess struct {
	Token     string `json:"token"`
	CreatedAt int64  `json:"createdAt"`
}

func (g gnosisPayAccess) expired(now time.Time) bool {
	if g.CreatedAt == 0 {
		return true
	}
	return now.After(time.UnixMilli(g.CreatedAt).Add(gnosisPayAccessTTL))
}

var gnosisPayColumns = []struct {
	column string
	path   string
}{
	{"createdAt", "createdAt"},
	{"clearedAt", "clearedAt"},
	{"country", "country.name"},
	{"isPending", "isPending"},
	{"mcc", "mcc"},
	{"merchant", "merchant.name"},
	{"billingAmount", "billingAmount"},
	{"billingCurrency", "billingCurrency"},
	{"transactionAmount", "transactionAmount"},
	{"transactionCurrency", "transactionCurrency"},
	{"transactionType", "transactionType"},
	{"kind", "kind"},
	{"status", "status"},
}

// GnosisPay lists card transactions using the stored access grant
func (a *Adapters) GnosisPay(ctx context.Context, _ validate.Params) (types.Result, error) {
	raw, ok, err := a.router.Store().Get(ctx, credentials.KeyGnosisPay)
	if err != nil {
		return types.Result{}, fnerrors.NewDefaultError(err)
	}
	if !ok {
		return types.Result{}, fnerrors.NewCustomError("Gnosispay access is required. Grant access to query your account", credentials.KeyGnosisPay)
	}

	var access gnosisPayAccess
	if err := json.Unmarshal([]byte(raw), &access); err != nil || access.Token == "" || access.expired(a.now()) {
		return types.Result{}, fnerrors.NewCustomError("Expired or invalid access token", credentials.KeyGnosisPay)
	}

	body, err := a.client.Fetch(ctx, transport.Request{
		URL:     a.endpoints.GnosisPay + "/transactions",
		Service: router.ServiceGnosisPay,
		Headers: map[string]string{"Authorization": "Bearer " + access.Token},
	})
	if err != nil {
		return types.Result{}, err
	}

	parsed := gjson.ParseBytes(body)
	if !parsed.IsArray() {
		return types.Result{}, fnerrors.NewCustomError("Unexpected response", "transactions is not a list")
	}

	var out []types.Row
	for _, tx := range parsed.Array() {
		row := make(types.Row, len(gnosisPayColumns))
		for _, c := range gnosisPayColumns {
			row[c.column] = tx.Get(c.path).Value()
		}
		if row["country"] == nil {
			row["country"] = ""
		}
		if row["merchant"] == nil {
			row["merchant"] = ""
		}
		out = append(out, row)
	}
	return rows(out)
}
