package adapter

import (
	"context"
	"strings"

	fnerrors "github.com/onchain-formulas/internal/errors"
	"github.com/onchain-formulas/internal/types"
	"github.com/onchain-formulas/internal/validate"
)

// CirclesSchema is the CIRCLES argument list
var CirclesSchema = &validate.Schema{
	Function: "CIRCLES",
	Fields: []validate.Field{
		{Name: "address", Required: true},
		{Name: "functionName", Required: true, Type: validate.TypeEnum, Enum: []string{"trust", "profile", "transactions", "balances"}},
		{Name: "entries", Type: validate.TypeNumber, Default: int64(10)},
	},
}

type circlesPredicate struct {
	Type       string `json:"Type"`
	FilterType string `json:"FilterType"`
	Column     string `json:"Column"`
	Value      string `json:"Value"`
}

type circlesConjunction struct {
	Type            string             `json:"Type"`
	ConjunctionType string             `json:"ConjunctionType"`
	Predicates      []circlesPredicate `json:"Predicates"`
}

type circlesOrder struct {
	Column    string `json:"Column"`
	SortOrder string `json:"SortOrder"`
}

type circlesQuery struct {
	Namespace string         `json:"Namespace"`
	Table     string         `json:"Table"`
	Columns   []string       `json:"Columns"`
	Filter    []any          `json:"Filter"`
	Order     []circlesOrder `json:"Order"`
	Limit     int64          `json:"Limit,omitempty"`
}

type circlesTable struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

func equals(column, value string) circlesPredicate {
	return circlesPredicate{Type: "FilterPredicate", FilterType: "Equals", Column: column, Value: value}
}

func either(a, b circlesPredicate) circlesConjunction {
	return circlesConjunction{Type: "Conjunction", ConjunctionType: "Or", Predicates: []circlesPredicate{a, b}}
}

// Circles reads trust relations, transfers, avatar profile or total balance from the Circles RPC
func (a *Adapters) Circles(ctx context.Context, p validate.Params) (types.Result, error) {
	address, err := a.addresses.Resolve(ctx, p.String("address"))
	if err != nil {
		return types.Result{}, err
	}
	address = strings.ToLower(address)

	limit := p.Int("entries")
	if limit <= 0 {
		limit = 10
	}

	endpoint := a.endpoints.CirclesRPC
	switch fn := p.String("functionName"); fn {
	case "balances":
		var balance any
		if err := a.call(ctx, endpoint, &balance, "circlesV2_getTotalBalance", address, true); err != nil {
			return types.Result{}, err
		}
		return rows([]types.Row{{"CRC Balance": balance}})

	case "trust":
		return a.circlesQuery(ctx, endpoint, circlesQuery{
			Namespace: "V_Crc",
			Table:     "TrustRelations",
			Filter:    []any{either(equals("truster", address), equals("trustee", address))},
			Order:     []circlesOrder{{Column: "blockNumber", SortOrder: "DESC"}},
			Limit:     limit,
		})

	case "transactions":
		return a.circlesQuery(ctx, endpoint, circlesQuery{
			Namespace: "V_Crc",
			Table:     "Transfers",
			Filter:    []any{either(equals("from", address), equals("to", address))},
			Order:     []circlesOrder{{Column: "blockNumber", SortOrder: "DESC"}, {Column: "transactionIndex", SortOrder: "DESC"}},
			Limit:     limit,
		})

	case "profile":
		return a.circlesQuery(ctx, endpoint, circlesQuery{
			Namespace: "V_Crc",
			Table:     "Avatars",
			Filter:    []any{equals("avatar", address)},
			Limit:     1,
		})

	default:
		return types.Result{}, fnerrors.NewInvalidParamError("functionName", fn)
	}
}

func (a *Adapters) circlesQuery(ctx context.Context, endpoint string, q circlesQuery) (types.Result, error) {
	if q.Columns == nil {
		q.Columns = []string{}
	}
	if q.Order == nil {
		q.Order = []circlesOrder{}
	}

	var table circlesTable
	if err := a.call(ctx, endpoint, &table, "circles_query", q); err != nil {
		return types.Result{}, err
	}

	out := make([]types.Row, 0, len(table.Rows))
	for _, values := range table.Rows {
		row := make(types.Row, len(table.Columns))
		for i, col := range table.Columns {
			if i < len(values) {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	return rows(out)
}
