package adapter

import (
	"context"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/onchain-formulas/internal/types"
	"github.com/onchain-formulas/internal/validate"
)

// Otterscan search methods
const (
	OtsSearchBefore = "ots_searchTransactionsBefore"
	OtsSearchAfter  = "ots_searchTransactionsAfter"
)

func otsSchema(function string) *validate.Schema {
	return &validate.Schema{
		Function: function,
		Fields: []validate.Field{
			{Name: "endpoint", Required: true},
			{Name: "address", Required: true, Type: validate.TypeAddress},
			{Name: "blockNumber", Type: validate.TypeNumber, Default: int64(0)},
			{Name: "pageSize", Type: validate.TypeNumber, Default: int64(25), Min: validate.Bound(1)},
		},
	}
}

// OtsBeforeSchema is the OTS_SEARCH_TXS_BEFORE argument list
var OtsBeforeSchema = otsSchema("OTS_SEARCH_TXS_BEFORE")

// OtsAfterSchema is the OTS_SEARCH_TXS_AFTER argument list
var OtsAfterSchema = otsSchema("OTS_SEARCH_TXS_AFTER")

type otsTx struct {
	BlockNumber      *hexutil.Big `json:"blockNumber"`
	Hash             string       `json:"hash"`
	Nonce            *hexutil.Big `json:"nonce"`
	TransactionIndex *hexutil.Big `json:"transactionIndex"`
	From             string       `json:"from"`
	To               *string      `json:"to"`
	Value            *hexutil.Big `json:"value"`
	Gas              *hexutil.Big `json:"gas"`
	GasPrice         string       `json:"gasPrice"`
	Input            string       `json:"input"`
}

type otsReceipt struct {
	BlockHash       *string      `json:"blockHash"`
	Timestamp       any          `json:"timestamp"`
	ContractAddress *string      `json:"contractAddress"`
	GasUsed         *hexutil.Big `json:"gasUsed"`
}

type otsSearchResult struct {
	Txs       []otsTx      `json:"txs"`
	Receipts  []otsReceipt `json:"receipts"`
	FirstPage bool         `json:"firstPage"`
	LastPage  bool         `json:"lastPage"`
}

// OtsSearchBefore searches backward from blockNumber, 0 meaning latest
func (a *Adapters) OtsSearchBefore(ctx context.Context, p validate.Params) (types.Result, error) {
	return a.otsSearch(ctx, OtsSearchBefore, p)
}

// OtsSearchAfter searches forward from blockNumber, 0 meaning genesis
func (a *Adapters) OtsSearchAfter(ctx context.Context, p validate.Params) (types.Result, error) {
	return a.otsSearch(ctx, OtsSearchAfter, p)
}

func (a *Adapters) otsSearch(ctx context.Context, method string, p validate.Params) (types.Result, error) {
	address := p.String("address")

	var res otsSearchResult
	if err := a.call(ctx, p.String("endpoint"), &res, method, address, p.Int("blockNumber"), p.Int("pageSize")); err != nil {
		return types.Result{}, err
	}

	out := make([]types.Row, 0, len(res.Txs))
	for i, tx := range res.Txs {
		var receipt otsReceipt
		if i < len(res.Receipts) {
			receipt = res.Receipts[i]
		}

		var value any
		if tx.Value != nil {
			value = tx.Value.ToInt().String()
		}

		out = append(out, types.Row{
			"address":          address,
			"blockNumber":      bigInt(tx.BlockNumber),
			"blockHash":        strOrNil(receipt.BlockHash),
			"timestamp":        receipt.Timestamp,
			"hash":             tx.Hash,
			"nonce":            bigInt(tx.Nonce),
			"transactionIndex": bigInt(tx.TransactionIndex),
			"from":             tx.From,
			"to":               strOrNil(tx.To),
			"contractAddress":  strOrNil(receipt.ContractAddress),
			"value":            value,
			"gas":              bigInt(tx.Gas),
			"gasPrice":         tx.GasPrice,
			"gasUsed":          bigInt(receipt.GasUsed),
			"input":            tx.Input,
		})
	}
	return rows(out)
}

// bigInt renders a quantity as int64 when it fits and as a decimal string otherwise
func bigInt(b *hexutil.Big) any {
	if b == nil {
		return nil
	}
	n := b.ToInt()
	if n.IsInt64() {
		return n.Int64()
	}
	return n.String()
}

func strOrNil(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}
