package functions

import (
	"github.com/onchain-formulas/internal/adapter"
)

// Param documents one positional argument
type Param struct {
	Name     string `json:"name"`
	Detail   string `json:"detail"`
	Example  string `json:"example"`
	Required bool   `json:"required"`
	Type     string `json:"type"`
}

// Metadata documents one function
type Metadata struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Params      []Param `json:"params"`
}

func req(name, detail, example, typ string) Param {
	return Param{Name: name, Detail: detail, Example: example, Required: true, Type: typ}
}

func opt(name, detail, example, typ string) Param {
	return Param{Name: name, Detail: detail, Example: example, Type: typ}
}

var columnsParam = opt("columns", "Comma separated list of output columns to keep", `"hash,value"`, "string")

func explorerParams(withChain bool) []Param {
	ps := []Param{req("type", "Data to fetch: all-txns, token-txns, nft-txns or gas", `"all-txns"`, "string")}
	if withChain {
		ps = append(ps, req("chain", "Chain name: ethereum, gnosis or base", `"ethereum"`, "string"))
	}
	return append(ps,
		req("address", "Wallet address or ENS name", `"vitalik.eth"`, "string"),
		opt("startDate", "Start date as MM/DD/YYYY or UNIX seconds", `"01/01/2024"`, "string"),
		opt("endDate", "End date as MM/DD/YYYY or UNIX seconds", `"01/07/2025"`, "string"),
		opt("page", "Page number, starting at 1", "1", "number"),
		opt("limit", "Rows per page, at most 250", "10", "number"),
		columnsParam,
	)
}

func graphParams(graphTypes, symbol string) []Param {
	return []Param{
		req("graphType", "Graph type to query: "+graphTypes, `"`+graphTypes[:2]+`"`, "string"),
		req("category", "Query type: tokens or markets", `"tokens"`, "string"),
		req("param1", "Token symbol, or contract address for markets", `"`+symbol+`"`, "string"),
		opt("param2", "Extra selector passed to the graph", `""`, "string"),
		columnsParam,
	}
}

var pagingParams = []Param{
	opt("start", "Index of the first item", "0", "number"),
	opt("end", "Index after the last item, at most 250", "10", "number"),
}

func entries(a *adapter.Adapters) []Function {
	return []Function{
		{
			Metadata:  Metadata{Name: "ETHERSCAN", Description: "Returns transactions or gas metrics from Etherscan", Params: explorerParams(true)},
			Validator: adapter.EtherscanSchema,
			Run:       a.Etherscan,
		},
		{
			Metadata:  Metadata{Name: "BASE", Description: "Returns transactions or gas metrics from Basescan", Params: explorerParams(false)},
			Validator: adapter.BaseSchema,
			Run:       a.Base,
		},
		{
			Metadata:  Metadata{Name: "GNOSIS", Description: "Returns transactions or gas metrics from Gnosisscan", Params: explorerParams(false)},
			Validator: adapter.GnosisSchema,
			Run:       a.Gnosis,
		},
		{
			Metadata: Metadata{Name: "EOA", Description: "Returns token balances or token transfers for many addresses across chains", Params: []Param{
				req("addresses", "Comma separated addresses or ENS names", `"vitalik.eth,0x50aa..."`, "string"),
				req("category", "balance or txns", `"txns"`, "string"),
				req("chains", "Comma separated chain names", `"ethereum,base"`, "string"),
				opt("startTime", "Start date, required for txns", `"01/01/2024"`, "string"),
				opt("endTime", "End date, required for txns", `"01/07/2025"`, "string"),
				opt("page", "Page number", "1", "number"),
				opt("offset", "Rows per page, at most 250", "10", "number"),
				columnsParam,
			}},
			Validator: adapter.EOASchema,
			Run:       a.EOA,
		},
		{
			Metadata: Metadata{Name: "BLOCKSCOUT", Description: "Returns address counters, transactions or token balances from Blockscout", Params: []Param{
				req("address", "Wallet address or ENS name", `"vitalik.eth"`, "string"),
				req("type", "stat, txns or tokens", `"txns"`, "string"),
				opt("chain", "ethereum, gnosis, arbitrum, optimism, soneium or unichain", `"ethereum"`, "string"),
				opt("startTimestamp", "Start date, defaults to 30 days ago", `"01/01/2024"`, "string"),
				opt("endTimestamp", "End date", `"01/07/2025"`, "string"),
				opt("page", "Page number", "1", "number"),
				opt("offset", "Rows per page, at most 250", "10", "number"),
				columnsParam,
			}},
			Validator: adapter.BlockscoutSchema,
			Run:       a.Blockscout,
		},
		{
			Metadata: Metadata{Name: "COINGECKO", Description: "Returns prices, market listings, stablecoins or derivatives from CoinGecko", Params: []Param{
				req("category", "price, market, stablecoins or derivatives", `"price"`, "string"),
				req("param1", "Token symbols, ecosystem, stablecoin type or exchange id", `"eth,btc"`, "string"),
				opt("param2", "Quote currencies for price, or trend window 1h, 24h or 7d", `"usd"`, "string"),
			}},
			Validator: adapter.CoingeckoSchema,
			Run:       a.Coingecko,
		},
		{
			Metadata: Metadata{Name: "DEFILLAMA", Description: "Returns protocol, yield, dex or fee listings from DefiLlama", Params: []Param{
				req("category", "protocols, yields, dex or fees", `"protocols"`, "string"),
			}},
			Validator: adapter.DefillamaSchema,
			Run:       a.Defillama,
		},
		{
			Metadata: Metadata{Name: "YIELD", Description: "Returns DefiLlama yield pools", Params: []Param{
				req("category", "all or stablecoins", `"stablecoins"`, "string"),
			}},
			Validator: adapter.YieldSchema,
			Run:       a.Yield,
		},
		{
			Metadata: Metadata{Name: "SAFE", Description: "Returns multisig transactions of a Safe", Params: []Param{
				req("address", "Safe address or ENS name", `"0x1234..."`, "string"),
				req("utility", "txns", `"txns"`, "string"),
				req("chain", "ethereum or gnosis", `"ethereum"`, "string"),
				opt("limit", "Rows to return, at most 250", "10", "number"),
				opt("offset", "Rows to skip, at most 250", "0", "number"),
				columnsParam,
			}},
			Validator: adapter.SafeSchema,
			Run:       a.Safe,
		},
		{
			Metadata: Metadata{Name: "NEYNAR", Description: "Returns followers of a Farcaster user", Params: []Param{
				req("username", "Farcaster username", `"dwr"`, "string"),
			}},
			Validator: adapter.NeynarSchema,
			Run:       a.Neynar,
		},
		{
			Metadata: Metadata{Name: "FIREFLY", Description: "Returns Farcaster or Lens content from Firefly", Params: append([]Param{
				req("platform", "farcaster or lens", `"farcaster"`, "string"),
				req("contentType", "posts, replies or channels", `"posts"`, "string"),
				req("identifier", "Comma separated ids or handles", `"vitalik.eth"`, "string"),
			}, pagingParams...)},
			Validator: adapter.FireflySchema,
			Run:       a.Firefly,
		},
		{
			Metadata: Metadata{Name: "LENS", Description: "Returns Lens posts or replies", Params: append([]Param{
				req("contentType", "posts or replies", `"posts"`, "string"),
				req("identifier", "Comma separated ids or handles", `"stani"`, "string"),
			}, pagingParams...)},
			Validator: adapter.LensSchema,
			Run:       a.Lens,
		},
		{
			Metadata: Metadata{Name: "FARCASTER", Description: "Returns Farcaster posts, replies or channels", Params: append([]Param{
				req("contentType", "posts, replies or channels", `"posts"`, "string"),
				req("identifier", "Comma separated ids or handles", `"dwr"`, "string"),
			}, pagingParams...)},
			Validator: adapter.FarcasterSchema,
			Run:       a.Farcaster,
		},
		{
			Metadata: Metadata{Name: "DUNE", Description: "Returns wallet activity, token prices or token holders from Dune Sim", Params: []Param{
				req("type", "activity, price or token-holders", `"activity"`, "string"),
				req("input1", "Address or ENS name, chain, or token address depending on type", `"vitalik.eth"`, "string"),
				opt("input2", "Chain, or up to three hour offsets for price", `"base"`, "string"),
				opt("input3", "Limit, or token address for price", "10", "any"),
				opt("input4", "Limit for price", "10", "number"),
			}},
			Validator: adapter.DuneSchema,
			Run:       a.Dune,
		},
		{
			Metadata:  Metadata{Name: "UNISWAP", Description: "Returns Uniswap token or market data", Params: graphParams("v3, v3-raw", "eth")},
			Validator: adapter.UniswapSchema,
			Run:       a.Uniswap,
		},
		{
			Metadata:  Metadata{Name: "AAVE", Description: "Returns Aave token or market data", Params: graphParams("v2, v2-raw", "USDT")},
			Validator: adapter.AaveSchema,
			Run:       a.Aave,
		},
		{
			Metadata: Metadata{Name: "TALLY", Description: "Returns governance organisation data from Tally", Params: []Param{
				req("query", "organisation", `"organisation"`, "string"),
				req("slug", "Organisation slug", `"arbitrum"`, "string"),
			}},
			Validator: adapter.TallySchema,
			Run:       a.Tally,
		},
		{
			Metadata: Metadata{Name: "PRICE", Description: "Returns coin or token prices, or the latest price of a single coin", Params: []Param{
				req("input1", "Coin symbols or a token address", `"btc"`, "string"),
				opt("input2", "Chain for a token address, otherwise hour offsets", `"base"`, "string"),
				opt("input3", "Hour offsets for a token address", `"24"`, "string"),
			}},
			Validator: adapter.PriceSchema,
			Run:       a.Price,
		},
		{
			Metadata: Metadata{Name: "WALLET", Description: "Returns transactions or balances for addresses across chains", Params: []Param{
				req("addresses", "Comma separated addresses", `"0x1234..."`, "string"),
				req("chains", "Comma separated chains", `"ethereum,base"`, "string"),
				req("query", "txns or balance", `"balance"`, "string"),
				opt("time", "Hour offsets", `"24"`, "string"),
			}},
			Validator: adapter.WalletSchema,
			Run:       a.Wallet,
		},
		{
			Metadata: Metadata{Name: "CIRCLES", Description: "Returns Circles trust relations, transfers, profile or balance", Params: []Param{
				req("address", "Avatar address or ENS name", `"0x1234..."`, "string"),
				req("functionName", "trust, profile, transactions or balances", `"trust"`, "string"),
				opt("entries", "Rows to return", "10", "number"),
			}},
			Validator: adapter.CirclesSchema,
			Run:       a.Circles,
		},
		{
			Metadata:  Metadata{Name: "OTS_SEARCH_TXS_BEFORE", Description: "Searches transactions of an address backward through an Otterscan node", Params: otsParams()},
			Validator: adapter.OtsBeforeSchema,
			Run:       a.OtsSearchBefore,
		},
		{
			Metadata:  Metadata{Name: "OTS_SEARCH_TXS_AFTER", Description: "Searches transactions of an address forward through an Otterscan node", Params: otsParams()},
			Validator: adapter.OtsAfterSchema,
			Run:       a.OtsSearchAfter,
		},
		{
			Metadata:  Metadata{Name: "GNOSISPAY", Description: "Returns Gnosis Pay card transactions for the granted account"},
			Validator: adapter.GnosisPaySchema,
			Run:       a.GnosisPay,
		},
	}
}

func otsParams() []Param {
	return []Param{
		req("endpoint", "Otterscan-enabled JSON-RPC URL", `"https://rpc.example.org"`, "string"),
		req("address", "Address to search", `"0x1234..."`, "string"),
		opt("blockNumber", "Block to start from, 0 for latest or genesis", "0", "number"),
		opt("pageSize", "Transactions per page", "25", "number"),
	}
}
