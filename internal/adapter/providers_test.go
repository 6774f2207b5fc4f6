package adapter

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onchain-formulas/internal/credentials"
	fnerrors "github.com/onchain-formulas/internal/errors"
	"github.com/onchain-formulas/internal/router"
	"github.com/onchain-formulas/internal/types"
)

func TestCoingeckoPrice(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coingecko/simple/price", r.URL.Path)
		assert.Equal(t, "cg", r.Header.Get("x-cg-demo-api-key"))
		assert.Equal(t, "eth,btc", r.URL.Query().Get("symbols"))
		assert.Equal(t, "usd,eur", r.URL.Query().Get("vs_currencies"))
		writeJSON(w, http.StatusOK, `{"eth":{"usd":3000,"eur":2800},"btc":{"usd":60000,"eur":55000}}`)
	}, map[string]string{credentials.KeyCoingecko: "cg"})

	res, err := env.adapters.Coingecko(context.Background(), bind(t, CoingeckoSchema, "price", "eth,btc", "usd,eur"))
	require.NoError(t, err)
	assert.Equal(t, []types.Row{{
		"Eth_USD": float64(3000),
		"Eth_EUR": float64(2800),
		"Btc_USD": float64(60000),
		"Btc_EUR": float64(55000),
	}}, res.Rows)
}

func TestCoingeckoErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   types.ErrorKind
	}{
		{"missing key", http.StatusUnauthorized, `{"status":{"error_code":10002,"error_message":"API Key Missing"}}`, types.KindInvalidAPIKey},
		{"server error", http.StatusInternalServerError, `{}`, types.KindNetworkError},
		{"throttled", http.StatusTooManyRequests, `{}`, types.KindRateLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			}, map[string]string{credentials.KeyCoingecko: "cg"})

			_, err := env.adapters.Coingecko(context.Background(), bind(t, CoingeckoSchema, "price", "eth"))
			assert.Equal(t, tt.want, kindOf(err))
		})
	}
}

func TestCoingeckoMarketRejectsUnknownEcosystem(t *testing.T) {
	_, err := CoingeckoSchema.Validate(map[string]any{"category": "market", "param1": "cosmos"})
	assert.Equal(t, types.KindInvalidParam, kindOf(err))
}

func TestCoingeckoMarketDropsNestedFields(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "base-ecosystem", r.URL.Query().Get("category"))
		assert.Equal(t, "24h", r.URL.Query().Get("price_change_percentage"))
		writeJSON(w, http.StatusOK, `[{"id":"weth","current_price":3000,"roi":{"times":2}}]`)
	}, map[string]string{credentials.KeyCoingecko: "cg"})

	res, err := env.adapters.Coingecko(context.Background(), bind(t, CoingeckoSchema, "market", "base", "24h"))
	require.NoError(t, err)
	assert.Equal(t, []types.Row{{"id": "weth", "current_price": float64(3000)}}, res.Rows)
}

func TestCoingeckoDerivativesExchangeMergesDetails(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coingecko/derivatives/exchanges/binance_futures", r.URL.Path)
		writeJSON(w, http.StatusOK, `{"name":"Binance","tickers":[{"symbol":"BTCUSDT","converted_volume":{"usd":100}}]}`)
	}, map[string]string{credentials.KeyCoingecko: "cg"})

	res, err := env.adapters.Coingecko(context.Background(), bind(t, CoingeckoSchema, "derivatives", "binance_futures"))
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "BTCUSDT", res.Rows[0]["symbol"])
	assert.Equal(t, "Binance", res.Rows[0]["exchange_name"])
	assert.Equal(t, "binance_futures", res.Rows[0]["exchange_id"])
	assert.Equal(t, float64(100), res.Rows[0]["usd_volume"])
}

func llamaItems(n int) string {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf(`{"name":"p%d","tvl":%d,"chains":["Ethereum"]}`, i, i)
	}
	return "[" + strings.Join(items, ",") + "]"
}

func TestDefillamaProtocolsCapped(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/llama/protocols", r.URL.Path)
		writeJSON(w, http.StatusOK, llamaItems(600))
	}, nil)
	env.router.WithoutProxy(router.ServiceDefillama)

	res, err := env.adapters.Defillama(context.Background(), bind(t, DefillamaSchema, "protocols"))
	require.NoError(t, err)
	require.Len(t, res.Rows, 500)
	assert.Equal(t, types.Row{"name": "p0", "tvl": float64(0)}, res.Rows[0])
}

func TestDefillamaDexUsesProtocolsList(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/llama/overview/dexs", r.URL.Path)
		writeJSON(w, http.StatusOK, `{"totalDataChart":[],"protocols":[{"name":"uniswap","total24h":5}]}`)
	}, nil)
	env.router.WithoutProxy(router.ServiceDefillama)

	res, err := env.adapters.Defillama(context.Background(), bind(t, DefillamaSchema, "dex"))
	require.NoError(t, err)
	assert.Equal(t, []types.Row{{"name": "uniswap", "total24h": float64(5)}}, res.Rows)
}

func TestYieldStablecoinsFilter(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/yields/pools", r.URL.Path)
		writeJSON(w, http.StatusOK, `{"status":"success","data":[{"pool":"a","stablecoin":true},{"pool":"b","stablecoin":false},{"pool":"c"}]}`)
	}, nil)
	env.router.WithoutProxy(router.ServiceDefillama)

	res, err := env.adapters.Yield(context.Background(), bind(t, YieldSchema, "stablecoins"))
	require.NoError(t, err)
	assert.Equal(t, []types.Row{{"pool": "a", "stablecoin": true}}, res.Rows)

	res, err = env.adapters.Yield(context.Background(), bind(t, YieldSchema, "all"))
	require.NoError(t, err)
	assert.Len(t, res.Rows, 3)
}

func TestSafeTransactions(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/safe/eth/api/v2/safes/"+addrA+"/multisig-transactions", r.URL.Path)
		assert.Equal(t, "Bearer safe-key", r.Header.Get("Authorization"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		writeJSON(w, http.StatusOK, `{"count":1,"results":[{"safeTxHash":"0xabc","nonce":3,"confirmations":[{"owner":"0x1"}],"dataDecoded":{"method":"transfer"}}]}`)
	}, map[string]string{credentials.KeySafe: "safe-key"})

	res, err := env.adapters.Safe(context.Background(), bind(t, SafeSchema, addrA, "txns", "ethereum", 5))
	require.NoError(t, err)
	assert.Equal(t, []types.Row{{"safeTxHash": "0xabc", "nonce": float64(3)}}, res.Rows)
}

func TestSafeInvalidResponse(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"detail":"nope"}`)
	}, map[string]string{credentials.KeySafe: "safe-key"})

	_, err := env.adapters.Safe(context.Background(), bind(t, SafeSchema, addrA, "txns", "gnosis"))
	res := fnerrors.Classify(err, "SAFE")
	assert.Equal(t, types.KindCustom, res.Type)
	assert.Equal(t, "Invalid API response", res.Message)
}

func TestSafeUnsupportedChain(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}, map[string]string{credentials.KeySafe: "safe-key"})

	_, err := env.adapters.Safe(context.Background(), bind(t, SafeSchema, addrA, "txns", "solana"))
	assert.Equal(t, types.KindInvalidChain, kindOf(err))
}

func TestSafeLimitAboveCeiling(t *testing.T) {
	_, err := SafeSchema.Validate(map[string]any{"address": addrA, "utility": "txns", "chain": "ethereum", "limit": 251})
	assert.Equal(t, types.KindMaxPageLimit, kindOf(err))
}

func TestFireflyRows(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "ff", r.Header.Get("x-api-key"))
		assert.Equal(t, "farcasterid", q.Get("type"))
		assert.Equal(t, "dwr,v", q.Get("query"))
		assert.Equal(t, "0", q.Get("start"))
		assert.Equal(t, "10", q.Get("end"))
		writeJSON(w, http.StatusOK, `{"code":0,"data":[{"id":"1","text":"gm","author":{"fid":3}}]}`)
	}, map[string]string{credentials.KeyFirefly: "ff"})

	res, err := env.adapters.Farcaster(context.Background(), bind(t, FarcasterSchema, "posts", "dwr, v"))
	require.NoError(t, err)
	assert.Equal(t, []types.Row{{"id": "1", "text": "gm", "platform": "farcaster"}}, res.Rows)
}

func TestFireflyNonListDataIsEmpty(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"code":0,"data":null}`)
	}, map[string]string{credentials.KeyFirefly: "ff"})

	res, err := env.adapters.Firefly(context.Background(), bind(t, FireflySchema, "lens", "posts", "stani"))
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
}

func TestFireflyUnsupportedContentType(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}, map[string]string{credentials.KeyFirefly: "ff"})

	_, err := env.adapters.Firefly(context.Background(), bind(t, FireflySchema, "lens", "channels", "stani"))
	assert.Equal(t, types.KindInvalidParam, kindOf(err))
}

func TestNeynarFollowers(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/neynar/user/search/":
			writeJSON(w, http.StatusOK, `{"result":{"users":[{"username":"dwr.eth","fid":2},{"username":"dwr","fid":3}]}}`)
		case "/neynar/followers":
			assert.Equal(t, "3", r.URL.Query().Get("fid"))
			writeJSON(w, http.StatusOK, `{"users":[{"user":{"username":"alice","custody_address":"0xa","follower_count":7,"profile":{"location":{"address":{"country":"France","city":"Paris"}}}}}]}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}, map[string]string{credentials.KeyNeynar: "ny"})

	res, err := env.adapters.Neynar(context.Background(), bind(t, NeynarSchema, "dwr"))
	require.NoError(t, err)
	assert.Equal(t, []types.Row{{
		"username":        "alice",
		"custody_address": "0xa",
		"follower_count":  float64(7),
		"country":         "France",
		"city":            "Paris",
	}}, res.Rows)
}

func TestNeynarUnknownUsername(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"result":{"users":[]}}`)
	}, map[string]string{credentials.KeyNeynar: "ny"})

	_, err := env.adapters.Neynar(context.Background(), bind(t, NeynarSchema, "ghost"))
	res := fnerrors.Classify(err, "NEYNAR")
	assert.Equal(t, types.KindInvalidParam, res.Type)
	assert.Contains(t, res.Message, "username")
}

func TestFormatCompact(t *testing.T) {
	tests := []struct {
		raw      any
		decimals int32
		want     any
	}{
		{"1234567000000000000000000", 18, "1.23M"},
		{"2500000000000000000000000000000", 18, "2.5T"},
		{"7000000000", 6, "7K"},
		{"1500", 3, "1.5"},
		{float64(1e21), 18, "1K"},
		{"123", 0, "123"},
		{"abc", 18, "abc"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.raw), func(t *testing.T) {
			assert.Equal(t, tt.want, formatCompact(tt.raw, tt.decimals))
		})
	}
}

func TestDunePriceColumns(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sim/token-info/native", r.URL.Path)
		assert.Equal(t, "sim", r.Header.Get("X-Sim-Api-Key"))
		assert.Equal(t, "8453", r.URL.Query().Get("chain_ids"))
		assert.Equal(t, "1,24", r.URL.Query().Get("historical_prices"))
		writeJSON(w, http.StatusOK, `{"tokens":[{"chain_id":8453,"decimals":18,"logo":"x","symbol":"ETH","price_usd":3000,
			"total_supply":"1000000000000000000000000","historical_prices":[{"offset_hours":1,"price_usd":2990},{"offset_hours":24,"price_usd":2900}]}]}`)
	}, map[string]string{credentials.KeyDuneSim: "sim"})

	res, err := env.adapters.Dune(context.Background(), bind(t, DuneSchema, "price", "base", "1, 24"))
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)

	row := res.Rows[0]
	assert.Equal(t, "ETH", row["symbol"])
	assert.Equal(t, "1M", row["total_supply"])
	assert.Equal(t, float64(2990), row["price_1h"])
	assert.Equal(t, float64(2900), row["price_24h"])
	assert.NotContains(t, row, "chain_id")
	assert.NotContains(t, row, "decimals")
	assert.NotContains(t, row, "logo")
}

func TestDuneActivityNamesChains(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sim/activity/" + addrA:
			assert.Equal(t, "5", r.URL.Query().Get("limit"))
			writeJSON(w, http.StatusOK, `{"activity":[{"chain_id":1,"type":"receive","first_acquired":"2024-03-05T14:07:00Z"}]}`)
		case "/chains":
			writeJSON(w, http.StatusOK, `[{"name":"Ethereum Mainnet","chainId":1}]`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}, map[string]string{credentials.KeyDuneSim: "sim"})

	res, err := env.adapters.Dune(context.Background(), bind(t, DuneSchema, "activity", addrA, "", 5))
	require.NoError(t, err)
	assert.Equal(t, []types.Row{{
		"chain_id":       "Ethereum Mainnet",
		"type":           "receive",
		"first_acquired": "March 5, 2024 at 2:07 PM",
	}}, res.Rows)
}

func TestDuneTokenHoldersFormatsBalances(t *testing.T) {
	infoCalls := 0
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/sim/token-holders/"):
			assert.Equal(t, "/sim/token-holders/1/"+addrB, r.URL.Path)
			writeJSON(w, http.StatusOK, `{"holders":[{"wallet_address":"0xa","balance":"2000000"},{"wallet_address":"0xb","balance":"3500000000"}]}`)
		case strings.HasPrefix(r.URL.Path, "/sim/token-info/"):
			infoCalls++
			writeJSON(w, http.StatusOK, `{"tokens":[{"decimals":6}]}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}, map[string]string{credentials.KeyDuneSim: "sim"})

	res, err := env.adapters.Dune(context.Background(), bind(t, DuneSchema, "token-holders", addrB, "ethereum"))
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "2", res.Rows[0]["balance"])
	assert.Equal(t, "3.5K", res.Rows[1]["balance"])
	assert.Equal(t, 1, infoCalls)
}

func TestDuneMissingKey(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}, nil)

	_, err := env.adapters.Dune(context.Background(), bind(t, DuneSchema, "price", "base"))
	assert.Equal(t, types.KindMissingKey, kindOf(err))
}

func TestDuneSchemaChecks(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
		want types.ErrorKind
	}{
		{"offset out of range", map[string]any{"type": "price", "input1": "base", "input2": "25"}, types.KindInvalidParam},
		{"second offset out of range", map[string]any{"type": "price", "input1": "base", "input2": "24, 48"}, types.KindInvalidParam},
		{"zero offset", map[string]any{"type": "price", "input1": "base", "input2": "0"}, types.KindInvalidParam},
		{"offset pattern", map[string]any{"type": "price", "input1": "base", "input2": "1,2,3,4"}, types.KindInvalidParam},
		{"holders need chain", map[string]any{"type": "token-holders", "input1": addrA}, types.KindMissingParam},
		{"activity limit", map[string]any{"type": "activity", "input1": addrA, "input3": 101}, types.KindInvalidParam},
		{"unknown type", map[string]any{"type": "nft", "input1": addrA}, types.KindInvalidParam},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DuneSchema.Validate(tt.args)
			assert.Equal(t, tt.want, kindOf(err))
		})
	}
}

func TestPriceSingleCoinIsScalar(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/onchain/third-party", r.URL.Path)
		assert.Equal(t, "price", q.Get("service"))
		assert.Equal(t, "btc", q.Get("coin"))
		writeJSON(w, http.StatusOK, `{"price":[{"symbol":"btc","price":65000}]}`)
	}, nil)

	res, err := env.adapters.Price(context.Background(), bind(t, PriceSchema, "btc"))
	require.NoError(t, err)
	assert.True(t, res.Scalar)
	assert.Equal(t, float64(65000), res.Value)
}

func TestPriceWithTimeReturnsRows(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "24", r.URL.Query().Get("time"))
		writeJSON(w, http.StatusOK, `{"price":[{"symbol":"btc","price":65000,"history":[1,2]}]}`)
	}, nil)

	res, err := env.adapters.Price(context.Background(), bind(t, PriceSchema, "btc", "24"))
	require.NoError(t, err)
	assert.Equal(t, []types.Row{{"symbol": "btc", "price": float64(65000)}}, res.Rows)
}

func TestPriceErrors(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("coin") == "bad" {
			writeJSON(w, http.StatusBadRequest, `{"message":"Unsupported coin"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"price":[]}`)
	}, nil)

	_, err := env.adapters.Price(context.Background(), bind(t, PriceSchema, "bad"))
	res := fnerrors.Classify(err, "PRICE")
	assert.Equal(t, types.KindCustom, res.Type)
	assert.Equal(t, "Unsupported coin", res.Message)

	_, err = env.adapters.Price(context.Background(), bind(t, PriceSchema, "xyz"))
	res = fnerrors.Classify(err, "PRICE")
	assert.Equal(t, types.KindCustom, res.Type)
	assert.Equal(t, "Price not found", res.Message)
}

func TestPriceTokenNeedsChain(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]any
		reason string
	}{
		{"no chain", map[string]any{"input1": addrA}, "chain is required to query token price"},
		{"chain list", map[string]any{"input1": addrA, "input2": "base,ethereum"}, "exactly one chain is required for a token address"},
		{"blank entries only", map[string]any{"input1": addrA, "input2": " , "}, "exactly one chain is required for a token address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PriceSchema.Validate(tt.params)
			res := fnerrors.Classify(err, "PRICE")
			assert.Equal(t, types.KindInvalidParam, res.Type)
			assert.Equal(t, tt.reason, res.Reason)
		})
	}
}

func TestPriceTokenSingleChain(t *testing.T) {
	params, err := PriceSchema.Validate(map[string]any{"input1": addrA, "input2": " base "})
	require.NoError(t, err)
	assert.Equal(t, addrA, params.String("input1"))
}

func TestUniswapGraph(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "uniswap", q.Get("service"))
		assert.Equal(t, "v3", q.Get("graphType"))
		assert.Equal(t, "eth", q.Get("input1"))
		writeJSON(w, http.StatusOK, `[{"symbol":"ETH","volume":10,"pools":[1]}]`)
	}, nil)

	res, err := env.adapters.Uniswap(context.Background(), bind(t, UniswapSchema, "v3", "tokens", "eth", "", "symbol"))
	require.NoError(t, err)
	assert.Equal(t, []types.Row{{"symbol": "ETH"}}, res.Rows)
}

func TestOnchainServerErrorIsNetworkError(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadGateway, `{}`)
	}, nil)

	_, err := env.adapters.Tally(context.Background(), bind(t, TallySchema, "organisation", "arbitrum"))
	assert.Equal(t, types.KindNetworkError, kindOf(err))
}

func TestWalletBalances(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "wallet", r.URL.Query().Get("service"))
		writeJSON(w, http.StatusOK, `{"balances":[{"chain":"base","token":{"symbol":"USDC"},"amount":"5"}],"transactions":[]}`)
	}, nil)

	res, err := env.adapters.Wallet(context.Background(), bind(t, WalletSchema, addrA, "base", "balance"))
	require.NoError(t, err)
	assert.Equal(t, []types.Row{{"chain": "base", "token_symbol": "USDC", "amount": "5"}}, res.Rows)
}

func gnosisPayGrant(token string, createdAt time.Time) string {
	return fmt.Sprintf(`{"token":%q,"createdAt":%d}`, token, createdAt.UnixMilli())
}

func TestGnosisPayTransactions(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gnosispay/transactions", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, `[{"createdAt":"2024-12-31","merchant":{"name":"Cafe"},"billingAmount":"350","kind":"Payment","status":"Approved"}]`)
	}, map[string]string{credentials.KeyGnosisPay: gnosisPayGrant("tok", now.Add(-30*time.Minute))})
	env.adapters.now = func() time.Time { return now }

	res, err := env.adapters.GnosisPay(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)

	row := res.Rows[0]
	assert.Len(t, row, 13)
	assert.Equal(t, "Cafe", row["merchant"])
	assert.Equal(t, "", row["country"])
	assert.Equal(t, "350", row["billingAmount"])
	assert.Nil(t, row["clearedAt"])
}

func TestGnosisPayAccessErrors(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		grant   string
		message string
	}{
		{"missing", "", "Gnosispay access is required. Grant access to query your account"},
		{"expired", gnosisPayGrant("tok", now.Add(-2*time.Hour)), "Expired or invalid access token"},
		{"no token", gnosisPayGrant("", now), "Expired or invalid access token"},
		{"garbage", "not json", "Expired or invalid access token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
				t.Error("no request expected")
			}, map[string]string{credentials.KeyGnosisPay: tt.grant})
			env.adapters.now = func() time.Time { return now }

			_, err := env.adapters.GnosisPay(context.Background(), nil)
			res := fnerrors.Classify(err, "GNOSISPAY")
			assert.Equal(t, types.KindCustom, res.Type)
			assert.Equal(t, tt.message, res.Message)
		})
	}
}
