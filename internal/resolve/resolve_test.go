package resolve

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onchain-formulas/internal/credentials"
	fnerrors "github.com/onchain-formulas/internal/errors"
	"github.com/onchain-formulas/internal/router"
	"github.com/onchain-formulas/internal/transport"
	"github.com/onchain-formulas/internal/types"
)

const literal = "0x1111111111111111111111111111111111111111"

type fakeNames struct {
	calls   int
	entries map[string]string
	err     error
}

func (f *fakeNames) ResolveName(_ context.Context, name string) (string, error) {
	f.calls++
	return f.entries[name], f.err
}

func TestResolveLiteralAddressSkipsLookup(t *testing.T) {
	names := &fakeNames{}
	addr, err := NewAddressResolver(names).Resolve(context.Background(), literal)
	require.NoError(t, err)
	assert.Equal(t, literal, addr)
	assert.Equal(t, 0, names.calls)
}

func TestResolveUnknownNameIsENSError(t *testing.T) {
	_, err := NewAddressResolver(&fakeNames{}).Resolve(context.Background(), "name.eth")
	require.Error(t, err)
	res := fnerrors.Classify(err, "ETHERSCAN")
	assert.Equal(t, types.KindENS, res.Type)
	assert.Equal(t, "name.eth is not a supported ens name", res.Message)
}

func TestResolveLookupFailureIsDefault(t *testing.T) {
	_, err := NewAddressResolver(&fakeNames{err: errors.New("rpc down")}).Resolve(context.Background(), "name.eth")
	assert.Equal(t, types.KindDefault, fnerrors.KindOf(err))
}

func TestResolveBatch(t *testing.T) {
	names := &fakeNames{entries: map[string]string{"vitalik.eth": "0xD8dA6BF26964aF9D7eEd9e03E53415D37aA96045"}}
	book, err := NewAddressResolver(names).ResolveBatch(context.Background(), "vitalik.eth, "+literal+",")
	require.NoError(t, err)

	assert.Equal(t, []string{"0xd8da6bf26964af9d7eed9e03e53415d37aa96045", literal}, book.Addresses())
	assert.Equal(t, "vitalik.eth", book.Name("0xD8dA6BF26964aF9D7eEd9e03E53415D37aA96045"))
	assert.Nil(t, book.Name(literal))
	assert.Equal(t, 2, book.Len())

	_, err = NewAddressResolver(names).ResolveBatch(context.Background(), literal+",nobody.eth")
	assert.Equal(t, types.KindENS, fnerrors.KindOf(err))
}

func TestNamehash(t *testing.T) {
	assert.Equal(t, common.Hash{}, Namehash(""))
	assert.Equal(t,
		common.HexToHash("0x93cdeb708b7545dc668eb9280176169d1c33cfd8ed6f04690a0bcc88a93fc4ae"),
		Namehash("eth"))
	assert.Equal(t,
		common.HexToHash("0xde9b09fd7c5f901e23a3f19fecc54828e9c848539801e86591bd9801b019f84f"),
		Namehash("foo.eth"))
	assert.Equal(t, Namehash("foo.eth"), Namehash("FOO.eth"))
}

type fakeCaller struct {
	resolver common.Address
	addr     common.Address
}

func (f fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	word := make([]byte, 32)
	switch *msg.To {
	case ENSRegistry:
		copy(word[12:], f.resolver.Bytes())
	case f.resolver:
		copy(word[12:], f.addr.Bytes())
	default:
		return nil, fmt.Errorf("unexpected call to %s", msg.To.Hex())
	}
	return word, nil
}

func TestENSResolver(t *testing.T) {
	want := common.HexToAddress("0xD8dA6BF26964aF9D7eEd9e03E53415D37aA96045")
	r := NewENSResolver(fakeCaller{resolver: common.HexToAddress("0x2222222222222222222222222222222222222222"), addr: want})

	got, err := r.ResolveName(context.Background(), "vitalik.eth")
	require.NoError(t, err)
	assert.Equal(t, want.Hex(), got)

	unset := NewENSResolver(fakeCaller{})
	got, err = unset.ResolveName(context.Background(), "nobody.eth")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func newClient(t *testing.T, server *httptest.Server, creds map[string]string) *transport.Client {
	t.Helper()
	return transport.NewClient(server.Client(), router.New(credentials.NewMapStore(creds), "http://proxy.invalid"))
}

func TestUsernameResolver(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/search/", r.URL.Path)
		assert.Equal(t, "dwr", r.URL.Query().Get("q"))
		assert.Equal(t, "neynar-key", r.Header.Get("x-api-key"))
		w.Write([]byte(`{"result":{"users":[{"username":"DWR","fid":1},{"username":"dwr","fid":3},{"username":"dwr","fid":4}]}}`))
	}))
	defer server.Close()

	r := NewUsernameResolver(newClient(t, server, map[string]string{credentials.KeyNeynar: "neynar-key"}), server.URL)

	fid, ok, err := r.Resolve(context.Background(), "dwr")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(3), fid)

	_, ok, err = r.Resolve(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUsernameResolverNoExactMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":{"users":[{"username":"dwr.eth","fid":9}]}}`))
	}))
	defer server.Close()

	r := NewUsernameResolver(newClient(t, server, map[string]string{credentials.KeyNeynar: "k"}), server.URL)
	_, ok, err := r.Resolve(context.Background(), "dwr")
	require.NoError(t, err)
	assert.False(t, ok)
}

func blockServer(t *testing.T, blocks map[string]string, hits *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		q := r.URL.Query()
		assert.Equal(t, "getblocknobytime", q.Get("action"))
		assert.Equal(t, "before", q.Get("closest"))
		result, ok := blocks[q.Get("timestamp")]
		if !ok {
			result = "Error! No closest block found"
		}
		fmt.Fprintf(w, `{"status":"1","message":"OK","result":%q}`, result)
	}))
}

func TestBlockResolverShortCircuits(t *testing.T) {
	var hits int32
	server := blockServer(t, nil, &hits)
	defer server.Close()
	b := NewBlockResolver(newClient(t, server, map[string]string{credentials.KeyEtherscan: "k"}), server.URL)

	tests := []struct {
		name  string
		ts    any
		chain int64
		cred  string
	}{
		{name: "no timestamp", ts: nil, chain: 1, cred: "k"},
		{name: "blank timestamp", ts: " ", chain: 1, cred: "k"},
		{name: "no chain", ts: int64(1), chain: 0, cred: "k"},
		{name: "no credential", ts: int64(1), chain: 1, cred: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok, err := b.Resolve(context.Background(), tt.ts, tt.chain, tt.cred)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestBlockResolverResolve(t *testing.T) {
	var hits int32
	server := blockServer(t, map[string]string{"1704067200": "18908895"}, &hits)
	defer server.Close()
	b := NewBlockResolver(newClient(t, server, map[string]string{credentials.KeyEtherscan: "k"}), server.URL)

	n, ok, err := b.Resolve(context.Background(), "01/01/2024", 1, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(18908895), n)
}

func TestResolveRangeFallsBack(t *testing.T) {
	var hits int32
	server := blockServer(t, map[string]string{"1704067200": "18908895"}, &hits)
	defer server.Close()
	b := NewBlockResolver(newClient(t, server, map[string]string{credentials.KeyEtherscan: "k"}), server.URL)

	rng := b.ResolveRange(context.Background(), "01/01/2024", "01/07/2025", 1, "k")
	assert.Equal(t, int64(18908895), rng.Start)
	assert.True(t, rng.StartResolved)
	assert.Equal(t, types.LatestBlockSentinel, rng.End)
	assert.False(t, rng.EndResolved)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))

	assert.Equal(t, Unbounded, b.ResolveRange(context.Background(), nil, nil, 1, "k"))
}

func TestResolveStrictRange(t *testing.T) {
	var hits int32
	server := blockServer(t, map[string]string{"1704067200": "100", "1736208000": "200"}, &hits)
	defer server.Close()
	b := NewBlockResolver(newClient(t, server, map[string]string{credentials.KeyEtherscan: "k"}), server.URL)

	rng, err := b.ResolveStrictRange(context.Background(), "01/01/2024", "01/07/2025", 1, "k", "startTime", "endTime")
	require.NoError(t, err)
	assert.Equal(t, int64(100), rng.Start)
	assert.Equal(t, int64(200), rng.End)

	_, err = b.ResolveStrictRange(context.Background(), "01/01/2024", "01/01/2030", 1, "k", "startTime", "endTime")
	res := fnerrors.Classify(err, "EOA")
	assert.Equal(t, types.KindInvalidParam, res.Type)
	assert.Contains(t, res.Message, "endTime")
}

func TestChainNamesCachesAfterFirstFetch(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(`[{"name":"Ethereum Mainnet","chainId":1},{"name":"Base","chainId":8453}]`))
	}))
	defer server.Close()

	c := NewChainNames(transport.NewClient(server.Client(), nil), server.URL)
	name, ok := c.Name(context.Background(), 8453)
	assert.True(t, ok)
	assert.Equal(t, "Base", name)

	_, ok = c.Name(context.Background(), 999)
	assert.False(t, ok)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestChainNamesDoesNotCacheFailure(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[{"name":"Gnosis","chainId":100}]`))
	}))
	defer server.Close()

	c := NewChainNames(transport.NewClient(server.Client(), nil), server.URL)
	_, ok := c.Name(context.Background(), 100)
	assert.False(t, ok)

	name, ok := c.Name(context.Background(), 100)
	assert.True(t, ok)
	assert.Equal(t, "Gnosis", name)
}
