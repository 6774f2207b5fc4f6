package resolve

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	fnerrors "github.com/onchain-formulas/internal/errors"
	"github.com/onchain-formulas/internal/logging"
	"github.com/onchain-formulas/internal/router"
	"github.com/onchain-formulas/internal/transport"
	"github.com/onchain-formulas/internal/types"
	"github.com/onchain-formulas/internal/validate"
)

// EtherscanV2URL is the multichain Etherscan endpoint
const EtherscanV2URL = "https://api.etherscan.io/v2/api"

// ToTimestamp converts MM/DD/YYYY, a numeric string or a number into UNIX seconds
func ToTimestamp(v any) (int64, error) {
	return validate.ParseTimestamp(v)
}

// BlockRange bounds a transaction-history query
type BlockRange struct {
	Start         int64
	End           int64
	StartResolved bool
	EndResolved   bool
}

// Unbounded is the range used when neither bound resolves
var Unbounded = BlockRange{Start: 0, End: types.LatestBlockSentinel}

// BlockResolver finds the last block at or before a timestamp
type BlockResolver struct {
	client  *transport.Client
	baseURL string
}

// NewBlockResolver creates a BlockResolver; an empty baseURL uses Etherscan v2
func NewBlockResolver(client *transport.Client, baseURL string) *BlockResolver {
	if baseURL == "" {
		baseURL = EtherscanV2URL
	}
	return &BlockResolver{client: client, baseURL: baseURL}
}

type blockByTimeResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  any    `json:"result"`
}

// Resolve returns the block number for ts on chainID. Any empty input short-circuits to (0, false, nil).
func (b *BlockResolver) Resolve(ctx context.Context, ts any, chainID int64, credential string) (int64, bool, error) {
	if ts == nil || chainID == 0 || credential == "" {
		return 0, false, nil
	}
	if s, ok := ts.(string); ok && strings.TrimSpace(s) == "" {
		return 0, false, nil
	}

	unix, err := ToTimestamp(ts)
	if err != nil {
		return 0, false, fnerrors.NewInvalidParamErrorf("timestamp", ts, "%v", err)
	}

	rawURL := fmt.Sprintf("%s?module=block&action=getblocknobytime&timestamp=%d&closest=before&apikey=%s&chainId=%d",
		b.baseURL, unix, credential, chainID)

	var resp blockByTimeResponse
	if err := b.client.GetJSON(ctx, rawURL, router.ServiceEtherscan, nil, &resp); err != nil {
		return 0, false, err
	}

	var block int64
	switch v := resp.Result.(type) {
	case string:
		block, err = strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, false, nil
		}
	case float64:
		block = int64(v)
	default:
		return 0, false, nil
	}
	if block <= 0 {
		return 0, false, nil
	}
	return block, true, nil
}

// ResolveRange resolves both bounds concurrently. An unresolved or failed bound falls back to
// 0 for the start and LatestBlockSentinel for the end.
func (b *BlockResolver) ResolveRange(ctx context.Context, start, end any, chainID int64, credential string) BlockRange {
	rng := Unbounded
	logger := logging.FromContext(ctx)

	var g errgroup.Group
	g.Go(func() error {
		n, ok, err := b.Resolve(ctx, start, chainID, credential)
		if err != nil {
			logger.WithError(err).Warn("start block unresolved, using 0")
			return nil
		}
		if ok {
			rng.Start, rng.StartResolved = n, true
		}
		return nil
	})
	g.Go(func() error {
		n, ok, err := b.Resolve(ctx, end, chainID, credential)
		if err != nil {
			logger.WithError(err).Warn("end block unresolved, using latest")
			return nil
		}
		if ok {
			rng.End, rng.EndResolved = n, true
		}
		return nil
	})
	_ = g.Wait()

	return rng
}

// ResolveStrictRange resolves both bounds and fails unless both resolve.
// startField and endField name the caller's arguments in the error.
func (b *BlockResolver) ResolveStrictRange(ctx context.Context, start, end any, chainID int64, credential, startField, endField string) (BlockRange, error) {
	var rng BlockRange

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, ok, err := b.Resolve(gctx, start, chainID, credential)
		if err != nil {
			return err
		}
		if !ok {
			return fnerrors.NewInvalidParamError(startField, start)
		}
		rng.Start, rng.StartResolved = n, true
		return nil
	})
	g.Go(func() error {
		n, ok, err := b.Resolve(gctx, end, chainID, credential)
		if err != nil {
			return err
		}
		if !ok {
			return fnerrors.NewInvalidParamError(endField, end)
		}
		rng.End, rng.EndResolved = n, true
		return nil
	})
	if err := g.Wait(); err != nil {
		return BlockRange{}, err
	}
	return rng, nil
}
