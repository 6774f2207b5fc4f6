package resolve

import (
	"context"
	"sync"

	"github.com/onchain-formulas/internal/logging"
	"github.com/onchain-formulas/internal/transport"
)

// ChainListURL serves the public chain registry
const ChainListURL = "https://chainid.network/chains_mini.json"

// ChainNames is a process-wide cache of chain id to chain name, filled on first use.
// Concurrent first lookups may each fetch the list; the last write wins.
type ChainNames struct {
	client *transport.Client
	url    string

	mu    sync.RWMutex
	names map[int64]string
}

// NewChainNames creates an empty cache
func NewChainNames(client *transport.Client, url string) *ChainNames {
	if url == "" {
		url = ChainListURL
	}
	return &ChainNames{client: client, url: url}
}

type chainEntry struct {
	Name    string `json:"name"`
	ChainID int64  `json:"chainId"`
}

// Name returns the chain name for id. A failed fetch is not cached.
func (c *ChainNames) Name(ctx context.Context, id int64) (string, bool) {
	c.mu.RLock()
	names := c.names
	c.mu.RUnlock()

	if names == nil {
		fetched, err := c.fetch(ctx)
		if err != nil {
			logging.FromContext(ctx).WithError(err).Warn("failed to load chain list")
			return "", false
		}
		c.mu.Lock()
		c.names = fetched
		c.mu.Unlock()
		names = fetched
	}

	name, ok := names[id]
	return name, ok
}

func (c *ChainNames) fetch(ctx context.Context) (map[int64]string, error) {
	var entries []chainEntry
	if err := c.client.GetJSON(ctx, c.url, "", nil, &entries); err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(entries))
	for _, e := range entries {
		names[e.ChainID] = e.Name
	}
	return names, nil
}
