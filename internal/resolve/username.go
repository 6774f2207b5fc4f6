package resolve

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/onchain-formulas/internal/credentials"
	"github.com/onchain-formulas/internal/router"
	"github.com/onchain-formulas/internal/transport"
)

// NeynarBaseURL is the Neynar v2 API root
const NeynarBaseURL = "https://api.neynar.com/v2/farcaster"

// UsernameResolver maps a Farcaster username to its fid
type UsernameResolver struct {
	client  *transport.Client
	baseURL string
}

// NewUsernameResolver creates a resolver against the Neynar search endpoint
func NewUsernameResolver(client *transport.Client, baseURL string) *UsernameResolver {
	if baseURL == "" {
		baseURL = NeynarBaseURL
	}
	return &UsernameResolver{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

type userSearchResponse struct {
	Result struct {
		Users []struct {
			Username string `json:"username"`
			FID      int64  `json:"fid"`
		} `json:"users"`
	} `json:"result"`
}

// Resolve returns the fid of the first exact, case-sensitive username match
func (r *UsernameResolver) Resolve(ctx context.Context, username string) (int64, bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return 0, false, nil
	}

	key, _, err := r.client.Router().Credential(ctx, router.ServiceNeynar)
	if err != nil {
		return 0, false, fmt.Errorf("read %s: %w", credentials.KeyNeynar, err)
	}

	rawURL := fmt.Sprintf("%s/user/search/?q=%s&limit=5", r.baseURL, url.QueryEscape(username))
	headers := map[string]string{
		"x-api-key":             key,
		"x-neynar-experimental": "false",
	}

	var resp userSearchResponse
	if err := r.client.GetJSON(ctx, rawURL, router.ServiceNeynar, headers, &resp); err != nil {
		return 0, false, err
	}

	for _, u := range resp.Result.Users {
		if u.Username == username {
			return u.FID, true, nil
		}
	}
	return 0, false, nil
}
