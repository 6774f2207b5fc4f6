// Package router decides, per external service, whether a request goes to the provider
// directly with the caller's credential or through the shared credential-stripping proxy.
package router

import (
	"context"
	"fmt"
	"net/url"

	"github.com/onchain-formulas/internal/credentials"
	fnerrors "github.com/onchain-formulas/internal/errors"
	"github.com/onchain-formulas/internal/logging"
)

// Service names an external provider
type Service string

const (
	ServiceEtherscan  Service = "Etherscan"
	ServiceBasescan   Service = "Basescan"
	ServiceGnosisscan Service = "Gnosisscan"
	ServiceCoingecko  Service = "Coingecko"
	ServiceFirefly    Service = "Firefly"
	ServiceNeynar     Service = "Neynar"
	ServiceSafe       Service = "Safe"
	ServiceDefillama  Service = "Defillama"
	ServiceGnosisPay  Service = "GnosisPay"
	ServiceDuneSim    Service = "DuneSim"
)

// Mode is how a request reaches its provider
type Mode string

const (
	ModeDirect  Mode = "direct"
	ModeProxied Mode = "proxied"
)

// Header names of the proxy wire contract
const (
	HeaderTargetURL   = "target-url"
	HeaderContentType = "Content-Type"
	HeaderMethod      = "method"
)

// ServiceInfo describes how a service's credential is stored
type ServiceInfo struct {
	KeyName     string
	RequiresKey bool
}

// ProxyEntry is a proxy route for one service
type ProxyEntry struct {
	URL          string
	RemoveParams []string
}

// DefaultServices lists every known service and its credential key
var DefaultServices = map[Service]ServiceInfo{
	ServiceEtherscan:  {KeyName: credentials.KeyEtherscan, RequiresKey: true},
	ServiceBasescan:   {KeyName: credentials.KeyBasescan, RequiresKey: true},
	ServiceGnosisscan: {KeyName: credentials.KeyGnosisscan, RequiresKey: true},
	ServiceCoingecko:  {KeyName: credentials.KeyCoingecko, RequiresKey: true},
	ServiceFirefly:    {KeyName: credentials.KeyFirefly, RequiresKey: true},
	ServiceNeynar:     {KeyName: credentials.KeyNeynar, RequiresKey: true},
	ServiceSafe:       {KeyName: credentials.KeySafe, RequiresKey: true},
	ServiceDefillama:  {KeyName: credentials.KeyDefillama, RequiresKey: false},
	ServiceGnosisPay:  {KeyName: credentials.KeyGnosisPay, RequiresKey: true},
	ServiceDuneSim:    {KeyName: credentials.KeyDuneSim, RequiresKey: true},
}

// DefaultProxies returns the proxy table for a proxy endpoint
func DefaultProxies(proxyURL string) map[Service]ProxyEntry {
	apikey := []string{"apikey"}
	apiKeyUnderscore := []string{"api_key"}
	return map[Service]ProxyEntry{
		ServiceEtherscan:  {URL: proxyURL, RemoveParams: apikey},
		ServiceBasescan:   {URL: proxyURL, RemoveParams: apikey},
		ServiceGnosisscan: {URL: proxyURL, RemoveParams: apikey},
		ServiceCoingecko:  {URL: proxyURL, RemoveParams: apikey},
		ServiceFirefly:    {URL: proxyURL, RemoveParams: apikey},
		ServiceNeynar:     {URL: proxyURL, RemoveParams: apiKeyUnderscore},
		ServiceSafe:       {URL: proxyURL, RemoveParams: apiKeyUnderscore},
		ServiceDefillama:  {URL: proxyURL, RemoveParams: apiKeyUnderscore},
		ServiceGnosisPay:  {URL: proxyURL, RemoveParams: apiKeyUnderscore},
	}
}

// Router selects direct or proxied routes
type Router struct {
	store    credentials.Store
	services map[Service]ServiceInfo
	proxies  map[Service]ProxyEntry
}

// New creates a Router over store with the default service and proxy tables
func New(store credentials.Store, proxyURL string) *Router {
	services := make(map[Service]ServiceInfo, len(DefaultServices))
	for k, v := range DefaultServices {
		services[k] = v
	}
	return &Router{store: store, services: services, proxies: DefaultProxies(proxyURL)}
}

// WithProxy adds or replaces a proxy entry. The default tables cover every known service, so
// this and the helpers below are mostly used to point services at test servers.
func (r *Router) WithProxy(service Service, entry ProxyEntry) *Router {
	r.proxies[service] = entry
	return r
}

// WithoutProxy removes a service's proxy entry, forcing direct calls
func (r *Router) WithoutProxy(service Service) *Router {
	delete(r.proxies, service)
	return r
}

// WithService registers a service
func (r *Router) WithService(service Service, info ServiceInfo) *Router {
	r.services[service] = info
	return r
}

// Store returns the credential store backing the router
func (r *Router) Store() credentials.Store {
	return r.store
}

// KeyName returns the storage key for a service, or the service name if unknown
func (r *Router) KeyName(service Service) string {
	if info, ok := r.services[service]; ok {
		return info.KeyName
	}
	return string(service)
}

// Credential returns the raw stored value for a service, which may be the proxy sentinel
func (r *Router) Credential(ctx context.Context, service Service) (string, bool, error) {
	if r.store == nil {
		return "", false, nil
	}
	return r.store.Get(ctx, r.KeyName(service))
}

// Access is the per-call routing decision for one service
type Access struct {
	Service    Service
	Mode       Mode
	Credential string
	proxy      ProxyEntry
}

// Access decides the route for service from its stored credential.
//
// A stored sentinel value routes through the proxy when one exists. An absent value falls
// through to the proxy when one exists, and otherwise fails with MISSING_KEY if the service
// needs a key. A real value goes direct.
func (r *Router) Access(ctx context.Context, service Service) (*Access, error) {
	info, known := r.services[service]
	proxy, hasProxy := r.proxies[service]

	var (
		value  string
		stored bool
	)
	if known && r.store != nil {
		v, ok, err := r.store.Get(ctx, info.KeyName)
		if err != nil {
			return nil, fnerrors.NewDefaultError(fmt.Errorf("credential lookup for %s: %w", service, err))
		}
		value, stored = v, ok
	}

	logger := logging.FromContext(ctx).WithField("service", string(service))

	switch {
	case stored && value != credentials.ProxyModeSentinel:
		logger.Debug("routing direct")
		return &Access{Service: service, Mode: ModeDirect, Credential: value}, nil
	case hasProxy:
		logger.Debug("routing through proxy")
		return &Access{Service: service, Mode: ModeProxied, proxy: proxy}, nil
	case known && info.RequiresKey:
		return nil, fnerrors.NewMissingKeyError(info.KeyName)
	default:
		return &Access{Service: service, Mode: ModeDirect}, nil
	}
}

// Route is the final URL and headers of a request
type Route struct {
	URL     string
	Headers map[string]string
	Mode    Mode
}

// Apply builds the final route for rawURL. Direct routes keep the URL and caller headers.
// Proxied routes target the proxy and carry the stripped URL in the target-url header.
func (a *Access) Apply(rawURL string, headers map[string]string) (*Route, error) {
	if a.Mode != ModeProxied {
		h := make(map[string]string, len(headers))
		for k, v := range headers {
			h[k] = v
		}
		return &Route{URL: rawURL, Headers: h, Mode: ModeDirect}, nil
	}

	cleaned, err := RemoveParams(rawURL, a.proxy.RemoveParams)
	if err != nil {
		return nil, err
	}
	return &Route{
		URL: a.proxy.URL,
		Headers: map[string]string{
			HeaderTargetURL:   cleaned,
			HeaderMethod:      "GET",
			HeaderContentType: "application/json",
		},
		Mode: ModeProxied,
	}, nil
}

// Route combines Access and Apply
func (r *Router) Route(ctx context.Context, rawURL string, service Service, headers map[string]string) (*Route, error) {
	acc, err := r.Access(ctx, service)
	if err != nil {
		return nil, err
	}
	return acc.Apply(rawURL, headers)
}

// RemoveParams deletes the named query parameters from rawURL
func RemoveParams(rawURL string, params []string) (string, error) {
	if len(params) == 0 {
		return rawURL, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fnerrors.NewDefaultError(fmt.Errorf("parse url: %w", err))
	}
	q := u.Query()
	changed := false
	for _, p := range params {
		if q.Has(p) {
			q.Del(p)
			changed = true
		}
	}
	if !changed {
		return rawURL, nil
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
