package adapter

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	fnerrors "github.com/onchain-formulas/internal/errors"
	"github.com/onchain-formulas/internal/normalize"
	"github.com/onchain-formulas/internal/router"
	"github.com/onchain-formulas/internal/transport"
	"github.com/onchain-formulas/internal/types"
	"github.com/onchain-formulas/internal/validate"
)

// Firefly content types per platform
var fireflyTypes = map[string]map[string]string{
	"farcaster": {
		"posts":    "farcasterid",
		"replies":  "farcasterpostid",
		"channels": "farcasterchannels",
	},
	"lens": {
		"posts":   "lensid",
		"replies": "lenspostid",
	},
}

var pagingFields = []validate.Field{
	{Name: "start", Type: validate.TypeNumber, Default: int64(0)},
	{Name: "end", Type: validate.TypeNumber, Default: int64(10), PageLimit: true},
}

// FireflySchema is the FIREFLY argument list
var FireflySchema = &validate.Schema{
	Function: "FIREFLY",
	Fields: append([]validate.Field{
		{Name: "platform", Required: true, Type: validate.TypeEnum, Enum: []string{"farcaster", "lens"}},
		{Name: "contentType", Required: true},
		{Name: "identifier", Required: true},
	}, pagingFields...),
}

// LensSchema is the LENS argument list
var LensSchema = &validate.Schema{
	Function: "LENS",
	Fields: append([]validate.Field{
		{Name: "contentType", Required: true, Type: validate.TypeEnum, Enum: []string{"posts", "replies"}},
		{Name: "identifier", Required: true},
	}, pagingFields...),
}

// FarcasterSchema is the FARCASTER argument list
var FarcasterSchema = &validate.Schema{
	Function: "FARCASTER",
	Fields: append([]validate.Field{
		{Name: "contentType", Required: true, Type: validate.TypeEnum, Enum: []string{"posts", "replies", "channels"}},
		{Name: "identifier", Required: true},
	}, pagingFields...),
}

// Firefly fetches Farcaster or Lens content by platform
func (a *Adapters) Firefly(ctx context.Context, p validate.Params) (types.Result, error) {
	return a.firefly(ctx, p.String("platform"), p)
}

// Lens fetches Lens content
func (a *Adapters) Lens(ctx context.Context, p validate.Params) (types.Result, error) {
	return a.firefly(ctx, "lens", p)
}

// Farcaster fetches Farcaster content
func (a *Adapters) Farcaster(ctx context.Context, p validate.Params) (types.Result, error) {
	return a.firefly(ctx, "farcaster", p)
}

func (a *Adapters) firefly(ctx context.Context, platform string, p validate.Params) (types.Result, error) {
	contentTypes, ok := fireflyTypes[platform]
	if !ok {
		return types.Result{}, fnerrors.NewInvalidParamError("platform", platform)
	}
	contentType := p.String("contentType")
	kind, ok := contentTypes[contentType]
	if !ok {
		return types.Result{}, fnerrors.NewInvalidParamError("contentType", contentType)
	}

	apiKey, err := a.credential(ctx, router.ServiceFirefly)
	if err != nil {
		return types.Result{}, err
	}

	q := url.Values{}
	q.Set("query", strings.Join(types.SplitList(p.String("identifier")), ","))
	q.Set("type", kind)
	q.Set("start", p.IntString("start"))
	q.Set("end", p.IntString("end"))

	body, err := a.client.Fetch(ctx, transport.Request{
		URL:     a.endpoints.Firefly + "?" + q.Encode(),
		Service: router.ServiceFirefly,
		Headers: map[string]string{"x-api-key": apiKey},
	})
	if err != nil {
		return types.Result{}, err
	}

	var decoded struct {
		Data any `json:"data"`
	}
	if err := transport.Decode(body, &decoded); err != nil {
		return types.Result{}, err
	}
	items, ok := decoded.Data.([]any)
	if !ok {
		return rows(nil)
	}

	out := normalize.ScalarRows(items)
	for _, row := range out {
		row["platform"] = platform
	}
	return rows(out)
}

// NeynarSchema is the NEYNAR argument list
var NeynarSchema = &validate.Schema{
	Function: "NEYNAR",
	Fields: []validate.Field{
		{Name: "username", Required: true},
	},
}

// Neynar lists the followers of a Farcaster user
func (a *Adapters) Neynar(ctx context.Context, p validate.Params) (types.Result, error) {
	username := p.String("username")
	fid, ok, err := a.usernames.Resolve(ctx, username)
	if err != nil {
		return types.Result{}, err
	}
	if !ok {
		return types.Result{}, fnerrors.NewInvalidParamError("username", username)
	}

	apiKey, err := a.credential(ctx, router.ServiceNeynar)
	if err != nil {
		return types.Result{}, err
	}

	body, err := a.client.Fetch(ctx, transport.Request{
		URL:     a.endpoints.Neynar + "/followers?fid=" + strconv.FormatInt(fid, 10),
		Service: router.ServiceNeynar,
		Headers: map[string]string{"x-api-key": apiKey, "x-neynar-experimental": "false"},
	})
	if err != nil {
		return types.Result{}, err
	}

	users := gjson.GetBytes(body, "users").Array()
	out := make([]types.Row, 0, len(users))
	for _, u := range users {
		user := u.Get("user")
		out = append(out, types.Row{
			"username":        user.Get("username").Value(),
			"custody_address": user.Get("custody_address").Value(),
			"follower_count":  user.Get("follower_count").Value(),
			"country":         user.Get("profile.location.address.country").String(),
			"city":            user.Get("profile.location.address.city").String(),
		})
	}
	return rows(out)
}
