package credentials

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapStore(t *testing.T) {
	ctx := context.Background()
	s := NewMapStore(map[string]string{KeyEtherscan: "abc", KeySafe: ""})

	v, ok, err := s.Get(ctx, KeyEtherscan)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", v)

	_, ok, err = s.Get(ctx, KeySafe)
	require.NoError(t, err)
	assert.False(t, ok, "empty values count as absent")

	s.Set(KeySafe, ProxyModeSentinel)
	v, ok, _ = s.Get(ctx, KeySafe)
	assert.True(t, ok)
	assert.Equal(t, ProxyModeSentinel, v)
}

func TestEnvStore(t *testing.T) {
	t.Setenv("FORMULA_"+KeyNeynar, " neynar-key ")

	v, ok, err := EnvStore{Prefix: "FORMULA_"}.Get(context.Background(), KeyNeynar)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "neynar-key", v)

	_, ok, err = EnvStore{Prefix: "FORMULA_"}.Get(context.Background(), KeyDuneSim)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, "creds:")
	defer store.Close()

	require.NoError(t, mr.Set("creds:"+KeyCoingecko, "cg-key"))

	ctx := context.Background()
	v, ok, err := store.Get(ctx, KeyCoingecko)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "cg-key", v)

	_, ok, err = store.Get(ctx, KeyFirefly)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStoreError(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	store := NewRedisStore(client, "")
	mr.Close()

	_, _, err = store.Get(context.Background(), KeyEtherscan)
	assert.Error(t, err)
}

func TestChain(t *testing.T) {
	first := NewMapStore(map[string]string{KeySafe: "from-first"})
	second := NewMapStore(map[string]string{KeySafe: "from-second", KeyDuneSim: "dune"})
	c := Chain{first, second}

	v, ok, err := c.Get(context.Background(), KeySafe)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "from-first", v)

	v, ok, _ = c.Get(context.Background(), KeyDuneSim)
	assert.True(t, ok)
	assert.Equal(t, "dune", v)

	_, ok, _ = c.Get(context.Background(), KeyGnosisPay)
	assert.False(t, ok)
}
