package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/weatherdash/internal/cache"
	"github.com/neexbeast/weatherdash/internal/dashboard"
	"github.com/neexbeast/weatherdash/internal/insight"
	"github.com/neexbeast/weatherdash/internal/session"
	"github.com/neexbeast/weatherdash/internal/weather"
)

func newTestClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func sampleDashboard() *dashboard.Dashboard {
	return &dashboard.Dashboard{
		Current: weather.CurrentConditions{
			LocationID:  2988507,
			Name:        "Paris",
			Temperature: 22.5,
			Category:    weather.CategoryClear,
			Description: "clear sky",
		},
		AQI:         insight.ClassifyAQI(2),
		Insights:    []insight.Insight{},
		Trends:      []insight.Trend{},
		GeneratedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestCache_SetAndGet(t *testing.T) {
	client, _ := newTestClient(t)
	c := cache.NewCache(client, 0)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "Paris", sampleDashboard()))

	got, err := c.Get(ctx, "Paris")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 22.5, got.Current.Temperature)
	assert.Equal(t, "Fair", got.AQI.Level)
	assert.Equal(t, sampleDashboard().GeneratedAt, got.GeneratedAt)
}

func TestCache_Get_Miss(t *testing.T) {
	client, _ := newTestClient(t)
	c := cache.NewCache(client, 0)

	got, err := c.Get(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.Nil(t, got, "cache miss should return nil, nil")
}

func TestCache_CityKeyIsLowercased(t *testing.T) {
	client, mr := newTestClient(t)
	c := cache.NewCache(client, 0)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, " PARIS ", sampleDashboard()))
	assert.True(t, mr.Exists("dashboard:paris"))

	got, err := c.Get(ctx, "paris")
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestCache_Delete(t *testing.T) {
	client, _ := newTestClient(t)
	c := cache.NewCache(client, 0)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "Paris", sampleDashboard()))
	require.NoError(t, c.Delete(ctx, "Paris"))

	got, err := c.Get(ctx, "Paris")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, c.Delete(ctx, "ghost"))
}

func TestCache_Set_Nil(t *testing.T) {
	client, mr := newTestClient(t)
	c := cache.NewCache(client, 0)

	require.NoError(t, c.Set(context.Background(), "Paris", nil))
	assert.False(t, mr.Exists("dashboard:paris"))
}

func TestCache_TTL(t *testing.T) {
	client, mr := newTestClient(t)
	c := cache.NewCache(client, 0)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "Paris", sampleDashboard()))
	assert.Equal(t, cache.DefaultTTL, mr.TTL("dashboard:paris"))

	mr.FastForward(cache.DefaultTTL + time.Second)

	got, err := c.Get(ctx, "Paris")
	require.NoError(t, err)
	assert.Nil(t, got, "entry should be expired after TTL")
}

func TestCache_CorruptEntry(t *testing.T) {
	client, mr := newTestClient(t)
	c := cache.NewCache(client, time.Minute)
	require.NoError(t, mr.Set("dashboard:paris", "{broken"))

	_, err := c.Get(context.Background(), "Paris")
	require.Error(t, err)
}

func TestKV_SetGet(t *testing.T) {
	client, mr := newTestClient(t)
	kv := cache.NewKV(client, 0)
	ctx := context.Background()

	b, err := kv.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, b)

	require.NoError(t, kv.Set(ctx, "session:a:weatherAppTheme", []byte("light")))
	b, err = kv.Get(ctx, "session:a:weatherAppTheme")
	require.NoError(t, err)
	assert.Equal(t, "light", string(b))
	assert.Equal(t, cache.SessionTTL, mr.TTL("session:a:weatherAppTheme"))
}

func TestKV_BacksSessionState(t *testing.T) {
	client, _ := newTestClient(t)
	var store session.Store = cache.NewKV(client, 0)
	ctx := context.Background()

	s, err := session.New("abc").AddFavorite(session.Location{LocationID: 1, Name: "London"})
	require.NoError(t, err)
	require.NoError(t, session.Save(ctx, store, s))

	got, err := session.Load(ctx, store, "abc")
	require.NoError(t, err)
	assert.True(t, got.IsFavorite(1))
}

func TestConnect_InvalidURL(t *testing.T) {
	_, err := cache.Connect(context.Background(), "not-a-url")
	require.Error(t, err)
}

func TestConnect_UnreachableServer(t *testing.T) {
	_, err := cache.Connect(context.Background(), "redis://localhost:19999")
	require.Error(t, err)
}

func TestConnect_Miniredis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := cache.Connect(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	_ = client.Close()
}
