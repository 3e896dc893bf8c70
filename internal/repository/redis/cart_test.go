package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketshoes/cartservice/internal/domain"
	apperrors "github.com/rocketshoes/cartservice/pkg/errors"
)

func setupTestRedis(t *testing.T, ttl time.Duration) (*CartRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	repo := NewCartRepository(client, "", ttl)
	return repo, mr
}

func sampleCart() *domain.Cart {
	return &domain.Cart{
		Items: []domain.LineItem{
			{
				ID:       1,
				Name:     "Tênis de Caminhada Leve Confortável",
				Price:    17990,
				ImageURL: "https://img.example.com/sneaker.jpg",
				Amount:   2,
			},
			{
				ID:     2,
				Name:   "Sapatênis Casual",
				Price:  13990,
				Amount: 1,
			},
		},
	}
}

func TestCartRepository_Load_Success(t *testing.T) {
	repo, mr := setupTestRedis(t, 0)

	cart := sampleCart()
	data, err := json.Marshal(cart)
	require.NoError(t, err)

	// Set data directly in miniredis.
	require.NoError(t, mr.Set(DefaultKey, string(data)))

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, int64(1), got.Items[0].ID)
	assert.Equal(t, int64(17990), got.Items[0].Price)
	assert.Equal(t, 2, got.Items[0].Amount)
	assert.Equal(t, int64(2), got.Items[1].ID)
}

func TestCartRepository_Load_EmptySlot(t *testing.T) {
	repo, _ := setupTestRedis(t, 0)

	got, err := repo.Load(context.Background())

	assert.Nil(t, got)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartRepository_Load_CorruptData(t *testing.T) {
	repo, mr := setupTestRedis(t, 0)

	require.NoError(t, mr.Set(DefaultKey, "{not json"))

	got, err := repo.Load(context.Background())

	assert.Nil(t, got)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartRepository_Save_RoundTrip(t *testing.T) {
	repo, _ := setupTestRedis(t, 0)
	ctx := context.Background()

	cart := sampleCart()
	require.NoError(t, repo.Save(ctx, cart))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, cart.Items, got.Items)
}

func TestCartRepository_Save_Overwrites(t *testing.T) {
	repo, _ := setupTestRedis(t, 0)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleCart()))
	require.NoError(t, repo.Save(ctx, &domain.Cart{Items: []domain.LineItem{
		{ID: 3, Name: "Chinelo", Price: 5990, Amount: 4},
	}}))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, int64(3), got.Items[0].ID)
}

func TestCartRepository_Save_AppliesTTL(t *testing.T) {
	repo, mr := setupTestRedis(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleCart()))

	assert.Equal(t, time.Hour, mr.TTL(DefaultKey))

	// Past the TTL the slot reads as empty again.
	mr.FastForward(2 * time.Hour)
	_, err := repo.Load(ctx)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartRepository_CustomKey(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	repo := NewCartRepository(client, "tenant-7:cart", 0)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleCart()))

	assert.True(t, mr.Exists("tenant-7:cart"))
	assert.False(t, mr.Exists(DefaultKey))
}
