package usecase

import (
	"context"
	"testing"
	"time"

	"medichat/infrastructure/cache"
	"medichat/internal/entity"

	"github.com/stretchr/testify/require"
)

func TestUserGetReadsThroughCache(t *testing.T) {
	userRepo := newFakeUserRepo()
	memCache := cache.NewMemCache(0)
	uc := NewUserUsecase(userRepo, memCache)
	ctx := context.Background()

	userRepo.put(entity.User{Id: "alice", FirstName: "Alice", Role: entity.RolePatient})

	user, err := uc.Get(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "Alice", user.FirstName)

	// Served from cache even after the backing record changes.
	userRepo.put(entity.User{Id: "alice", FirstName: "Changed", Role: entity.RolePatient})
	user, err = uc.Get(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "Alice", user.FirstName)

	cached, ok := memCache.Get("user:alice")
	require.True(t, ok)
	require.Equal(t, "Alice", cached.(entity.User).FirstName)
}

func TestUserUpdateInvalidatesCache(t *testing.T) {
	userRepo := newFakeUserRepo()
	memCache := cache.NewMemCache(0)
	uc := NewUserUsecase(userRepo, memCache)
	ctx := context.Background()

	userRepo.put(entity.User{Id: "bob", FirstName: "Bob", Role: entity.RoleDoctor})

	_, err := uc.Get(ctx, "bob")
	require.NoError(t, err)

	err = uc.Update(ctx, entity.User{Id: "bob", FirstName: "Robert"})
	require.NoError(t, err)

	_, ok := memCache.Get("user:bob")
	require.False(t, ok)

	user, err := uc.Get(ctx, "bob")
	require.NoError(t, err)
	require.Equal(t, "Robert", user.FirstName)
}

func TestHandleDisconnectEvictsCache(t *testing.T) {
	userRepo := newFakeUserRepo()
	memCache := cache.NewMemCache(0)
	uc := NewUserUsecase(userRepo, memCache)
	ctx := context.Background()

	userRepo.put(entity.User{Id: "alice", FirstName: "Alice", Role: entity.RolePatient})

	_, err := uc.Get(ctx, "alice")
	require.NoError(t, err)
	_, ok := memCache.Get("user:alice")
	require.True(t, ok)

	uc.HandleDisconnect("alice")
	_, ok = memCache.Get("user:alice")
	require.False(t, ok)

	// Safe without a cache too.
	NewUserUsecase(userRepo, nil).HandleDisconnect("alice")
}

func TestUserGetWorksWithoutCache(t *testing.T) {
	userRepo := newFakeUserRepo()
	uc := NewUserUsecase(userRepo, nil)

	userRepo.put(entity.User{Id: "carol", FirstName: "Carol"})

	user, err := uc.Get(context.Background(), "carol")
	require.NoError(t, err)
	require.Equal(t, "Carol", user.FirstName)

	_, err = uc.Get(context.Background(), "missing")
	require.Error(t, err)
}

func TestUserCacheEntryExpires(t *testing.T) {
	memCache := cache.NewMemCache(0)
	memCache.Set("user:temp", entity.User{Id: "temp"}, 10*time.Millisecond)

	_, ok := memCache.Get("user:temp")
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	_, ok = memCache.Get("user:temp")
	require.False(t, ok)
}
