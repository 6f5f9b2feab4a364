package usecase

import (
	"context"
	"time"

	"medichat/infrastructure/cache"
	"medichat/internal/entity"
	"medichat/internal/repository"
)

const userCacheTTL = 5 * time.Minute

type UserUsecase interface {
	Get(ctx context.Context, userId string) (entity.User, error)
	Update(ctx context.Context, user entity.User) error

	// HandleDisconnect runs when the user's connection unregisters from
	// the hub. Evicts the cached profile so a reconnect reads fresh data.
	HandleDisconnect(userId string)
}

type userUsecase struct {
	userRepo repository.UserRepository
	cache    *cache.MemCache
}

// NewUserUsecase wraps the repository with a short-lived read-through
// cache; profiles are consulted on every connection setup and summary
// build.
func NewUserUsecase(userRepo repository.UserRepository, memCache *cache.MemCache) UserUsecase {
	return &userUsecase{
		userRepo: userRepo,
		cache:    memCache,
	}
}

func (u *userUsecase) Get(ctx context.Context, userId string) (entity.User, error) {
	if u.cache != nil {
		if cached, ok := u.cache.Get(userCacheKey(userId)); ok {
			if user, ok := cached.(entity.User); ok {
				return user, nil
			}
		}
	}

	user, err := u.userRepo.Get(ctx, userId)
	if err != nil {
		return entity.User{}, err
	}

	if u.cache != nil {
		u.cache.Set(userCacheKey(userId), user, userCacheTTL)
	}
	return user, nil
}

func (u *userUsecase) Update(ctx context.Context, user entity.User) error {
	if err := u.userRepo.Update(ctx, user); err != nil {
		return err
	}
	if u.cache != nil {
		u.cache.Delete(userCacheKey(user.Id))
	}
	return nil
}

func (u *userUsecase) HandleDisconnect(userId string) {
	if u.cache != nil {
		u.cache.Delete(userCacheKey(userId))
	}
}

func userCacheKey(userId string) string {
	return "user:" + userId
}
