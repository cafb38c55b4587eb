package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"olimport/src/domain/entities"
	"olimport/src/infra/redis"
)

type CachedAuthorRepository struct {
	authorQueryRepository *AuthorQueryRepository
	redisClient           *redis.RedisClient
}

// NewCachedAuthorRepository builds a read-through cache in front of the
// query repository. Write-only processes pass a nil query repository and
// use only InvalidateByOLIDs.
func NewCachedAuthorRepository(
	authorQueryRepository *AuthorQueryRepository,
	redisClient *redis.RedisClient,
) *CachedAuthorRepository {
	return &CachedAuthorRepository{
		authorQueryRepository: authorQueryRepository,
		redisClient:           redisClient,
	}
}

func (r *CachedAuthorRepository) GetByOLID(ctx context.Context, olid string) (*entities.Author, error) {
	cacheKey := authorCacheKey(olid)

	cachedAuthor, found, err := r.getFromCache(ctx, cacheKey)
	if found && err == nil {
		log.Printf("Cache HIT for key: %s", cacheKey)
		return cachedAuthor, nil
	}

	if err != nil {
		// Cache problems never fail the read, postgres answers anyway
		log.Printf("Cache error for key %s: %v", cacheKey, err)
	}

	log.Printf("Cache MISS for key: %s", cacheKey)

	author, err := r.authorQueryRepository.GetByOLID(ctx, olid)
	if err != nil {
		return nil, err
	}

	go func() {
		ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		r.setInCache(ctxWithTimeout, cacheKey, author)
	}()

	return author, nil
}

func (r *CachedAuthorRepository) InvalidateByOLIDs(ctx context.Context, olids []string) error {
	if len(olids) == 0 {
		return nil
	}

	keys := make([]string, len(olids))
	for i, olid := range olids {
		keys[i] = authorCacheKey(olid)
	}

	return r.redisClient.DeleteKeys(ctx, keys)
}

func authorCacheKey(olid string) string {
	return fmt.Sprintf("author:olid:%s", olid)
}

func (r *CachedAuthorRepository) getFromCache(ctx context.Context, cacheKey string) (*entities.Author, bool, error) {
	cachedJSON, found, err := r.redisClient.GetKey(ctx, cacheKey)
	if !found || err != nil {
		return nil, found, err
	}

	var author entities.Author
	if err := json.Unmarshal([]byte(cachedJSON), &author); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached author: %w", err)
	}

	return &author, true, nil
}

func (r *CachedAuthorRepository) setInCache(ctx context.Context, cacheKey string, author *entities.Author) {
	authorJSON, err := json.Marshal(author)
	if err != nil {
		log.Printf("Failed to marshal cache data for key %s: %v", cacheKey, err)
		return
	}

	if err := r.redisClient.SetKey(ctx, cacheKey, string(authorJSON)); err != nil {
		log.Printf("Failed to set cache for key %s: %v", cacheKey, err)
		return
	}

	log.Printf("Cache SET for key: %s", cacheKey)
}
