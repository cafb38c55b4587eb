package repositories

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"

	"olimport/src/domain"
	"olimport/src/infra/redis"
)

// CheckpointRepository keeps per-file import checkpoints in Redis so an
// interrupted run can pick up where the last one got acknowledged.
type CheckpointRepository struct {
	redisClient *redis.RedisClient
}

func NewCheckpointRepository(redisClient *redis.RedisClient) *CheckpointRepository {
	return &CheckpointRepository{redisClient: redisClient}
}

func (cr *CheckpointRepository) Save(ctx context.Context, checkpoint domain.Checkpoint) error {
	checkpointJSON, err := json.Marshal(checkpoint)
	if err != nil {
		return fmt.Errorf("Save: marshal checkpoint: %w", err)
	}

	if err := cr.redisClient.SetPersistent(ctx, checkpointCacheKey(checkpoint.File), string(checkpointJSON)); err != nil {
		return fmt.Errorf("Save: %w", err)
	}

	return nil
}

// Load returns the checkpoint for the given dump file, or nil when none
// was ever saved.
func (cr *CheckpointRepository) Load(ctx context.Context, file string) (*domain.Checkpoint, error) {
	checkpointJSON, found, err := cr.redisClient.GetKey(ctx, checkpointCacheKey(file))
	if err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}
	if !found {
		return nil, nil
	}

	var checkpoint domain.Checkpoint
	if err := json.Unmarshal([]byte(checkpointJSON), &checkpoint); err != nil {
		return nil, fmt.Errorf("Load: unmarshal checkpoint: %w", err)
	}

	return &checkpoint, nil
}

func (cr *CheckpointRepository) Clear(ctx context.Context, file string) error {
	return cr.redisClient.DeleteKeys(ctx, []string{checkpointCacheKey(file)})
}

func checkpointCacheKey(file string) string {
	// Hash for a clean, length-bounded key
	hash := md5.Sum([]byte(file))
	return fmt.Sprintf("import:checkpoint:%x", hash)
}
