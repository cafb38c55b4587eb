package authors

import (
	"context"
	"fmt"
	"strings"

	"olimport/src/domain/entities"
)

const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
)

// SearchByName runs a full text search over author names. The limit is
// clamped to MaxSearchLimit.
func (as *AuthorsService) SearchByName(ctx context.Context, term string, limit int) ([]entities.Author, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("search term must not be empty")
	}

	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	results, err := as.authorQueryRepository.SearchByName(ctx, term, limit)
	if err != nil {
		return nil, fmt.Errorf("AuthorsService.SearchByName - failed to search authors: %w", err)
	}

	return results, nil
}
