package authors

import (
	"context"
	"errors"
	"fmt"

	"olimport/src/domain"
	"olimport/src/domain/entities"
)

// GetByOLID returns one author, served from cache when warm.
func (as *AuthorsService) GetByOLID(ctx context.Context, olid string) (*entities.Author, error) {
	if !domain.IsValidOLID(olid) {
		return nil, domain.ErrAuthorNotFound
	}

	author, err := as.cachedAuthorRepository.GetByOLID(ctx, olid)
	if err != nil {
		if errors.Is(err, domain.ErrAuthorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("AuthorsService.GetByOLID - failed to get author %s: %w", olid, err)
	}

	return author, nil
}
