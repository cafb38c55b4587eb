package authors

import (
	"olimport/src/repositories"
)

type AuthorsService struct {
	cachedAuthorRepository *repositories.CachedAuthorRepository
	authorQueryRepository  *repositories.AuthorQueryRepository
}

func NewAuthorsService(
	cachedAuthorRepository *repositories.CachedAuthorRepository,
	authorQueryRepository *repositories.AuthorQueryRepository,
) *AuthorsService {
	return &AuthorsService{
		cachedAuthorRepository: cachedAuthorRepository,
		authorQueryRepository:  authorQueryRepository,
	}
}
