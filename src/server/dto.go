package server

import (
	"time"

	"olimport/src/domain/entities"
)

type AuthorDTO struct {
	OLID         string     `json:"olid"`
	Name         string     `json:"name,omitempty"`
	Revision     int64      `json:"revision"`
	LastModified *time.Time `json:"last_modified,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type SearchResponseDTO struct {
	Query   string      `json:"query"`
	Count   int         `json:"count"`
	Results []AuthorDTO `json:"results"`
}

func MapAuthorToResponse(author *entities.Author) AuthorDTO {
	dto := AuthorDTO{
		OLID:      author.OLID,
		Name:      author.Name,
		Revision:  author.Revision,
		CreatedAt: author.CreatedAt,
		UpdatedAt: author.UpdatedAt,
	}

	if !author.LastModified.IsZero() {
		lastModified := author.LastModified
		dto.LastModified = &lastModified
	}

	return dto
}

func MapSearchToResponse(term string, authors []entities.Author) SearchResponseDTO {
	results := make([]AuthorDTO, 0, len(authors))
	for i := range authors {
		results = append(results, MapAuthorToResponse(&authors[i]))
	}

	return SearchResponseDTO{
		Query:   term,
		Count:   len(results),
		Results: results,
	}
}
