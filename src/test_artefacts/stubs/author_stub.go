package stubs

import (
	"fmt"
	"time"

	"olimport/src/domain/entities"

	"github.com/brianvoe/gofakeit/v6"
)

type AuthorStub struct {
	author entities.Author
}

func NewAuthorStub() AuthorStub {
	now := time.Now().UTC()

	author := entities.Author{
		OLID:         fmt.Sprintf("OL%dA", gofakeit.Number(1000, 9999999)),
		Name:         gofakeit.Name(),
		Revision:     int64(gofakeit.Number(1, 50)),
		LastModified: now.Add(-time.Duration(gofakeit.Number(1, 720)) * time.Hour),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	return AuthorStub{author: author}
}

func (as AuthorStub) WithOLID(olid string) AuthorStub {
	as.author.OLID = olid
	return as
}

func (as AuthorStub) WithName(name string) AuthorStub {
	as.author.Name = name
	return as
}

// WithoutName clears the name, modelling payloads that never carried one.
func (as AuthorStub) WithoutName() AuthorStub {
	as.author.Name = ""
	return as
}

func (as AuthorStub) WithRevision(revision int64) AuthorStub {
	as.author.Revision = revision
	return as
}

func (as AuthorStub) WithLastModified(lastModified time.Time) AuthorStub {
	as.author.LastModified = lastModified
	return as
}

func (as AuthorStub) Get() entities.Author {
	return as.author
}
