package test_seeder

import (
	"context"
	"fmt"

	"olimport/src/domain/entities"
	"olimport/src/infra/postgres"
)

// InsertAuthor inserts an author into the database for testing
func (ts TestSeeder) InsertAuthor(ctx context.Context, author *entities.Author) {
	query := `
		INSERT INTO authors (olid, name, revision, last_modified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`

	err := ts.pool.QueryRow(ctx, query,
		author.OLID,
		postgres.NewNullString(&author.Name),
		author.Revision,
		postgres.NewNullTime(&author.LastModified),
		author.CreatedAt,
		author.UpdatedAt,
	).Scan(&author.ID)

	if err != nil {
		panic(fmt.Sprintf("Seeder.InsertAuthor failed: %v", err))
	}
}
