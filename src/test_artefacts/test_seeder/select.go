package test_seeder

import (
	"context"

	"olimport/src/domain/entities"

	"github.com/jackc/pgx/v5/pgtype"
)

func (ts TestSeeder) SelectAuthorsByOLIDs(ctx context.Context, olids []string) ([]entities.Author, error) {
	query := `SELECT id, olid, name, revision, last_modified, created_at, updated_at
			  FROM authors WHERE olid = ANY($1) ORDER BY olid`

	rows, err := ts.pool.Query(ctx, query, olids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var authors []entities.Author
	for rows.Next() {
		var (
			author       entities.Author
			name         pgtype.Text
			lastModified pgtype.Timestamptz
		)
		err := rows.Scan(
			&author.ID,
			&author.OLID,
			&name,
			&author.Revision,
			&lastModified,
			&author.CreatedAt,
			&author.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		if name.Valid {
			author.Name = name.String
		}
		if lastModified.Valid {
			author.LastModified = lastModified.Time
		}

		authors = append(authors, author)
	}

	return authors, rows.Err()
}
