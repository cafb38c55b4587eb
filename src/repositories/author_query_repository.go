package repositories

import (
	"context"
	"fmt"

	"olimport/src/domain"
	"olimport/src/domain/entities"
	"olimport/src/infra/postgres"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AuthorQueryRepository struct {
	pool *pgxpool.Pool
}

func NewAuthorQueryRepository(pool *pgxpool.Pool) *AuthorQueryRepository {
	return &AuthorQueryRepository{pool: pool}
}

const authorColumns = `id, olid, name, revision, last_modified, created_at, updated_at`

// GetByOLID fetches a single author by its Open Library identifier.
func (aqr *AuthorQueryRepository) GetByOLID(ctx context.Context, olid string) (*entities.Author, error) {
	query := fmt.Sprintf(`SELECT %s FROM authors WHERE olid = $1`, authorColumns)

	row := aqr.pool.QueryRow(ctx, query, olid)

	author, err := scanAuthor(row)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, domain.ErrAuthorNotFound
		}
		return nil, fmt.Errorf("GetByOLID: %w", err)
	}

	return author, nil
}

// SearchByName runs a full text search over author names, newest change
// first.
func (aqr *AuthorQueryRepository) SearchByName(ctx context.Context, term string, limit int) ([]entities.Author, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM authors
		WHERE to_tsvector('simple', COALESCE(name, '')) @@ websearch_to_tsquery('simple', $1)
		ORDER BY last_modified DESC NULLS LAST, olid
		LIMIT $2`, authorColumns)

	rows, err := aqr.pool.Query(ctx, query, term, limit)
	if err != nil {
		return nil, fmt.Errorf("SearchByName: %w", err)
	}
	defer rows.Close()

	var authors []entities.Author
	for rows.Next() {
		author, err := scanAuthor(rows)
		if err != nil {
			return nil, fmt.Errorf("SearchByName: %w", err)
		}
		authors = append(authors, *author)
	}

	return authors, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAuthor(row rowScanner) (*entities.Author, error) {
	var (
		author       entities.Author
		name         pgtype.Text
		lastModified pgtype.Timestamptz
	)

	err := row.Scan(
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

	return &author, nil
}
