package repositories

import (
	"context"
	"fmt"
	"log"

	"olimport/src/domain/entities"
	"olimport/src/infra/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AuthorWriteRepository struct {
	writePool              *pgxpool.Pool
	cachedAuthorRepository *CachedAuthorRepository
}

func NewAuthorWriteRepository(writePool *pgxpool.Pool, cachedAuthorRepository *CachedAuthorRepository) *AuthorWriteRepository {
	return &AuthorWriteRepository{writePool: writePool, cachedAuthorRepository: cachedAuthorRepository}
}

// UpsertAuthors writes one batch in a single transaction: the rows go into
// a temp table via COPY, then one statement upserts them into authors
// keyed on olid. The call returns only after the database acknowledged the
// whole batch.
func (r *AuthorWriteRepository) UpsertAuthors(ctx context.Context, authors []entities.Author) error {
	if len(authors) == 0 {
		return nil
	}

	rows := make([][]interface{}, 0, len(authors))
	for i := range authors {
		author := authors[i]
		rows = append(rows, []interface{}{
			author.OLID,
			postgres.NewNullString(&author.Name),
			author.Revision,
			postgres.NewNullTime(&author.LastModified),
		})
	}

	tx, err := r.writePool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tempTableQuery := `CREATE TEMP TABLE temp_author_import (
		olid TEXT, name TEXT, revision BIGINT, last_modified TIMESTAMPTZ
	) ON COMMIT DROP;`
	_, err = tx.Exec(ctx, tempTableQuery)
	if err != nil {
		return fmt.Errorf("failed to create temp table: %w", err)
	}

	_, err = tx.CopyFrom(
		ctx,
		pgx.Identifier{"temp_author_import"},
		[]string{"olid", "name", "revision", "last_modified"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to copy batch to temp table: %w", err)
	}

	// A batch can carry the same author twice; DISTINCT ON keeps the
	// highest revision so ON CONFLICT never touches a row twice.
	query := `
		WITH upserted_authors AS (
			INSERT INTO
				authors (olid, name, revision, last_modified)
			SELECT DISTINCT ON (olid)
				olid, name, revision, last_modified
			FROM
				temp_author_import
			WHERE
				olid IS NOT NULL AND olid <> ''
			ORDER BY
				olid, revision DESC
			ON CONFLICT (olid) DO UPDATE SET
				name = excluded.name,
				revision = excluded.revision,
				last_modified = excluded.last_modified,
				updated_at = NOW()
			WHERE
				authors.name IS DISTINCT FROM excluded.name
				OR authors.revision IS DISTINCT FROM excluded.revision
				OR authors.last_modified IS DISTINCT FROM excluded.last_modified
			RETURNING
				olid
		)
		SELECT olid FROM upserted_authors;
	`

	upserted, err := tx.Query(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to execute upsert query: %w", err)
	}

	var affectedOLIDs []string
	for upserted.Next() {
		var olid string
		if err := upserted.Scan(&olid); err != nil {
			return fmt.Errorf("failed to scan upserted olid: %w", err)
		}
		affectedOLIDs = append(affectedOLIDs, olid)
	}
	if err := upserted.Err(); err != nil {
		return fmt.Errorf("failed to read upserted olids: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}

	// Invalidate cache in background
	if r.cachedAuthorRepository != nil && len(affectedOLIDs) > 0 {
		go func() {
			if invalidateErr := r.cachedAuthorRepository.InvalidateByOLIDs(context.Background(), affectedOLIDs); invalidateErr != nil {
				log.Printf("Failed to invalidate cache: %v", invalidateErr)
			}
		}()
	}

	return nil
}
