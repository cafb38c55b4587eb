package repositories

import (
	"context"
	"fmt"
	"strings"

	"olimport/src/domain/entities"

	"github.com/olivere/elastic/v7"
)

type AuthorIndexRepository struct {
	esClient *elastic.Client
	index    string
}

func NewAuthorIndexRepository(esClient *elastic.Client, index string) *AuthorIndexRepository {
	return &AuthorIndexRepository{esClient: esClient, index: index}
}

// UpsertAuthors mirrors one batch into the search index with a single bulk
// request. Documents are keyed by olid, so re-imports overwrite in place.
func (air *AuthorIndexRepository) UpsertAuthors(ctx context.Context, authors []entities.Author) error {
	if len(authors) == 0 {
		return nil
	}

	bulk := elastic.NewBulkService(air.esClient)
	for _, author := range authors {
		if author.OLID == "" {
			continue
		}

		doc := map[string]interface{}{
			"olid":     author.OLID,
			"revision": author.Revision,
		}
		if author.Name != "" {
			doc["name"] = author.Name
		}
		if !author.LastModified.IsZero() {
			doc["last_modified"] = author.LastModified
		}

		bulk.Add(elastic.NewBulkUpdateRequest().
			Index(air.index).
			Id(author.OLID).
			DocAsUpsert(true).
			Doc(doc))
	}

	if bulk.NumberOfActions() == 0 {
		return nil
	}

	resp, err := bulk.Do(ctx)
	if err != nil {
		return fmt.Errorf("bulk upsert failed: %w", err)
	}

	if resp.Errors {
		reasons := make([]string, 0, len(resp.Failed()))
		for _, failed := range resp.Failed() {
			if failed.Error != nil {
				reasons = append(reasons, fmt.Sprintf("%s: %s", failed.Id, failed.Error.Reason))
			}
		}
		return fmt.Errorf("bulk upsert finished with %d failed documents: %s",
			len(resp.Failed()), strings.Join(reasons, "; "))
	}

	return nil
}
