package elasticsearch

import (
	"fmt"
	"strings"
	"time"

	"github.com/olivere/elastic/v7"
)

// NewElasticClient connects to the hosts in the comma separated list. The
// retrier keeps bulk requests alive through transient cluster hiccups.
func NewElasticClient(hosts string) (*elastic.Client, error) {
	args := []elastic.ClientOptionFunc{
		elastic.SetRetrier(elastic.NewBackoffRetrier(elastic.NewConstantBackoff(5 * time.Second))),
		elastic.SetSniff(false),
	}
	for _, host := range strings.Split(hosts, ",") {
		args = append(args, elastic.SetURL(host))
	}

	client, err := elastic.NewClient(args...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect elasticsearch at %q: %w", hosts, err)
	}

	return client, nil
}
