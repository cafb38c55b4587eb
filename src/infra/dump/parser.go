package dump

import (
	"encoding/json"
	"fmt"
	"strings"

	"olimport/src/domain"
)

// A dump line has five tab-separated columns: type, key, revision,
// last_modified and the JSON payload.
const columnCount = 5

// RawRecord is one dump line split into columns, with the payload decoded
// but not yet interpreted.
type RawRecord struct {
	Kind     string
	Key      string
	Revision string
	Modified string
	Payload  map[string]interface{}
}

// ParseLine splits one dump line into its five columns and decodes the
// payload column as a JSON object. Only the first four tabs split; tabs
// inside the payload belong to the payload.
func ParseLine(line string) (*RawRecord, error) {
	columns := strings.SplitN(line, "\t", columnCount)
	if len(columns) < columnCount {
		return nil, &domain.ParseError{
			Reason: fmt.Sprintf("expected %d tab-separated columns, got %d", columnCount, len(columns)),
		}
	}

	rawPayload := columns[4]
	if strings.TrimSpace(rawPayload) == "" {
		return nil, &domain.ParseError{Reason: "empty payload column"}
	}

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(rawPayload), &payload); err != nil {
		return nil, &domain.ParseError{Reason: "payload is not a JSON object", Err: err}
	}

	return &RawRecord{
		Kind:     columns[0],
		Key:      columns[1],
		Revision: columns[2],
		Modified: columns[3],
		Payload:  payload,
	}, nil
}
