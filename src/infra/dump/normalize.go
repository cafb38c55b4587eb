package dump

import (
	"fmt"
	"strings"
	"time"

	"olimport/src/domain"
	"olimport/src/domain/entities"
)

// timestampLayouts are tried in order. The fractional layout comes first so
// sub-second precision survives when the value carries it.
var timestampLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// ParseTimestamp converts a dump timestamp into a time.Time by trying each
// known layout in order and keeping the first that matches.
func ParseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}

	return time.Time{}, &domain.FormatError{
		Field:  "last_modified",
		Value:  value,
		Reason: fmt.Sprintf("no timestamp layout matched (tried %s)", strings.Join(timestampLayouts, ", ")),
	}
}

// ExtractOLID takes the segment after the last slash of a key path and
// validates it as an Open Library identifier.
func ExtractOLID(key string) (string, error) {
	segment := key
	if idx := strings.LastIndex(key, "/"); idx >= 0 {
		segment = key[idx+1:]
	}

	if !domain.IsValidOLID(segment) {
		return "", &domain.FormatError{
			Field:  "key",
			Value:  key,
			Reason: "last path segment is not an OL identifier",
		}
	}
	return segment, nil
}

// Normalize interprets a parsed record's payload and produces the author
// in storage shape. Absent payload fields stay at their zero value, so a
// payload without a key yields an unidentified author that the batching
// stage drops. A field that is present but unreadable is an error.
func Normalize(record *RawRecord) (entities.Author, error) {
	var author entities.Author

	if raw, ok := record.Payload["key"]; ok && raw != nil {
		key, ok := raw.(string)
		if !ok {
			return author, &domain.FormatError{
				Field:  "key",
				Value:  fmt.Sprintf("%v", raw),
				Reason: "not a string",
			}
		}

		olid, err := ExtractOLID(key)
		if err != nil {
			return author, err
		}
		author.OLID = olid
	}

	if raw, ok := record.Payload["name"]; ok && raw != nil {
		name, ok := raw.(string)
		if !ok {
			return author, &domain.FormatError{
				Field:  "name",
				Value:  fmt.Sprintf("%v", raw),
				Reason: "not a string",
			}
		}
		author.Name = name
	}

	if raw, ok := record.Payload["revision"]; ok && raw != nil {
		revision, ok := raw.(float64)
		if !ok {
			return author, &domain.FormatError{
				Field:  "revision",
				Value:  fmt.Sprintf("%v", raw),
				Reason: "not a number",
			}
		}
		author.Revision = int64(revision)
	}

	if raw, ok := record.Payload["last_modified"]; ok && raw != nil {
		value, err := timestampValue(raw)
		if err != nil {
			return author, err
		}

		parsed, err := ParseTimestamp(value)
		if err != nil {
			return author, err
		}
		author.LastModified = parsed
	}

	return author, nil
}

// timestampValue accepts the two shapes last_modified shows up in: a bare
// string and the {"type": "/type/datetime", "value": "..."} object.
func timestampValue(raw interface{}) (string, error) {
	switch value := raw.(type) {
	case string:
		return value, nil
	case map[string]interface{}:
		inner, ok := value["value"].(string)
		if !ok {
			return "", &domain.FormatError{
				Field:  "last_modified",
				Value:  fmt.Sprintf("%v", raw),
				Reason: "datetime object has no string value",
			}
		}
		return inner, nil
	default:
		return "", &domain.FormatError{
			Field:  "last_modified",
			Value:  fmt.Sprintf("%v", raw),
			Reason: "neither a string nor a datetime object",
		}
	}
}
