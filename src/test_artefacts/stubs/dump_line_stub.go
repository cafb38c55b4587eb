package stubs

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
)

// DumpLineStub builds one raw dump line: five tab-separated columns with a
// JSON payload in the last one.
type DumpLineStub struct {
	kind       string
	key        string
	revision   int64
	modified   string
	payload    map[string]interface{}
	rawPayload *string
}

func NewDumpLineStub() DumpLineStub {
	olid := fmt.Sprintf("OL%dA", gofakeit.Number(1000, 9999999))
	key := "/authors/" + olid
	revision := int64(gofakeit.Number(1, 20))
	modified := "2008-08-20T17:57:09.66187"

	payload := map[string]interface{}{
		"key":  key,
		"type": map[string]interface{}{"key": "/type/author"},
		"name": gofakeit.Name(),
		"last_modified": map[string]interface{}{
			"type":  "/type/datetime",
			"value": modified,
		},
		"revision": revision,
	}

	return DumpLineStub{
		kind:     "/type/author",
		key:      key,
		revision: revision,
		modified: modified,
		payload:  payload,
	}
}

func (ds DumpLineStub) WithKey(key string) DumpLineStub {
	ds.key = key
	ds.payload = copyPayload(ds.payload)
	ds.payload["key"] = key
	return ds
}

func (ds DumpLineStub) WithName(name string) DumpLineStub {
	ds.payload = copyPayload(ds.payload)
	ds.payload["name"] = name
	return ds
}

func (ds DumpLineStub) WithoutName() DumpLineStub {
	ds.payload = copyPayload(ds.payload)
	delete(ds.payload, "name")
	return ds
}

func (ds DumpLineStub) WithRevision(revision int64) DumpLineStub {
	ds.revision = revision
	ds.payload = copyPayload(ds.payload)
	ds.payload["revision"] = revision
	return ds
}

func (ds DumpLineStub) WithLastModified(value string) DumpLineStub {
	ds.modified = value
	ds.payload = copyPayload(ds.payload)
	ds.payload["last_modified"] = map[string]interface{}{
		"type":  "/type/datetime",
		"value": value,
	}
	return ds
}

func (ds DumpLineStub) WithPayloadField(field string, value interface{}) DumpLineStub {
	ds.payload = copyPayload(ds.payload)
	ds.payload[field] = value
	return ds
}

func (ds DumpLineStub) WithoutPayloadField(field string) DumpLineStub {
	ds.payload = copyPayload(ds.payload)
	delete(ds.payload, field)
	return ds
}

// WithRawPayload replaces the JSON column verbatim, for lines whose payload
// is not well formed.
func (ds DumpLineStub) WithRawPayload(raw string) DumpLineStub {
	ds.rawPayload = &raw
	return ds
}

func (ds DumpLineStub) OLID() string {
	return strings.TrimPrefix(ds.key, "/authors/")
}

func (ds DumpLineStub) Get() string {
	payloadColumn := ""
	if ds.rawPayload != nil {
		payloadColumn = *ds.rawPayload
	} else {
		encoded, _ := json.Marshal(ds.payload)
		payloadColumn = string(encoded)
	}

	columns := []string{
		ds.kind,
		ds.key,
		strconv.FormatInt(ds.revision, 10),
		ds.modified,
		payloadColumn,
	}

	return strings.Join(columns, "\t")
}

func copyPayload(payload map[string]interface{}) map[string]interface{} {
	copied := make(map[string]interface{}, len(payload))
	for field, value := range payload {
		copied[field] = value
	}
	return copied
}
