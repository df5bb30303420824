package query

import (
	"encoding/json"
	"strings"

	"github.com/go-faster/errors"
)

// Project limits the JSON representation of v to the requested fields.
// Entries prefixed with "-" are excluded instead. The id is always kept
// in inclusion mode. With no fields v is returned untouched.
func Project(v any, fields []string) (any, error) {
	if len(fields) == 0 {
		return v, nil
	}

	include := map[string]bool{"id": true}
	exclude := map[string]bool{}
	inclusion := false
	for _, f := range fields {
		if strings.HasPrefix(f, "-") {
			exclude[f[1:]] = true
			continue
		}
		include[f] = true
		inclusion = true
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "marshal")
	}

	keep := func(doc map[string]any) map[string]any {
		for k := range doc {
			if (inclusion && !include[k]) || exclude[k] {
				delete(doc, k)
			}
		}
		return doc
	}

	if len(raw) > 0 && raw[0] == '[' {
		var docs []map[string]any
		if err := json.Unmarshal(raw, &docs); err != nil {
			return nil, errors.Wrap(err, "unmarshal list")
		}
		for i := range docs {
			docs[i] = keep(docs[i])
		}
		return docs, nil
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(err, "unmarshal")
	}
	return keep(doc), nil
}
