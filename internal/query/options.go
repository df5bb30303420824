// Package query turns list-endpoint query strings into gorm statements:
// filter, keyword search, sort, field limiting and pagination.
package query

import (
	"net/url"
	"sort"
	"strings"

	"github.com/go-faster/errors"
)

type Operator string

const (
	OpEq  Operator = "eq"
	OpNe  Operator = "ne"
	OpGt  Operator = "gt"
	OpGte Operator = "gte"
	OpLt  Operator = "lt"
	OpLte Operator = "lte"
	OpIn  Operator = "in"
	OpNin Operator = "nin"
)

var ErrBadOperator = errors.New("unsupported filter operator")

var operators = map[string]Operator{
	"ne":  OpNe,
	"gt":  OpGt,
	"gte": OpGte,
	"lt":  OpLt,
	"lte": OpLte,
	"in":  OpIn,
	"nin": OpNin,
}

var reservedKeys = map[string]struct{}{
	"page":    {},
	"sort":    {},
	"limit":   {},
	"fields":  {},
	"keyword": {},
}

// Repeating any other plain key keeps only its last value.
var repeatableKeys = map[string]struct{}{
	"price":           {},
	"sold":            {},
	"quantity":        {},
	"ratingsAverage":  {},
	"ratingsQuantity": {},
}

type Condition struct {
	Field  string
	Op     Operator
	Values []string
}

type SortField struct {
	Field string
	Desc  bool
}

// Options is the parsed form of a list request.
type Options struct {
	Filters []Condition
	Keyword string
	Sort    []SortField
	Fields  []string
	Page    int
	Limit   int
}

var DefaultSort = []SortField{{Field: "createdAt", Desc: true}}

func Parse(values url.Values) (Options, error) {
	opts := Options{
		Keyword: strings.TrimSpace(last(values, "keyword")),
		Sort:    parseSort(last(values, "sort")),
		Fields:  splitList(last(values, "fields")),
		Page:    ParseIntDefault(last(values, "page"), DefaultPage),
		Limit:   ParseIntDefault(last(values, "limit"), DefaultLimit),
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		if _, ok := reservedKeys[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		field, op, err := splitKey(key)
		if err != nil {
			return Options{}, err
		}
		raw := values[key]
		if len(raw) == 0 {
			continue
		}

		cond := Condition{Field: field, Op: op}
		switch op {
		case OpIn, OpNin:
			for _, v := range raw {
				cond.Values = append(cond.Values, splitList(v)...)
			}
		case OpEq:
			if _, ok := repeatableKeys[field]; ok && len(raw) > 1 {
				cond.Op = OpIn
				cond.Values = raw
			} else {
				cond.Values = []string{raw[len(raw)-1]}
			}
		default:
			cond.Values = []string{raw[len(raw)-1]}
		}
		opts.Filters = append(opts.Filters, cond)
	}

	return opts, nil
}

// splitKey understands "field" and "field[op]".
func splitKey(key string) (string, Operator, error) {
	open := strings.IndexByte(key, '[')
	if open < 0 {
		return key, OpEq, nil
	}
	if open == 0 || !strings.HasSuffix(key, "]") {
		return "", "", errors.Wrapf(ErrBadOperator, "malformed filter %q", key)
	}
	op, ok := operators[key[open+1:len(key)-1]]
	if !ok {
		return "", "", errors.Wrapf(ErrBadOperator, "filter %q", key)
	}
	return key[:open], op, nil
}

func parseSort(raw string) []SortField {
	parts := splitList(raw)
	if len(parts) == 0 {
		return DefaultSort
	}
	out := make([]SortField, 0, len(parts))
	for _, p := range parts {
		if strings.HasPrefix(p, "-") {
			out = append(out, SortField{Field: p[1:], Desc: true})
			continue
		}
		out = append(out, SortField{Field: strings.TrimPrefix(p, "+")})
	}
	return out
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func last(values url.Values, key string) string {
	v := values[key]
	if len(v) == 0 {
		return ""
	}
	return v[len(v)-1]
}
