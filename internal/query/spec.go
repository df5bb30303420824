package query

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"

	"github.com/Skotchmaster/eshop/pkg/logging"
)

type Column struct {
	Name string
	Type schema.DataType
}

// TextSearchFunc returns ids of records matching keyword in a full-text
// index. It is consulted before the pattern clause.
type TextSearchFunc func(ctx context.Context, keyword string) ([]string, error)

// Spec describes what a list endpoint may filter, search and sort on.
type Spec struct {
	columns      map[string]Column
	searchFields []string
	textSearch   TextSearchFunc
}

var schemaCache sync.Map

// NewSpec derives the filterable columns of model from its gorm schema, keyed
// by both JSON name and column name. Fields hidden from JSON are excluded.
func NewSpec(model any, searchFields ...string) (*Spec, error) {
	sch, err := schema.Parse(model, &schemaCache, schema.NamingStrategy{})
	if err != nil {
		return nil, errors.Wrap(err, "parse schema")
	}

	s := &Spec{columns: make(map[string]Column)}
	for _, f := range sch.Fields {
		if f.DBName == "" {
			continue
		}
		name := strings.Split(f.Tag.Get("json"), ",")[0]
		if name == "-" {
			continue
		}
		col := Column{Name: f.DBName, Type: f.DataType}
		s.columns[f.DBName] = col
		if name != "" {
			s.columns[name] = col
		}
	}

	if len(searchFields) == 0 {
		searchFields = []string{"name"}
	}
	for _, name := range searchFields {
		col, ok := s.columns[name]
		if !ok {
			return nil, errors.Errorf("unknown search field %q", name)
		}
		s.searchFields = append(s.searchFields, col.Name)
	}
	return s, nil
}

func MustSpec(model any, searchFields ...string) *Spec {
	s, err := NewSpec(model, searchFields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Alias exposes an existing column under another query key.
func (s *Spec) Alias(key, target string) *Spec {
	if col, ok := s.columns[target]; ok {
		s.columns[key] = col
	}
	return s
}

func (s *Spec) WithTextSearch(fn TextSearchFunc) *Spec {
	s.textSearch = fn
	return s
}

func (s *Spec) Column(key string) (Column, bool) {
	col, ok := s.columns[key]
	return col, ok
}

// Where compiles the filter and keyword stages into a gorm scope.
func (s *Spec) Where(ctx context.Context, opts Options) (func(*gorm.DB) *gorm.DB, error) {
	exprs := make([]clause.Expression, 0, len(opts.Filters)+1)

	for _, cond := range opts.Filters {
		col, ok := s.columns[cond.Field]
		if !ok {
			// no document has this field
			exprs = append(exprs, clause.Expr{SQL: "1 = 0"})
			continue
		}
		expr, err := compare(col, cond)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
	}

	if opts.Keyword != "" {
		exprs = append(exprs, s.search(ctx, opts.Keyword))
	}

	return func(db *gorm.DB) *gorm.DB {
		if len(exprs) == 0 {
			return db
		}
		return db.Clauses(clause.Where{Exprs: exprs})
	}, nil
}

func (s *Spec) search(ctx context.Context, keyword string) clause.Expression {
	var (
		parts []string
		vars  []any
	)

	if s.textSearch != nil {
		ids, err := s.textSearch(ctx, keyword)
		if err != nil {
			logging.FromContext(ctx).Warn("text_search_failed", "keyword", keyword, "error", err)
		} else if len(ids) > 0 {
			parts = append(parts, "? IN ?")
			vars = append(vars, clause.Column{Name: "id"}, ids)
		}
	}

	pattern := "%" + escapeLike(strings.ToLower(keyword)) + "%"
	for _, col := range s.searchFields {
		parts = append(parts, `LOWER(?) LIKE ? ESCAPE '\'`)
		vars = append(vars, clause.Column{Name: col}, pattern)
	}

	return clause.Expr{SQL: "(" + strings.Join(parts, " OR ") + ")", Vars: vars}
}

// OrderBy resolves sort fields to columns, dropping unknown ones.
func (s *Spec) OrderBy(fields []SortField) []clause.OrderByColumn {
	out := s.resolveSort(fields)
	if len(out) == 0 {
		out = s.resolveSort(DefaultSort)
	}
	return out
}

func (s *Spec) resolveSort(fields []SortField) []clause.OrderByColumn {
	out := make([]clause.OrderByColumn, 0, len(fields))
	for _, f := range fields {
		col, ok := s.columns[f.Field]
		if !ok {
			continue
		}
		out = append(out, clause.OrderByColumn{Column: clause.Column{Name: col.Name}, Desc: f.Desc})
	}
	return out
}

func compare(col Column, cond Condition) (clause.Expression, error) {
	column := clause.Column{Name: col.Name}
	vals := make([]any, len(cond.Values))
	for i, v := range cond.Values {
		vals[i] = coerce(col.Type, v)
	}

	switch cond.Op {
	case OpEq:
		return clause.Eq{Column: column, Value: vals[0]}, nil
	case OpNe:
		return clause.Neq{Column: column, Value: vals[0]}, nil
	case OpGt:
		return clause.Gt{Column: column, Value: vals[0]}, nil
	case OpGte:
		return clause.Gte{Column: column, Value: vals[0]}, nil
	case OpLt:
		return clause.Lt{Column: column, Value: vals[0]}, nil
	case OpLte:
		return clause.Lte{Column: column, Value: vals[0]}, nil
	case OpIn:
		return clause.IN{Column: column, Values: vals}, nil
	case OpNin:
		return clause.Not(clause.IN{Column: column, Values: vals}), nil
	}
	return nil, errors.Wrapf(ErrBadOperator, "operator %q", cond.Op)
}

func coerce(t schema.DataType, v string) any {
	switch t {
	case schema.Int, schema.Uint:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	case schema.Float:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	case schema.Bool:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	case schema.Time:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
			if ts, err := time.Parse(layout, v); err == nil {
				return ts
			}
		}
	}
	return v
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
