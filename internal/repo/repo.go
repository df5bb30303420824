package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/eshop/internal/query"
)

type GormRepo struct {
	DB *gorm.DB
}

// Store is the persistence behind every generic CRUD resource.
type Store[T any] struct {
	DB   *gorm.DB
	Spec *query.Spec
}

type Page[T any] struct {
	Items      []T
	Pagination query.Pagination
}

// List applies where as a fixed pre-filter, then the query stages of opts.
// The total used for pagination counts the filtered set.
func (s *Store[T]) List(ctx context.Context, where map[string]any, opts query.Options, preloads ...string) (*Page[T], error) {
	filter, err := s.Spec.Where(ctx, opts)
	if err != nil {
		return nil, err
	}

	base := s.DB.WithContext(ctx).Model(new(T)).Scopes(filter)
	if len(where) > 0 {
		base = base.Where(where)
	}
	base = base.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, err
	}

	offset, limit := query.Calculate(opts.Page, opts.Limit)
	q := base.Offset(offset).Limit(limit)
	for _, o := range s.Spec.OrderBy(opts.Sort) {
		q = q.Order(o)
	}
	for _, p := range preloads {
		q = q.Preload(p)
	}

	items := []T{}
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}

	return &Page[T]{
		Items:      items,
		Pagination: query.Paginate(opts.Page, opts.Limit, total),
	}, nil
}

func (s *Store[T]) Get(ctx context.Context, id uuid.UUID, where map[string]any, preloads ...string) (*T, error) {
	q := s.DB.WithContext(ctx)
	for _, p := range preloads {
		q = q.Preload(p)
	}
	if len(where) > 0 {
		q = q.Where(where)
	}

	var rec T
	if err := q.Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store[T]) Create(ctx context.Context, rec *T) error {
	return s.DB.WithContext(ctx).Create(rec).Error
}

func (s *Store[T]) Update(ctx context.Context, rec *T) error {
	return s.DB.WithContext(ctx).Omit(clause.Associations).Save(rec).Error
}

func (s *Store[T]) Delete(ctx context.Context, rec *T) error {
	res := s.DB.WithContext(ctx).Delete(rec)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
