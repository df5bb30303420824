// Package search keeps the product full-text index in Elasticsearch.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/go-faster/errors"

	"github.com/Skotchmaster/eshop/internal/models"
)

// Index is the text-search stage consulted by keyword queries.
type Index interface {
	IndexProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id string) error
	SearchIDs(ctx context.Context, keyword string) ([]string, error)
}

const defaultSize = 500

type document struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Slug        string  `json:"slug"`
	Price       float64 `json:"price"`
	CategoryID  string  `json:"categoryId"`
}

type Products struct {
	ES    *elasticsearch.Client
	Index string
	Size  int
}

func NewClient(addr, user, password string) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{addr},
		Username:  user,
		Password:  password,
	})
	if err != nil {
		return nil, errors.Wrap(err, "elasticsearch client")
	}
	return client, nil
}

// Ping fails when the cluster is unreachable.
func Ping(ctx context.Context, es *elasticsearch.Client) error {
	res, err := es.Info(es.Info.WithContext(ctx))
	if err != nil {
		return errors.Wrap(err, "elasticsearch info")
	}
	defer res.Body.Close()
	if res.IsError() {
		return errors.Errorf("elasticsearch info: %s", res.Status())
	}
	return nil
}

func (s *Products) IndexProduct(ctx context.Context, p *models.Product) error {
	body, err := json.Marshal(document{
		Title:       p.Title,
		Description: p.Description,
		Slug:        p.Slug,
		Price:       p.Price,
		CategoryID:  p.CategoryID.String(),
	})
	if err != nil {
		return errors.Wrap(err, "marshal document")
	}

	res, err := s.ES.Index(
		s.Index,
		bytes.NewReader(body),
		s.ES.Index.WithDocumentID(p.ID.String()),
		s.ES.Index.WithContext(ctx),
	)
	if err != nil {
		return errors.Wrap(err, "index product")
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index product", res.StatusCode, res.Body)
	}
	return nil
}

func (s *Products) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.ES.Delete(s.Index, id, s.ES.Delete.WithContext(ctx))
	if err != nil {
		return errors.Wrap(err, "delete product")
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("delete product", res.StatusCode, res.Body)
	}
	return nil
}

func (s *Products) SearchIDs(ctx context.Context, keyword string) ([]string, error) {
	size := s.Size
	if size <= 0 {
		size = defaultSize
	}
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     keyword,
				"fields":    []string{"title^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"_source": false,
		"size":    size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, errors.Wrap(err, "encode query")
	}

	res, err := s.ES.Search(
		s.ES.Search.WithContext(ctx),
		s.ES.Search.WithIndex(s.Index),
		s.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, errors.Wrap(err, "search")
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, responseError("search", res.StatusCode, res.Body)
	}

	var r struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, errors.Wrap(err, "decode search response")
	}

	ids := make([]string, len(r.Hits.Hits))
	for i, h := range r.Hits.Hits {
		ids[i] = h.ID
	}
	return ids, nil
}

func responseError(op string, status int, body io.Reader) error {
	msg, _ := io.ReadAll(io.LimitReader(body, 512))
	return errors.Errorf("%s: status %d: %s", op, status, bytes.TrimSpace(msg))
}
