package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v9"
)

const DefaultAuditIndex = "auth_audit"

func NewESClient(addr, user, password string) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{addr},
		Username:  user,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch info: %s: %s", res.Status(), body)
	}
	return client, nil
}

// AuditIndex stores every event as a document and serves admin lookups.
type AuditIndex struct {
	ES    *elasticsearch.Client
	Index string
}

func NewAuditIndex(es *elasticsearch.Client, index string) *AuditIndex {
	if index == "" {
		index = DefaultAuditIndex
	}
	return &AuditIndex{ES: es, Index: index}
}

func (a *AuditIndex) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("audit: marshal: %w", err)
	}
	res, err := a.ES.Index(
		a.Index,
		bytes.NewReader(data),
		a.ES.Index.WithContext(ctx),
		a.ES.Index.WithDocumentID(e.ID),
	)
	if err != nil {
		return fmt.Errorf("audit: index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("audit: index: %s", res.Status())
	}
	return nil
}

type AuditQuery struct {
	AccountID string
	Type      string
	From      int
	Size      int
}

func (q AuditQuery) body() map[string]any {
	var must []any
	if q.AccountID != "" {
		must = append(must, map[string]any{"match_phrase": map[string]any{"account_id": q.AccountID}})
	}
	if q.Type != "" {
		must = append(must, map[string]any{"match_phrase": map[string]any{"type": q.Type}})
	}

	query := map[string]any{"match_all": map[string]any{}}
	if len(must) > 0 {
		query = map[string]any{"bool": map[string]any{"must": must}}
	}
	return map[string]any{
		"query": query,
		"sort":  []any{map[string]any{"at": map[string]any{"order": "desc"}}},
		"from":  q.From,
		"size":  q.Size,
	}
}

func (a *AuditIndex) Search(ctx context.Context, q AuditQuery) (int64, []Event, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(q.body()); err != nil {
		return 0, nil, fmt.Errorf("audit: encode query: %w", err)
	}

	res, err := a.ES.Search(
		a.ES.Search.WithContext(ctx),
		a.ES.Search.WithIndex(a.Index),
		a.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("audit: search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("audit: search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source Event `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("audit: decode: %w", err)
	}

	out := make([]Event, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		out[i] = hit.Source
	}
	return r.Hits.Total.Value, out, nil
}
