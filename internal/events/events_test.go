package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/session_auth/internal/models"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func TestNew(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))
	e := New(TypeLoggedIn, &models.Account{ID: "acc-1", Role: models.RoleUser, Email: "bob@example.com"}, at)

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, TypeLoggedIn, e.Type)
	assert.Equal(t, "acc-1", e.AccountID)
	assert.Equal(t, "USER", e.Role)
	assert.Equal(t, time.UTC, e.At.Location())

	data, err := json.Marshal(e)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "bob@example.com")
}

func TestMulti_PublishesToAllAndJoinsErrors(t *testing.T) {
	t.Parallel()

	ok := &recordingPublisher{}
	failing := &recordingPublisher{err: errors.New("broker down")}
	m := Multi{ok, failing, Discard}

	err := m.Publish(context.Background(), New(TypeRegistered, nil, time.Now()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	assert.Len(t, ok.events, 1)
	assert.Len(t, failing.events, 1)

	assert.NoError(t, Multi{}.Publish(context.Background(), Event{}))
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return f.err
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaPublisher(t *testing.T) {
	t.Parallel()

	w := &fakeWriter{}
	p := &KafkaPublisher{w: w}
	e := New(TypeRefreshed, &models.Account{ID: "acc-9"}, time.Now())

	require.NoError(t, p.Publish(context.Background(), e))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "acc-9", string(w.msgs[0].Key))

	var got Event
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, TypeRefreshed, got.Type)

	w.err = errors.New("leader not available")
	assert.ErrorContains(t, p.Publish(context.Background(), e), "leader not available")

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestNewKafkaPublisher_RequiresBrokers(t *testing.T) {
	t.Parallel()

	_, err := NewKafkaPublisher(nil, "")
	require.Error(t, err)

	p, err := NewKafkaPublisher([]string{"localhost:9092"}, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultTopic, p.w.(*kafka.Writer).Topic)
}

type fakeES struct {
	mu      sync.Mutex
	indexed map[string]Event
	query   map[string]any
}

func newFakeES(t *testing.T) (*fakeES, *elasticsearch.Client) {
	t.Helper()
	f := &fakeES{indexed: map[string]Event{}}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		body, _ := io.ReadAll(r.Body)

		f.mu.Lock()
		defer f.mu.Unlock()

		switch {
		case strings.HasPrefix(r.URL.Path, "/auth_audit/_doc/"):
			var e Event
			_ = json.Unmarshal(body, &e)
			f.indexed[strings.TrimPrefix(r.URL.Path, "/auth_audit/_doc/")] = e
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"result":"created"}`))
		case r.URL.Path == "/auth_audit/_search":
			_ = json.Unmarshal(body, &f.query)
			hits := []map[string]any{}
			for _, e := range f.indexed {
				hits = append(hits, map[string]any{"_source": e})
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"hits": map[string]any{"total": map[string]any{"value": len(hits)}, "hits": hits},
			})
		case r.URL.Path == "/broken/_search":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"boom"}`))
		default:
			_, _ = w.Write([]byte(`{"version":{"number":"9.0.0"}}`))
		}
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return f, client
}

func TestAuditIndex_PublishAndSearch(t *testing.T) {
	t.Parallel()

	f, client := newFakeES(t)
	idx := NewAuditIndex(client, "")
	assert.Equal(t, DefaultAuditIndex, idx.Index)

	e := New(TypeLoggedIn, &models.Account{ID: "acc-1", Role: models.RoleMainAdmin}, time.Now())
	require.NoError(t, idx.Publish(context.Background(), e))
	assert.Equal(t, "acc-1", f.indexed[e.ID].AccountID)

	total, found, err := idx.Search(context.Background(), AuditQuery{AccountID: "acc-1", Type: TypeLoggedIn, Size: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, found, 1)
	assert.Equal(t, e.ID, found[0].ID)

	query := f.query["query"].(map[string]any)
	must := query["bool"].(map[string]any)["must"].([]any)
	assert.Len(t, must, 2)
	assert.EqualValues(t, 10, f.query["size"])
}

func TestAuditIndex_SearchMatchAllAndErrors(t *testing.T) {
	t.Parallel()

	f, client := newFakeES(t)
	_, _, err := NewAuditIndex(client, "auth_audit").Search(context.Background(), AuditQuery{Size: 5})
	require.NoError(t, err)
	assert.Contains(t, f.query["query"], "match_all")

	_, _, err = NewAuditIndex(client, "broken").Search(context.Background(), AuditQuery{Size: 5})
	require.Error(t, err)
}

func TestNewESClient(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		_, _ = w.Write([]byte(`{"version":{"number":"9.0.0"}}`))
	}))
	t.Cleanup(srv.Close)

	client, err := NewESClient(srv.URL, "", "")
	require.NoError(t, err)
	assert.NotNil(t, client)
}
