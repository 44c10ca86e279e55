package events

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/session_auth/internal/models"
)

func TestKafkaPublisher_Integration(t *testing.T) {
	brokers := os.Getenv("KAFKA_TEST_BROKERS")
	if brokers == "" {
		t.Skip("KAFKA_TEST_BROKERS is required for kafka tests")
	}
	addrs := strings.Split(brokers, ",")
	topic := fmt.Sprintf("auth_events_test_%d", time.Now().UnixNano())

	p, err := NewKafkaPublisher(addrs, topic)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sent := New(TypeLoggedIn, &models.Account{ID: "acc-1", Role: models.RoleUser}, time.Now())
	// The first write may race topic auto-creation.
	require.Eventually(t, func() bool { return p.Publish(ctx, sent) == nil }, 20*time.Second, 500*time.Millisecond)

	r := kafka.NewReader(kafka.ReaderConfig{Brokers: addrs, Topic: topic, StartOffset: kafka.FirstOffset})
	t.Cleanup(func() { _ = r.Close() })

	msg, err := r.ReadMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", string(msg.Key))

	var got Event
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, sent.ID, got.ID)
	assert.Equal(t, TypeLoggedIn, got.Type)
}
