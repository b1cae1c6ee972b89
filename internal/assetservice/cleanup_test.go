package assetservice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"

	"github.com/techsphere/techsphere/internal/common"
)

type mockConsumer struct {
	bodies [][]byte
}

func (m *mockConsumer) Consume(key common.BindingKey, exchange common.Exchange, queue common.Queue) (<-chan amqp.Delivery, error) {
	msgsChan := make(chan amqp.Delivery)

	go func() {
		defer close(msgsChan)
		for _, body := range m.bodies {
			msgsChan <- amqp.Delivery{Body: body}
		}
	}()

	return msgsChan, nil
}

// recordingStore records Delete calls and signals each one on a channel so
// tests can wait for the consumer goroutine without sleeping.
type recordingStore struct {
	mu       sync.Mutex
	failures int
	keys     []string
	deleted  chan string
}

func newRecordingStore(failures int) *recordingStore {
	return &recordingStore{failures: failures, deleted: make(chan string, 16)}
}

func (s *recordingStore) Upload(ctx context.Context, folder string, data []byte, contentType string) (string, error) {
	return "", nil
}

func (s *recordingStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.keys = append(s.keys, key)
	if s.failures > 0 {
		s.failures--
		return errors.New("transient store error")
	}

	s.deleted <- key
	return nil
}

func (s *recordingStore) KeyFromURL(url string) string { return url }

func (s *recordingStore) deleteCalls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.keys...)
}

func waitForDelete(t *testing.T, store *recordingStore) string {
	t.Helper()

	select {
	case key := <-store.deleted:
		return key
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for asset deletion")
		return ""
	}
}

func TestDeleteOrphanedAssets(t *testing.T) {
	store := newRecordingStore(0)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s := NewCleanupService(&mockConsumer{bodies: [][]byte{[]byte(`{"Key": "blog-image/abc.png"}`)}}, store, logger)
	defer s.Close()

	s.DeleteOrphanedAssets()

	assert.Equal(t, "blog-image/abc.png", waitForDelete(t, store))
}

func TestDeleteOrphanedAssetsRetries(t *testing.T) {
	store := newRecordingStore(1)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s := NewCleanupService(&mockConsumer{bodies: [][]byte{[]byte(`{"Key": "blog-image/abc.png"}`)}}, store, logger)
	defer s.Close()

	s.DeleteOrphanedAssets()

	assert.Equal(t, "blog-image/abc.png", waitForDelete(t, store))
	assert.Len(t, store.deleteCalls(), 2)
}

func TestDeleteOrphanedAssetsSkipsBadMessages(t *testing.T) {
	store := newRecordingStore(0)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	consumer := &mockConsumer{bodies: [][]byte{
		[]byte(`not json`),
		[]byte(`{"Key": ""}`),
		[]byte(`{"Key": "user-profile/abc.jpg"}`),
	}}

	s := NewCleanupService(consumer, store, logger)
	defer s.Close()

	s.DeleteOrphanedAssets()

	assert.Equal(t, "user-profile/abc.jpg", waitForDelete(t, store))
	assert.Equal(t, []string{"user-profile/abc.jpg"}, store.deleteCalls())
}
