package blob

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 serves a single path-style bucket from memory.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.TrimPrefix(r.URL.Path, "/nubomail-bodies/")
	switch r.Method {
	case http.MethodPut:
		data, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		f.objects[key] = data
	case http.MethodGet:
		data, ok := f.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
			return
		}
		w.Write(data)
	case http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newS3TestStore(t *testing.T) *S3Store {
	t.Helper()

	srv := httptest.NewServer(&fakeS3{objects: make(map[string][]byte)})
	t.Cleanup(srv.Close)

	store, err := NewS3Store(S3Config{
		Endpoint:        srv.URL,
		Region:          "us-east-1",
		Bucket:          "nubomail-bodies",
		AccessKeyID:     "test",
		SecretAccessKey: "secret",
		ForcePathStyle:  true,
	})
	require.NoError(t, err)
	return store
}

func TestS3StoreRoundTrip(t *testing.T) {
	store := newS3TestStore(t)
	ctx := context.Background()

	key := BodyKey("conn-1", "msg-1@acme.com")
	body := []byte("From: pat@acme.com\r\nSubject: hi\r\n\r\nhello")

	require.NoError(t, store.Put(ctx, key, "message/rfc822", body))

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, body, got)

	require.NoError(t, store.Delete(ctx, key))

	_, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestS3StoreGetMissingKey(t *testing.T) {
	store := newS3TestStore(t)

	_, err := store.Get(context.Background(), "bodies/conn-1/unknown")
	assert.ErrorIs(t, err, ErrNotFound)
}
