package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelscope/pipeline/pkg/store"
)

// fakeObjectStore is an in-memory ObjectStore stand-in, avoiding any
// real bucket dependency.
type fakeObjectStore struct {
	puts map[string][]byte
	fail bool
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{puts: map[string][]byte{}}
}

func (f *fakeObjectStore) Put(ctx context.Context, bucket, key string, data []byte) error {
	if f.fail {
		return assert.AnError
	}
	f.puts[bucket+"/"+key] = data
	return nil
}

func (f *fakeObjectStore) PublicURL(bucket, key string) string {
	return "https://cdn.example.test/" + bucket + "/" + key
}

func newTestPipeline(objects *fakeObjectStore) *Pipeline {
	st := store.New(nil, objects, nil, nil)
	return &Pipeline{store: st, images: &http.Client{Timeout: 5 * time.Second}}
}

func TestFetchAndStore_EmptyURL(t *testing.T) {
	p := newTestPipeline(newFakeObjectStore())
	key := p.fetchAndStore(context.Background(), "", "bucket", "key")
	assert.Empty(t, key)
}

func TestFetchAndStore_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("fake-image-bytes"))
	}))
	defer srv.Close()

	objects := newFakeObjectStore()
	p := newTestPipeline(objects)

	key := p.fetchAndStore(context.Background(), srv.URL, store.BucketContentThumbnails, "alice/abc_thumb.jpg")
	require.Equal(t, "alice/abc_thumb.jpg", key)
	assert.Equal(t, []byte("fake-image-bytes"), objects.puts[store.BucketContentThumbnails+"/alice/abc_thumb.jpg"])
}

func TestFetchAndStore_NonOKStatusDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	p := newTestPipeline(newFakeObjectStore())
	key := p.fetchAndStore(context.Background(), srv.URL, "bucket", "key")
	assert.Empty(t, key)
}

func TestFetchAndStore_UploadFailureDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("bytes"))
	}))
	defer srv.Close()

	objects := newFakeObjectStore()
	objects.fail = true
	p := newTestPipeline(objects)

	key := p.fetchAndStore(context.Background(), srv.URL, "bucket", "key")
	assert.Empty(t, key)
}

func TestFetchAndStore_UnreachableHostDegrades(t *testing.T) {
	p := newTestPipeline(newFakeObjectStore())
	key := p.fetchAndStore(context.Background(), "http://127.0.0.1:0/nope", "bucket", "key")
	assert.Empty(t, key)
}
