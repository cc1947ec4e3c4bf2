package objectstore

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupabaseStore_PutUploadsToExpectedPath(t *testing.T) {
	var gotPath, gotAuth, gotUpsert string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotUpsert = r.Header.Get("x-upsert")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewSupabaseStore(srv.URL, "service-key")
	err := s.Put(context.Background(), "profile-images", "acct1/profile.jpg", []byte("imgdata"))
	require.NoError(t, err)

	assert.Equal(t, "/storage/v1/object/profile-images/acct1/profile.jpg", gotPath)
	assert.Equal(t, "Bearer service-key", gotAuth)
	assert.Equal(t, "true", gotUpsert)
	assert.Equal(t, []byte("imgdata"), gotBody)
}

func TestSupabaseStore_PutReturnsErrorOnNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("forbidden"))
	}))
	defer srv.Close()

	s := NewSupabaseStore(srv.URL, "bad-key")
	err := s.Put(context.Background(), "profile-images", "acct1/profile.jpg", []byte("x"))
	assert.Error(t, err)
}

func TestSupabaseStore_PublicURL(t *testing.T) {
	s := NewSupabaseStore("https://xyz.supabase.co/", "key")
	assert.Equal(t, "https://xyz.supabase.co/storage/v1/object/public/profile-images/acct1/profile.jpg",
		s.PublicURL("profile-images", "acct1/profile.jpg"))
}
