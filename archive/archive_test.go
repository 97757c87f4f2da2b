package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveInsertsRecordAndReturnsID(t *testing.T) {
	var got Record
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/rest/v1/archives", r.URL.Path)
		assert.Equal(t, "service-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `[{"id": "arch-42"}]`)
	}))
	defer srv.Close()

	s := NewStore(srv.URL, "service-key", nil)
	id, err := s.Save(context.Background(), Record{
		DocumentName:      "letter-1903.png",
		RestoredText:      "Kwa hanzvadzi yangu Runesu",
		AgentLogs:         json.RawMessage(`[]`),
		ConfidenceData:    json.RawMessage(`{"overall": 94}`),
		OverallConfidence: 94,
		ProcessingTimeMs:  5200,
	})
	require.NoError(t, err)
	assert.Equal(t, "arch-42", id)
	assert.Equal(t, "letter-1903.png", got.DocumentName)
	assert.NotEmpty(t, got.CreatedAt)
}

func TestSaveSurfacesStoreErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "permission denied", http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := NewStore(srv.URL, "bad-key", nil)
	_, err := s.Save(context.Background(), Record{DocumentName: "x.png"})
	assert.Error(t, err)
}

func TestSaveIsNoOpWhenUnconfigured(t *testing.T) {
	s := NewStore("", "", nil)
	id, err := s.Save(context.Background(), Record{DocumentName: "x.png"})
	assert.NoError(t, err)
	assert.Empty(t, id)
}

func TestGetFetchesByID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "id=eq.arch-42", r.URL.RawQuery)
		fmt.Fprint(w, `[{"id": "arch-42", "restored_text": "Kwa hanzvadzi"}]`)
	}))
	defer srv.Close()

	s := NewStore(srv.URL, "k", nil)
	row, err := s.Get(context.Background(), "arch-42")
	require.NoError(t, err)
	assert.Equal(t, "Kwa hanzvadzi", row["restored_text"])
}

func TestGetNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	s := NewStore(srv.URL, "k", nil)
	_, err := s.Get(context.Background(), "missing")
	assert.Error(t, err)
}

func TestCacheDisabledAlwaysMisses(t *testing.T) {
	c := NewCache("", time.Hour, nil)
	_, hit := c.Get(context.Background(), []byte("scan"))
	assert.False(t, hit)
	c.Put(context.Background(), []byte("scan"), nil) // must not panic
}

func TestCacheKeyIsStablePerContent(t *testing.T) {
	c := NewCache("", time.Hour, nil)
	assert.Equal(t, c.Key([]byte("scan")), c.Key([]byte("scan")))
	assert.NotEqual(t, c.Key([]byte("scan")), c.Key([]byte("other")))
}
