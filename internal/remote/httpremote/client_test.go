package httpremote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/reelfocus/reelfocus/internal/model"
	"github.com/reelfocus/reelfocus/internal/remote"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, 5*time.Second, zerolog.Nop())
}

func TestClient_FetchOneNotFound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	_, err := c.FetchOne(context.Background(), model.KindGoal, "missing")
	require.ErrorIs(t, err, remote.ErrNotFound)
}

func TestClient_RejectedOnValidationFailure(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	_, err := c.Save(context.Background(), remote.Record{Kind: model.KindGoal, ID: "g1"})
	require.ErrorIs(t, err, remote.ErrRejected)
}

func TestClient_UnavailableOnServerError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	err := c.Delete(context.Background(), model.KindTask, "t1")
	require.ErrorIs(t, err, remote.ErrUnavailable)
}

func TestClient_UnavailableOnTransportError(t *testing.T) {
	c := New("http://127.0.0.1:1", time.Second, zerolog.Nop())
	err := c.Ping(context.Background())
	require.ErrorIs(t, err, remote.ErrUnavailable)
}

func TestClient_FetchScopedByParent(t *testing.T) {
	var gotParents []string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotParents = r.URL.Query()["parent"]
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"records": []remote.Record{{Kind: model.KindTask, ID: "t1", ParentID: "g1", Payload: json.RawMessage(`{}`)}},
			"count":   1,
		})
	}))

	recs, err := c.Fetch(context.Background(), model.KindTask, []string{"g1", "g2"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, []string{"g1", "g2"}, gotParents)
}

func TestClient_SaveRoundTrip(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/v0/records/goal/g1", r.URL.Path)
		var rec remote.Record
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rec))
		rec.UpdateTime = time.Now().UTC()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rec)
	}))

	rec, err := remote.EncodeGoal(&model.Goal{ID: "g1", Name: "learn casting", Due: time.Now().UTC()})
	require.NoError(t, err)
	saved, err := c.Save(context.Background(), rec)
	require.NoError(t, err)
	require.Equal(t, "g1", saved.ID)
	require.False(t, saved.UpdateTime.IsZero())
}
