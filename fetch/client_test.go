package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath/dashsync/model"
)

func TestClientFetchesTypedPayloads(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/subjects/s-1/ranking":
			_ = json.NewEncoder(w).Encode(model.Ranking{Points: 77, Position: 5, League: "silver"})
		case "/v1/subjects/s-1/stats":
			_ = json.NewEncoder(w).Encode(model.WeeklyStats{Streak: 3})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	set := client.Set()
	require.Len(t, set, 5)

	p, err := set[model.EntityRanking].Fetch(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Equal(t, 77, p.(model.Ranking).Points)

	p, err = set[model.EntityStats].Fetch(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Equal(t, 3, p.(model.WeeklyStats).Streak)
}

func TestClientMapsStatusToError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Set()[model.EntityTasks].Fetch(context.Background(), "s-1")
	require.Error(t, err)

	var fe *Error
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, model.EntityTasks, fe.Entity)
	assert.Equal(t, http.StatusServiceUnavailable, fe.Status)
}

func TestClientDecodesFailureIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{broken"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Set()[model.EntitySchedule].Fetch(context.Background(), "s-1")
	assert.Error(t, err)
}

func TestClientHonorsCancellation(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(srv.URL)
	_, err := client.Set()[model.EntityRanking].Fetch(ctx, "s-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
