package sentinelhub

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func tokenHandler(t *testing.T, calls *atomic.Int64) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.FormValue("grant_type"))
		assert.Equal(t, "test-id", r.FormValue("client_id"))
		assert.Equal(t, "test-secret", r.FormValue("client_secret"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "test-token",
			"expires_in":   3600,
		})
	}
}

func testRequest() TileRequest {
	return TileRequest{
		BBox:          [4]float64{83.19, 21.49, 83.21, 21.51},
		Width:         512,
		Height:        512,
		TimeFrom:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		TimeTo:        time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		MaxCloudCover: 20,
	}
}

func newTestClient(server *httptest.Server) Client {
	return NewClient("test-id", "test-secret",
		WithBaseURL(server.URL),
		WithTokenURL(server.URL+"/oauth/token"),
		WithHTTPClient(server.Client()),
		WithLimiter(rate.NewLimiter(rate.Inf, 1)),
	)
}

func TestFetchTile_Success(t *testing.T) {
	t.Parallel()

	tiff := []byte("II*\x00fake-tiff-bytes")

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", tokenHandler(t, nil))
	mux.HandleFunc("/api/v1/process", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body processRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, [4]float64{83.19, 21.49, 83.21, 21.51}, body.Input.Bounds.BBox)
		require.Len(t, body.Input.Data, 1)
		assert.Equal(t, "sentinel-2-l2a", body.Input.Data[0].Type)
		assert.Equal(t, "mostRecent", body.Input.Data[0].DataFilter.MosaickingOrder)
		assert.Equal(t, 20.0, body.Input.Data[0].DataFilter.MaxCloudCover)
		assert.Equal(t, 512, body.Output.Width)

		w.Header().Set("Content-Type", "image/tiff")
		_, _ = w.Write(tiff)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	data, err := newTestClient(server).FetchTile(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, tiff, data)
}

func TestFetchTile_TokenCached(t *testing.T) {
	t.Parallel()

	var tokenCalls atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", tokenHandler(t, &tokenCalls))
	mux.HandleFunc("/api/v1/process", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("tile"))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(server)
	for i := 0; i < 3; i++ {
		_, err := client.FetchTile(context.Background(), testRequest())
		require.NoError(t, err)
	}
	assert.Equal(t, int64(1), tokenCalls.Load())
}

func TestFetchTile_NoData(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"empty 200", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}},
		{"404", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "no scene", http.StatusNotFound)
		}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mux := http.NewServeMux()
			mux.HandleFunc("/oauth/token", tokenHandler(t, nil))
			mux.HandleFunc("/api/v1/process", tt.handler)
			server := httptest.NewServer(mux)
			defer server.Close()

			_, err := newTestClient(server).FetchTile(context.Background(), testRequest())
			require.Error(t, err)
			assert.True(t, eris.Is(err, ErrNoData))
		})
	}
}

func TestFetchTile_RetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var processCalls atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", tokenHandler(t, nil))
	mux.HandleFunc("/api/v1/process", func(w http.ResponseWriter, r *http.Request) {
		if processCalls.Add(1) < 3 {
			http.Error(w, "throttled", http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte("tile"))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	data, err := newTestClient(server).FetchTile(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, []byte("tile"), data)
	assert.Equal(t, int64(3), processCalls.Load())
}

func TestFetchTile_NonRetryableStatusFailsFast(t *testing.T) {
	t.Parallel()

	var processCalls atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", tokenHandler(t, nil))
	mux.HandleFunc("/api/v1/process", func(w http.ResponseWriter, r *http.Request) {
		processCalls.Add(1)
		http.Error(w, "bad evalscript", http.StatusBadRequest)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	_, err := newTestClient(server).FetchTile(context.Background(), testRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Equal(t, int64(1), processCalls.Load())
}

func TestFetchTile_TokenFailure(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid client", http.StatusUnauthorized)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	_, err := newTestClient(server).FetchTile(context.Background(), testRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestRetryableStatusCode(t *testing.T) {
	t.Parallel()

	assert.True(t, retryableStatusCode(http.StatusTooManyRequests))
	assert.True(t, retryableStatusCode(http.StatusInternalServerError))
	assert.True(t, retryableStatusCode(http.StatusBadGateway))
	assert.True(t, retryableStatusCode(http.StatusServiceUnavailable))
	assert.False(t, retryableStatusCode(http.StatusOK))
	assert.False(t, retryableStatusCode(http.StatusBadRequest))
	assert.False(t, retryableStatusCode(http.StatusNotFound))
}
