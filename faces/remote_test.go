package faces

import (
	"context"
	"encoding/json"
	"image"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func embedServer(t *testing.T, status int, resp any) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/embed/face", r.URL.Path)
		f, _, err := r.FormFile("file")
		if assert.NoError(t, err) {
			data, _ := io.ReadAll(f)
			assert.Equal(t, []byte("jpeg-bytes"), data)
		}
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRemoteExtractBestFace(t *testing.T) {
	srv := embedServer(t, http.StatusOK, map[string]any{
		"faces_count": 2,
		"model":       "buffalo_l",
		"faces": []map[string]any{
			{"embedding": []float32{0.1, 0.2}, "det_score": 0.6, "bbox": []float64{0, 0, 10, 10}},
			{"embedding": []float32{0.3, 0.4}, "det_score": 0.9, "bbox": []float64{5, 5, 50, 60}},
		},
	})

	d, err := NewRemote(srv.URL+"/", time.Second).Extract(context.Background(), []byte("jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, []float32{0.3, 0.4}, d.Descriptor)
	assert.Equal(t, 0.9, d.Score)
	assert.Equal(t, image.Rect(5, 5, 50, 60), d.Rect)
}

func TestRemoteExtractNoFace(t *testing.T) {
	srv := embedServer(t, http.StatusOK, map[string]any{"faces_count": 0, "faces": []any{}})
	_, err := NewRemote(srv.URL, time.Second).Extract(context.Background(), []byte("jpeg-bytes"))
	assert.ErrorIs(t, err, ErrNoFace)
}

func TestRemoteExtractServerError(t *testing.T) {
	srv := embedServer(t, http.StatusInternalServerError, map[string]any{"detail": "boom"})
	_, err := NewRemote(srv.URL, time.Second).Extract(context.Background(), []byte("jpeg-bytes"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoFace)
	assert.Contains(t, err.Error(), "status 500")
}

func TestLargest(t *testing.T) {
	assert.Nil(t, Largest(nil))
	list := []Detection{
		{Score: 1, Rect: image.Rect(0, 0, 10, 10)},
		{Score: 2, Rect: image.Rect(0, 0, 20, 30)},
		{Score: 3, Rect: image.Rect(0, 0, 30, 20)},
	}
	assert.Equal(t, 2.0, Largest(list).Score)
}
