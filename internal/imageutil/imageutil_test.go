package imageutil

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, width, height int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}

	dest := filepath.Join(t.TempDir(), uuid.NewString()+".png")
	file, err := os.Create(dest)
	require.NoError(t, err)
	defer file.Close()
	require.NoError(t, png.Encode(file, img))
	return dest
}

func TestDownload(t *testing.T) {
	src := writePNG(t, 40, 30)
	data, err := os.ReadFile(src)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(data)
	}))
	t.Cleanup(srv.Close)

	got, err := Download(context.Background(), srv.URL+"/banner.png", 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { Cleanup(got) })

	w, h, err := Size(got)
	require.NoError(t, err)
	assert.Equal(t, 40, w)
	assert.Equal(t, 30, h)
}

func TestDownloadRejectsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	_, err := Download(context.Background(), srv.URL+"/banner.png", 5*time.Second)
	assert.Error(t, err)
}

func TestDownloadRejectsNonImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>not an image</html>"))
	}))
	t.Cleanup(srv.Close)

	_, err := Download(context.Background(), srv.URL+"/banner.png", 5*time.Second)
	assert.Error(t, err)
}

func TestResize(t *testing.T) {
	tests := []struct {
		name         string
		width        int
		height       int
		wantW, wantH int
	}{
		{"large image fits double size", 1200, 900, 600, 450},
		{"small image untouched", 200, 100, 200, 100},
		{"medium image fits base size", 500, 300, 300, 180},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := writePNG(t, tt.width, tt.height)
			got, err := Resize(src)
			require.NoError(t, err)
			t.Cleanup(func() { Cleanup(got) })

			w, h, err := Size(got)
			require.NoError(t, err)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestCleanupMissingFile(t *testing.T) {
	Cleanup("", filepath.Join(t.TempDir(), "never-existed.png"))
}
