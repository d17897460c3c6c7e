package http_test

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fwojciec/carlot"
	carhttp "github.com/fwojciec/carlot/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func serveBytes(contentType string, data []byte) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(data)
	}))
}

func TestImageFetcher_FetchImage(t *testing.T) {
	t.Parallel()

	t.Run("returns decoded image metadata", func(t *testing.T) {
		t.Parallel()

		data := pngBytes(t, 640, 480)
		srv := serveBytes("image/png", data)
		defer srv.Close()

		img, err := carhttp.NewImageFetcher().FetchImage(context.Background(), srv.URL+"/photo1.png")

		require.NoError(t, err)
		assert.Equal(t, srv.URL+"/photo1.png", img.URL)
		assert.Equal(t, "png", img.Format)
		assert.Equal(t, "image/png", img.ContentType)
		assert.Equal(t, 640, img.Width)
		assert.Equal(t, 480, img.Height)
		assert.Equal(t, data, img.Data)
	})

	t.Run("rejects non-image content type", func(t *testing.T) {
		t.Parallel()

		srv := serveBytes("text/html; charset=utf-8", []byte("<html></html>"))
		defer srv.Close()

		_, err := carhttp.NewImageFetcher().FetchImage(context.Background(), srv.URL)

		assert.Equal(t, carlot.EINVALID, carlot.ErrorCode(err))
	})

	t.Run("rejects undecodable bytes", func(t *testing.T) {
		t.Parallel()

		srv := serveBytes("image/jpeg", []byte("not really a jpeg"))
		defer srv.Close()

		_, err := carhttp.NewImageFetcher().FetchImage(context.Background(), srv.URL)

		assert.Equal(t, carlot.EINVALID, carlot.ErrorCode(err))
	})

	t.Run("rejects images below the minimum side", func(t *testing.T) {
		t.Parallel()

		srv := serveBytes("image/png", pngBytes(t, 1, 1))
		defer srv.Close()

		_, err := carhttp.NewImageFetcher().FetchImage(context.Background(), srv.URL)

		assert.Equal(t, carlot.EINVALID, carlot.ErrorCode(err))
	})

	t.Run("accepts small images when configured", func(t *testing.T) {
		t.Parallel()

		srv := serveBytes("image/png", pngBytes(t, 16, 16))
		defer srv.Close()

		img, err := carhttp.NewImageFetcher(carhttp.WithMinImageSide(8)).FetchImage(context.Background(), srv.URL)

		require.NoError(t, err)
		assert.Equal(t, 16, img.Width)
	})

	t.Run("rejects images over the size cap", func(t *testing.T) {
		t.Parallel()

		srv := serveBytes("image/png", pngBytes(t, 200, 200))
		defer srv.Close()

		_, err := carhttp.NewImageFetcher(carhttp.WithMaxImageBytes(16)).FetchImage(context.Background(), srv.URL)

		assert.Equal(t, carlot.EINVALID, carlot.ErrorCode(err))
	})

	t.Run("returns error for non-200 status codes", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		_, err := carhttp.NewImageFetcher().FetchImage(context.Background(), srv.URL)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "404")
	})
}
