package handlers_test

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ShoeKeeper/internal/handlers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func uploadRequest(t *testing.T, field string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, "shoe.png")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/images", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestImages_UploadAndServe(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, uploadRequest(t, "image", pngBytes(t, 40, 20)), 7)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp handlers.ImageResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.True(t, strings.HasPrefix(resp.ImageRef, "http://img.test/images/shoes/7/"), resp.ImageRef)
	assert.True(t, strings.HasSuffix(resp.ImageRef, ".jpg"))

	path := strings.TrimPrefix(resp.ImageRef, "http://img.test")
	get := env.do(t, httptest.NewRequest(http.MethodGet, path, nil), 0)
	assert.Equal(t, http.StatusOK, get.Code)
	assert.Equal(t, "image/jpeg", get.Header().Get("Content-Type"))
}

func TestImages_UploadRejects(t *testing.T) {
	env := newTestEnv(t)

	t.Run("unauthenticated", func(t *testing.T) {
		rr := env.do(t, uploadRequest(t, "image", pngBytes(t, 4, 4)), 0)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("not an image", func(t *testing.T) {
		rr := env.do(t, uploadRequest(t, "image", []byte("definitely not a picture")), 7)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("missing field", func(t *testing.T) {
		rr := env.do(t, uploadRequest(t, "file", pngBytes(t, 4, 4)), 7)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("too large", func(t *testing.T) {
		big := bytes.Repeat([]byte{0xff}, int(env.cfg.MaxImageBytes())+10)
		rr := env.do(t, uploadRequest(t, "image", big), 7)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	})
}
