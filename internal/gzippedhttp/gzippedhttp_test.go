package gzippedhttp

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gunzip(t *testing.T, compressed []byte) []byte {
	t.Helper()

	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	require.NoError(t, err)
	defer zr.Close()

	body, err := io.ReadAll(zr)
	require.NoError(t, err)

	return body
}

func TestGzipResponse(t *testing.T) {
	handler := GzipResponse(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"User name already taken"}`))
	}))

	t.Run("error bodies stay decodable for gzip-accepting clients", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodPost, "/", nil)
		request.Header.Set("Accept-Encoding", "gzip")
		recorder := httptest.NewRecorder()

		handler.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusConflict, recorder.Code)
		require.Equal(t, "gzip", recorder.Header().Get("Content-Encoding"))

		var payload struct {
			Message string `json:"message"`
		}
		require.NoError(t, json.Unmarshal(gunzip(t, recorder.Body.Bytes()), &payload))
		assert.Equal(t, "User name already taken", payload.Message)
	})

	t.Run("client without gzip support gets the plain body", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodPost, "/", nil)
		recorder := httptest.NewRecorder()

		handler.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusConflict, recorder.Code)
		assert.Empty(t, recorder.Header().Get("Content-Encoding"))
		assert.JSONEq(t, `{"message":"User name already taken"}`, recorder.Body.String())
	})

	t.Run("implicit 200 from the first write still carries the header", func(t *testing.T) {
		implicit := GzipResponse(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("ok"))
		}))

		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.Header.Set("Accept-Encoding", "gzip")
		recorder := httptest.NewRecorder()

		implicit.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
		require.Equal(t, "gzip", recorder.Header().Get("Content-Encoding"))
		assert.Equal(t, "ok", string(gunzip(t, recorder.Body.Bytes())))
	})
}

func TestUngzipRequest(t *testing.T) {
	var seenBody []byte
	handler := UngzipRequest(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error
		seenBody, err = io.ReadAll(r.Body)
		require.NoError(t, err)
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("gzipped body is transparently decompressed", func(t *testing.T) {
		var compressed bytes.Buffer
		zw := gzip.NewWriter(&compressed)
		_, err := zw.Write([]byte(`{"userName":"alice"}`))
		require.NoError(t, err)
		require.NoError(t, zw.Close())

		request := httptest.NewRequest(http.MethodPost, "/", &compressed)
		request.Header.Set("Content-Encoding", "gzip")
		recorder := httptest.NewRecorder()

		handler.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, `{"userName":"alice"}`, string(seenBody))
	})

	t.Run("broken gzip body is rejected", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("not gzip")))
		request.Header.Set("Content-Encoding", "gzip")
		recorder := httptest.NewRecorder()

		handler.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	})
}
