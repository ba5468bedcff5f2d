package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"assistantpro-backend/internal/models"
	"assistantpro-backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uploadRequest(t *testing.T, field, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func newTestUploadHandler(maxBytes int64) *UploadHandler {
	return NewUploadHandler(services.NewUploadService(maxBytes, nil), maxBytes, nil)
}

func TestHandleUpload_Text(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestUploadHandler(1024).HandleUpload(rec, uploadRequest(t, "file", "notes.txt", "meeting at noon"))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "notes.txt", resp.Filename)
	assert.Equal(t, "meeting at noon", resp.Text)
}

func TestHandleUpload_Errors(t *testing.T) {
	cases := []struct {
		name     string
		field    string
		filename string
		content  string
		code     int
	}{
		{"pdf unsupported", "file", "doc.pdf", "%PDF-1.4", http.StatusUnsupportedMediaType},
		{"too large", "file", "big.txt", strings.Repeat("a", 64), http.StatusRequestEntityTooLarge},
		{"missing field", "other", "notes.txt", "x", http.StatusBadRequest},
		{"invalid utf8", "file", "bin.txt", "\xff\xfe", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newTestUploadHandler(32).HandleUpload(rec, uploadRequest(t, tc.field, tc.filename, tc.content))
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}
