package server

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dyuri/cave3d/internal/binary"
	"github.com/dyuri/cave3d/internal/export"
	"github.com/dyuri/cave3d/internal/geometry"
	"github.com/dyuri/cave3d/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func encodedSurvey(t *testing.T) []byte {
	t.Helper()
	s := model.NewSurvey()
	s.Header = model.Header{Title: "Upload", Version: "v8"}
	s.Stations.Set(model.Station{Label: "u.1", Pos: model.Point3{X: 0, Y: 0, Z: 0}})
	s.Stations.Set(model.Station{Label: "u.2", Pos: model.Point3{X: 300, Y: 400, Z: -100}})
	key := model.LegKey{Underground: true}
	s.Legs[key] = model.Leg{{{X: 0, Y: 0, Z: 0}, {X: 300, Y: 400, Z: -100}}}
	s.LegOrder = []model.LegKey{key}

	var buf bytes.Buffer
	require.NoError(t, binary.NewWriter(&buf).Write(s))
	return buf.Bytes()
}

func newTestServer(maxBody int64) *Server {
	return New(Options{Geometry: geometry.DefaultOptions(), MaxBodyBytes: maxBody})
}

func post(t *testing.T, s *Server, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestPing(t *testing.T) {
	s := newTestServer(0)
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pong")
}

func TestDecodeJSON(t *testing.T) {
	rec := post(t, newTestServer(0), "/v1/decode", encodedSurvey(t))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var doc export.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "Upload", doc.Title)
	assert.Len(t, doc.Stations, 2)
	require.Len(t, doc.Legs, 1)
	assert.Equal(t, "underground", doc.Legs[0].Key)
}

func TestDecodeCBOR(t *testing.T) {
	rec := post(t, newTestServer(0), "/v1/decode?format=cbor", encodedSurvey(t))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/cbor", rec.Header().Get("Content-Type"))

	doc, err := export.ReadCBOR(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, "Upload", doc.Title)
}

func TestDecodeGzipBody(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(encodedSurvey(t))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	rec := post(t, newTestServer(0), "/v1/decode", buf.Bytes())
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDecodeErrors(t *testing.T) {
	valid := encodedSurvey(t)

	tests := []struct {
		name    string
		path    string
		body    []byte
		maxBody int64
		want    int
	}{
		{"empty body", "/v1/decode", nil, 0, http.StatusBadRequest},
		{"truncated header", "/v1/decode", []byte("title only"), 0, http.StatusBadRequest},
		{"truncated record", "/v1/decode", valid[:len(valid)-3], 0, http.StatusBadRequest},
		{"unknown format", "/v1/decode?format=xml", valid, 0, http.StatusBadRequest},
		{"too large", "/v1/decode", valid, 8, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, newTestServer(tt.maxBody), tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestDecodeErrorOffset(t *testing.T) {
	valid := encodedSurvey(t)
	rec := post(t, newTestServer(0), "/v1/decode", valid[:len(valid)-3])
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp, "offset")
	assert.Contains(t, resp, "error")
}

func TestPlan(t *testing.T) {
	rec := post(t, newTestServer(0), "/v1/plan?stations=true", encodedSurvey(t))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	_, err := png.Decode(rec.Body)
	assert.NoError(t, err)
}

func TestPlanNothingToDraw(t *testing.T) {
	s := model.NewSurvey()
	s.Header = model.Header{Title: "Empty"}
	var buf bytes.Buffer
	require.NoError(t, binary.NewWriter(&buf).Write(s))

	rec := post(t, newTestServer(0), "/v1/plan", buf.Bytes())
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
