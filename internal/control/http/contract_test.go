package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers/legacy"
	"github.com/stretchr/testify/require"
)

var (
	openapiOnce sync.Once
	openapiDoc  *openapi3.T
	openapiErr  error
)

// loadOpenAPIDoc parses and validates openapi.yaml once per test binary,
// the hand-written control-surface spec the handlers below are checked
// against.
func loadOpenAPIDoc(t *testing.T) *openapi3.T {
	t.Helper()
	openapiOnce.Do(func() {
		loader := openapi3.NewLoader()
		doc, err := loader.LoadFromFile("openapi.yaml")
		if err != nil {
			openapiErr = err
			return
		}
		if err := doc.Validate(context.Background()); err != nil {
			openapiErr = err
			return
		}
		openapiDoc = doc
	})
	if openapiErr != nil {
		t.Fatalf("openapi load failed: %v", openapiErr)
	}
	return openapiDoc
}

// validateOpenAPIResponse checks rr against doc's schema for the route req
// matches, the same route-lookup-then-validate shape the teacher's v3
// contract test uses, without any generated client.
func validateOpenAPIResponse(t *testing.T, doc *openapi3.T, req *http.Request, rr *httptest.ResponseRecorder) {
	t.Helper()
	router, err := legacy.NewRouter(doc)
	require.NoError(t, err, "openapi router init")

	route, pathParams, err := router.FindRoute(req)
	require.NoError(t, err, "openapi route lookup")

	input := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: &openapi3filter.RequestValidationInput{
			Request:    req,
			PathParams: pathParams,
			Route:      route,
		},
		Status: rr.Code,
		Header: rr.Header(),
	}
	input.SetBodyBytes(rr.Body.Bytes())

	require.NoError(t, openapi3filter.ValidateResponse(context.Background(), input), "openapi response validation")
}

func TestContractHealth(t *testing.T) {
	s := newTestServer(t)
	doc := loadOpenAPIDoc(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	s.router().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	validateOpenAPIResponse(t, doc, req, rr)
}

func TestContractStatus(t *testing.T) {
	s := newTestServer(t)
	doc := loadOpenAPIDoc(t)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rr := httptest.NewRecorder()
	s.router().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	validateOpenAPIResponse(t, doc, req, rr)
}

func TestContractListImages(t *testing.T) {
	s := newTestServer(t)
	doc := loadOpenAPIDoc(t)

	req := httptest.NewRequest(http.MethodGet, "/images", nil)
	rr := httptest.NewRecorder()
	s.router().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	validateOpenAPIResponse(t, doc, req, rr)
}

func TestContractAddMessage(t *testing.T) {
	s := newTestServer(t)
	doc := loadOpenAPIDoc(t)

	body := bytes.NewReader([]byte(`{"source_id":"ct-1","text":"hello"}`))
	req := httptest.NewRequest(http.MethodPost, "/messages", body)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	s.router().ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	validateOpenAPIResponse(t, doc, req, rr)
}

func TestContractThaiValidate(t *testing.T) {
	s := newTestServer(t)
	doc := loadOpenAPIDoc(t)

	body := bytes.NewReader([]byte(`{"text":"badword everywhere"}`))
	req := httptest.NewRequest(http.MethodPost, "/thai/validate", body)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	s.router().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	validateOpenAPIResponse(t, doc, req, rr)
}

func TestContractBuddhistDate(t *testing.T) {
	s := newTestServer(t)
	doc := loadOpenAPIDoc(t)

	req := httptest.NewRequest(http.MethodGet, "/thai/buddhist-date?date=2024-05-22T00:00:00Z", nil)
	rr := httptest.NewRecorder()
	s.router().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	validateOpenAPIResponse(t, doc, req, rr)
}

func TestContractThaiConvert(t *testing.T) {
	s := newTestServer(t)
	doc := loadOpenAPIDoc(t)

	body := bytes.NewReader([]byte(`{"text":"สวัสดี"}`))
	req := httptest.NewRequest(http.MethodPost, "/thai/convert", body)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	s.router().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	validateOpenAPIResponse(t, doc, req, rr)
}
