package deps

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"customsagent/internal/config"
)

func TestProbeHTTP(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer up.Close()

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	down.Close()

	c := NewChecker(&config.Config{})

	s := c.probeHTTP(context.Background(), "OpenSearch", up.URL, true)
	assert.True(t, s.OK)
	assert.Equal(t, "running", s.Detail)

	s = c.probeHTTP(context.Background(), "OpenSearch", down.URL, true)
	assert.False(t, s.OK)
}

func TestProbeHTTPNon200(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	s := NewChecker(&config.Config{}).probeHTTP(context.Background(), "Ollama", ts.URL, true)
	assert.False(t, s.OK)
	assert.Contains(t, s.Detail, "502")
}

func TestAllRequiredOK(t *testing.T) {
	assert.True(t, AllRequiredOK([]Status{
		{Component: "OpenSearch", OK: true, Required: true},
		{Component: "Redis", OK: false, Required: false},
	}))
	assert.False(t, AllRequiredOK([]Status{
		{Component: "OpenSearch", OK: false, Required: true},
	}))
	assert.True(t, AllRequiredOK(nil))
}

func TestRender(t *testing.T) {
	out := Render([]Status{
		{Component: "OpenSearch", OK: true, Detail: "running", Required: true},
		{Component: "Ollama", OK: false, Detail: "not available", Required: true},
		{Component: "Redis", OK: true, Detail: "running"},
	})

	assert.Contains(t, out, "OpenSearch")
	assert.Contains(t, out, "Ollama")
	assert.Contains(t, out, "not available")
	assert.Contains(t, out, "optional")
}
