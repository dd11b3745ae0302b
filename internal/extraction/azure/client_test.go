package azure_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docintake/internal/config"
	"docintake/internal/domain"
	"docintake/internal/extraction"
	"docintake/internal/extraction/azure"
	"docintake/internal/port"
)

const succeededBody = `{
	"status": "succeeded",
	"analyzeResult": {
		"pages": [{"pageNumber": 1, "lines": [{"content": "Invoice INV-7"}, {"content": "Total 42.00"}]}],
		"tables": [{"rowCount": 2, "columnCount": 2, "cells": [
			{"rowIndex": 0, "columnIndex": 0, "content": "Item"},
			{"rowIndex": 0, "columnIndex": 1, "content": "Qty"},
			{"rowIndex": 1, "columnIndex": 0, "content": "Widget"}
		]}],
		"keyValuePairs": [
			{"key": {"content": "Invoice"}, "value": {"content": "INV-7"}},
			{"key": {"content": "Signature"}}
		]
	}
}`

func fastPolicy(attempts int) extraction.PollPolicy {
	return extraction.PollPolicy{Interval: time.Millisecond, Backoff: 1.0, MaxAttempts: attempts}
}

func newTestClient(policy extraction.PollPolicy) *azure.Client {
	cfg := &config.ExtractionConfig{ModelID: "prebuilt-document", APIVersion: "2023-07-31"}
	return azure.NewClientWithHTTP(cfg, &http.Client{Timeout: 5 * time.Second}, policy)
}

func creds(endpoint string) domain.ExtractionCredentials {
	return domain.ExtractionCredentials{Endpoint: endpoint, Key: "test-key"}
}

func TestClient_Extract_Success(t *testing.T) {
	var polls int32
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("Ocp-Apim-Subscription-Key"))

		switch {
		case r.Method == http.MethodPost:
			assert.Equal(t, "/formrecognizer/documentModels/prebuilt-document:analyze", r.URL.Path)
			assert.Equal(t, "2023-07-31", r.URL.Query().Get("api-version"))
			assert.Equal(t, "application/pdf", r.Header.Get("Content-Type"))
			body, _ := io.ReadAll(r.Body)
			assert.Equal(t, "%PDF-1.4 test", string(body))
			w.Header().Set("Operation-Location", srv.URL+"/operations/abc")
			w.WriteHeader(http.StatusAccepted)
		case r.URL.Path == "/operations/abc":
			n := atomic.AddInt32(&polls, 1)
			if n < 3 {
				_, _ = w.Write([]byte(`{"status":"running"}`))
				return
			}
			_, _ = w.Write([]byte(succeededBody))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	result, err := newTestClient(fastPolicy(10)).Extract(context.Background(), port.ExtractInput{
		FileBytes:   []byte("%PDF-1.4 test"),
		ContentType: "application/pdf",
		Credentials: creds(srv.URL + "/"),
	})

	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&polls))
	assert.Equal(t, "Invoice INV-7\nTotal 42.00", result.Text)
	assert.Equal(t, []domain.Table{{{"Item", "Qty"}, {"Widget", ""}}}, result.Tables)
	assert.Equal(t, []domain.KeyValuePair{{Key: "Invoice", Value: "INV-7"}}, result.KeyValuePairs)
}

func TestClient_Extract_MissingCredentials(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	client := newTestClient(fastPolicy(1))

	_, err := client.Extract(context.Background(), port.ExtractInput{
		FileBytes:   []byte("x"),
		Credentials: domain.ExtractionCredentials{Endpoint: srv.URL},
	})
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = client.Extract(context.Background(), port.ExtractInput{
		FileBytes:   []byte("x"),
		Credentials: domain.ExtractionCredentials{Key: "k"},
	})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

var _ port.CredentialResolver = (*azure.Client)(nil)

func TestClient_ResolveCredentials(t *testing.T) {
	cfg := &config.ExtractionConfig{Endpoint: "https://server.example.com", APIKey: "server-key"}
	client := azure.NewClientWithHTTP(cfg, http.DefaultClient, fastPolicy(1))

	got, err := client.ResolveCredentials(domain.ExtractionCredentials{})
	require.NoError(t, err)
	assert.Equal(t, domain.ExtractionCredentials{Endpoint: "https://server.example.com", Key: "server-key"}, got)

	got, err = client.ResolveCredentials(domain.ExtractionCredentials{Endpoint: "https://own.example.com", Key: "own"})
	require.NoError(t, err)
	assert.Equal(t, "https://own.example.com", got.Endpoint)
	assert.Equal(t, "own", got.Key)

	_, err = newTestClient(fastPolicy(1)).ResolveCredentials(domain.ExtractionCredentials{Endpoint: "https://own.example.com"})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestClient_Extract_UsesConfiguredDefaults(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "server-key", r.Header.Get("Ocp-Apim-Subscription-Key"))
		if r.Method == http.MethodPost {
			w.Header().Set("Operation-Location", srv.URL+"/op")
			w.WriteHeader(http.StatusAccepted)
			return
		}
		_, _ = w.Write([]byte(`{"status":"succeeded","analyzeResult":{}}`))
	}))
	defer srv.Close()

	cfg := &config.ExtractionConfig{Endpoint: srv.URL, APIKey: "server-key"}
	client := azure.NewClientWithHTTP(cfg, srv.Client(), fastPolicy(3))

	result, err := client.Extract(context.Background(), port.ExtractInput{FileBytes: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, "", result.Text)
	assert.Equal(t, "prebuilt-document", client.ModelID())
}

func TestClient_Extract_SubmitRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":"401","message":"Access denied due to invalid subscription key"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(fastPolicy(3)).Extract(context.Background(), port.ExtractInput{
		FileBytes:   []byte("x"),
		Credentials: creds(srv.URL),
	})

	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.Contains(t, err.Error(), "invalid subscription key")
}

func TestClient_Extract_MissingOperationLocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	_, err := newTestClient(fastPolicy(3)).Extract(context.Background(), port.ExtractInput{
		FileBytes:   []byte("x"),
		Credentials: creds(srv.URL),
	})

	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestClient_Extract_JobFailed(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.Header().Set("Operation-Location", srv.URL+"/op")
			w.WriteHeader(http.StatusAccepted)
			return
		}
		_, _ = w.Write([]byte(`{"status":"failed","error":{"code":"InvalidContent","message":"The file is corrupted"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(fastPolicy(3)).Extract(context.Background(), port.ExtractInput{
		FileBytes:   []byte("x"),
		Credentials: creds(srv.URL),
	})

	assert.ErrorIs(t, err, domain.ErrJobFailed)
	assert.Contains(t, err.Error(), "The file is corrupted")
}

func TestClient_Extract_PollCeiling(t *testing.T) {
	var polls int32
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.Header().Set("Operation-Location", srv.URL+"/op")
			w.WriteHeader(http.StatusAccepted)
			return
		}
		atomic.AddInt32(&polls, 1)
		_, _ = w.Write([]byte(`{"status":"notStarted"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(fastPolicy(5)).Extract(context.Background(), port.ExtractInput{
		FileBytes:   []byte("x"),
		Credentials: creds(srv.URL),
	})

	assert.ErrorIs(t, err, domain.ErrJobTimeout)
	assert.Equal(t, int32(5), atomic.LoadInt32(&polls))
}

func TestClient_Extract_CancelledWhilePolling(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.Header().Set("Operation-Location", srv.URL+"/op")
			w.WriteHeader(http.StatusAccepted)
			return
		}
		_, _ = w.Write([]byte(`{"status":"running"}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	policy := extraction.PollPolicy{Interval: 10 * time.Millisecond, Backoff: 1.0, MaxAttempts: 1000}
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := newTestClient(policy).Extract(ctx, port.ExtractInput{
		FileBytes:   []byte("x"),
		Credentials: creds(srv.URL),
	})

	assert.ErrorIs(t, err, domain.ErrCancelled)
}

func TestClient_Extract_UnreachableEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestClient(fastPolicy(1)).Extract(context.Background(), port.ExtractInput{
		FileBytes:   []byte("x"),
		Credentials: creds(url),
	})

	assert.ErrorIs(t, err, domain.ErrTransport)
}
