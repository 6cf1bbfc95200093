/*
Copyright 2025 Google LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package proxy

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestNewServer_RejectsURLWithoutAuthority(t *testing.T) {
	u, err := url.Parse("/just/a/path")
	require.NoError(t, err)

	_, err = NewServer("test", "127.0.0.1:0", u, t.TempDir(), nil, nil, zerolog.Nop())
	var authErr *AuthorityError
	require.ErrorAs(t, err, &authErr)
}

func TestServer_ProxiesAndArchives(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("hello from upstream"))
	}))
	defer upstream.Close()

	upstreamURL, err := url.Parse(upstream.URL)
	require.NoError(t, err)

	archiveDir := t.TempDir()
	s, err := NewServer("myproject", "127.0.0.1:0", upstreamURL, archiveDir, nil, nil, zerolog.Nop())
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/hello", nil)
	rec := httptest.NewRecorder()
	s.handle(rec, req)

	require.Equal(t, 200, rec.Code)
	require.Equal(t, "hello from upstream", rec.Body.String())

	entries, err := os.ReadDir(filepath.Join(archiveDir, "myproject"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestServer_SkipsArchivalForIgnoredStatus(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer upstream.Close()

	upstreamURL, err := url.Parse(upstream.URL)
	require.NoError(t, err)

	archiveDir := t.TempDir()
	s, err := NewServer("myproject", "127.0.0.1:0", upstreamURL, archiveDir, []int{500}, nil, zerolog.Nop())
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/fails", nil)
	rec := httptest.NewRecorder()
	s.handle(rec, req)

	require.Equal(t, 500, rec.Code)

	_, err = os.ReadDir(filepath.Join(archiveDir, "myproject"))
	require.True(t, os.IsNotExist(err))
}

func TestServer_RedactsSecretsInArchivedHeaders(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Api-Key", "super-secret-value")
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	upstreamURL, err := url.Parse(upstream.URL)
	require.NoError(t, err)

	archiveDir := t.TempDir()
	s, err := NewServer("secrets", "127.0.0.1:0", upstreamURL, archiveDir, nil, []string{"super-secret-value"}, zerolog.Nop())
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/hello", nil)
	req.Header.Set("Authorization", "Bearer super-secret-value")
	rec := httptest.NewRecorder()
	s.handle(rec, req)

	// the live response to the client is never redacted
	require.Equal(t, "super-secret-value", rec.Header().Get("X-Api-Key"))

	entries, err := os.ReadDir(filepath.Join(archiveDir, "secrets"))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(archiveDir, "secrets", entries[0].Name()))
	require.NoError(t, err)
	require.NotContains(t, string(data), "super-secret-value")
	require.Contains(t, string(data), "REDACTED")
}

func TestServer_RejectsWebsocketUpgrade(t *testing.T) {
	upstreamURL, err := url.Parse("http://example.com")
	require.NoError(t, err)

	s, err := NewServer("ws", "127.0.0.1:0", upstreamURL, t.TempDir(), nil, nil, zerolog.Nop())
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/socket", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	rec := httptest.NewRecorder()
	s.handle(rec, req)

	require.Equal(t, http.StatusNotImplemented, rec.Code)
}
