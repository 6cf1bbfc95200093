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

package playback

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/bsundsrud/talkboy/internal/archive"
)

func sampleTransaction() archive.ArchivedTransaction {
	return archive.ArchivedTransaction{
		OriginalTiming: 5 * time.Millisecond,
		Facts: []archive.Fact{
			archive.FactMethod("GET"),
			archive.FactPathAndQuery("/hello"),
		},
		Response: archive.Response{
			Status:      200,
			StatusText:  "OK",
			HTTPVersion: "HTTP/1.1",
			Headers:     []archive.NVP{{Name: "content-type", Value: "text/plain"}},
			Content:     archive.ResponseBodyToArchive([]byte("hi there"), "text/plain"),
		},
	}
}

func TestServer_ServesMatchedResponse(t *testing.T) {
	s := NewServer("test", "127.0.0.1:0", []archive.ArchivedTransaction{sampleTransaction()},
		DelayOptions{Method: DelayNone}, zerolog.Nop())

	req := httptest.NewRequest("GET", "/hello", nil)
	rec := httptest.NewRecorder()
	s.handle(rec, req)

	require.Equal(t, 200, rec.Code)
	require.Equal(t, "hi there", rec.Body.String())
	require.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
}

func TestServer_404sOnNoMatch(t *testing.T) {
	s := NewServer("test", "127.0.0.1:0", []archive.ArchivedTransaction{sampleTransaction()},
		DelayOptions{Method: DelayNone}, zerolog.Nop())

	req := httptest.NewRequest("POST", "/nope", nil)
	rec := httptest.NewRecorder()
	s.handle(rec, req)

	require.Equal(t, 404, rec.Code)
	require.Equal(t, "Not Found", rec.Body.String())
	require.Empty(t, rec.Header().Get("Content-Type"))
	require.Empty(t, rec.Header().Get("X-Content-Type-Options"))
}

func TestMatcher_FirstMatchWins(t *testing.T) {
	first := sampleTransaction()
	second := sampleTransaction()
	second.Response.Content = archive.ResponseBodyToArchive([]byte("second"), "text/plain")

	m := NewMatcher([]archive.ArchivedTransaction{first, second})
	tx, ok := m.Find([]archive.Fact{archive.FactMethod("GET"), archive.FactPathAndQuery("/hello")})
	require.True(t, ok)
	body, _, err := archive.ResponseBodyFromArchive(tx.Response.Content)
	require.NoError(t, err)
	require.Equal(t, "hi there", string(body))
}
