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

package loader

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/bsundsrud/talkboy/internal/archive"
)

const sampleHar = `{
  "log": {
    "version": "1.2",
    "creator": {"name": "talkboy", "version": "test"},
    "entries": [
      {
        "startedDateTime": "2024-01-01T00:00:00Z",
        "time": 12,
        "request": {
          "method": "GET",
          "url": "http://example.com/hello?a=1",
          "httpVersion": "HTTP/1.1",
          "cookies": [],
          "headers": [],
          "queryString": [{"name": "a", "value": "1"}],
          "headersSize": -1,
          "bodySize": -1
        },
        "response": {
          "status": 200,
          "statusText": "OK",
          "httpVersion": "HTTP/1.1",
          "cookies": [],
          "headers": [{"name": "content-type", "value": "text/plain"}],
          "content": {"size": 2, "mimeType": "text/plain", "text": "hi"},
          "redirectURL": "",
          "headersSize": -1,
          "bodySize": -1
        },
        "cache": {},
        "timings": {"send": -1, "wait": -1, "receive": -1}
      }
    ]
  }
}`

func TestLoad_SingleFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/archives/GET.hello.abcd1234.json", []byte(sampleHar), 0o644))

	l := New(fs, zerolog.Nop())
	txs, err := l.Load("/archives/GET.hello.abcd1234.json")
	require.NoError(t, err)
	require.Len(t, txs, 1)

	tx := txs[0]
	require.Equal(t, int64(12), tx.OriginalTiming.Milliseconds())
	require.Equal(t, 200, tx.Response.Status)

	require.True(t, tx.Matches([]archive.Fact{archive.FactMethod("GET")}))
	require.False(t, tx.Matches([]archive.Fact{archive.FactMethod("POST")}))
	require.True(t, tx.Matches([]archive.Fact{archive.FactPathAndQuery("/hello?a=1")}))
}

func TestLoad_RejectsWrongVersion(t *testing.T) {
	fs := afero.NewMemMapFs()
	bad := `{"log": {"version": "1.1", "creator": {"name": "x", "version": "1"}, "entries": []}}`
	require.NoError(t, afero.WriteFile(fs, "/archives/bad.json", []byte(bad), 0o644))

	l := New(fs, zerolog.Nop())
	_, err := l.Load("/archives/bad.json")
	require.ErrorIs(t, err, ErrInvalidVersion)
}

func TestLoad_RejectsInvalidMethodToken(t *testing.T) {
	fs := afero.NewMemMapFs()
	bad := `{
  "log": {
    "version": "1.2",
    "creator": {"name": "talkboy", "version": "test"},
    "entries": [
      {
        "startedDateTime": "2024-01-01T00:00:00Z",
        "time": 1,
        "request": {
          "method": "GE T",
          "url": "http://example.com/hello",
          "httpVersion": "HTTP/1.1",
          "cookies": [],
          "headers": [],
          "queryString": [],
          "headersSize": -1,
          "bodySize": -1
        },
        "response": {
          "status": 200,
          "statusText": "OK",
          "httpVersion": "HTTP/1.1",
          "cookies": [],
          "headers": [],
          "content": {"size": 0, "mimeType": "text/plain"},
          "redirectURL": "",
          "headersSize": -1,
          "bodySize": -1
        },
        "cache": {},
        "timings": {"send": -1, "wait": -1, "receive": -1}
      }
    ]
  }
}`
	require.NoError(t, afero.WriteFile(fs, "/archives/bad-method.json", []byte(bad), 0o644))

	l := New(fs, zerolog.Nop())
	_, err := l.Load("/archives/bad-method.json")
	require.ErrorIs(t, err, ErrInvalidMatcher)
}

func TestLoadAll_ConcatenatesAndIgnoresNonJSON(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/archives/a.json", []byte(sampleHar), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/archives/b.json", []byte(sampleHar), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/archives/notes.txt", []byte("ignore me"), 0o644))

	l := New(fs, zerolog.Nop())
	txs, err := l.LoadAll("/archives")
	require.NoError(t, err)
	require.Len(t, txs, 2)
}

func TestLoadAll_RejectsNonDirectory(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/archives.json", []byte(sampleHar), 0o644))

	l := New(fs, zerolog.Nop())
	_, err := l.LoadAll("/archives.json")
	require.ErrorIs(t, err, ErrNotADirectory)
}
