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

// Package loader reads HAR archives back off disk and turns them into the
// in-memory facts a playback matcher can compare inbound requests against.
package loader

import (
	"encoding/json"
	"net/url"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"golang.org/x/net/http/httpguts"

	"github.com/bsundsrud/talkboy/internal/archive"
)

// ErrInvalidVersion is returned when a HAR file's log.version is not "1.2".
var ErrInvalidVersion = errors.New("loader: unsupported HAR version")

// ErrInvalidMatcher is returned when a stored request can't be turned into
// match facts, e.g. a method field that isn't a valid HTTP token.
var ErrInvalidMatcher = errors.New("loader: couldn't build matcher")

// ErrNotADirectory is returned by LoadAll when given a path that isn't a
// directory.
var ErrNotADirectory = errors.New("loader: path is not a directory")

// Loader reads archive files from an afero filesystem, logging progress
// through the supplied logger.
type Loader struct {
	fs  afero.Fs
	log zerolog.Logger
}

// New returns a Loader backed by fs, logging through log.
func New(fs afero.Fs, log zerolog.Logger) *Loader {
	return &Loader{fs: fs, log: log}
}

// Load reads a single HAR file and returns one ArchivedTransaction per
// entry it contains.
func (l *Loader) Load(path string) ([]archive.ArchivedTransaction, error) {
	l.log.Trace().Str("path", path).Msg("loading archive")

	f, err := l.fs.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "loader: opening archive")
	}
	defer f.Close()

	var har archive.Har
	if err := json.NewDecoder(f).Decode(&har); err != nil {
		return nil, errors.Wrap(err, "loader: decoding archive")
	}
	if har.Log.Version != archive.HarVersion {
		return nil, errors.Wrapf(ErrInvalidVersion, "got %q in %s", har.Log.Version, path)
	}

	l.log.Info().Str("path", path).Int("entries", len(har.Log.Entries)).Msg("loaded archive")

	results := make([]archive.ArchivedTransaction, 0, len(har.Log.Entries))
	for _, e := range har.Log.Entries {
		tx, err := l.loadEntry(e)
		if err != nil {
			return nil, errors.Wrapf(err, "loader: entry in %s", path)
		}
		results = append(results, tx)
	}
	return results, nil
}

func (l *Loader) loadEntry(e archive.Entry) (archive.ArchivedTransaction, error) {
	timing := e.Time
	if timing < 0 {
		timing = 0
	}

	facts, err := l.factsForRequest(e.Request)
	if err != nil {
		return archive.ArchivedTransaction{}, err
	}

	return archive.ArchivedTransaction{
		OriginalTiming: time.Duration(timing) * time.Millisecond,
		Facts:          facts,
		Response:       e.Response,
	}, nil
}

func (l *Loader) factsForRequest(r archive.Request) ([]archive.Fact, error) {
	method := strings.ToUpper(r.Method)
	if !isValidMethodToken(method) {
		return nil, errors.Wrapf(ErrInvalidMatcher, "unknown method %q", r.Method)
	}

	facts := make([]archive.Fact, 0, 3)
	facts = append(facts, archive.FactMethod(method))

	u, err := url.Parse(r.URL)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidMatcher, "invalid URI %q", r.URL)
	}
	pathAndQuery := u.Path
	if u.RawQuery != "" {
		pathAndQuery += "?" + u.RawQuery
	}
	facts = append(facts, archive.FactPathAndQuery(pathAndQuery))

	if r.PostData != nil {
		body, contentType, err := archive.RequestBodyFromArchive(r.PostData)
		if err != nil {
			return nil, errors.Wrap(err, "loader: decoding request body")
		}
		facts = append(facts, archive.FactBody{ContentType: contentType, Data: body})
	}

	// Header facts are part of the matching model but the loader never
	// builds one, so the FactHeaders fact in a playback query is never
	// compared against a loaded transaction.

	return facts, nil
}

// isValidMethodToken reports whether s is a valid HTTP method token per
// RFC 7230 section 3.1.1 ("Method = token"), using the same token grammar
// net/http applies to header field names.
func isValidMethodToken(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !httpguts.IsTokenRune(r) {
			return false
		}
	}
	return true
}

// LoadAll reads every *.json file directly inside dir and concatenates
// their transactions, in lexical filename order.
func (l *Loader) LoadAll(dir string) ([]archive.ArchivedTransaction, error) {
	info, err := l.fs.Stat(dir)
	if err != nil {
		return nil, errors.Wrap(err, "loader: reading archive directory")
	}
	if !info.IsDir() {
		return nil, errors.Wrapf(ErrNotADirectory, "%s", dir)
	}

	entries, err := afero.ReadDir(l.fs, dir)
	if err != nil {
		return nil, errors.Wrap(err, "loader: listing archive directory")
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var results []archive.ArchivedTransaction
	for _, name := range names {
		txs, err := l.Load(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		results = append(results, txs...)
	}
	return results, nil
}
