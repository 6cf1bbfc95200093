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

// Package recorder accumulates one HTTP transaction at a time and commits
// it to a content-addressed HAR file on disk.
package recorder

import (
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/bsundsrud/talkboy/internal/archive"
)

// Session is a single-transaction accumulator: start it, record a request,
// record the matching response, then commit and write it to disk. A
// Session is not safe for concurrent use; callers create one per inbound
// request.
type Session struct {
	log         archive.Log
	startDate   *time.Time
	request     *archive.Request
	response    *archive.Response
	requestHash string
}

// New returns an empty session with talkboy's creator stamped in, ready to
// be started.
func New(creatorVersion string) *Session {
	return &Session{log: archive.NewLog(creatorVersion)}
}

// Start captures the current UTC timestamp as the transaction's start time.
func (s *Session) Start() {
	now := time.Now().UTC()
	s.startDate = &now
}

// RecordRequest builds the archive Request from a live request's head and
// fully-buffered body, computes the transaction's fingerprint, and stores
// both. It may be called before or after Start; only Commit enforces that
// every piece is present.
func (s *Session) RecordRequest(req *http.Request, body []byte) error {
	mimeType := req.Header.Get("Content-Type")
	httpVersion, err := archive.VersionFromProto(req.Proto)
	if err != nil {
		return err
	}
	versionStr := archive.VersionToString(httpVersion)

	pathAndQuery := req.URL.Path
	if req.URL.RawQuery != "" {
		pathAndQuery += "?" + req.URL.RawQuery
	}

	fingerprint := archive.Fingerprint(req.Method, pathAndQuery, versionStr, body)

	cookies, err := archive.ClientCookiesFromHeaders(req.Header)
	if err != nil {
		return errors.Wrap(err, "recorder: recording request")
	}

	s.request = &archive.Request{
		Method:      req.Method,
		URL:         req.URL.String(),
		HTTPVersion: versionStr,
		Cookies:     cookies,
		Headers:     archive.HeadersToArchive(sortedHeaderNames(req.Header), req.Header),
		QueryString: archive.QueryToList(req.URL.RawQuery),
		PostData:    archive.RequestBodyToArchive(body, mimeType),
		HeadersSize: -1,
		BodySize:    -1,
		Comment:     "hash:" + fingerprint,
	}
	s.requestHash = fingerprint
	return nil
}

// RecordResponse builds the archive Response from a live response's head
// and fully-buffered body.
func (s *Session) RecordResponse(resp *http.Response, body []byte) error {
	mimeType := resp.Header.Get("Content-Type")
	httpVersion, err := archive.VersionFromProto(resp.Proto)
	if err != nil {
		return err
	}

	cookies, err := archive.ServerCookiesFromHeaders(resp.Header)
	if err != nil {
		return errors.Wrap(err, "recorder: recording response")
	}

	s.response = &archive.Response{
		Status:      resp.StatusCode,
		StatusText:  http.StatusText(resp.StatusCode),
		HTTPVersion: archive.VersionToString(httpVersion),
		Cookies:     cookies,
		Headers:     archive.HeadersToArchive(sortedHeaderNames(resp.Header), resp.Header),
		Content:     archive.ResponseBodyToArchive(body, mimeType),
		RedirectURL: resp.Header.Get("Location"),
		HeadersSize: -1,
		BodySize:    -1,
	}
	return nil
}

// Commit assembles the entry, appends it to the session's log, clears the
// per-transaction state, and returns the transaction's fingerprint. It
// fails if RecordRequest, RecordResponse or Start were not all called.
func (s *Session) Commit() (string, error) {
	switch {
	case s.request == nil && s.response == nil:
		return "", ErrMissingBoth
	case s.request == nil:
		return "", ErrMissingRequest
	case s.response == nil:
		return "", ErrMissingResponse
	}
	if s.startDate == nil {
		return "", ErrMissingStart
	}

	entry := archive.Entry{
		StartedDateTime: s.startDate.Format(time.RFC3339),
		Time:            time.Since(*s.startDate).Milliseconds(),
		Request:         *s.request,
		Response:        *s.response,
		Cache:           archive.Cache{},
		Timings:         archive.NewTimings(),
	}
	s.log.Entries = append(s.log.Entries, entry)

	hash := s.requestHash
	s.startDate = nil
	s.request = nil
	s.response = nil
	s.requestHash = ""
	return hash, nil
}

// fileHash returns the fingerprint prefix of the most recently committed
// entry, read back from the comment it stamped onto the request.
func (s *Session) fileHash() (string, bool) {
	if len(s.log.Entries) == 0 {
		return "", false
	}
	last := s.log.Entries[len(s.log.Entries)-1]
	comment := last.Request.Comment
	const prefix = "hash:"
	if len(comment) <= len(prefix) || comment[:len(prefix)] != prefix {
		return "", false
	}
	hash := comment[len(prefix):]
	if len(hash) > archive.FingerprintPrefix {
		hash = hash[:archive.FingerprintPrefix]
	}
	return hash, true
}

// WriteToDir serializes the session as pretty-printed HAR JSON to
// <dir>/<normalized(baseName)>.<fp8>.json, creating dir if needed.
func (s *Session) WriteToDir(dir, baseName string) (string, error) {
	hash, ok := s.fileHash()
	if !ok {
		return "", ErrEmptySession
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "recorder: creating archive directory")
	}

	fileName := archive.NormalizeBaseName(baseName) + "." + hash + ".json"
	fullPath := filepath.Join(dir, fileName)

	f, err := os.Create(fullPath)
	if err != nil {
		return "", errors.Wrap(err, "recorder: creating archive file")
	}
	defer f.Close()

	if err := marshalIndent(f, archive.Har{Log: s.log}); err != nil {
		return "", errors.Wrap(err, "recorder: writing archive file")
	}
	return fullPath, nil
}

// sortedHeaderNames returns header names in sorted order. net/http stores
// headers in a map and discards the original wire order, so a
// deterministic order is substituted; see DESIGN.md for why exact wire
// order can't be recovered in a net/http-based server.
func sortedHeaderNames(h http.Header) []string {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
