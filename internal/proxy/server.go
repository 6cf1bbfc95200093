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
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/bsundsrud/talkboy/internal/recorder"
	"github.com/bsundsrud/talkboy/internal/redact"
)

// CreatorVersion is stamped into every archive this proxy writes.
const CreatorVersion = "dev"

// Server is a recording reverse proxy for a single upstream. Every request
// is forwarded to ProxyFor and the request/response pair is archived to
// ArchiveDir, unless its status is in IgnoredStatusCodes.
type Server struct {
	Name               string
	Addr               string
	ProxyFor           *url.URL
	ArchiveDir         string
	IgnoredStatusCodes map[int]struct{}

	client     *http.Client
	redactor   *redact.Redact
	log        zerolog.Logger
	httpServer *http.Server
}

// NewServer returns a Server named name, listening on addr, forwarding to
// proxyFor, archiving under archiveDir, skipping archival for any status
// code in ignoredStatusCodes. secrets, if non-empty, are redacted from
// archived header values and bodies before they are written to disk; the
// live proxied traffic is never redacted.
func NewServer(name, addr string, proxyFor *url.URL, archiveDir string, ignoredStatusCodes []int, secrets []string, log zerolog.Logger) (*Server, error) {
	if proxyFor.Host == "" {
		return nil, &AuthorityError{URI: proxyFor.String()}
	}
	ignored := make(map[int]struct{}, len(ignoredStatusCodes))
	for _, c := range ignoredStatusCodes {
		ignored[c] = struct{}{}
	}
	redactor, err := redact.NewRedact(secrets)
	if err != nil {
		return nil, err
	}

	s := &Server{
		Name:               name,
		Addr:               addr,
		ProxyFor:           proxyFor,
		ArchiveDir:         filepath.Join(archiveDir, name),
		IgnoredStatusCodes: ignored,
		client:             &http.Client{},
		redactor:           redactor,
		log:                log.With().Str("project", name).Str("mode", "recording").Str("for", proxyFor.String()).Logger(),
	}
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: http.HandlerFunc(s.handle),
	}
	return s, nil
}

// ListenAndServe starts the proxy and blocks until it stops.
func (s *Server) ListenAndServe() error {
	s.log.Info().Str("addr", s.Addr).Msg("listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the proxy.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if websocket.IsWebSocketUpgrade(r) {
		s.log.Warn().Str("path", r.URL.Path).Msg("rejecting websocket upgrade")
		http.Error(w, "websocket tunneling is not supported", http.StatusNotImplemented)
		return
	}

	target := s.targetURL(r.URL)
	log := s.log.With().Str("path", target.String()).Str("method", r.Method).Logger()

	reqBody, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error().Err(err).Msg("reading request body")
		http.Error(w, "Failed to read request body", http.StatusInternalServerError)
		return
	}
	r.Body.Close()

	outReq, err := http.NewRequestWithContext(r.Context(), r.Method, target.String(), bytes.NewReader(reqBody))
	if err != nil {
		log.Error().Err(err).Msg("building upstream request")
		http.Error(w, "Failed to build upstream request", http.StatusInternalServerError)
		return
	}
	outReq.Header = r.Header.Clone()
	removeHopHeaders(outReq.Header)
	outReq.Host = target.Host

	sess := recorder.New(CreatorVersion)
	sess.Start()
	recordedReq, recordedReqBody := s.redactForRecording(outReq, reqBody)
	if err := sess.RecordRequest(recordedReq, recordedReqBody); err != nil {
		log.Error().Err(err).Msg("recording request")
	}

	log.Info().Msg("sending request")
	resp, err := s.client.Do(outReq)
	if err != nil {
		log.Error().Err(err).Msg("upstream request failed")
		http.Error(w, "Bad Gateway", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	removeHopHeaders(resp.Header)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error().Err(err).Msg("reading upstream response body")
		http.Error(w, "Failed to read upstream response", http.StatusInternalServerError)
		return
	}

	recordedResp, recordedRespBody := s.redactResponseForRecording(resp, respBody)
	if err := sess.RecordResponse(recordedResp, recordedRespBody); err != nil {
		log.Error().Err(err).Msg("recording response")
	}

	if _, ignored := s.IgnoredStatusCodes[resp.StatusCode]; ignored {
		log.Info().Int("status", resp.StatusCode).Msg("ignoring response, not archiving")
	} else if err := s.archive(sess, r.Method, target.Path, log); err != nil {
		log.Error().Err(err).Msg("archiving transaction")
	}

	header := w.Header()
	for name, values := range resp.Header {
		for _, v := range values {
			header.Add(name, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := w.Write(respBody); err != nil {
		log.Error().Err(err).Msg("writing response to client")
	}
}

func (s *Server) archive(sess *recorder.Session, method, pathWithoutQuery string, log zerolog.Logger) error {
	if err := os.MkdirAll(s.ArchiveDir, 0o755); err != nil {
		return err
	}
	if _, err := sess.Commit(); err != nil {
		return err
	}
	baseName := method + "." + pathWithoutQuery
	path, err := sess.WriteToDir(s.ArchiveDir, baseName)
	if err != nil {
		return err
	}
	log.Info().Str("file", path).Msg("wrote archive")
	return nil
}

// redactForRecording returns a shallow copy of req and body with configured
// secrets scrubbed from header values and the body, for archival only.
// Nothing about the live, in-flight req is mutated.
func (s *Server) redactForRecording(req *http.Request, body []byte) (*http.Request, []byte) {
	clone := req.Clone(req.Context())
	s.redactor.Headers(clone.Header)
	return clone, s.redactor.Bytes(body)
}

func (s *Server) redactResponseForRecording(resp *http.Response, body []byte) (*http.Response, []byte) {
	clone := new(http.Response)
	*clone = *resp
	clone.Header = resp.Header.Clone()
	s.redactor.Headers(clone.Header)
	return clone, s.redactor.Bytes(body)
}

// targetURL rewrites an inbound request URL onto the proxied upstream:
// scheme and host come from ProxyFor, path and query come from requested.
func (s *Server) targetURL(requested *url.URL) *url.URL {
	target := *s.ProxyFor
	target.Path = requested.Path
	target.RawPath = requested.RawPath
	target.RawQuery = requested.RawQuery
	return &target
}
