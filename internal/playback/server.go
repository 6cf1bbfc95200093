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
	"context"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/bsundsrud/talkboy/internal/archive"
)

// Server answers HTTP requests from a fixed set of archived transactions.
type Server struct {
	name    string
	addr    string
	matcher *Matcher
	delay   DelayOptions
	log     zerolog.Logger

	httpServer *http.Server
}

// NewServer returns a playback Server named name, listening on addr,
// serving transactions, applying delay and logging through log.
func NewServer(name, addr string, transactions []archive.ArchivedTransaction, delay DelayOptions, log zerolog.Logger) *Server {
	s := &Server{
		name:    name,
		addr:    addr,
		matcher: NewMatcher(transactions),
		delay:   delay,
		log:     log.With().Str("server", name).Str("lifecycle", "run").Logger(),
	}
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: http.HandlerFunc(s.handle),
	}
	return s
}

// ListenAndServe starts the playback server and blocks until it stops.
func (s *Server) ListenAndServe() error {
	s.log.Info().Str("addr", s.addr).Msg("playback listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the playback server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	log := s.log.With().Str("method", r.Method).Str("path", r.URL.Path).Logger()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error().Err(err).Msg("reading request body")
		http.Error(w, "Failed to read request body", http.StatusInternalServerError)
		return
	}
	defer r.Body.Close()

	query := requestFacts(r, body)
	tx, ok := s.matcher.Find(query)
	if !ok {
		log.Warn().Msg("response for request not found in archives")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("Not Found"))
		return
	}

	if err := s.delay.Wait(r.Context(), tx.OriginalTiming); err != nil {
		return
	}

	log.Info().Msg("serving archived response")
	if err := writeArchivedResponse(w, tx.Response); err != nil {
		log.Error().Err(err).Msg("writing archived response")
	}
}

func writeArchivedResponse(w http.ResponseWriter, resp archive.Response) error {
	header := w.Header()
	for _, h := range resp.Headers {
		name, value, err := archive.HeaderFromArchive(h)
		if err != nil {
			return err
		}
		header.Add(name, string(value))
	}

	body, _, err := archive.ResponseBodyFromArchive(resp.Content)
	if err != nil {
		return err
	}

	w.WriteHeader(resp.Status)
	if len(body) == 0 {
		return nil
	}
	_, err = w.Write(body)
	return err
}
