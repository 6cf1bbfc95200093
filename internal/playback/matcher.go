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

// Package playback serves archived HTTP transactions back to a client by
// matching inbound requests against a loaded transaction set.
package playback

import (
	"net/http"
	"sort"
	"sync"

	"github.com/bsundsrud/talkboy/internal/archive"
)

// Matcher holds a fixed set of archived transactions and finds the first
// one whose facts match a live request. It is safe for concurrent use.
type Matcher struct {
	mu           sync.RWMutex
	transactions []archive.ArchivedTransaction
}

// NewMatcher returns a Matcher over transactions.
func NewMatcher(transactions []archive.ArchivedTransaction) *Matcher {
	return &Matcher{transactions: transactions}
}

// Find returns the first transaction whose facts match, if any.
func (m *Matcher) Find(query []archive.Fact) (archive.ArchivedTransaction, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.transactions {
		if t.Matches(query) {
			return t, true
		}
	}
	return archive.ArchivedTransaction{}, false
}

// requestFacts builds the query fact set for an inbound request: method,
// path, query and headers always, plus a body fact when the body is
// non-empty. The headers fact is inert against today's loader output (see
// archive.FactHeaders) but the query itself is built the way the original
// always does, so a future loader that populates FactHeaders works with
// no change here.
func requestFacts(r *http.Request, body []byte) []archive.Fact {
	facts := make([]archive.Fact, 0, 4)
	facts = append(facts, archive.FactMethod(r.Method))

	pathAndQuery := r.URL.Path
	if r.URL.RawQuery != "" {
		pathAndQuery += "?" + r.URL.RawQuery
	}
	facts = append(facts, archive.FactPathAndQuery(pathAndQuery))
	facts = append(facts, headerFacts(r.Header))

	if len(body) > 0 {
		facts = append(facts, archive.FactBody{
			ContentType: r.Header.Get("Content-Type"),
			Data:        body,
		})
	}

	return facts
}

func headerFacts(h http.Header) archive.Fact {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make(archive.FactHeaders, 0, len(names))
	for _, name := range names {
		for _, v := range h.Values(name) {
			pairs = append(pairs, archive.HeaderPair{Name: name, Value: []byte(v)})
		}
	}
	return pairs
}
