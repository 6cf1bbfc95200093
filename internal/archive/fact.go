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

package archive

import "time"

// Fact is a tagged attribute of a request used by the playback matcher. The
// set is closed: Method, PathAndQuery, Body and Headers, mirroring the
// original implementation's enum. The unexported methods keep types
// outside this package from implementing it.
type Fact interface {
	factKind() factKind
	equal(Fact) bool
}

type factKind int

const (
	factKindMethod factKind = iota
	factKindPathAndQuery
	factKindBody
	factKindHeaders
)

// FactMethod is the request method. The loader stores it uppercased; the
// playback matcher's query fact carries the method as received.
type FactMethod string

func (FactMethod) factKind() factKind { return factKindMethod }

func (f FactMethod) equal(other Fact) bool {
	o, ok := other.(FactMethod)
	return ok && f == o
}

// FactPathAndQuery is the path plus raw query, including the leading '/'
// and '?' when present.
type FactPathAndQuery string

func (FactPathAndQuery) factKind() factKind { return factKindPathAndQuery }

func (f FactPathAndQuery) equal(other Fact) bool {
	o, ok := other.(FactPathAndQuery)
	return ok && f == o
}

// FactBody is present only for a non-empty body.
type FactBody struct {
	ContentType string
	Data        []byte
}

func (FactBody) factKind() factKind { return factKindBody }

func (f FactBody) equal(other Fact) bool {
	o, ok := other.(FactBody)
	if !ok || f.ContentType != o.ContentType || len(f.Data) != len(o.Data) {
		return false
	}
	for i := range f.Data {
		if f.Data[i] != o.Data[i] {
			return false
		}
	}
	return true
}

// FactHeaders carries the request's header name/value pairs. The matcher
// can compare on it, but loaded transactions don't currently populate it,
// so header-based matching is a no-op until the loader is extended.
type FactHeaders []HeaderPair

// HeaderPair is a single header name and its raw byte value.
type HeaderPair struct {
	Name  string
	Value []byte
}

func (FactHeaders) factKind() factKind { return factKindHeaders }

func (f FactHeaders) equal(other Fact) bool {
	o, ok := other.(FactHeaders)
	if !ok || len(f) != len(o) {
		return false
	}
	for i := range f {
		if f[i].Name != o[i].Name || string(f[i].Value) != string(o[i].Value) {
			return false
		}
	}
	return true
}

// ArchivedTransaction is the loaded, immutable form of one recorded entry,
// ready for matching against a live request.
type ArchivedTransaction struct {
	OriginalTiming time.Duration
	Facts          []Fact
	Response       Response
}

// Matches reports whether every query fact whose kind is also present among
// the stored facts has an equal value. Facts of kinds absent from the
// stored transaction are ignored, so an empty query matches every stored
// transaction.
func (t ArchivedTransaction) Matches(query []Fact) bool {
	for _, q := range query {
		stored, ok := findFact(t.Facts, q.factKind())
		if !ok {
			continue
		}
		if !q.equal(stored) {
			return false
		}
	}
	return true
}

func findFact(facts []Fact, kind factKind) (Fact, bool) {
	for _, f := range facts {
		if f.factKind() == kind {
			return f, true
		}
	}
	return nil, false
}
