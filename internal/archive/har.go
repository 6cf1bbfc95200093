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

// Package archive implements the HAR 1.2 archive format used by talkboy to
// record and replay HTTP transactions: the data model, its JSON encoding,
// and the pure conversions between live HTTP fragments and their archive
// counterparts.
package archive

// HarVersion is the only archive format version this package understands.
const HarVersion = "1.2"

// CreatorName identifies talkboy as the log creator in every archive
// written by the recorder.
const CreatorName = "talkboy"

// Har is the top-level archive document.
type Har struct {
	Log Log `json:"log"`
}

// Log is the body of a Har document.
type Log struct {
	Version string  `json:"version"`
	Creator Creator `json:"creator"`
	Entries []Entry `json:"entries"`
}

// Creator identifies the application that produced the archive.
type Creator struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Entry is one recorded request/response transaction.
type Entry struct {
	StartedDateTime string   `json:"startedDateTime"`
	Time            int64    `json:"time"`
	Request         Request  `json:"request"`
	Response        Response `json:"response"`
	Cache           Cache    `json:"cache"`
	Timings         Timings  `json:"timings"`
}

// Request is the archive form of an HTTP request.
type Request struct {
	Method      string    `json:"method"`
	URL         string    `json:"url"`
	HTTPVersion string    `json:"httpVersion"`
	Cookies     []Cookie  `json:"cookies"`
	Headers     []NVP     `json:"headers"`
	QueryString []NVP     `json:"queryString"`
	PostData    *PostData `json:"postData,omitempty"`
	HeadersSize int64     `json:"headersSize"`
	BodySize    int64     `json:"bodySize"`
	Comment     string    `json:"comment,omitempty"`
}

// Response is the archive form of an HTTP response.
type Response struct {
	Status      int      `json:"status"`
	StatusText  string   `json:"statusText"`
	HTTPVersion string   `json:"httpVersion"`
	Cookies     []Cookie `json:"cookies"`
	Headers     []NVP    `json:"headers"`
	Content     Content  `json:"content"`
	RedirectURL string   `json:"redirectURL"`
	HeadersSize int64    `json:"headersSize"`
	BodySize    int64    `json:"bodySize"`
}

// NVP is a name/value pair, optionally marking a base64-encoded value.
type NVP struct {
	Name    string `json:"name"`
	Value   string `json:"value"`
	Comment string `json:"comment,omitempty"`
}

// Cookie is a single parsed cookie attribute set.
type Cookie struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Path     string `json:"path,omitempty"`
	Domain   string `json:"domain,omitempty"`
	Expires  string `json:"expires,omitempty"`
	HTTPOnly bool   `json:"httpOnly"`
	Secure   bool   `json:"secure"`
}

// PostData is the archive form of a non-empty request body.
type PostData struct {
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
	Comment  string `json:"comment,omitempty"`
}

// Content is the archive form of a response body.
type Content struct {
	Size        int64  `json:"size"`
	MimeType    string `json:"mimeType"`
	Text        string `json:"text,omitempty"`
	Encoding    string `json:"encoding,omitempty"`
	Compression int64  `json:"compression,omitempty"`
}

// Cache is always empty; talkboy never models cache state.
type Cache struct{}

// Timings carries the subset of HAR timing fields talkboy can report.
// send/wait/receive are unmeasured and always -1.
type Timings struct {
	Send    int64 `json:"send"`
	Wait    int64 `json:"wait"`
	Receive int64 `json:"receive"`
}

// NewTimings returns the unmeasured Timings value written by the recorder.
func NewTimings() Timings {
	return Timings{Send: -1, Wait: -1, Receive: -1}
}

// NewLog returns an empty HAR 1.2 log with talkboy as creator.
func NewLog(creatorVersion string) Log {
	return Log{
		Version: HarVersion,
		Creator: Creator{Name: CreatorName, Version: creatorVersion},
		Entries: []Entry{},
	}
}
