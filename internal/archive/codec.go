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

import (
	"encoding/base64"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/net/http/httpguts"
)

// HTTPVersion is the fixed bijection of HTTP versions the archive format
// knows about.
type HTTPVersion int

const (
	HTTP09 HTTPVersion = iota
	HTTP10
	HTTP11
	HTTP2
)

// VersionToString renders an HTTPVersion the way HAR expects it.
func VersionToString(v HTTPVersion) string {
	switch v {
	case HTTP09:
		return "HTTP/0.9"
	case HTTP10:
		return "HTTP/1.0"
	case HTTP11:
		return "HTTP/1.1"
	case HTTP2:
		return "HTTP/2"
	default:
		return ""
	}
}

// VersionFromString parses an archive httpVersion field back into the fixed
// bijection, failing on anything outside the known set.
func VersionFromString(s string) (HTTPVersion, error) {
	switch strings.ToUpper(s) {
	case "HTTP/0.9":
		return HTTP09, nil
	case "HTTP/1.0":
		return HTTP10, nil
	case "HTTP/1.1":
		return HTTP11, nil
	case "HTTP/2":
		return HTTP2, nil
	default:
		return 0, errors.Wrapf(ErrInvalidHTTPVersion, "%q", s)
	}
}

// VersionFromProto maps the wire form Go's net/http puts in Request.Proto
// or Response.Proto ("HTTP/1.1", "HTTP/2.0", ...) to an HTTPVersion.
func VersionFromProto(proto string) (HTTPVersion, error) {
	switch strings.ToUpper(proto) {
	case "HTTP/0.9":
		return HTTP09, nil
	case "HTTP/1.0":
		return HTTP10, nil
	case "HTTP/1.1":
		return HTTP11, nil
	case "HTTP/2.0", "HTTP/2":
		return HTTP2, nil
	default:
		return 0, errors.Wrapf(ErrInvalidHTTPVersion, "%q", proto)
	}
}

// VersionToProto is the inverse of VersionFromProto, used when replaying a
// stored version onto a live http.Response.
func VersionToProto(v HTTPVersion) string {
	if v == HTTP2 {
		return "HTTP/2.0"
	}
	return VersionToString(v)
}

// maybeEncode is the shared text/binary discrimination rule: bytes that are
// valid UTF-8 are stored verbatim, everything else is base64-encoded and
// flagged. decode(encode(b)) == b holds for every byte sequence.
func maybeEncode(b []byte) (text string, base64Encoded bool) {
	if utf8.Valid(b) {
		return string(b), false
	}
	return base64.StdEncoding.EncodeToString(b), true
}

func maybeDecode(text string, isBase64 bool) ([]byte, error) {
	if !isBase64 {
		return []byte(text), nil
	}
	b, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, errors.Wrap(err, "archive: invalid base64 payload")
	}
	return b, nil
}

// HeaderToArchive converts one raw header name/value pair to its archive
// form, base64-encoding the value when it is not valid UTF-8.
func HeaderToArchive(name string, value []byte) NVP {
	text, encoded := maybeEncode(value)
	nvp := NVP{Name: name, Value: text}
	if encoded {
		nvp.Comment = "base64"
	}
	return nvp
}

// HeaderFromArchive reconstructs the raw header name/value pair from its
// archive form. The name is lowercased, matching header case-insensitivity;
// the value bytes are installed verbatim after base64 decoding. An archive
// file can be hand-edited or come from a foreign recorder, so the name is
// validated against RFC 7230 token rules and rejected with
// ErrInvalidHeaderName before it's handed to net/http, which would
// otherwise store the malformed name unchanged.
func HeaderFromArchive(h NVP) (name string, value []byte, err error) {
	if !httpguts.ValidHeaderFieldName(h.Name) {
		return "", nil, errors.Wrapf(ErrInvalidHeaderName, "%q", h.Name)
	}
	value, err = maybeDecode(h.Value, h.Comment == "base64")
	if err != nil {
		return "", nil, err
	}
	return strings.ToLower(h.Name), value, nil
}

// RequestBodyToArchive builds the PostData for a non-empty request body, or
// nil when the body is empty.
func RequestBodyToArchive(body []byte, mimeType string) *PostData {
	if len(body) == 0 {
		return nil
	}
	text, encoded := maybeEncode(body)
	pd := &PostData{MimeType: mimeType, Text: text}
	if encoded {
		pd.Comment = "base64"
	}
	return pd
}

// RequestBodyFromArchive recovers the raw body bytes and mime type from a
// PostData. A nil PostData yields an empty body.
func RequestBodyFromArchive(p *PostData) (body []byte, mimeType string, err error) {
	if p == nil {
		return []byte{}, "", nil
	}
	body, err = maybeDecode(p.Text, p.Comment == "base64")
	if err != nil {
		return nil, "", err
	}
	return body, p.MimeType, nil
}

// ResponseBodyToArchive builds the Content for a response body. size is the
// exact byte length of the original body regardless of encoding.
func ResponseBodyToArchive(body []byte, mimeType string) Content {
	c := Content{Size: int64(len(body)), MimeType: mimeType}
	if len(body) == 0 {
		return c
	}
	text, encoded := maybeEncode(body)
	c.Text = text
	if encoded {
		c.Encoding = "base64"
	}
	return c
}

// ResponseBodyFromArchive recovers the raw body bytes from a Content. The
// mime type is returned for completeness but callers reconstructing a live
// response should prefer the stored Content-Type header when one exists.
func ResponseBodyFromArchive(c Content) (body []byte, mimeType string, err error) {
	if c.Text == "" {
		return []byte{}, c.MimeType, nil
	}
	body, err = maybeDecode(c.Text, c.Encoding == "base64")
	if err != nil {
		return nil, "", err
	}
	return body, c.MimeType, nil
}

func cookieToArchive(c *http.Cookie) Cookie {
	ac := Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Path:     c.Path,
		Domain:   c.Domain,
		HTTPOnly: c.HttpOnly,
		Secure:   c.Secure,
	}
	if !c.Expires.IsZero() {
		ac.Expires = c.Expires.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return ac
}

// ClientCookiesFromHeaders parses every Cookie header into individual
// cookies, splitting each header value on "; ".
func ClientCookiesFromHeaders(h http.Header) ([]Cookie, error) {
	var cookies []Cookie
	for _, line := range h.Values("Cookie") {
		for _, part := range strings.Split(line, "; ") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			parsed, err := http.ParseCookie(part)
			if err != nil || len(parsed) == 0 {
				return nil, errors.Wrapf(ErrMalformedCookie, "cookie fragment %q", part)
			}
			cookies = append(cookies, cookieToArchive(parsed[0]))
		}
	}
	if cookies == nil {
		cookies = []Cookie{}
	}
	return cookies, nil
}

// ServerCookiesFromHeaders parses every Set-Cookie header, one cookie per
// header value.
func ServerCookiesFromHeaders(h http.Header) ([]Cookie, error) {
	var cookies []Cookie
	for _, line := range h.Values("Set-Cookie") {
		c, err := http.ParseSetCookie(line)
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedCookie, "set-cookie %q", line)
		}
		cookies = append(cookies, cookieToArchive(c))
	}
	if cookies == nil {
		cookies = []Cookie{}
	}
	return cookies, nil
}

// QueryToList parses a raw query string into name/value pairs without any
// percent-decoding: splitting on '&' then each pair on the first '='. A
// pair with no '=' yields an empty value.
func QueryToList(rawQuery string) []NVP {
	result := []NVP{}
	if rawQuery == "" {
		return result
	}
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		name, value, found := strings.Cut(pair, "=")
		if !found {
			value = ""
		}
		result = append(result, NVP{Name: name, Value: value})
	}
	return result
}

// HeadersToArchive converts an http.Header into its archive form,
// preserving duplicate values. http.Header has no defined order, so the
// caller supplies the name order: values of a single name keep their order
// within h, and names appear in the order of names.
func HeadersToArchive(names []string, h http.Header) []NVP {
	result := []NVP{}
	for _, name := range names {
		for _, v := range h.Values(name) {
			result = append(result, HeaderToArchive(name, []byte(v)))
		}
	}
	return result
}
