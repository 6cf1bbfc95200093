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

import "errors"

// ErrInvalidHTTPVersion is returned by VersionFromString for any string
// outside the fixed bijection in the HAR 1.2 httpVersion field.
var ErrInvalidHTTPVersion = errors.New("archive: invalid HTTP version")

// ErrMalformedCookie is returned when a Cookie or Set-Cookie header cannot
// be parsed.
var ErrMalformedCookie = errors.New("archive: malformed cookie header")

// ErrInvalidHeaderName is returned by HeaderFromArchive when a stored header
// name isn't a valid RFC 7230 token.
var ErrInvalidHeaderName = errors.New("archive: invalid header name")
