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

package recorder

import "errors"

// State errors returned by Commit and WriteToDir when called out of order.
var (
	ErrMissingRequest  = errors.New("recorder: missing request")
	ErrMissingResponse = errors.New("recorder: missing response")
	ErrMissingBoth     = errors.New("recorder: missing request and response")
	ErrMissingStart    = errors.New("recorder: session was never started")
	ErrEmptySession    = errors.New("recorder: session has no committed entries")
)
