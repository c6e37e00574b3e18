// Copyright 2025 UMH Systems GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package constants

import "time"

const (
	// DefaultPageSize is the number of rows kept per fetched window.
	DefaultPageSize = 20

	// DefaultRequestTimeout bounds every single backend request. There are
	// no retries anywhere in the engine; a timeout is terminal for the
	// attempt.
	DefaultRequestTimeout = 30 * time.Second

	// DefaultFilterDebounce is the pause after a filter keystroke before the
	// page is re-queried.
	DefaultFilterDebounce = 400 * time.Millisecond

	// DefaultLabelCacheTTL bounds how long a resolved identifier label may be
	// served from cache before the backend is asked again.
	DefaultLabelCacheTTL = 5 * time.Minute

	// MaxPlainTokenLen is the longest plain base64url share token the encoder
	// emits before switching to the compressed form. Chosen to keep full
	// grid URLs under common 2 KB URL-length limits.
	MaxPlainTokenLen = 1600

	// ExpectedMaxP95ExecutionTimePerEvent is the headroom SendEvent demands
	// from a context deadline before starting a session transition.
	// A transition interrupted mid-flight leaves the machine wedged, which
	// is worse than refusing to start.
	ExpectedMaxP95ExecutionTimePerEvent = 10 * time.Millisecond

	// DefaultAppVersion marks local development builds; error reporting
	// stays disabled for them.
	DefaultAppVersion = "0.0.0-dev"

	// DefaultDevelopmentEnvironment is the reporting environment used when
	// the running version carries a prerelease tag.
	DefaultDevelopmentEnvironment = "development"

	// DefaultProductionEnvironment is the reporting environment for tagged
	// release versions.
	DefaultProductionEnvironment = "production"
)
