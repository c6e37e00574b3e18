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

package sentry

import (
	"runtime/debug"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

// debounceInterval is the minimum gap between two reports of the same
// severity. A stuck backend otherwise produces one event per user action.
const debounceInterval = 2 * time.Hour

// reportFatal sends a fatal error to Sentry with a full stack trace, logs
// it, flushes, and panics. Fatals are never debounced.
func reportFatal(err error, log *zap.SugaredLogger) {
	log.Errorf("Fatal error: %s", err)
	log.Errorf("Stack trace: %s", string(debug.Stack()))

	event := createSentryEvent(sentry.LevelFatal, err)
	sendSentryEvent(event)
	sentry.Flush(time.Second * 5)

	log.Panic("Fatal error")
}

func reportFatalWithContext(err error, log *zap.SugaredLogger, context map[string]interface{}) {
	log.Errorf("Fatal error: %s", err)
	log.Errorf("Stack trace: %s", string(debug.Stack()))

	event := createSentryEventWithContext(sentry.LevelFatal, err, context)
	sendSentryEvent(event)
	sentry.Flush(time.Second * 5)

	log.Panic("Fatal error")
}

var errorLastSent = time.Now().Add(-time.Hour * 24)
var errorLastSentMutex sync.Mutex

// reportError sends an error to Sentry, debounced, and always logs it.
func reportError(err error, log *zap.SugaredLogger) {
	reportErrorWithContext(err, log, nil)
}

func reportErrorWithContext(err error, log *zap.SugaredLogger, context map[string]interface{}) {
	log.Error(err)

	errorLastSentMutex.Lock()
	defer errorLastSentMutex.Unlock()

	if shouldDebounceErrors && time.Since(errorLastSent) < debounceInterval {
		return
	}

	sendSentryEvent(createSentryEventWithContext(sentry.LevelError, err, context))
	errorLastSent = time.Now()
}

var warningLastSent = time.Now().Add(-time.Hour * 24)
var warningLastSentMutex sync.Mutex

// reportWarning sends a warning to Sentry, debounced, and always logs it.
func reportWarning(err error, log *zap.SugaredLogger) {
	reportWarningWithContext(err, log, nil)
}

func reportWarningWithContext(err error, log *zap.SugaredLogger, context map[string]interface{}) {
	log.Warn(err)

	warningLastSentMutex.Lock()
	defer warningLastSentMutex.Unlock()

	if shouldDebounceErrors && time.Since(warningLastSent) < debounceInterval {
		return
	}

	sendSentryEvent(createSentryEventWithContext(sentry.LevelWarning, err, context))
	warningLastSent = time.Now()
}
