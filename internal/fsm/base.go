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

// Package fsm wraps looplab/fsm with the shared plumbing every state machine
// in this repo uses: a registered enter-state callback table, a mutex around
// state reads, and context-guarded event dispatch.
package fsm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/united-manufacturing-hub/recordgrid/pkg/constants"
)

// BaseInstance implements the shared logic for FSM-driven components.
// Concrete machines (e.g. the edit session) embed this and register their
// transitions plus per-state callbacks.
type BaseInstance struct {
	cfg BaseInstanceConfig

	// mu protects concurrent access to the machine state
	mu sync.RWMutex

	// fsm is the finite state machine that manages instance state
	fsm *fsm.FSM

	// Registered "enter_state" callbacks, for side-effects on arrival.
	callbacks map[string]fsm.Callback

	// lastError is the error recorded by the most recent failed transition
	lastError error

	logger *zap.SugaredLogger
}

// BaseInstanceConfig holds parameters for setting up the base FSM.
type BaseInstanceConfig struct {
	// ID identifies the machine in logs and in stale-callback checks.
	ID string

	// InitialState is the state the machine starts in.
	InitialState string

	// Transitions are all allowed events.
	Transitions []fsm.EventDesc
}

// NewBaseInstance sets up a new FSM with the given transitions.
func NewBaseInstance(cfg BaseInstanceConfig, logger *zap.SugaredLogger) *BaseInstance {
	baseInstance := &BaseInstance{
		cfg:       cfg,
		callbacks: make(map[string]fsm.Callback),
		logger:    logger,
	}

	baseInstance.fsm = fsm.NewFSM(
		cfg.InitialState,
		fsm.Events(cfg.Transitions),
		fsm.Callbacks{
			"enter_state": func(ctx context.Context, e *fsm.Event) {
				// Call registered callback for this state if exists
				if cb, ok := baseInstance.callbacks["enter_"+e.Dst]; ok {
					cb(ctx, e)
				}
			},
		},
	)

	return baseInstance
}

// AddCallback adds a callback for a given event name, e.g. "enter_active".
func (s *BaseInstance) AddCallback(eventName string, callback fsm.Callback) {
	s.callbacks[eventName] = callback
}

// Current returns the current state of the FSM.
func (s *BaseInstance) Current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fsm.Current()
}

// Is reports whether the machine is in the given state.
func (s *BaseInstance) Is(state string) bool {
	return s.Current() == state
}

// SetCurrentState forces the machine into a state.
// This should only be called in tests.
func (s *BaseInstance) SetCurrentState(state string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fsm.SetState(state)
}

// SendEvent sends an event to the FSM.
//
// Context expiration during a transition leaves looplab's internal
// transition flag set, after which every later event fails with "previous
// transition did not complete". Refusing to start a transition on an
// already-expired or nearly-expired context avoids wedging the machine.
func (s *BaseInstance) SendEvent(ctx context.Context, eventName string, args ...interface{}) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if deadline, ok := ctx.Deadline(); ok {
		if time.Until(deadline) < constants.ExpectedMaxP95ExecutionTimePerEvent {
			return fmt.Errorf("context deadline exceeded")
		}
	}

	err := s.fsm.Event(ctx, eventName, args...)
	if err != nil {
		s.mu.Lock()
		s.lastError = err
		s.mu.Unlock()
	}
	return err
}

// Can reports whether the event can fire from the current state.
func (s *BaseInstance) Can(eventName string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fsm.Can(eventName)
}

// LastError returns the error recorded by the most recent failed transition.
func (s *BaseInstance) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

// ClearError clears the recorded transition error.
func (s *BaseInstance) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = nil
}

func (s *BaseInstance) GetID() string {
	return s.cfg.ID
}

func (s *BaseInstance) GetLogger() *zap.SugaredLogger {
	return s.logger
}
