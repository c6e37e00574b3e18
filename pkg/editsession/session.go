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

// Package editsession coordinates a single in-place cell edit as a state
// machine: acquiring the write target, holding the live draft, and driving
// commit or cancel to completion. At most one session is live at any time;
// the Manager enforces that by construction.
package editsession

import (
	"context"

	"github.com/google/uuid"
	looplabfsm "github.com/looplab/fsm"
	"go.uber.org/zap"

	internalfsm "github.com/united-manufacturing-hub/recordgrid/internal/fsm"
	"github.com/united-manufacturing-hub/recordgrid/pkg/griderrors"
	"github.com/united-manufacturing-hub/recordgrid/pkg/logger"
	"github.com/united-manufacturing-hub/recordgrid/pkg/metrics"
	"github.com/united-manufacturing-hub/recordgrid/pkg/models"
	"github.com/united-manufacturing-hub/recordgrid/pkg/resolve"
)

// Session states.
const (
	StateIdle       = "idle"
	StateAcquiring  = "acquiring"
	StateActive     = "active"
	StateCommitting = "committing"
	StateCancelling = "cancelling"
)

// Session events.
const (
	eventAcquire       = "acquire"
	eventAcquired      = "acquired"
	eventAcquireFailed = "acquire_failed"
	eventCommit        = "commit"
	eventCancel        = "cancel"
	eventCommitFailed  = "commit_failed"
	eventWarned        = "warned"
	eventDone          = "done"
)

// Edit outcome labels for metrics.
const (
	outcomeCommitted = "committed"
	outcomeCancelled = "cancelled"
	outcomeNoop      = "noop"
	outcomeRejected  = "rejected"
	outcomeWarned    = "warned"
)

// Target names the cell a session edits.
type Target struct {
	ColumnID string
	RowIndex int
}

// Writer issues the actual record writes. The primary value and secondary
// attributes of a record go to different endpoints.
type Writer interface {
	WritePrimary(ctx context.Context, recordTypeID, recordID, value string) error
	WriteSecondary(ctx context.Context, recordTypeID, recordID, columnID, value string) error
}

// Hooks are the view-facing side effects of a session. All optional.
type Hooks struct {
	// OnApplied fires after a successful commit; the caller folds the value
	// into its row set.
	OnApplied func(t Target, value string)
	// OnRestored fires when a cancel (or failed commit) puts the pre-edit
	// value back, including any display formatting the view had applied.
	OnRestored func(t Target, value string)
	// OnWarning fires for warning-class rejections; the form stays open.
	OnWarning func(t Target, rejection *griderrors.WriteRejected)
	// OnError fires for every other terminal failure of the attempt.
	OnError func(t Target, err error)
}

// Session is one live cell edit. Create it through a Manager.
type Session struct {
	*internalfsm.BaseInstance

	id     uuid.UUID
	writer Writer
	hooks  Hooks
	logger *zap.SugaredLogger

	page       *models.NormalizedPage
	target     Target
	resolution resolve.Resolution

	preEdit string
	draft   string

	// warning is the last warning-class rejection, kept while the form
	// stays open so the view can show it next to the conflicting record.
	warning *griderrors.WriteRejected
}

func newSession(writer Writer, hooks Hooks, page *models.NormalizedPage, target Target) *Session {
	id := uuid.New()
	s := &Session{
		id:     id,
		writer: writer,
		hooks:  hooks,
		logger: logger.For(logger.ComponentEditSession),
		page:   page,
		target: target,
	}
	s.BaseInstance = internalfsm.NewBaseInstance(internalfsm.BaseInstanceConfig{
		ID:           id.String(),
		InitialState: StateIdle,
		Transitions: []looplabfsm.EventDesc{
			{Name: eventAcquire, Src: []string{StateIdle}, Dst: StateAcquiring},
			{Name: eventAcquired, Src: []string{StateAcquiring}, Dst: StateActive},
			{Name: eventAcquireFailed, Src: []string{StateAcquiring}, Dst: StateIdle},
			{Name: eventCommit, Src: []string{StateActive}, Dst: StateCommitting},
			{Name: eventCancel, Src: []string{StateActive}, Dst: StateCancelling},
			{Name: eventCommitFailed, Src: []string{StateCommitting}, Dst: StateCancelling},
			{Name: eventWarned, Src: []string{StateCommitting}, Dst: StateActive},
			{Name: eventDone, Src: []string{StateCommitting, StateCancelling}, Dst: StateIdle},
		},
	}, s.logger)
	return s
}

// ID identifies the session. Deferred cleanup handlers compare it against
// the manager's live session before acting, so a handler armed for an
// already-finished session never touches its successor.
func (s *Session) ID() uuid.UUID { return s.id }

// Target returns the cell this session edits.
func (s *Session) Target() Target { return s.target }

// Resolution returns the resolved write target.
func (s *Session) Resolution() resolve.Resolution { return s.resolution }

// PreEditValue is the cell value captured when the session went active.
func (s *Session) PreEditValue() string { return s.preEdit }

// Draft returns the current draft value.
func (s *Session) Draft() string { return s.draft }

// SetDraft replaces the draft value. Editing the draft clears any pending
// warning; the next commit attempt starts clean.
func (s *Session) SetDraft(value string) {
	s.draft = value
	s.warning = nil
}

// Warning returns the warning-class rejection keeping the form open, if any.
func (s *Session) Warning() *griderrors.WriteRejected { return s.warning }

// acquire resolves the write target and moves the session to active,
// capturing the pre-edit value. On resolution failure the session returns
// to idle and the error surfaces to the caller; no write was attempted.
func (s *Session) acquire(ctx context.Context, resolver *resolve.Resolver) error {
	if err := s.SendEvent(ctx, eventAcquire); err != nil {
		return err
	}

	resolution, err := resolver.Resolve(s.page, s.target.ColumnID, s.target.RowIndex)
	if err != nil {
		s.logger.Infof("Edit of %s/%d not acquirable: %v", s.target.ColumnID, s.target.RowIndex, err)
		if sendErr := s.SendEvent(ctx, eventAcquireFailed); sendErr != nil {
			return sendErr
		}
		if s.hooks.OnError != nil {
			s.hooks.OnError(s.target, err)
		}
		return err
	}

	cell, _ := s.page.Cell(s.target.RowIndex, s.target.ColumnID)
	s.resolution = resolution
	s.preEdit = cell
	s.draft = cell
	return s.SendEvent(ctx, eventAcquired)
}

// Commit drives the session through the commit path. An unchanged draft
// short-circuits to cancel, a no-op write is wasted work. A warning-class
// rejection returns the session to active with the draft intact; any other
// failure restores the pre-edit value and ends the session.
func (s *Session) Commit(ctx context.Context) error {
	if s.draft == s.preEdit {
		metrics.IncEditOutcome(outcomeNoop)
		return s.cancelFrom(ctx, eventCancel)
	}

	if err := s.SendEvent(ctx, eventCommit); err != nil {
		return err
	}

	err := s.write(ctx)
	if err == nil {
		metrics.IncEditOutcome(outcomeCommitted)
		if s.hooks.OnApplied != nil {
			s.hooks.OnApplied(s.target, s.draft)
		}
		return s.SendEvent(ctx, eventDone)
	}

	if griderrors.IsWarning(err) {
		// The write was delivered but the backend answered with a warning.
		// Keep the form open with the user's input; the view shows the
		// warning and the conflicting record, if one was named.
		var rejection *griderrors.WriteRejected
		if wr, ok := err.(*griderrors.WriteRejected); ok {
			rejection = wr
		}
		s.warning = rejection
		metrics.IncEditOutcome(outcomeWarned)
		s.logger.Warnf("Write for %s/%d warned: %v", s.target.ColumnID, s.target.RowIndex, err)
		if s.hooks.OnWarning != nil {
			s.hooks.OnWarning(s.target, rejection)
		}
		return s.SendEvent(ctx, eventWarned)
	}

	metrics.IncEditOutcome(outcomeRejected)
	metrics.IncErrorCount(metrics.ComponentEditSession, s.id.String())
	s.logger.Warnf("Write for %s/%d failed: %v", s.target.ColumnID, s.target.RowIndex, err)
	if s.hooks.OnError != nil {
		s.hooks.OnError(s.target, err)
	}
	if sendErr := s.cancelFrom(ctx, eventCommitFailed); sendErr != nil {
		return sendErr
	}
	return err
}

// Cancel discards the draft and restores the pre-edit display exactly.
func (s *Session) Cancel(ctx context.Context) error {
	metrics.IncEditOutcome(outcomeCancelled)
	return s.cancelFrom(ctx, eventCancel)
}

// cancelFrom runs the cancelling leg starting with the given event.
func (s *Session) cancelFrom(ctx context.Context, event string) error {
	if err := s.SendEvent(ctx, event); err != nil {
		return err
	}
	if s.hooks.OnRestored != nil {
		s.hooks.OnRestored(s.target, s.preEdit)
	}
	return s.SendEvent(ctx, eventDone)
}

// write dispatches to the endpoint the resolution kind demands.
func (s *Session) write(ctx context.Context) error {
	switch s.resolution.Kind {
	case resolve.KindPrimary:
		return s.writer.WritePrimary(ctx, s.resolution.RecordTypeID, s.resolution.RecordID, s.draft)
	case resolve.KindLink:
		// A reference edit rewrites the linking attribute, addressed
		// through the record that owns the link.
		return s.writer.WriteSecondary(ctx, s.page.TypeID, s.resolution.OwnerRecordID, s.target.ColumnID, s.draft)
	default:
		return s.writer.WriteSecondary(ctx, s.resolution.RecordTypeID, s.resolution.RecordID, s.target.ColumnID, s.draft)
	}
}
