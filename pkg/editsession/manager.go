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

package editsession

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/united-manufacturing-hub/recordgrid/pkg/logger"
	"github.com/united-manufacturing-hub/recordgrid/pkg/models"
	"github.com/united-manufacturing-hub/recordgrid/pkg/resolve"
)

// Direction is a keyboard navigation step relative to the edited cell.
type Direction int

const (
	DirNext Direction = iota
	DirPrevious
	DirUp
	DirDown
)

// Manager enforces the one-live-session contract and implements cell-to-cell
// navigation. Navigation records the next target as pending, drives the
// current session through its normal commit path, and starts the pending
// acquire only once the old session has reached idle. The indirection keeps
// a fast commit from racing a deferred cleanup handler of the old session
// into a brand-new one.
type Manager struct {
	writer   Writer
	resolver *resolve.Resolver
	hooks    Hooks
	logger   *zap.SugaredLogger

	current *Session
	pending *Target
}

// NewManager creates a Manager. hooks apply to every session it starts.
func NewManager(writer Writer, resolver *resolve.Resolver, hooks Hooks) *Manager {
	return &Manager{
		writer:   writer,
		resolver: resolver,
		hooks:    hooks,
		logger:   logger.For(logger.ComponentEditSession),
	}
}

// Active returns the live session, nil when no edit is in progress.
func (m *Manager) Active() *Session { return m.current }

// Begin starts an edit of the target cell. A still-live previous session is
// first forced through commit, so the new session never coexists with it.
// The returned session is nil when acquisition failed; the failure has
// already been surfaced through the hooks.
func (m *Manager) Begin(ctx context.Context, page *models.NormalizedPage, target Target) (*Session, error) {
	if m.current != nil && !m.current.Is(StateIdle) {
		if err := m.current.Commit(ctx); err != nil {
			return nil, err
		}
	}
	m.current = nil
	// Begin replaces whatever navigation had queued.
	m.pending = nil

	session := newSession(m.writer, m.hooks, page, target)
	m.current = session
	if err := session.acquire(ctx, m.resolver); err != nil {
		m.current = nil
		return nil, err
	}
	return session, nil
}

// Commit commits the live session and then starts any pending navigation
// target. No live session is a no-op.
func (m *Manager) Commit(ctx context.Context) error {
	return m.finish(ctx, (*Session).Commit)
}

// Cancel cancels the live session. A cancel also drops pending navigation:
// the user backed out, so jumping to the next cell would surprise.
func (m *Manager) Cancel(ctx context.Context) error {
	m.pending = nil
	return m.finish(ctx, (*Session).Cancel)
}

// Navigate records the nearest editable cell in the given direction as
// pending and commits the current session. Returns false when no editable
// cell exists in that direction; the current session is left untouched.
func (m *Manager) Navigate(ctx context.Context, dir Direction) (bool, error) {
	if m.current == nil || !m.current.Is(StateActive) {
		return false, nil
	}
	target, ok := m.nextEditable(m.current.page, m.current.target, dir)
	if !ok {
		return false, nil
	}
	m.pending = &target
	if err := m.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// CleanupFor returns a closure suitable for deferred dismissal (the
// "click elsewhere commits" timer). When it eventually runs it acts only if
// the session it was armed for is still the live one; a stale handler for a
// finished session does nothing.
func (m *Manager) CleanupFor(id uuid.UUID) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if m.current == nil || m.current.id != id || !m.current.Is(StateActive) {
			m.logger.Debugf("Skipping stale cleanup for session %s", id)
			return nil
		}
		return m.Commit(ctx)
	}
}

// finish runs end (commit or cancel) on the live session, then, once it has
// reached idle, immediately acquires the pending navigation target if one
// was recorded.
func (m *Manager) finish(ctx context.Context, end func(*Session, context.Context) error) error {
	session := m.current
	if session == nil || session.Is(StateIdle) {
		m.current = nil
		return nil
	}

	err := end(session, ctx)

	// A warning-class rejection keeps the session active and the form
	// open; pending navigation stays queued for the eventual resolution.
	if !session.Is(StateIdle) {
		return err
	}
	m.current = nil

	if m.pending != nil {
		target := *m.pending
		m.pending = nil
		if _, beginErr := m.Begin(ctx, session.page, target); beginErr != nil && err == nil {
			err = beginErr
		}
	}
	return err
}

// nextEditable scans for the nearest editable cell in the given direction.
// Next and Previous walk row-major across all columns; Up and Down stay in
// the edited column.
func (m *Manager) nextEditable(page *models.NormalizedPage, from Target, dir Direction) (Target, bool) {
	colIdx := page.ColumnIndex(from.ColumnID)
	if colIdx < 0 {
		return Target{}, false
	}

	switch dir {
	case DirUp, DirDown:
		step := -1
		if dir == DirDown {
			step = 1
		}
		for row := from.RowIndex + step; row >= 0 && row < len(page.Rows); row += step {
			if m.resolver.Editable(page, from.ColumnID, row) {
				return Target{ColumnID: from.ColumnID, RowIndex: row}, true
			}
		}
		return Target{}, false

	default:
		step := 1
		if dir == DirPrevious {
			step = -1
		}
		row, col := from.RowIndex, colIdx
		for {
			col += step
			if col >= len(page.Columns) {
				col = 0
				row++
			} else if col < 0 {
				col = len(page.Columns) - 1
				row--
			}
			if row < 0 || row >= len(page.Rows) {
				return Target{}, false
			}
			id := page.Columns[col].ID
			if m.resolver.Editable(page, id, row) {
				return Target{ColumnID: id, RowIndex: row}, true
			}
		}
	}
}
