// Playbridge - Jellyfin to Home Assistant Playback Event Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playbridge

package engine

import (
	"sync"
	"time"

	"github.com/tomtom215/playbridge/internal/metrics"
	"github.com/tomtom215/playbridge/internal/models"
)

// State is the playback sub-state of a device session.
type State string

const (
	// StatePlaying: playback is active; the last emitted state was play.
	StatePlaying State = "playing"

	// StatePendingPause: a paused notification arrived and the confirmation
	// timer is outstanding. No pause has been emitted yet.
	StatePendingPause State = "pending_pause"

	// StatePaused: the pause was confirmed real and emitted.
	StatePaused State = "paused"

	// StateEnded: media_end has been emitted for the current item. Terminal
	// with respect to media_end only; a PlaybackStop still passes through.
	StateEnded State = "ended"
)

// Session holds the mutable per-device playback state. All fields are
// guarded by mu; the debounce engine is the only writer.
type Session struct {
	mu sync.Mutex

	deviceID   string
	deviceName string
	clientName string

	itemID       string
	mediaName    string
	mediaType    string
	runTimeTicks int64

	positionTicks int64
	state         State

	// creditsTicks is the absolute credits offset resolved once per item.
	// creditsFound is false when only the percentage fallback applies.
	creditsTicks int64
	creditsFound bool

	// mediaEndEmitted is monotonic for the lifetime of the current item:
	// once true it is only reset by a new item or a new session.
	mediaEndEmitted bool

	// pauseTimer is the outstanding pause-confirmation timer, present only
	// in StatePendingPause. timerGen invalidates stale timer callbacks:
	// it is bumped on every cancellation, so a callback that lost the race
	// against Stop sees a mismatched generation and becomes a no-op.
	pauseTimer *time.Timer
	timerGen   uint64
}

// updateMeta refreshes session metadata from an inbound event. Empty
// fields never overwrite known values (Jellyfin omits metadata on some
// progress notifications).
func (s *Session) updateMeta(ev *models.InboundEvent) {
	if ev.DeviceName != "" {
		s.deviceName = ev.DeviceName
	}
	if ev.ClientName != "" {
		s.clientName = ev.ClientName
	}
	if ev.MediaName != "" {
		s.mediaName = ev.MediaName
	}
	if ev.MediaType != "" {
		s.mediaType = ev.MediaType
	}
	if ev.RunTimeTicks > 0 {
		s.runTimeTicks = ev.RunTimeTicks
	}
}

// Store owns one session per device identifier. It is safe for concurrent
// use; session-level state is protected separately by each session's mutex.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// GetOrCreate returns the session for a device, creating it if needed.
// The second return value reports whether the session was created.
func (st *Store) GetOrCreate(deviceID string) (*Session, bool) {
	st.mu.RLock()
	s, ok := st.sessions[deviceID]
	st.mu.RUnlock()
	if ok {
		return s, false
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	// Re-check under the write lock: another handler may have won the race.
	if s, ok := st.sessions[deviceID]; ok {
		return s, false
	}
	s = &Session{deviceID: deviceID, state: StatePlaying}
	st.sessions[deviceID] = s
	metrics.ActiveSessions.Set(float64(len(st.sessions)))
	return s, true
}

// Get returns the session for a device, or nil.
func (st *Store) Get(deviceID string) *Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.sessions[deviceID]
}

// Remove destroys the session for a device. Safe to call for unknown devices.
func (st *Store) Remove(deviceID string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, deviceID)
	metrics.ActiveSessions.Set(float64(len(st.sessions)))
}

// Len returns the number of tracked sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
