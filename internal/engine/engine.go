// Playbridge - Jellyfin to Home Assistant Playback Event Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playbridge

// Package engine implements the per-device playback state machine that
// turns raw Jellyfin notifications into debounced derived events.
//
// The engine tracks one session per device. Pause notifications are held
// back by a confirmation timer so that the pause/resume pairs Jellyfin
// produces around seeks never reach Home Assistant. Credits detection
// runs after every positional update and emits media_end at most once
// per item, using chapter offsets when the item has usable chapter marks
// and a runtime percentage threshold otherwise.
package engine

import (
	"context"
	"time"

	"github.com/tomtom215/playbridge/internal/logging"
	"github.com/tomtom215/playbridge/internal/metrics"
	"github.com/tomtom215/playbridge/internal/models"
)

// CreditsResolver resolves the absolute credits start offset for an item.
// The boolean reports whether a usable chapter mark was found; when false
// the engine falls back to the percentage threshold.
type CreditsResolver interface {
	ResolveCreditsOffset(ctx context.Context, itemID string) (int64, bool)
}

// Publisher accepts derived events for delivery. Publish failures are
// logged by the engine and never fed back into state transitions.
type Publisher interface {
	PublishDerived(ctx context.Context, ev *models.DerivedEvent) error
}

// Config holds the tunable debounce parameters.
type Config struct {
	// PauseDebounce is how long a pause must persist before it is real.
	PauseDebounce time.Duration

	// CreditsThresholdPct is the runtime percentage fallback for items
	// without usable chapter marks.
	CreditsThresholdPct float64
}

// Engine is the debounce state machine. One instance serves all devices;
// per-device state lives in the session store and is guarded by each
// session's own mutex, so devices never block each other.
type Engine struct {
	cfg       Config
	store     *Store
	resolver  CreditsResolver
	publisher Publisher
}

// New creates a debounce engine. resolver may be nil, in which case
// credits detection uses the percentage fallback exclusively.
func New(cfg Config, store *Store, resolver CreditsResolver, publisher Publisher) *Engine {
	return &Engine{
		cfg:       cfg,
		store:     store,
		resolver:  resolver,
		publisher: publisher,
	}
}

// ActiveSessions returns the number of devices currently tracked.
func (e *Engine) ActiveSessions() int {
	return e.store.Len()
}

// HandleEvent runs one inbound notification through the state machine.
// It never returns an error: malformed or unexpected input is absorbed,
// matching the at-most-once emission contract.
func (e *Engine) HandleEvent(ctx context.Context, ev *models.InboundEvent) {
	switch ev.Type {
	case models.NotificationPlaybackStart:
		e.handleStart(ctx, ev)
	case models.NotificationPlaybackProgress:
		e.handleProgress(ctx, ev)
	case models.NotificationPlaybackStop:
		e.handleStop(ctx, ev)
	}
}

func (e *Engine) handleStart(ctx context.Context, ev *models.InboundEvent) {
	s, _ := e.store.GetOrCreate(ev.DeviceID)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.updateMeta(ev)
	s.positionTicks = ev.PositionTicks
	e.beginItem(ctx, s, ev.ItemID)
}

func (e *Engine) handleProgress(ctx context.Context, ev *models.InboundEvent) {
	s, created := e.store.GetOrCreate(ev.DeviceID)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.updateMeta(ev)
	s.positionTicks = ev.PositionTicks

	// A progress for an unseen device, or for a different item on a known
	// device, means we missed the start. Treat it as a fresh playback.
	if created || (ev.ItemID != "" && ev.ItemID != s.itemID) {
		e.beginItem(ctx, s, ev.ItemID)
		e.checkCredits(ctx, s)
		return
	}

	if ev.IsPaused {
		if s.state == StatePlaying {
			e.startPauseTimer(s)
		}
		// PendingPause, Paused and Ended absorb repeated paused progress.
	} else {
		switch s.state {
		case StatePendingPause:
			// The pause reversed itself inside the debounce window: a
			// seek artifact. Return to Playing without emitting; play
			// is still the last state Home Assistant saw.
			e.cancelPauseTimer(s)
			s.state = StatePlaying
			metrics.SeekArtifactsTotal.Inc()
			logging.Debug().
				Str("device_id", s.deviceID).
				Msg("Seek artifact suppressed")
		case StatePaused:
			s.state = StatePlaying
			e.emit(ctx, s, models.EventPlay)
		}
		// Playing and Ended need no transition.
	}

	e.checkCredits(ctx, s)
}

func (e *Engine) handleStop(ctx context.Context, ev *models.InboundEvent) {
	s, _ := e.store.GetOrCreate(ev.DeviceID)
	s.mu.Lock()
	s.updateMeta(ev)
	s.positionTicks = ev.PositionTicks
	e.cancelPauseTimer(s)
	// PlaybackStop passes through unconditionally, even right after
	// media_end: Home Assistant distinguishes "credits reached" from
	// "player went away".
	e.emit(ctx, s, models.EventPlaybackStop)
	s.mu.Unlock()

	e.store.Remove(ev.DeviceID)
	logging.Debug().
		Str("device_id", ev.DeviceID).
		Msg("Session destroyed")
}

// beginItem resets the session for a (possibly new) item: credits are
// re-resolved, the media_end latch clears, and a play is emitted. Caller
// holds the session lock.
func (e *Engine) beginItem(ctx context.Context, s *Session, itemID string) {
	e.cancelPauseTimer(s)
	s.itemID = itemID
	s.mediaEndEmitted = false
	s.creditsTicks = 0
	s.creditsFound = false
	if e.resolver != nil && itemID != "" {
		s.creditsTicks, s.creditsFound = e.resolver.ResolveCreditsOffset(ctx, itemID)
	}
	s.state = StatePlaying
	e.emit(ctx, s, models.EventPlay)
}

// startPauseTimer moves the session into PendingPause and arms the
// confirmation timer. Caller holds the session lock.
func (e *Engine) startPauseTimer(s *Session) {
	s.state = StatePendingPause
	s.timerGen++
	gen := s.timerGen
	metrics.PendingPauseTimers.Inc()
	s.pauseTimer = time.AfterFunc(e.cfg.PauseDebounce, func() {
		e.confirmPause(s, gen)
	})
}

// cancelPauseTimer stops any outstanding confirmation timer and bumps the
// generation so a callback that already fired but has not yet acquired the
// lock becomes a no-op. Caller holds the session lock.
func (e *Engine) cancelPauseTimer(s *Session) {
	if s.pauseTimer != nil {
		s.pauseTimer.Stop()
		s.pauseTimer = nil
		metrics.PendingPauseTimers.Dec()
	}
	s.timerGen++
}

// confirmPause is the timer callback: the pause outlived the debounce
// window, so it is real.
func (e *Engine) confirmPause(s *Session, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePendingPause || gen != s.timerGen {
		// Canceled or superseded while this callback waited for the lock.
		return
	}
	s.pauseTimer = nil
	metrics.PendingPauseTimers.Dec()
	s.state = StatePaused
	e.emit(context.Background(), s, models.EventPause)
}

// checkCredits emits media_end when the current position has entered the
// credits region. Runs after the pause-state handling so that on a resume
// into credits the play precedes the media_end. Caller holds the session
// lock.
func (e *Engine) checkCredits(ctx context.Context, s *Session) {
	if s.mediaEndEmitted {
		return
	}
	if s.state != StatePlaying && s.state != StatePaused {
		return
	}

	reached := false
	if s.creditsFound && s.creditsTicks > 0 {
		reached = s.positionTicks >= s.creditsTicks
	} else if s.runTimeTicks > 0 {
		pct := float64(s.positionTicks) / float64(s.runTimeTicks) * 100
		reached = pct >= e.cfg.CreditsThresholdPct
	}
	if !reached {
		return
	}

	e.cancelPauseTimer(s)
	s.mediaEndEmitted = true
	s.state = StateEnded
	e.emit(ctx, s, models.EventMediaEnd)
}

// emit builds and publishes a derived event from the session's current
// state. Caller holds the session lock.
func (e *Engine) emit(ctx context.Context, s *Session, event string) {
	derived := &models.DerivedEvent{
		Event:       event,
		Device:      s.deviceName,
		Client:      s.clientName,
		Media:       s.mediaName,
		MediaType:   s.mediaType,
		PositionPct: models.PositionPercent(s.positionTicks, s.runTimeTicks),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}

	metrics.DerivedEventsTotal.WithLabelValues(event).Inc()
	logging.Info().
		Str("event", event).
		Str("device", s.deviceName).
		Str("media", s.mediaName).
		Float64("position_pct", derived.PositionPct).
		Msg("Derived event")

	if err := e.publisher.PublishDerived(ctx, derived); err != nil {
		logging.Error().
			Err(err).
			Str("event", event).
			Str("device", s.deviceName).
			Msg("Failed to publish derived event")
	}
}
