// Playbridge - Jellyfin to Home Assistant Playback Event Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playbridge

package engine

import (
	"sync"
	"testing"

	"github.com/tomtom215/playbridge/internal/models"
)

func TestStoreGetOrCreate(t *testing.T) {
	t.Parallel()

	st := NewStore()

	s1, created := st.GetOrCreate("dev-1")
	if !created {
		t.Error("first GetOrCreate: created = false, want true")
	}
	if s1 == nil {
		t.Fatal("first GetOrCreate returned nil session")
	}

	s2, created := st.GetOrCreate("dev-1")
	if created {
		t.Error("second GetOrCreate: created = true, want false")
	}
	if s1 != s2 {
		t.Error("GetOrCreate returned different sessions for same device")
	}
	if st.Len() != 1 {
		t.Errorf("Len = %d, want 1", st.Len())
	}
}

func TestStoreRemove(t *testing.T) {
	t.Parallel()

	st := NewStore()
	st.GetOrCreate("dev-1")
	st.Remove("dev-1")

	if st.Get("dev-1") != nil {
		t.Error("Get after Remove returned a session")
	}
	if st.Len() != 0 {
		t.Errorf("Len = %d, want 0", st.Len())
	}

	// Removing an unknown device is a no-op.
	st.Remove("never-seen")
}

func TestStoreConcurrentGetOrCreate(t *testing.T) {
	t.Parallel()

	st := NewStore()
	sessions := make([]*Session, 50)

	var wg sync.WaitGroup
	for i := range sessions {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			sessions[n], _ = st.GetOrCreate("dev-1")
		}(i)
	}
	wg.Wait()

	for i, s := range sessions {
		if s != sessions[0] {
			t.Fatalf("goroutine %d got a different session instance", i)
		}
	}
	if st.Len() != 1 {
		t.Errorf("Len = %d, want 1", st.Len())
	}
}

func TestSessionUpdateMetaKeepsKnownValues(t *testing.T) {
	t.Parallel()

	s := &Session{}
	s.updateMeta(&models.InboundEvent{
		DeviceName:   "Living Room TV",
		ClientName:   "Jellyfin Media Player",
		MediaName:    "Some Movie",
		MediaType:    "Movie",
		RunTimeTicks: 100,
	})

	// Sparse progress payloads must not erase metadata.
	s.updateMeta(&models.InboundEvent{})

	if s.deviceName != "Living Room TV" {
		t.Errorf("deviceName = %q", s.deviceName)
	}
	if s.clientName != "Jellyfin Media Player" {
		t.Errorf("clientName = %q", s.clientName)
	}
	if s.mediaName != "Some Movie" {
		t.Errorf("mediaName = %q", s.mediaName)
	}
	if s.runTimeTicks != 100 {
		t.Errorf("runTimeTicks = %d", s.runTimeTicks)
	}
}
