// Playbridge - Jellyfin to Home Assistant Playback Event Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playbridge

package chapters

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/tomtom215/playbridge/internal/jellyfin"
)

type fakeClient struct {
	item  *jellyfin.Item
	err   error
	calls atomic.Int64
}

func (f *fakeClient) Ping(_ context.Context) error {
	return nil
}

func (f *fakeClient) GetItem(_ context.Context, _ string) (*jellyfin.Item, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.item, nil
}

func TestResolveCreditsChapter(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		item: &jellyfin.Item{
			ID: "item-1",
			Chapters: []jellyfin.Chapter{
				{Name: "Opening", StartPositionTicks: 0},
				{Name: "Act Two", StartPositionTicks: 10_000_000_000},
				{Name: "End Credits", StartPositionTicks: 50_000_000_000},
			},
		},
	}
	r := NewResolver(client)

	ticks, found := r.ResolveCreditsOffset(context.Background(), "item-1")
	if !found {
		t.Fatal("found = false, want true")
	}
	if ticks != 50_000_000_000 {
		t.Errorf("ticks = %d, want 50000000000", ticks)
	}
}

func TestResolveNoCreditsChapter(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		item: &jellyfin.Item{
			ID: "item-1",
			Chapters: []jellyfin.Chapter{
				{Name: "Chapter 1", StartPositionTicks: 0},
				{Name: "Chapter 2", StartPositionTicks: 10_000_000_000},
			},
		},
	}
	r := NewResolver(client)

	if _, found := r.ResolveCreditsOffset(context.Background(), "item-1"); found {
		t.Error("found = true for item without credits chapter")
	}
}

func TestResolveCachesResults(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		item: &jellyfin.Item{
			ID:       "item-1",
			Chapters: []jellyfin.Chapter{{Name: "Credits", StartPositionTicks: 7}},
		},
	}
	r := NewResolver(client)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, found := r.ResolveCreditsOffset(ctx, "item-1"); !found {
			t.Fatal("found = false")
		}
	}
	if got := client.calls.Load(); got != 1 {
		t.Errorf("GetItem calls = %d, want 1", got)
	}
}

func TestResolveCachesErrors(t *testing.T) {
	t.Parallel()

	client := &fakeClient{err: errors.New("connection refused")}
	r := NewResolver(client)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, found := r.ResolveCreditsOffset(ctx, "item-1"); found {
			t.Fatal("found = true after lookup error")
		}
	}
	// A flapping media server is queried once per item, not once per
	// progress notification.
	if got := client.calls.Load(); got != 1 {
		t.Errorf("GetItem calls = %d, want 1", got)
	}
}

func TestResolveNilClient(t *testing.T) {
	t.Parallel()

	r := NewResolver(nil)
	if _, found := r.ResolveCreditsOffset(context.Background(), "item-1"); found {
		t.Error("found = true with nil client")
	}
}

func TestResolveEmptyItemID(t *testing.T) {
	t.Parallel()

	client := &fakeClient{item: &jellyfin.Item{}}
	r := NewResolver(client)

	if _, found := r.ResolveCreditsOffset(context.Background(), ""); found {
		t.Error("found = true for empty item ID")
	}
	if got := client.calls.Load(); got != 0 {
		t.Errorf("GetItem calls = %d, want 0", got)
	}
}

func TestFindCreditsChapterLabels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		chapter   string
		wantFound bool
	}{
		{"english", "End Credits", true},
		{"bare credits", "Credits", true},
		{"case insensitive", "CREDITS", true},
		{"whitespace", "  credits  ", true},
		{"german", "Abspann", true},
		{"french", "Générique", true},
		{"italian", "Titoli di coda", true},
		{"spanish", "Créditos", true},
		{"outro", "Outro", true},
		{"substring is not a match", "Credits Roll Soon", false},
		{"unrelated", "Chapter 12", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ticks, found := findCreditsChapter([]jellyfin.Chapter{
				{Name: tt.chapter, StartPositionTicks: 42},
			})
			if found != tt.wantFound {
				t.Errorf("found = %v, want %v", found, tt.wantFound)
			}
			if found && ticks != 42 {
				t.Errorf("ticks = %d, want 42", ticks)
			}
		})
	}
}

func TestFindCreditsChapterTakesFirstMatch(t *testing.T) {
	t.Parallel()

	ticks, found := findCreditsChapter([]jellyfin.Chapter{
		{Name: "Intro", StartPositionTicks: 0},
		{Name: "Credits", StartPositionTicks: 100},
		{Name: "End Credits", StartPositionTicks: 200},
	})
	if !found || ticks != 100 {
		t.Errorf("ticks, found = %d, %v; want 100, true", ticks, found)
	}
}
