// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

package supervisor

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/slbailey/retrovue/internal/models"
)

func newTestTree(t *testing.T) *SupervisorTree {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	tree, err := NewSupervisorTree(logger, TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   time.Second,
		ShutdownTimeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("failed to create tree: %v", err)
	}
	return tree
}

func TestChannelSupervisorConstruction(t *testing.T) {
	if _, err := NewChannelSupervisor(nil); err != ErrNilSupervisorTree {
		t.Errorf("expected ErrNilSupervisorTree, got %v", err)
	}

	cs, err := NewChannelSupervisor(newTestTree(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs == nil {
		t.Fatal("expected non-nil supervisor")
	}
}

func TestChannelSupervisorAddChannel(t *testing.T) {
	tree := newTestTree(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go tree.Serve(ctx)

	cs, err := NewChannelSupervisor(tree)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	chanMeta := models.Channel{ID: "ch-1", Name: "Channel One"}
	playlog := NewMockService("playlog-ch-1")
	channelMgr := NewMockService("channel-manager-ch-1")

	if err := cs.AddChannel(ctx, chanMeta, playlog, channelMgr); err != nil {
		t.Fatalf("AddChannel failed: %v", err)
	}

	if err := cs.AddChannel(ctx, chanMeta, playlog); err != ErrChannelAlreadyExists {
		t.Errorf("expected ErrChannelAlreadyExists, got %v", err)
	}

	if !cs.IsChannelRunning("ch-1") {
		t.Error("expected channel to be running")
	}

	status, err := cs.GetChannelStatus("ch-1")
	if err != nil {
		t.Fatalf("GetChannelStatus failed: %v", err)
	}
	if status.ServiceCount != 2 {
		t.Errorf("expected 2 services, got %d", status.ServiceCount)
	}
}

func TestChannelSupervisorAddChannelRequiresServices(t *testing.T) {
	cs, err := NewChannelSupervisor(newTestTree(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := cs.AddChannel(context.Background(), models.Channel{ID: "ch-1"}); err != ErrNoChannelServices {
		t.Errorf("expected ErrNoChannelServices, got %v", err)
	}
}

func TestChannelSupervisorRemoveChannel(t *testing.T) {
	tree := newTestTree(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go tree.Serve(ctx)

	cs, err := NewChannelSupervisor(tree)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	chanMeta := models.Channel{ID: "ch-1", Name: "Channel One"}
	if err := cs.AddChannel(ctx, chanMeta, NewMockService("svc")); err != nil {
		t.Fatalf("AddChannel failed: %v", err)
	}

	if err := cs.RemoveChannel(ctx, "ch-1"); err != nil {
		t.Fatalf("RemoveChannel failed: %v", err)
	}

	if cs.IsChannelRunning("ch-1") {
		t.Error("expected channel to no longer be running")
	}

	if err := cs.RemoveChannel(ctx, "ch-1"); err != ErrChannelNotRunning {
		t.Errorf("expected ErrChannelNotRunning, got %v", err)
	}
}

func TestChannelSupervisorUpdateChannel(t *testing.T) {
	tree := newTestTree(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go tree.Serve(ctx)

	cs, err := NewChannelSupervisor(tree)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	chanMeta := models.Channel{ID: "ch-1", Name: "Channel One"}

	// Updating a channel that doesn't exist yet behaves like AddChannel.
	if err := cs.UpdateChannel(ctx, chanMeta, NewMockService("svc-v1")); err != nil {
		t.Fatalf("UpdateChannel (add path) failed: %v", err)
	}

	chanMeta.Name = "Channel One Renamed"
	if err := cs.UpdateChannel(ctx, chanMeta, NewMockService("svc-v1"), NewMockService("svc-v2")); err != nil {
		t.Fatalf("UpdateChannel (replace path) failed: %v", err)
	}

	status, err := cs.GetChannelStatus("ch-1")
	if err != nil {
		t.Fatalf("GetChannelStatus failed: %v", err)
	}
	if status.Name != "Channel One Renamed" {
		t.Errorf("expected updated name, got %q", status.Name)
	}
	if status.ServiceCount != 2 {
		t.Errorf("expected 2 services after update, got %d", status.ServiceCount)
	}
}

func TestChannelSupervisorStopAll(t *testing.T) {
	tree := newTestTree(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go tree.Serve(ctx)

	cs, err := NewChannelSupervisor(tree)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := cs.AddChannel(ctx, models.Channel{ID: "ch-1"}, NewMockService("svc-1")); err != nil {
		t.Fatalf("AddChannel failed: %v", err)
	}
	if err := cs.AddChannel(ctx, models.Channel{ID: "ch-2"}, NewMockService("svc-2")); err != nil {
		t.Fatalf("AddChannel failed: %v", err)
	}

	if err := cs.StopAll(ctx); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}

	if len(cs.GetAllChannelStatuses()) != 0 {
		t.Error("expected no channels after StopAll")
	}
}

var _ suture.Service = (*MockService)(nil)
