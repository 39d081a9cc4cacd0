// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

// Package supervisor provides Suture-based process supervision for RetroVue.
// This file implements the ChannelSupervisor for dynamic per-channel
// service management.
//
// Each channel runs its own Playlog Horizon Daemon (C5) and Channel
// Manager (C7), both of which already implement suture.Service directly —
// there is no Start/Stop lifecycle to adapt, unlike the WAL's RetryLoop and
// Compactor. ChannelSupervisor's job is purely the dynamic add/remove/
// update/status bookkeeping around channels coming and going at runtime
// (a channel can be disabled or reconfigured without restarting the
// process).
//
// Example usage:
//
//	cs := NewChannelSupervisor(tree)
//	if err := cs.AddChannel(ctx, chanCfg, playlogDaemon, channelMgr); err != nil {
//	    log.Fatal("failed to add channel:", err)
//	}
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/slbailey/retrovue/internal/logging"
	"github.com/slbailey/retrovue/internal/models"
)

// Errors for ChannelSupervisor.
var (
	ErrChannelAlreadyExists = errors.New("channel already exists in supervisor")
	ErrChannelNotRunning    = errors.New("channel is not running")
	ErrNoChannelServices    = errors.New("at least one service is required")
)

// ChannelStatus reports the current supervision state of one channel.
type ChannelStatus struct {
	ChannelID    string    `json:"channel_id"`
	Name         string    `json:"name"`
	Running      bool      `json:"running"`
	ServiceCount int       `json:"service_count"`
	StartedAt    time.Time `json:"started_at"`
}

// managedChannel holds bookkeeping for one channel's supervised services.
// A channel owns more than one service (Playlog Horizon Daemon, Channel
// Manager), so it tracks a token per service rather than a single token.
type managedChannel struct {
	tokens    []suture.ServiceToken
	meta      models.Channel
	startedAt time.Time
}

// ChannelSupervisor manages the set of services running for each
// configured channel, with dynamic add/remove/update at runtime.
//
// Thread Safety: all operations are protected by a read-write mutex.
type ChannelSupervisor struct {
	tree     *SupervisorTree
	channels map[string]*managedChannel // channel ID -> managed channel
	mu       sync.RWMutex
}

// NewChannelSupervisor creates a new channel supervisor over tree.
func NewChannelSupervisor(tree *SupervisorTree) (*ChannelSupervisor, error) {
	if tree == nil {
		return nil, ErrNilSupervisorTree
	}
	return &ChannelSupervisor{
		tree:     tree,
		channels: make(map[string]*managedChannel),
	}, nil
}

// ErrNilSupervisorTree is returned when a supervisor is constructed
// without a tree to add services to.
var ErrNilSupervisorTree = errors.New("supervisor tree cannot be nil")

// AddChannel adds a channel's services to the messaging layer and starts
// supervising them. services is typically the channel's Playlog Horizon
// Daemon followed by its Channel Manager, both already constructed against
// this channel's database-backed dependencies — construction is the
// caller's responsibility since it depends on the schedule/horizon/channel
// packages this package does not import.
func (s *ChannelSupervisor) AddChannel(ctx context.Context, meta models.Channel, services ...suture.Service) error {
	if len(services) == 0 {
		return ErrNoChannelServices
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.channels[meta.ID]; exists {
		return ErrChannelAlreadyExists
	}

	tokens := make([]suture.ServiceToken, 0, len(services))
	for _, svc := range services {
		tokens = append(tokens, s.tree.AddMessagingService(svc))
	}

	s.channels[meta.ID] = &managedChannel{
		tokens:    tokens,
		meta:      meta,
		startedAt: time.Now(),
	}

	logging.Info().
		Str("channel_id", meta.ID).
		Str("name", meta.Name).
		Int("service_count", len(services)).
		Msg("channel services added to supervisor")

	return nil
}

// RemoveChannel stops and removes a channel's services.
func (s *ChannelSupervisor) RemoveChannel(ctx context.Context, channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	managed, exists := s.channels[channelID]
	if !exists {
		return ErrChannelNotRunning
	}

	var removeErrors []error
	for _, token := range managed.tokens {
		if err := s.tree.RemoveMessagingService(token); err != nil {
			removeErrors = append(removeErrors, err)
		}
	}

	delete(s.channels, channelID)

	if len(removeErrors) > 0 {
		return fmt.Errorf("failed to remove %d of %d services for channel %s", len(removeErrors), len(managed.tokens), channelID)
	}

	logging.Info().Str("channel_id", channelID).Msg("channel services removed from supervisor")
	return nil
}

// UpdateChannel replaces a channel's running services with a freshly
// constructed set (stop-then-start). There is a brief gap where the
// channel has no active playout driver.
func (s *ChannelSupervisor) UpdateChannel(ctx context.Context, meta models.Channel, services ...suture.Service) error {
	s.mu.RLock()
	_, exists := s.channels[meta.ID]
	s.mu.RUnlock()

	if !exists {
		return s.AddChannel(ctx, meta, services...)
	}

	if err := s.RemoveChannel(ctx, meta.ID); err != nil {
		return fmt.Errorf("failed to remove old channel services: %w", err)
	}

	if err := s.AddChannel(ctx, meta, services...); err != nil {
		return fmt.Errorf("failed to add updated channel services: %w", err)
	}

	logging.Info().Str("channel_id", meta.ID).Msg("channel services updated")
	return nil
}

// GetChannelStatus returns the current status of a managed channel.
func (s *ChannelSupervisor) GetChannelStatus(channelID string) (*ChannelStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	managed, exists := s.channels[channelID]
	if !exists {
		return nil, ErrChannelNotRunning
	}

	return &ChannelStatus{
		ChannelID:    managed.meta.ID,
		Name:         managed.meta.Name,
		Running:      true,
		ServiceCount: len(managed.tokens),
		StartedAt:    managed.startedAt,
	}, nil
}

// GetAllChannelStatuses returns status for every managed channel.
func (s *ChannelSupervisor) GetAllChannelStatuses() []ChannelStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	statuses := make([]ChannelStatus, 0, len(s.channels))
	for _, managed := range s.channels {
		statuses = append(statuses, ChannelStatus{
			ChannelID:    managed.meta.ID,
			Name:         managed.meta.Name,
			Running:      true,
			ServiceCount: len(managed.tokens),
			StartedAt:    managed.startedAt,
		})
	}
	return statuses
}

// IsChannelRunning reports whether a channel is currently supervised.
func (s *ChannelSupervisor) IsChannelRunning(channelID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.channels[channelID]
	return exists
}

// StopAll stops every managed channel's services.
func (s *ChannelSupervisor) StopAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stopErrors []error
	for channelID, managed := range s.channels {
		for _, token := range managed.tokens {
			if err := s.tree.RemoveMessagingService(token); err != nil {
				logging.Warn().Str("channel_id", channelID).Err(err).Msg("failed to stop channel service")
				stopErrors = append(stopErrors, err)
			}
		}
	}

	s.channels = make(map[string]*managedChannel)

	if len(stopErrors) > 0 {
		return fmt.Errorf("failed to stop %d channel services", len(stopErrors))
	}

	logging.Info().Msg("all channel services stopped")
	return nil
}
