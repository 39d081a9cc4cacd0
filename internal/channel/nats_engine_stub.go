// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

//go:build !nats

package channel

import "github.com/rs/zerolog"

// NoopPlayoutEngine discards playout commands. Used in builds without NATS
// wiring (e.g. single-process test binaries) so the channel manager still
// has something to drive.
type NoopPlayoutEngine struct {
	log zerolog.Logger
}

// NewNoopPlayoutEngine constructs a discarding playout engine.
func NewNoopPlayoutEngine(log zerolog.Logger) *NoopPlayoutEngine {
	return &NoopPlayoutEngine{log: log.With().Str("component", "playout_command_publisher").Logger()}
}

// LoadPreview discards the request.
func (e *NoopPlayoutEngine) LoadPreview(req PlayoutRequest) error {
	e.log.Debug().Str("asset_path", req.AssetPath).Msg("load_preview (nats build tag disabled)")
	return nil
}

// SwitchToLive discards the request.
func (e *NoopPlayoutEngine) SwitchToLive(req PlayoutRequest) error {
	e.log.Debug().Str("asset_path", req.AssetPath).Msg("switch_to_live (nats build tag disabled)")
	return nil
}
