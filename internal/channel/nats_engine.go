// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

//go:build nats

package channel

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"
)

// CommandPublisher is the subset of internal/eventprocessor.Publisher this
// engine needs — kept narrow so the channel package doesn't have to import
// eventprocessor's full NATS/JetStream setup.
type CommandPublisher interface {
	Publish(ctx context.Context, topic string, msg *message.Message) error
}

// commandEnvelope is the wire shape published to a channel's command
// subject. The external playout engine subscribes to its own channel's
// subject and executes whatever command it receives.
type commandEnvelope struct {
	Command string         `json:"command"`
	Request PlayoutRequest `json:"request"`
}

// NATSPlayoutEngine implements PlayoutEngine by publishing LoadPreview and
// SwitchToLive intents to the external playout engine over the horizon
// audit bus's NATS connection, on a per-channel command subject. The
// playout engine itself — the process that actually decodes and renders
// video — lives outside this system; this is its command-delivery edge.
type NATSPlayoutEngine struct {
	pub       CommandPublisher
	channelID string
	log       zerolog.Logger
}

// NewNATSPlayoutEngine constructs a command publisher for one channel.
func NewNATSPlayoutEngine(pub CommandPublisher, channelID string, log zerolog.Logger) *NATSPlayoutEngine {
	return &NATSPlayoutEngine{
		pub:       pub,
		channelID: channelID,
		log:       log.With().Str("component", "playout_command_publisher").Str("channel_id", channelID).Logger(),
	}
}

// CommandTopic returns the subject commands for this channel are published
// on: retrovue.channel.<id>.commands.
func (e *NATSPlayoutEngine) CommandTopic() string {
	return fmt.Sprintf("retrovue.channel.%s.commands", e.channelID)
}

func (e *NATSPlayoutEngine) publish(command string, req PlayoutRequest) error {
	payload, err := json.Marshal(commandEnvelope{Command: command, Request: req})
	if err != nil {
		return fmt.Errorf("marshal playout command: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := e.pub.Publish(context.Background(), e.CommandTopic(), msg); err != nil {
		e.log.Error().Err(err).Str("command", command).Msg("failed to publish playout command")
		return err
	}
	return nil
}

// LoadPreview publishes a load_preview command.
func (e *NATSPlayoutEngine) LoadPreview(req PlayoutRequest) error {
	return e.publish("load_preview", req)
}

// SwitchToLive publishes a switch_to_live command.
func (e *NATSPlayoutEngine) SwitchToLive(req PlayoutRequest) error {
	return e.publish("switch_to_live", req)
}
