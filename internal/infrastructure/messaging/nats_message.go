// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package messaging

import (
	"github.com/nats-io/nats.go"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain"
)

// NatsMessage adapts a core NATS request to domain.Message.
type NatsMessage struct {
	*nats.Msg
}

var _ domain.Message = (*NatsMessage)(nil)

// NewNatsMessage wraps msg.
func NewNatsMessage(msg *nats.Msg) *NatsMessage {
	return &NatsMessage{Msg: msg}
}

// Subject returns the subject of the message.
func (m *NatsMessage) Subject() string {
	return m.Msg.Subject
}

// Data returns the payload of the message.
func (m *NatsMessage) Data() []byte {
	return m.Msg.Data
}

// HasReply reports whether the sender waits for a response.
func (m *NatsMessage) HasReply() bool {
	return m.Msg.Reply != ""
}
