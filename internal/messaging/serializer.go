// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package messaging

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/intellweave/intellweave/internal/models"
)

// Message metadata keys. Set on every published message so subscribers and
// middleware can route or filter without deserializing the payload.
const (
	metadataEventType = "event_type"
	metadataUserID    = "user_id"
)

// encodeEvent serializes an interaction event into a watermill message keyed
// on the event id. The event must already carry id, user, article and type.
func encodeEvent(event *models.InteractionEvent) (*message.Message, error) {
	if event == nil {
		return nil, fmt.Errorf("event required")
	}
	if event.ID == "" || event.UserID == "" || event.ArticleID == "" || event.EventType == "" {
		return nil, fmt.Errorf("incomplete event: id=%q user=%q article=%q type=%q",
			event.ID, event.UserID, event.ArticleID, event.EventType)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}

	msg := message.NewMessage(event.ID, data)
	msg.Metadata.Set(metadataEventType, event.EventType)
	msg.Metadata.Set(metadataUserID, event.UserID)
	return msg, nil
}

// decodeEvent parses a bus message back into an interaction event.
func decodeEvent(msg *message.Message) (*models.InteractionEvent, error) {
	var event models.InteractionEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	return &event, nil
}
