// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package messaging

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

// busLogger adapts watermill's LoggerAdapter to the shared zerolog logger so
// router and pubsub internals land in the same structured stream as the rest
// of the server.
type busLogger struct {
	log zerolog.Logger
}

func newBusLogger(log zerolog.Logger) busLogger {
	return busLogger{log: log}
}

func (l busLogger) Error(msg string, err error, fields watermill.LogFields) {
	withFields(l.log.Error().Err(err), fields).Msg(msg)
}

func (l busLogger) Info(msg string, fields watermill.LogFields) {
	withFields(l.log.Info(), fields).Msg(msg)
}

func (l busLogger) Debug(msg string, fields watermill.LogFields) {
	withFields(l.log.Debug(), fields).Msg(msg)
}

func (l busLogger) Trace(msg string, fields watermill.LogFields) {
	withFields(l.log.Trace(), fields).Msg(msg)
}

func (l busLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	ctx := l.log.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return busLogger{log: ctx.Logger()}
}

func withFields(e *zerolog.Event, fields watermill.LogFields) *zerolog.Event {
	for k, v := range fields {
		e = e.Interface(k, v)
	}
	return e
}
