// Logtide - Distributed Log Harvesting and Stream Topology
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/logtide

package events

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

// watermillLogger adapts zerolog to watermill.LoggerAdapter so Watermill
// internals log through the shared pipeline.
type watermillLogger struct {
	log zerolog.Logger
}

//nolint:gocritic // zerolog.Logger is designed to be passed by value
func newWatermillLogger(logger zerolog.Logger) watermill.LoggerAdapter {
	return watermillLogger{log: logger}
}

func (l watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.event(l.log.Error().Err(err), fields).Msg(msg)
}

func (l watermillLogger) Info(msg string, fields watermill.LogFields) {
	l.event(l.log.Info(), fields).Msg(msg)
}

func (l watermillLogger) Debug(msg string, fields watermill.LogFields) {
	l.event(l.log.Debug(), fields).Msg(msg)
}

func (l watermillLogger) Trace(msg string, fields watermill.LogFields) {
	l.event(l.log.Trace(), fields).Msg(msg)
}

func (l watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	ctx := l.log.With()
	for key, value := range fields {
		ctx = ctx.Interface(key, value)
	}
	return watermillLogger{log: ctx.Logger()}
}

func (l watermillLogger) event(event *zerolog.Event, fields watermill.LogFields) *zerolog.Event {
	for key, value := range fields {
		event = event.Interface(key, value)
	}
	return event
}
