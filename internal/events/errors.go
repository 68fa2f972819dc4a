// Logtide - Distributed Log Harvesting and Stream Topology
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/logtide

package events

import "errors"

// ErrNATSNotEnabled is returned by NATS bridge constructors in binaries
// built without the "nats" build tag.
var ErrNATSNotEnabled = errors.New("nats support not compiled in (rebuild with -tags nats)")
