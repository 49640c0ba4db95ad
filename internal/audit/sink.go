// Copyright (c) 2026 Fieldbook. All rights reserved.
// Author: platform@fieldbook.app

package audit

import "context"

// Sink is the collaborator interface through which services append events.
//
// # Contract
//
// Record must not return an error and must not panic: implementations are
// required to swallow (and log) their own failures so that a broken audit
// backend can never mask the primary auth decision.
type Sink interface {
	Record(ctx context.Context, event Event)
}
