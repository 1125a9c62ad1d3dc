// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

/*
Package services provides suture.Service wrappers for the server's
long-running components.

Each wrapper adapts one component's native lifecycle to suture's
context-aware Serve pattern through a small interface, so components stay
ignorant of supervision and the wrappers stay testable with mocks:

  - HTTPServerService: ListenAndServe/Shutdown (the API server)
  - EventBusService: seed-then-run (the interaction event bus)
  - SchedulerService: Start/Stop (the cron feed scheduler)
  - IndexWarmerService: warm-then-reconcile loop (the vector index)

Return values determine supervisor behavior:

	nil or suture.ErrDoNotRestart -> stopped permanently, no restart
	any other error               -> crashed, supervisor restarts it
	ctx.Err() on cancellation     -> normal shutdown

All wrappers implement fmt.Stringer; suture uses the name in lifecycle
logs.
*/
package services
