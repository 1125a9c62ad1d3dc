// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

/*
Package supervisor provides process supervision for the Intell Weave server
using suture v4.

The supervisor tree organizes long-running services into three layers for
failure isolation:

	RootSupervisor ("intellweave")
	├── DataSupervisor ("data-layer")
	│   ├── EventBusService      (interaction event writer + popularity tracker)
	│   └── IndexWarmerService   (vector index warm-up + periodic reconcile)
	├── IngestSupervisor ("ingest-layer")
	│   └── SchedulerService     (cron-driven feed sweeps)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

This hierarchy ensures that a crash in ingestion does not affect the API's
ability to serve feeds, and a wedged event writer does not stop feed sweeps.
Crashed services are restarted with exponential backoff; configurable failure
thresholds prevent restart storms. Suture lifecycle events are logged through
the sutureslog adapter, which bridges to the process-wide zerolog stream via
logging.NewSlogLogger.

Services must implement suture.Service:

	type Service interface {
	    Serve(ctx context.Context) error
	}

Return nil or suture.ErrDoNotRestart for permanent completion, any other
error to be restarted, and return promptly once the context is canceled.

DuckDB is intentionally not supervised: it is an embedded library whose
connections are managed by the storage package, not a long-running service.
*/
package supervisor
