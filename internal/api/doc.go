// Package api implements the HTTP REST API and WebSocket server for the
// air conditioner daemon.
//
// This package provides:
//   - REST endpoints for the cached device snapshot and commands
//   - Software info, power logging and power usage queries
//   - A WebSocket stream of state snapshots and session transitions
//   - Prometheus metrics exposition
//   - Middleware stack (request ID, logging, recovery, CORS)
//   - TLS support for production deployments
//
// # Architecture
//
// The API server sits beside the MQTT bridge as a second external
// surface over the same reconciliation loop. Reads are served from the
// poller's cached snapshot and never touch the device. Writes and
// on-demand queries go through the poller's SendCommand so they
// serialise against the refresh cycle on the single device session.
//
// # Usage
//
//	server, err := api.New(api.Deps{
//	    Config: cfg.API,
//	    WS:     cfg.WebSocket,
//	    Logger: logger,
//	    State:  p,      // *poller.Poller
//	    Device: client, // *samsung2878.Client
//	})
//	if err != nil {
//	    return err
//	}
//	if err := server.Start(ctx); err != nil {
//	    return err
//	}
//	defer server.Close()
//
//	// push snapshots to WebSocket clients
//	p.AddListener(server.Hub().BroadcastState)
//	p.AddStatusListener(server.Hub().BroadcastStatus)
package api
