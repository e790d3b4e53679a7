// Package app provides application initialization and lifecycle management
// for the procurement analyzer. It wires configuration, logging,
// OpenTelemetry, the row source, the outsourcing lookup and the services
// behind a chi router.
//
// # Initialization Flow
//
//	1. Load configuration from environment and config.yaml
//	2. Initialize the slog logger and OpenTelemetry providers
//	3. Build the row source and the outsourcing lookup
//	4. Build the analysis engine for the configured target period
//	5. Create the analysis and health services
//	6. Set up middleware, handlers and the HTTP server
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    return err
//	}
//	return application.Run()
//
// Tests build the application with New and inject collaborators:
//
//	application, err := app.New(cfg, app.WithSource(src), app.WithLookup(search.Disabled{}))
//
// # Graceful Shutdown
//
// Run handles SIGINT and SIGTERM: in-flight requests are given
// Server.ShutdownTimeout to finish and telemetry is flushed.
//
// # Error Handling
//
// All initialization errors are returned to the caller. The package never
// calls os.Exit.
package app
