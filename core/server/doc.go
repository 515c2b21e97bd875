// Package server wraps http.Server with graceful shutdown, environment
// driven configuration, and optional TLS.
//
// Start blocks until the context is canceled or the listener fails; Run
// adds errgroup-friendly lifecycle management that turns context
// cancellation into a clean nil return after graceful shutdown.
//
//	var cfg server.Config
//	config.MustLoad(&cfg)
//	srv, err := server.NewFromConfig(cfg, server.WithLogger(log))
//	if err != nil {
//		return err
//	}
//	g.Go(srv.Run(ctx, router))
package server
