// Package bootstrap runs the application lifecycle.
//
// An App starts the registered components in order, runs OnConfigure callbacks
// to build the business layer on top of them, checks readiness, prints a
// startup summary and then either blocks until a signal (Run) or executes a
// finite task (RunTask). Shutdown runs OnStop hooks and stops the components
// in reverse order.
//
//	app, err := bootstrap.NewApp(cfg)
//	_ = app.RegisterComponent(storageComponent)
//	app.OnConfigure(func(ctx context.Context, a *bootstrap.App[*app.Config]) error {
//	    return wireRoutes(a)
//	})
//	err = app.Run(ctx)
package bootstrap
