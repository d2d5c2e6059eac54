// Package campsignal is the real-time alert and notification subsystem for
// a campsite booking platform.
//
// It wires four components into one injectable application state:
//
//   - pkg/cachestore: namespaced TTL cache (Redis or in-memory), fail-open
//   - pkg/realtime: live connection registry with topic fan-out and
//     per-user rate limiting
//   - pkg/notifcenter: durable notifications with cached unread counts,
//     live push and urgent email escalation
//   - pkg/alerts: price and availability alerts evaluated by periodic
//     sweeps with at-most-once triggering
//
// Basic Usage:
//
//	cache := cachestore.NewRedisStore(client, cacheCfg)
//	registry := realtime.NewRegistry(verifier, cache, rtCfg)
//	center, _ := notifcenter.New(notifcenter.NewPostgresStorage(pool), cache,
//		notifcenter.WithPublisher(registry))
//	service, _ := alerts.NewService(alertStorage)
//	evaluator, _ := alerts.NewEvaluator(alertStorage, prices, availability, center)
//
//	app, err := campsignal.New(cfg, campsignal.Deps{
//		Cache:     cache,
//		Registry:  registry,
//		Center:    center,
//		Alerts:    service,
//		Evaluator: evaluator,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	err = app.Run(ctx) // blocks until ctx is cancelled
//
// Request handlers and transports live outside this module; they consume
// App.Center, App.Alerts and App.Registry.
package campsignal
