// Package metrics provides observability hooks for the venue status engine.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no nil checks are needed:
//
//	eng := engine.New(deps, engine.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//
// PrometheusRecorder registers its collectors on the registry it is given and
// HTTPHandler exposes that registry for scraping.
package metrics
