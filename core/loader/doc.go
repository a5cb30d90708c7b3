// Package loader registers features with the HTTP server.
//
// Each feature implements Feature; the Manager loads the enabled ones in
// registration order.
//
//	mgr := loader.NewManager()
//	mgr.Register(report.NewFeature(svc, log))
//	loaded, err := mgr.LoadAll(app)
package loader
