// Package source loads policies for the condition engine.
//
// The file source reads PCL YAML files from disk, either a single file or
// every .yaml/.yml file under a directory:
//
//	src := source.NewFileSource("policies/", p, nil)
//	policies, err := src.LoadPolicies(ctx)
//
// Hot reload is a separate watcher built on fsnotify. It debounces rapid
// event bursts (editors write files in several steps) and invokes a reload
// callback after a quiet period:
//
//	w, err := source.NewWatcher(nil, logger)
//	go w.Watch(ctx, "policies/", func() error {
//	    policies, err := src.LoadPolicies(ctx)
//	    ...
//	})
package source
