// Package watcher reports debounced file-system changes below a project
// directory so "ignr generate --watch" can regenerate when the set of
// files changes.
//
// Events come from fsnotify. Directories are watched recursively, paths
// excluded by the project's ignore files are filtered out, and bursts of
// events are coalesced per path before being delivered as a batch.
//
//	w, err := watcher.New(watcher.DefaultOptions(), detector)
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//
//	go func() { _ = w.Start(ctx, root) }()
//	for batch := range w.Events() {
//	    // regenerate
//	}
package watcher
