// Package storage writes downloaded files into the output directory.
//
// NewManager creates the directory (and parents) up front. Save writes through a
// temporary file in the same directory and renames it over the target, so:
//   - an existing file with the same name is replaced
//   - a failed write leaves no file at the target path
//   - concurrent saves of different names never interfere
//
// Remote filenames are reduced to their last path element before use.
//
// Usage:
//
//	manager, err := storage.NewManager("downloads")
//	if err != nil {
//	    return err
//	}
//	path, n, err := manager.Save(resp.Body, post.Filename)
package storage
