// Package storage places downloaded archive files on disk.
//
// Files are named {feedId}-{YYYYMMDD}-{HHMM}.mp3 after the entry's end time,
// which makes the name stable across runs and lets an existing file stand
// in for a completed download. Writes go to a temporary file in the same
// directory and are renamed into place, so an interrupted transfer never
// leaves a file that looks complete.
//
// Usage:
//
//	manager, err := storage.NewManager("archives")
//	if err != nil {
//	    return err
//	}
//
//	name := storage.ArchiveFileName("3321", entry.End)
//	if !manager.Exists(name) {
//	    n, err := manager.Save(body, name)
//	    ...
//	}
package storage
