// Package procfile parses line-oriented system files such as procfs entries.
//
// The Parser handles the common shape of these files (one entry per line,
// optional comments, key-value pairs with a configurable delimiter) and the
// stats helpers layer typed readings on top for the local pressure monitor:
//
//	mem, err := procfile.ReadMemStats(procfile.MemInfoPath)
//	load, err := procfile.ReadLoadPerCore(procfile.LoadAvgPath)
//
// Paths are parameters rather than constants inside the readers so tests can
// substitute fixture files.
package procfile
