// Package logtail reads the tail of the stylefix log file and splits slog
// text-handler lines for display in the console.
//
// # Reading
//
// Read returns the last maxLines lines using a ring buffer, so memory stays
// O(maxLines) regardless of file size. A missing file is not an error: the
// log may not exist until the engine writes its first line.
//
//	lines, err := logtail.Read(cfg.LogPath(), 400)
//
// # Parsing
//
// Parse understands the key=value format written by slog.TextHandler:
//
//	time=2026-03-01T10:15:30Z level=INFO msg="injector: fix applied" fix=f1
//
// time, level and msg populate Entry fields; every other pair lands in
// Attrs in source order. Quoted values are unquoted. Anything else, such as
// a panic trace, is kept verbatim as an info-level message.
package logtail
