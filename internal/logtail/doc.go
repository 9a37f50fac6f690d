// Package logtail reads the tail of the console's own log file and turns
// zerolog JSON lines into display entries for the Logs view.
//
// # Reading
//
// Read keeps a ring buffer of maxLines while scanning the file once, so
// memory stays O(maxLines) regardless of file size. A missing file yields
// no lines and no error.
//
//	lines, err := logtail.Read(cfg.LogFile, 400)
//
// # Parsing
//
// Parse understands the field names zerolog writes (time, level, message,
// error) plus the console's "component" field. Everything else lands in
// Fields. Non-JSON lines are kept verbatim as raw entries so nothing is
// hidden from the viewer.
//
// Filter drops entries below a level; Format renders one entry per line:
//
//	14:32:15 INF [session] session restored email=ada@example.com
package logtail
