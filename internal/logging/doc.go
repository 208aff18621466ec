// Package logging builds the process-wide slog logger for ignr.
//
// Diagnostics go to stderr as text at a level chosen by the global
// verbosity flags. With --log-file, records are also written as JSON to a
// size-rotated file.
package logging
