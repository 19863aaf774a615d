// Command symphonia checks media files by probing their container and
// reading the first packet.
//
// `symphonia check <file>` is the core workflow: it prints "Packet was
// decoded" when a packet comes back and otherwise exits with a code that
// names the failing step (2 open, 3 probe, 4 decode, 5 end of stream).
// The remaining commands inspect tracks and packets, verify files against
// YAML expectations, cross-check with ffprobe, list the run history and
// report on the environment. Logs go to stderr; stdout carries only
// command output.
package main
