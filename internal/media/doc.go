// Package media defines the container-level types shared by every format
// reader: the buffered SourceStream a reader consumes, the FormatReader
// interface, and the Track and Packet values it produces.
//
// Every fallible operation reports a *Error carrying a Kind (open, probe,
// decode or end_of_stream) so callers can branch on the failure point instead
// of a single nil check. Readers own their SourceStream once probing succeeds;
// closing the reader releases the source.
package media
