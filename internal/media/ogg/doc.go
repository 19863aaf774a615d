// Package ogg reads Ogg physical bitstreams. Each logical stream becomes a
// track keyed by its serial number; codec headers are consumed and only
// data packets are returned.
package ogg
