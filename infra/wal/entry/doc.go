// Package entry implements the segmented write-ahead log for incoming
// engine commands. Records are framed with a length and CRC-32 header,
// encoded in protobuf wire format, and replayable from a snapshot
// sequence after a crash. Torn tails left by a crash are truncated on
// open.
package entry
