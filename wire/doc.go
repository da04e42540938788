// Package wire implements the byte-level codec spoken with the simulation host.
//
// A request is a command-name line followed by a fixed, command-specific sequence of
// typed fields; a response starts with an Int32 status followed by typed fields.
// There is no length framing at the message level: the reader must consume exactly
// the fields the command defines, or every following exchange is desynchronized.
//
// Field encodings:
//
//   - Line: UTF-8 bytes terminated by '\n'. Outgoing newlines are collapsed to spaces.
//   - Int32: 4 bytes, big-endian.
//   - UInt64 (handle): 8 bytes, big-endian.
//   - Item reference: handle (8 bytes) followed by the item kind (Int32).
//   - Double: 8 bytes, big-endian IEEE-754.
//   - XYZ: three consecutive doubles.
//   - Array: Int32 count, then count doubles.
//   - Pose: 16 doubles, column-major, no prefix.
//   - Matrix: Int32 rows, Int32 cols, then rows*cols doubles in column-major order.
//
// Every short read fails with an error matching ErrShortRead.
package wire
