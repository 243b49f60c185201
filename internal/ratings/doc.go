// Package ratings reads and writes the ratings file kept in the library
// root.
//
// # File Layout
//
// Version 2 (written by this package):
//
//	byte 0        version (2)
//	bytes 1-4     last assigned track id, big-endian int32 (-1 when none)
//	per track id  uvarint(n) followed by n rating bytes, ids in increasing order
//	last 4 bytes  CRC-32 (IEEE) of everything before, big-endian
//
// Version 1 (read only) has no checksum and ends each line with a 0x00
// byte. A rating byte of 0 is therefore indistinguishable from the end of
// the line: the line is split in two at that byte, and every later line
// is read under a track id one higher than the one it was written for.
//
// # Crash Safety
//
// Before a new primary file is written the previous one is renamed to the
// backup path. Read tries the primary, then the backup, then starts empty:
//
//	store := ratings.NewStore("/music")
//	snap, src := store.Read() // never fails
//	...
//	err := store.Write(snap)
package ratings
