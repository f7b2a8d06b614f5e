// Package scriptio guards every write to the roster script.
//
// The roster script is the user's working configuration and the engine
// reads it directly, so writes follow a fixed discipline:
//
//  1. Backup: copy the current script to a timestamped .bak sibling.
//  2. Atomic replace: stage the new content in a temp file in the same
//     directory, fsync, then rename over the original. A crash mid-write
//     leaves either the old script or the new one, never a truncated file.
//  3. Prune: retain a bounded number of backups.
//  4. Mirror (optional): upload the backup to S3-compatible storage.
//
// The codec itself (feature/roster) is stateless and never touches disk;
// all persistence flows through this package.
package scriptio
