// Package transfer implements resumable file uploads and downloads over
// bidirectional transport streams.
//
// Each transfer runs as one task bound to one stream. The upload coordinator
// drives the receive state machine:
//
//	AwaitingInit → Accepted → Receiving → {Completed | Cancelled | Failed}
//
// A client opens a stream and sends FileTransferInit carrying a signed upload
// token. The token binds user, transfer id, channel, filename, declared size
// and expiry, and authorizes exactly one transfer attempt. After validation
// the server replies FileTransferAccept with the negotiated chunk size and
// the confirmed resume offset, then appends incoming Data frames to an
// on-disk staging file ({transfer_id}.part) until an explicit EndOfData
// frame. Stream closure alone never completes a transfer.
//
// Resume: the client's requested offset is clamped to the bytes physically
// staged on disk; a claimed offset beyond that is never trusted. Resuming
// below the staged size truncates the staging file down first. A fresh init
// with a stale partial present discards the partial and restarts at zero.
// Abrupt disconnection before EndOfData fails the transfer but deliberately
// preserves the staging file so a later attempt can resume.
//
// Shared state lives only in the Tracker, a per-entry concurrent registry
// that an external canceller may trip at any time. Cancellation is
// cooperative: the coordinator polls it once per frame, so an in-flight
// write always finishes before the transfer unwinds.
//
// Error taxonomy (all matched with errors.Is):
//
//   - ErrProtocolViolation: malformed or out-of-order frames, token/message
//     id mismatch, duplicate init. Fatal, staging removed.
//   - ErrAuthFailed: invalid, expired or mismatched upload token. Fatal,
//     rejected before any data is accepted.
//   - ErrResourceLimit: declared or received size over the cap. Fatal,
//     staging removed.
//   - ErrCancelled: terminal by request, staging removed.
//   - ErrTransientIO: stream or disk failure. Staging preserved for resume.
//
// There are no internal retries: every fatal condition ends the task and
// returns a typed error, and the caller decides between a fresh attempt with
// resume_offset set or abandonment. The peer always receives an explicit
// terminal message (Reject, Error, Cancel or Done) before teardown, except
// on abrupt disconnect.
package transfer
