// Package persistence stores venue snapshots.
//
// Gateway is the durable store. Writer sits in front of it so that engine
// mutations never wait on I/O: snapshots are coalesced per venue and saved in
// the background with backoff. The in-memory registry stays authoritative; a
// save that exhausts its retries is logged and dropped.
package persistence
