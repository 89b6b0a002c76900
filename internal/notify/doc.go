// Package notify turns status transitions into push notifications for the
// devices that favorited a venue.
//
// Dispatcher decides who gets told what: only OpeningSoon and ClosingSoon are
// announced, and a (device, venue, status) triple is announced at most once
// per dedup window. Forwarded jobs land on a bounded outbox that Deliverer
// drains into a Transport. Delivery failures are logged and counted; the core
// never retries them.
package notify
