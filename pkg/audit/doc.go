// Package audit provides structured audit logging for review decisions and
// export outcomes in RFC5424 syslog format, with an optional database sink.
//
// The export pipeline is fire-and-forget from the caller's perspective, so
// the audit log is the primary place export failures become visible.
package audit
