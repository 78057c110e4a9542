// Package review owns the review lifecycle: requested, then approved or
// declined, decided exactly once. Approval hands export fan-out to the
// dispatcher without coupling the caller to export outcomes.
package review
