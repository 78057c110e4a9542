// Package identity carries the authenticated request identity through
// context. The JWT middleware sets it; handlers and the review service
// read it.
package identity
