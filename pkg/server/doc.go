// Package server wires the HTTP API together: stores, the review service,
// the export pipeline and the endpoint handlers that expose them.
package server
