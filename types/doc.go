// Package types holds the domain model shared by the RSVP service, its HTTP
// surface and the storage backends: events, respondent records, the store
// interfaces each backend implements, the [Logger] contract used for
// structured logging, and the coded [Error] type that carries the error
// taxonomy (validation, not found, duplicate RSVP, internal) from the stores
// up to the HTTP layer.
package types
