// Package rsvp implements the RSVP operations served by the HTTP API.
//
// A [Service] validates and normalizes client input, then delegates to a
// [types.AttendanceStore] for respondent records and counters and to a
// [types.EventStore] for event details. The store owns atomicity: a
// respondent and its counter increment are written in one transaction, so
// the service never compensates for partial writes.
//
// Responses are restricted to a [ResponseSet], "Yes" and "No" by default.
// Matching is case-insensitive and stored values always use the spelling of
// the set, so counters and filters never split on case.
//
// Emails are trimmed and lowercased before they reach a store, so one
// address is one respondent per event however it is capitalized. Attendee
// lists return the lowercased form.
//
// When a [types.Notifier] is configured the service publishes every recorded
// RSVP after the transaction commits. Publishing is best effort: a failure is
// logged and counted, and the RSVP is still reported as recorded.
package rsvp
