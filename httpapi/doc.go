// Package httpapi serves the RSVP API over HTTP.
//
// Routes:
//
//	GET  /event/{event_id}       event details
//	GET  /stats/{event_id}       response counters, e.g. {"Yes":3,"No":1}
//	POST /rsvp                   record an RSVP
//	GET  /attendees/{event_id}   respondents, optionally ?response=Yes
//	GET  /events                 all events ordered by start time
//	GET  /healthz                liveness and dependency check
//	GET  /metrics                Prometheus metrics, when configured
//
// Every response carries permissive CORS headers and OPTIONS on any path is
// answered as a preflight. Unknown routes get 404 {"message":"Route Not Found"}.
//
// Errors are JSON objects with a "message" and a "code". The status is
// derived from the error's [types.Code]; errors without a code are reported
// as an opaque 500.
package httpapi
