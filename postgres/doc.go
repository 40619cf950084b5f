// Package postgres provides the PostgreSQL-backed Events Read Store, an
// implementation of [github.com/jlim0255-workship/AWS-EventBookingApp/types.EventStore].
//
// It uses pgx v5 with connection pooling (pgxpool). The request path only
// reads events; [Client.SaveEvent] and [Client.SaveEvents] exist for seeding
// and tests.
//
// # Usage
//
// Create a client using [New] with functional options, call [Client.Connect]
// to establish the connection pool, and then [Client.Init] to create the
// database schema:
//
//	client := postgres.New(
//	    postgres.WithHost("localhost"),
//	    postgres.WithPort(5432),
//	    postgres.WithUser("postgres"),
//	    postgres.WithPassword("secret"),
//	    postgres.WithDatabase("events"),
//	)
//
//	if err := client.Connect(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close(ctx)
//
//	if err := client.Init(ctx, false); err != nil {
//	    log.Fatal(err)
//	}
//
// # Database Tables
//
// [Client.Init] creates one table, "events" by default (see
// [WithEventsTable]), keyed by event_id, plus an index on start_at for the
// ordered listing. Descriptive fields beyond title, description, location
// and the start and end times live in the attrs JSONB column and are passed
// through to clients untouched.
//
// # Schema Validation
//
// When [Client.Init] is called with skipSchemaValidation set to false, it
// queries information_schema.columns and verifies that every expected column
// exists with the correct data type and nullability. Pass true to skip this
// check in environments where the schema is managed externally.
//
// # SSL
//
// SSL behaviour is controlled by [WithSSLMode] using the [SSLMode] constants.
// The default is [SSLModePrefer].
package postgres
