// Package siamatlas is the HTTP application for the historical-atlas CMS:
// configuration, command dispatch, the gorilla/mux route table and all API
// handlers.
//
// The server exposes province and district content management, embedded
// historical periods, media upload to the configured blob store, admin
// registration with CV upload, collaboration requests and a public updates
// feed. Authentication is bearer-token sessions over bcrypt credentials;
// write authorization re-applies the editor package's permission rule on
// every mutating route, so client-side gate checks are advisory only.
//
// Three storage backends are supported: SurrealDB (default), PostgreSQL via
// GORM, and an in-memory store used by tests.
package siamatlas
