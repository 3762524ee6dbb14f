// Package models defines the domain entities for the siamatlas application:
// provinces, their districts, the historical periods and media attached to
// both, administrator accounts, and the request/audit records around them.
//
// # Typed identifiers
//
// Every entity uses a typed UUID wrapper ([ProvinceID], [DistrictID],
// [AdminID], ...) instead of bare strings. The typed IDs implement:
//
//   - encoding/json marshaling as plain UUID strings for the HTTP API
//   - CBOR marshaling as SurrealDB RecordIDs (tag 8) for the document store
//   - database/sql Valuer/Scanner plus GormDataType for the GORM backend
//
// This keeps ID mixing errors at compile time while letting the same model
// structs flow unchanged through both storage backends and the API boundary.
//
// # Storage mapping
//
// Nested value data (historical periods, editor lists, media) is stored as
// JSONB columns under GORM and as native nested documents under SurrealDB.
// The list types ([PeriodList], [AdminIDList], [CollaboratorList]) carry the
// Valuer/Scanner implementations that make the JSONB mapping work.
//
// # Mutation invariants
//
// Province and District share two invariants that every accepted mutation
// must preserve:
//
//   - Version increments by exactly 1 per accepted write.
//   - Locked entities reject mutation from everyone but a creator.
//
// The Clone methods produce structural copies with no shared slices; the
// editor's history stack depends on this to avoid mutation-through-alias
// bugs between recorded snapshots and the live entity store.
package models
