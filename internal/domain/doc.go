// Package domain defines the core types shared by the lead-gen dashboard:
// leads, platform campaigns, per-campaign metrics, daily points and send
// records.
//
// Types in this package are value objects with no database dependencies and
// no HTTP concerns. They are the shared language between the gateways, the
// analytics engine, services and repositories.
//
// Rules for this package:
//   - No imports from other internal/ packages
//   - No *sql.DB, no http.Request, no context.Context in struct fields
//   - JSON/DB tags are allowed (they're metadata, not behavior)
//   - Validation and normalization methods are allowed (pure functions)
//   - Constants and enums belong here
package domain
