// Package lead implements lead intake and lookup for the two lead tables.
//
// Upsert is keyed by (email, company) per table: inserting a lead that
// already exists is not an error, it resolves to the existing row's id with
// WasInserted=false. Callers always get a usable id back.
//
// The service layer depends on the Repository interface defined in
// repository.go. It never imports net/http or database/sql directly.
package lead
