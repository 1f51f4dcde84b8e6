// Package models defines the domain entities shared by the mist packages.
//
// The package contains two categories of types:
//
// 1. Project entities, persisted in the project configuration layer:
//   - [Remote] : a named, URL-addressed source of entry IDs
//
// 2. Journal entities, persisted in the run history database:
//   - [Run] : one merge or pull execution with its counters and [Outcome]
//
// [Remote] validates itself with go-playground/validator struct tags.
package models
