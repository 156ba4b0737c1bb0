// Package domain defines the core domain types and interfaces.
//
// Concept-oriented files (app.go, intent.go, platform.go, errors.go) hold shared
// types and the capability contracts the rest of the service is written against.
// No implementation code - just contracts.
package domain
