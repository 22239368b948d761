// Package jsontree models arbitrary JSON payloads as an ordered, untyped
// document tree.
//
// Interception code inspects traffic whose structure it does not own, so it
// needs variant dispatch (null/bool/number/string/array/object) rather than
// typed structs. Object members keep their wire order because the profile
// search walks keys in the order the client serialized them, and number
// literals are preserved so re-encoded payloads do not drift from the
// originals. Every accessor is safe on a nil or mismatched node and reports
// absence through its second return value.
package jsontree
