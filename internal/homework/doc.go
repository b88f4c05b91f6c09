// Package homework holds the domain rules of the bot: the failure taxonomy,
// status payload shape checks and verdict formatting.
//
// Payloads are kept as untyped JSON (gjson) so that shape violations such as
// "homeworks is not a list" stay observable instead of being lost in a typed
// decode.
package homework
