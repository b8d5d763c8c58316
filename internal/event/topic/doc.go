// Package topic provides event names and wildcard matching for the event bus.
//
// # Topic Format
//
// Topics are colon-separated, the first segment naming the emitter and the last
// naming what happened:
//
//	stage:select
//	object:added
//	org.ekstep.shape:modified
//
// Plugin ids contain dots, so the dot is not a separator.
//
// # Wildcards
//
//   - "*" matches exactly one segment
//   - "**" matches zero or more segments
//
// Examples:
//
//	object:*     matches object:added, object:removed
//	*:added      matches object:added, org.ekstep.shape:added
//	**           matches everything
//
// The Matcher type stores patterns in a trie and returns every pattern that
// matches a concrete topic.
package topic
