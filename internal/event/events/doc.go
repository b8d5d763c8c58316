// Package events defines the topics and payloads published by the stage
// manager and its surface bridge.
//
// Stage topics:
//
//	stage:select     StageSelect, also consumed: triggers stage selection
//	stage:unselect   StageUnselect
//
// Object topics, one generic and one plugin-scoped per surface event:
//
//	object:<kind>          ObjectMeta
//	<pluginType>:<kind>    ObjectMeta
//
// where kind is one of added, removed, modified, selected, unselected.
package events
