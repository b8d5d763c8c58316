package events

import "github.com/dshills/stagehand/internal/event/topic"

// Stage event topics.
const (
	// TopicStageSelect requests, and announces, the selection of a stage.
	TopicStageSelect topic.Topic = "stage:select"

	// TopicStageUnselect is published when the current stage loses selection.
	TopicStageUnselect topic.Topic = "stage:unselect"
)

// StageSelect carries the id of the stage to select.
type StageSelect struct {
	StageID string `json:"stageId"`
}

// StageUnselect carries the id of the outgoing stage.
type StageUnselect struct {
	StageID string `json:"stageId"`
}
