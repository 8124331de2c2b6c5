package amqp

import (
	"encoding/json"
	"time"
)

// RefreshMessage asks the worker to re-mirror one project from the sales
// sheet. An empty Project means every project.
type RefreshMessage struct {
	Project   string    `json:"project"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRefreshMessage(project, reason string) *RefreshMessage {
	return &RefreshMessage{
		Project:   project,
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

// All reports whether the message targets every project.
func (m *RefreshMessage) All() bool {
	return m.Project == ""
}

func (m *RefreshMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RefreshMessageFromJSON(data []byte) (*RefreshMessage, error) {
	var msg RefreshMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
