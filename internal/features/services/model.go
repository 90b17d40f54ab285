package services

import "time"

type ServiceState string

const (
	ServiceStateRunning      ServiceState = "RUNNING"
	ServiceStateStopped      ServiceState = "STOPPED"
	ServiceStateStartPending ServiceState = "START_PENDING"
	ServiceStateStopPending  ServiceState = "STOP_PENDING"
	ServiceStateNotFound     ServiceState = "NOT_FOUND"
	ServiceStateUnknown      ServiceState = "UNKNOWN"
)

type ServiceStatus struct {
	Name      string       `json:"name"`
	State     ServiceState `json:"state"`
	CheckedAt time.Time    `json:"checkedAt"`
}
