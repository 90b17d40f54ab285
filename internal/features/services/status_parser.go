package services

import "strings"

const serviceDoesNotExistCode = 1060

// stateTokens maps the state token from `sc query` output to a ServiceState.
// Tokens outside the table resolve to Unknown rather than guessing.
var stateTokens = map[string]ServiceState{
	"RUNNING":       ServiceStateRunning,
	"STOPPED":       ServiceStateStopped,
	"START_PENDING": ServiceStateStartPending,
	"STOP_PENDING":  ServiceStateStopPending,
}

// ParseQueryOutput extracts the service state from `sc query <name>` output.
// Exit code 1060 means the service is not installed.
func ParseQueryOutput(exitCode int, output string) ServiceState {
	if exitCode == serviceDoesNotExistCode ||
		strings.Contains(output, "FAILED 1060") {
		return ServiceStateNotFound
	}

	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "STATE") {
			continue
		}

		fields := strings.Fields(trimmed)
		if len(fields) == 0 {
			continue
		}

		token := fields[len(fields)-1]
		if state, ok := stateTokens[token]; ok {
			return state
		}
		return ServiceStateUnknown
	}

	return ServiceStateUnknown
}
