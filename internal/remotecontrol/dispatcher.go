package remotecontrol

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"ev-fleet/optimizer/internal/domain"
)

// Action is a remote-control command name from the fixed recognized set.
type Action string

const (
	ActionStartCharging Action = "start_charging"
	ActionStopCharging  Action = "stop_charging"
	ActionReduceSpeed   Action = "reduce_speed"
)

// InvalidAction is the sentinel returned for unrecognized commands.
// Unknown commands are benign operator mistakes, reported rather than
// raised, because the dispatcher has no way to abort a larger batch.
const InvalidAction = "Invalid action"

// Effect templates per recognized action. The vehicle ID is interpolated
// where %s appears.
var effects = map[Action]string{
	ActionStartCharging: "EV %s started charging.",
	ActionStopCharging:  "EV %s stopped charging.",
	ActionReduceSpeed:   "EV %s speed reduced.",
}

// Describe maps (vehicle, action) to a human-readable effect description.
// It carries no per-vehicle state and has no side effects.
func Describe(vehicleID string, action Action) string {
	tmpl, ok := effects[action]
	if !ok {
		return InvalidAction
	}
	return fmt.Sprintf(tmpl, vehicleID)
}

// Recognized reports whether action is in the fixed command set.
func Recognized(action Action) bool {
	_, ok := effects[action]
	return ok
}

// ActionFor returns the remote-control command implied by a recommendation
// and whether one exists. Normal operation implies no command.
func ActionFor(rec domain.Recommendation) (Action, bool) {
	switch rec {
	case domain.RecommendRouteToCharging:
		return ActionStartCharging, true
	case domain.RecommendReduceSpeed:
		return ActionReduceSpeed, true
	default:
		return "", false
	}
}

// Command is the dispatch record for one issued remote-control action.
type Command struct {
	ID          string    `json:"id"`
	VehicleID   string    `json:"vehicle_id"`
	Action      Action    `json:"action"`
	Description string    `json:"description"`
	IssuedAt    time.Time `json:"issued_at"`
}

// NewCommand builds a dispatch record with a fresh command ID. The caller
// decides where the record goes (store, pub/sub, operator response).
func NewCommand(vehicleID string, action Action) Command {
	return Command{
		ID:          uuid.NewString(),
		VehicleID:   vehicleID,
		Action:      action,
		Description: Describe(vehicleID, action),
		IssuedAt:    time.Now().UTC(),
	}
}
