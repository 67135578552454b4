package model

// ActionType is a primitive robot command.
type ActionType string

const (
	ActionGoto      ActionType = "GOTO"
	ActionPickup    ActionType = "PICKUP"
	ActionDropoff   ActionType = "DROPOFF"
	ActionLeadGuest ActionType = "LEAD_GUEST"
)

// Action is one step of an action sequence. Params carries the per-action
// payload, e.g. target coordinates for GOTO or the item name for PICKUP.
type Action struct {
	Type   ActionType     `json:"action"`
	Params map[string]any `json:"params,omitempty"`
}

// ActionSequence is the ordered command list handed to a robot for one task.
// It is derived at assignment time and never persisted.
type ActionSequence []Action

// defaultPantry is used for snack deliveries when the request does not name a
// pantry location.
var defaultPantry = Position{X: 5, Y: 5}

func gotoAction(p Position) Action {
	return Action{Type: ActionGoto, Params: map[string]any{"x": p.X, "y": p.Y}}
}

// DeriveActions builds the action sequence for a task. It is a pure function
// of the task type and details; unknown task types yield an empty sequence.
func DeriveActions(t Task) ActionSequence {
	switch t.Type {
	case SnackDelivery:
		pickup := Action{Type: ActionPickup}
		if item := t.Details.str("item_name"); item != "" {
			pickup.Params = map[string]any{"item": item}
		}
		return ActionSequence{
			gotoAction(t.Details.position("pantry_location", defaultPantry)),
			pickup,
			gotoAction(t.Details.position("destination", Position{})),
			{Type: ActionDropoff},
		}
	case ItemDelivery:
		return ActionSequence{
			gotoAction(t.Details.position("source", Position{})),
			{Type: ActionPickup},
			gotoAction(t.Details.position("destination", Position{})),
			{Type: ActionDropoff},
		}
	case GuideGuest:
		dest := t.Details.position("destination", Position{})
		return ActionSequence{
			{Type: ActionLeadGuest, Params: map[string]any{"x": dest.X, "y": dest.Y}},
		}
	}
	return nil
}
