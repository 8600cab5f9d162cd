package checkout

// State is the orchestrator's view of where a cart sits in the checkout
// lifecycle. Authoritative state lives in the Cart Service's lock flag; the
// local value is a cache re-derived from every remote call's result and is
// never trusted across calls.
type State int

const (
	// Unlocked means no checkout is in progress for the cart.
	Unlocked State = iota
	// LockedPending means Begin has locked the cart and stamped the
	// checkout timestamp; Buy, Abort and finish all require this state.
	LockedPending
	// Completed is terminal: the cart is deleted and an order exists.
	Completed
	// Aborted is terminal: the cart is unlocked and no order was created.
	Aborted
)

func (s State) String() string {
	switch s {
	case Unlocked:
		return "unlocked"
	case LockedPending:
		return "locked_pending"
	case Completed:
		return "completed"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

func stateFromLock(locked bool) State {
	if locked {
		return LockedPending
	}
	return Unlocked
}
