package reconcile

// settleOutcome is the Continue/Stop signal doSettleThings and the worker
// loop pass between each other (spec.md §4.8).
type settleOutcome int

const (
	settleContinue settleOutcome = iota
	settleStop
)

// doSettleThings implements the Settle Detector of spec.md §4.8, invoked
// once the pending queue has gone quiet for currentTimeout. It gives the
// content cache a chance to warm (step 2; see SPEC_FULL.md's SUPPLEMENTED
// FEATURES), publishes a "settled" event to whatever subscription
// mechanism the caller maintains, then defers to the caller's reap/age-out
// policy.
func (r *RootContext) doSettleThings() settleOutcome {
	if !r.DoneInitial() {
		return settleContinue
	}

	if r.Controller != nil {
		r.Controller.WarmContentCache()
	}

	r.logger.Debug("root settled")
	if r.Controller != nil {
		r.Controller.EnqueueUnilateralResponse(map[string]interface{}{"settled": true})
	}

	if r.Controller != nil && r.Controller.ConsiderReap() {
		r.Controller.StopWatch()
		return settleStop
	}

	if r.Controller != nil {
		r.Controller.ConsiderAgeOut()
	}
	return settleContinue
}
