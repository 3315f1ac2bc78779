package booking

// CanProceedToNextStep is the gate for the current step.
func CanProceedToNextStep(s State) bool {
	return stepComplete(s, s.CurrentStep)
}

func stepComplete(s State, step Step) bool {
	switch step {
	case StepService:
		return len(s.SelectedServices) > 0
	case StepDateTime:
		return s.SelectedDate != nil && s.SelectedTime != nil
	case StepTechnician:
		return true
	case StepCustomerInfo:
		return s.CustomerInfo != nil
	case StepReview:
		return s.AgreedToTerms
	default:
		return false
	}
}

// IncompleteSteps lists every step whose gate is closed, in order.
func IncompleteSteps(s State) []Step {
	var out []Step
	for step := FirstStep; step <= LastStep; step++ {
		if !stepComplete(s, step) {
			out = append(out, step)
		}
	}
	return out
}
