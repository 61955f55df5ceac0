package prompt

// Confirmer answers a yes/no question.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// ConfirmationPolicy specifies how gates handle user confirmations.
type ConfirmationPolicy int

const (
	// ConfirmationPrompt indicates the gate should prompt the user.
	ConfirmationPrompt ConfirmationPolicy = iota
	// ConfirmationAssumeYes indicates the gate should continue without prompting.
	ConfirmationAssumeYes
)

// ConfirmationPolicyFromBool converts the --yes flag into a policy.
func ConfirmationPolicyFromBool(assumeYes bool) ConfirmationPolicy {
	if assumeYes {
		return ConfirmationAssumeYes
	}
	return ConfirmationPrompt
}

// ShouldAssumeYes reports whether prompting can be skipped.
func (policy ConfirmationPolicy) ShouldAssumeYes() bool {
	return policy == ConfirmationAssumeYes
}

// Gate applies a ConfirmationPolicy in front of a Confirmer.
type Gate struct {
	policy    ConfirmationPolicy
	confirmer Confirmer
}

// NewGate constructs a Gate. A nil confirmer declines every prompt unless the policy assumes yes.
func NewGate(policy ConfirmationPolicy, confirmer Confirmer) Gate {
	return Gate{policy: policy, confirmer: confirmer}
}

// Confirm implements Confirmer.
func (gate Gate) Confirm(prompt string) (bool, error) {
	if gate.policy.ShouldAssumeYes() {
		return true, nil
	}
	if gate.confirmer == nil {
		return false, nil
	}
	return gate.confirmer.Confirm(prompt)
}
