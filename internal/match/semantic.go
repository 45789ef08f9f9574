package match

import "context"

// Judgment is the semantic equivalence verdict from the external collaborator.
type Judgment struct {
	Equivalent bool
	Confidence float64
}

// Judge represents the external semantic-equivalence service consulted for
// borderline guesses. Implementations live outside this core.
type Judge interface {
	Judge(ctx context.Context, guess, answer string) (Judgment, error)
}

// StaticJudge returns a fixed verdict. Useful in tests and as a stand-in
// while no real collaborator is configured.
type StaticJudge struct {
	Equivalent bool
	Confidence float64
}

// Judge returns the configured verdict.
func (j StaticJudge) Judge(_ context.Context, _, _ string) (Judgment, error) {
	return Judgment{Equivalent: j.Equivalent, Confidence: j.Confidence}, nil
}
