package match

import (
	"context"
	"log/slog"
)

// semanticFloor bounds when the judge is worth consulting: below this
// character similarity the guess is a different word, not a borderline one.
const semanticFloor = 0.70

// Service wraps the pure matcher with the optional semantic-equivalence
// fallback for borderline scores.
type Service struct {
	judge  Judge
	logger *slog.Logger
}

// NewService constructs a match service. judge may be nil, disabling the
// fallback entirely.
func NewService(judge Judge, logger *slog.Logger) *Service {
	return &Service{judge: judge, logger: logger}
}

// Check scores the guess and, for borderline rejects (similarity in
// [0.70, 0.95)), consults the semantic judge. A positive judgment yields
// classification fuzzy-ai with the judge's confidence passed through
// unmodified. Judge failures degrade to the character-level verdict; a guess
// check never errors the request.
func (s *Service) Check(ctx context.Context, guess, answer string) MatchResult {
	res := Check(guess, answer)
	if res.Classification != ClassReject || s.judge == nil {
		return res
	}
	if res.Similarity < semanticFloor || res.NormalizedGuess == "" {
		return res
	}

	judgment, err := s.judge.Judge(ctx, guess, answer)
	if err != nil {
		s.logger.Warn("semantic judge unavailable", slog.Any("error", err))
		return res
	}
	if judgment.Equivalent {
		res.Classification = ClassFuzzyAI
		res.Confidence = judgment.Confidence
		res.Reasoning = "accepted by semantic equivalence judge"
	}
	return res
}
