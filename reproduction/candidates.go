package reproduction

import (
	"fmt"

	"github.com/pthm-cable/herd/species"
)

// ResolveCandidates returns the offspring codes a parent of the given
// generation may give birth to. A nil result means the birth must not spawn
// anything; the diagnostics say why.
//
// The single-threshold form always mixes base codes in, whatever
// ExclusiveEvolution says; only the per-code form honours it.
func ResolveCandidates(generation int, s *species.Snapshot) ([]string, []species.Diagnostic) {
	var (
		candidates []string
		diags      []species.Diagnostic
	)
	report := func(kind species.DiagnosticKind, format string, args ...any) {
		diags = append(diags, species.Diagnostic{Kind: kind, Message: fmt.Sprintf(format, args...)})
	}

	thresholds := s.EvolutionThresholds
	evolved := s.EvolvedOffspringCodes
	base := s.OffspringCodes

	switch {
	case len(thresholds) > 1 && len(thresholds) == len(evolved):
		for i, code := range evolved {
			if generation >= thresholds[i] {
				candidates = append(candidates, code)
			}
		}
		if len(candidates) == 0 {
			report(species.DiagFallbackToBase,
				"generation %d below every evolution threshold, using %d base codes", generation, len(base))
			candidates = append(candidates, base...)
		} else if !s.ExclusiveEvolution {
			candidates = append(candidates, base...)
		}

	case len(thresholds) == 1:
		if generation >= thresholds[0] {
			candidates = append(candidates, evolved...)
		}
		candidates = append(candidates, base...)

	default:
		if len(thresholds) > 0 || len(evolved) > 0 {
			report(species.DiagMismatchedThresholds,
				"%d evolution thresholds for %d evolved codes, using %d base codes", len(thresholds), len(evolved), len(base))
		}
		candidates = append(candidates, base...)
	}

	if len(base) == 0 && len(evolved) > 0 {
		report(species.DiagEvolvedWithoutBase,
			"no base offspring codes but %d evolved codes", len(evolved))
		return nil, diags
	}
	if len(candidates) == 0 {
		report(species.DiagNoCandidates, "no offspring codes configured")
		return nil, diags
	}
	return candidates, diags
}
