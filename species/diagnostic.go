package species

import "log/slog"

// DiagnosticKind classifies a misconfiguration report.
type DiagnosticKind uint8

const (
	DiagBadValue DiagnosticKind = iota
	DiagInvalidRange
	DiagNonPositiveRate
	DiagMismatchedThresholds
	DiagNoOffspringCodes
	DiagEvolvedWithoutBase
	DiagFallbackToBase
	DiagNoCandidates
)

var diagNames = [...]string{
	DiagBadValue:             "bad_value",
	DiagInvalidRange:         "invalid_range",
	DiagNonPositiveRate:      "non_positive_rate",
	DiagMismatchedThresholds: "mismatched_thresholds",
	DiagNoOffspringCodes:     "no_offspring_codes",
	DiagEvolvedWithoutBase:   "evolved_without_base",
	DiagFallbackToBase:       "fallback_to_base",
	DiagNoCandidates:         "no_candidates",
}

func (k DiagnosticKind) String() string {
	if int(k) < len(diagNames) {
		return diagNames[k]
	}
	return "unknown"
}

// Diagnostic is an observable misconfiguration report. It never changes
// control flow; callers log it and move on.
type Diagnostic struct {
	Kind    DiagnosticKind
	Message string
}

// LogValue implements slog.LogValuer.
func (d Diagnostic) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("kind", d.Kind.String()),
		slog.String("message", d.Message),
	)
}

// LogDiagnostics writes each diagnostic as a warning.
func LogDiagnostics(logger *slog.Logger, code string, diags []Diagnostic) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, d := range diags {
		logger.Warn("species misconfiguration", "species", code, "diagnostic", d)
	}
}
