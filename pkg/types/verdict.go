package types

// CheckResult is the outcome of one validation check.
type CheckResult struct {
	// Passed is true when the check found nothing to report.
	Passed bool

	// Hard marks a failure that indicates structural damage (marker
	// leakage, syntax breakage) as opposed to tolerable drift.
	Hard bool

	// Details holds human-readable findings, one per problem.
	Details []string

	// Lines lists the 1-based line numbers implicated, when known.
	Lines []int
}

// Fail records a finding against the check.
func (r *CheckResult) Fail(detail string, lines ...int) {
	r.Passed = false
	r.Details = append(r.Details, detail)
	r.Lines = append(r.Lines, lines...)
}

// Verdict aggregates all validation checks for one reconstructed file.
// No check short-circuits another; every check always runs.
type Verdict struct {
	Path string

	// LineCount compares original vs reconstructed line counts.
	// Soft failure: reported, not fatal.
	LineCount CheckResult

	// MarkerLoss scans for leftover boundary markers. Hard failure.
	MarkerLoss CheckResult

	// Structure is the language-specific syntax probe. Hard failure
	// when a parser for the language is available and rejects the file.
	Structure CheckResult

	// Indentation compares per-line leading whitespace when line
	// counts match. Soft failure.
	Indentation CheckResult

	// Anomalies is the marker anomaly count carried over from
	// reconstruction.
	Anomalies int
}

// Passed reports whether every check passed.
func (v *Verdict) Passed() bool {
	return v.LineCount.Passed && v.MarkerLoss.Passed &&
		v.Structure.Passed && v.Indentation.Passed
}

// HardFailed reports whether any hard check failed.
func (v *Verdict) HardFailed() bool {
	for _, c := range []CheckResult{v.LineCount, v.MarkerLoss, v.Structure, v.Indentation} {
		if !c.Passed && c.Hard {
			return true
		}
	}
	return false
}

// Failures returns the details of every failed check.
func (v *Verdict) Failures() []string {
	var out []string
	for _, c := range []CheckResult{v.LineCount, v.MarkerLoss, v.Structure, v.Indentation} {
		if !c.Passed {
			out = append(out, c.Details...)
		}
	}
	return out
}
