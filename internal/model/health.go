package model

// ComputeHealthScore computes a 0-100 instance health score from the
// diagnostic findings. 100 = healthy, 0 = critical. Findings in categories
// that hurt end users most (io, workload) deduct more.
func ComputeHealthScore(findings []DiagnosticFinding) int {
	score := 100

	for _, f := range findings {
		weight := categoryWeight(f.Category)
		switch f.Severity {
		case SeverityCritical:
			score -= int(12 * weight)
		case SeverityWarning:
			score -= int(5 * weight)
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// categoryWeight returns the importance weight for a finding category.
func categoryWeight(category string) float64 {
	switch category {
	case "io", "workload":
		return 1.5
	case "cpu", "cluster":
		return 1.2
	case "memory", "parsing":
		return 1.0
	default:
		return 0.8
	}
}
