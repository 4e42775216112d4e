package linebalance

import (
	"math"

	"ietool.dev/backend-next/internal/model"
)

// ComputeTargets derives target UPH, commit and target cycle time (seconds)
// from the plan parameters. All three are 0 when any input is not positive.
// Halves round to even.
func ComputeTargets(targetOEE, ratedUPH, plannedHours float64) model.Targets {
	if targetOEE <= 0 || ratedUPH <= 0 || plannedHours <= 0 {
		return model.Targets{}
	}
	targetUPH := targetOEE * ratedUPH
	return model.Targets{
		TargetUPH:       math.RoundToEven(targetUPH),
		Commit:          math.RoundToEven(targetUPH * plannedHours),
		TargetCycleTime: round2(3600 / ratedUPH),
	}
}

// TargetsOf computes the targets of a work plan with its platform loaded.
func TargetsOf(wp *model.WorkPlan) model.Targets {
	if wp == nil {
		return model.Targets{}
	}
	return ComputeTargets(wp.TargetOEE, wp.RatedUPH(), wp.PlannedHours)
}

// FullCommit is the output of the planned hours at the rated UPH.
func FullCommit(ratedUPH, plannedHours float64) float64 {
	if ratedUPH <= 0 || plannedHours <= 0 {
		return 0
	}
	return math.RoundToEven(ratedUPH * plannedHours)
}

func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}
