package domain

import "github.com/smallbiznis/servicebay/internal/config"

// CheckTransition validates a plain status overwrite of job to target under
// the given policy. It reports noop when the write would not change anything.
// Completed and Invoiced are never reachable here; completion issues the
// invoice and moves the job straight to Invoiced.
func CheckTransition(policy string, job ServiceJob, target JobStatus) (noop bool, err error) {
	if target.Rank() < 0 {
		return false, ErrInvalidStatus
	}
	if job.Status.Terminal() {
		return false, ErrAlreadyInvoiced
	}
	if target == StatusCompleted || target == StatusInvoiced {
		return false, ErrIllegalTransition
	}
	if target == job.Status {
		return true, nil
	}

	if policy == config.TransitionPolicyPermissive {
		return false, nil
	}

	if target.Rank() < job.Status.Rank() {
		return false, ErrIllegalTransition
	}
	if target == StatusAssigned && job.MechanicID == nil {
		return false, ErrMechanicRequired
	}
	return false, nil
}
