package reconcile

import "github.com/sheikh-saqib/transfer-reconciliation-service/internal/models"

// Outcome is the result of mapping a processor-reported intent status onto
// the local status. Notify marks transitions the parties are told about.
type Outcome struct {
	Next         models.Status
	Notify       bool
	ErrorMessage string
}

// resolve is the total transition function for an unresolved local status.
// The second return value is false for processor statuses we do not
// recognize; those are logged as anomalies and cause no transition.
func resolve(ps models.ProcessorStatus, lastError string) (Outcome, bool) {
	switch ps {
	case models.ProcessorSucceeded:
		return Outcome{Next: models.StatusSuccessful, Notify: true}, true
	case models.ProcessorCanceled:
		return Outcome{Next: models.StatusCancelled}, true
	case models.ProcessorRequiresPaymentMethod:
		if lastError == "" {
			lastError = "payment failed"
		}
		return Outcome{Next: models.StatusFailed, Notify: true, ErrorMessage: lastError}, true
	case models.ProcessorRequiresAction, models.ProcessorRequiresConfirmation, models.ProcessorProcessing:
		return Outcome{Next: models.StatusUnderReview}, true
	}
	return Outcome{}, false
}
