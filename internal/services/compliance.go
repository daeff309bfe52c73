package services

import "github.com/harentsoaR/healthcare-portal/internal/models"

const (
	StatusMissedCheckup = "Missed Preventive Checkup"
	StatusNoData        = "No Data"
	StatusGoalMet       = "Goal Met"
)

// ComplianceStatus derives a patient's status from today's goal (nil when
// there is none) and the number of overdue open reminders. Overdue
// reminders take precedence over a missing goal. Any existing goal counts
// as met, whatever its metrics.
func ComplianceStatus(today *models.Goal, overdue int64) string {
	switch {
	case overdue > 0:
		return StatusMissedCheckup
	case today == nil:
		return StatusNoData
	default:
		return StatusGoalMet
	}
}
