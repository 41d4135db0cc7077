package project

import (
	"strings"
	"time"
)

// Validate checks the planned dates required to save a project.
func Validate(p *Project) error {
	start := strings.TrimSpace(p.PlanStart)
	end := strings.TrimSpace(p.PlanEnd)

	var fields, labels []string
	if start == "" {
		fields = append(fields, "planStart")
		labels = append(labels, "מועד התחלה מתוכנן")
	}
	if end == "" {
		fields = append(fields, "planEnd")
		labels = append(labels, "מועד סיום מתוכנן")
	}
	if len(fields) > 0 {
		return missingDatesError(fields, labels)
	}

	startDate, err := time.Parse(DateLayout, start)
	if err != nil {
		return nil
	}
	endDate, err := time.Parse(DateLayout, end)
	if err != nil {
		return nil
	}
	if endDate.Before(startDate) {
		return &ValidationError{
			Err:     ErrPlanEndBeforeStart,
			Message: "מועד סיום מתוכנן לא יכול להיות לפני מועד התחלה מתוכנן.",
			Fields:  []string{"planStart", "planEnd"},
		}
	}
	return nil
}
