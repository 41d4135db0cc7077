package project

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the layout of every date attribute.
const DateLayout = "2006-01-02"

const maxSuppliers = 20

// ParseNumber reads a numeric text attribute. Thousands separators and spaces
// are ignored; blank or malformed input reports false.
func ParseNumber(s string) (float64, bool) {
	s = strings.NewReplacer(",", "", " ", "").Replace(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func number(s string) float64 {
	v, _ := ParseNumber(s)
	return v
}

// TotalYears returns agreement years plus option years, or "" when the sum is zero.
func TotalYears(agreementYears, optionYears string) string {
	total := number(agreementYears) + number(optionYears)
	if total == 0 {
		return ""
	}
	return formatNumber(total)
}

// Annualize divides a periodic amount by a number of years. It returns ""
// when either input is blank, malformed or zero.
func Annualize(periodic, years string) string {
	p, y := number(periodic), number(years)
	if p == 0 || y == 0 {
		return ""
	}
	return formatNumber(p / y)
}

// DeriveTotals recomputes the derived duration and annual amounts from
// their inputs.
func DeriveTotals(p *Project) {
	p.TotalYears = TotalYears(p.AgreementYears, p.OptionYears)
	p.AnnualEstimate = Annualize(p.EstimatePeriodic, p.TotalYears)
	p.CurrentAnnual = Annualize(p.CurrentPeriodic, p.TotalYearsCurrent)
}

// TaskStatusFor derives the task status from a due date. It reports false
// when the due date is blank or unparseable.
func TaskStatusFor(taskDue string, now time.Time) (string, bool) {
	taskDue = strings.TrimSpace(taskDue)
	if taskDue == "" {
		return "", false
	}
	due, err := time.ParseInLocation(DateLayout, taskDue, now.Location())
	if err != nil {
		return "", false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if due.Before(today) {
		return TaskOverdue, true
	}
	return TaskInProgress, true
}

// DeriveTaskStatus sets the task status from the due date, leaving it
// untouched when no due date is set.
func DeriveTaskStatus(p *Project, now time.Time) {
	if status, ok := TaskStatusFor(p.TaskDue, now); ok {
		p.TaskStatus = status
	}
}

// SupplierNames splits a comma-joined supplier list, dropping blanks.
func SupplierNames(csv string) []string {
	var names []string
	for _, name := range strings.Split(csv, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// NormalizeSuppliers keeps at most count supplier names (capped at 20).
// A zero or missing count clears the list.
func NormalizeSuppliers(count, csv string) string {
	n, err := strconv.Atoi(strings.TrimSpace(count))
	if err != nil || n <= 0 {
		return ""
	}
	if n > maxSuppliers {
		n = maxSuppliers
	}
	names := SupplierNames(csv)
	if len(names) > n {
		names = names[:n]
	}
	return strings.Join(names, ", ")
}

// NewID generates a record identifier.
func NewID(now time.Time) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return "p_" + strconv.FormatInt(now.UnixMilli(), 36) + "_" + random
}
