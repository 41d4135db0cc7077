package project

// Section identifies an optional part of the project form.
type Section string

const (
	SectionTenderOnly         Section = "tender-only"
	SectionCompetitive        Section = "competitive"
	SectionCompetitiveResults Section = "competitive-results"
	SectionCurrentEngagement  Section = "current-engagement"
)

// currentEngagementFields are cleared when the current-engagement section is hidden.
var currentEngagementFields = []string{
	"currentOrderNo",
	"suppliersCount",
	"currentSuppliers",
	"currentPeriodic",
	"totalYearsCurrent",
	"currentAnnual",
	"currentEnd",
}

// VisibleSections returns the optional form sections shown for an activity
// and engagement kind.
func VisibleSections(activity, kind string) []Section {
	var sections []Section
	if activity == ActivityTender {
		sections = append(sections, SectionTenderOnly)
	}
	switch activity {
	case ActivityTender, ActivityCompetition, ActivitySingleSupplier:
		sections = append(sections, SectionCompetitive, SectionCompetitiveResults)
	}
	if kind == KindContinueCurrent {
		sections = append(sections, SectionCurrentEngagement)
	}
	return sections
}

// HasSection reports whether s is among sections.
func HasSection(sections []Section, s Section) bool {
	for _, sec := range sections {
		if sec == s {
			return true
		}
	}
	return false
}

// ClearHiddenSections blanks the fields of sections that are not shown.
func ClearHiddenSections(p *Project) {
	if HasSection(VisibleSections(p.Activity, p.Kind), SectionCurrentEngagement) {
		return
	}
	for _, name := range currentEngagementFields {
		p.SetField(name, "")
	}
}
