package project

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"
)

// Project statuses as stored in the slot.
const (
	StatusNotStarted = "לא התחיל"
	StatusInProgress = "בתהליך"
	StatusCompleted  = "הסתיים"
	StatusCancelled  = "מבוטל"
	StatusFrozen     = "מוקפא"
)

// Task statuses derived from the task due date.
const (
	TaskInProgress = "בתהליך"
	TaskOverdue    = "בחריגה"
)

// Known procurement activities, in canonical display order.
const (
	ActivityTender            = "מכרז"
	ActivitySingleSupplier    = "ספק יחיד"
	ActivityCompetition       = "תחרות"
	ActivityExtension         = "הארכה/הגדלה"
	ActivityOptionExercise    = "מימוש אופציה"
	ActivityAccountantGeneral = "חשכ״ל"
	ActivityCrisis            = "ניהול משבר"
	ActivityEngineering       = "בדיקה הנדסית"
)

// Engagement kinds.
const (
	KindNewProject      = "פרויקט חדש"
	KindContinueCurrent = "המשך להתקשרות נוכחית"
)

// Unknown is the bucket used when a grouping attribute is blank.
const Unknown = "לא ידוע"

// Activities lists the known activities in canonical order.
var Activities = []string{
	ActivityTender,
	ActivitySingleSupplier,
	ActivityCompetition,
	ActivityExtension,
	ActivityOptionExercise,
	ActivityAccountantGeneral,
	ActivityCrisis,
	ActivityEngineering,
}

// IsResolved reports whether a status counts toward completion progress.
// Cancelled and frozen work is treated as resolved alongside completed work.
func IsResolved(status string) bool {
	switch status {
	case StatusCompleted, StatusCancelled, StatusFrozen:
		return true
	}
	return false
}

// Project is one procurement project entry.
type Project struct {
	ID        string     `json:"id"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`

	Year       string `json:"year"`
	Area       string `json:"area"`
	Dept       string `json:"dept"`
	Domain     string `json:"domain"`
	Buyer      string `json:"buyer"`
	Division   string `json:"division"`
	Unit       string `json:"unit"`
	Supervisor string `json:"supervisor"`
	Activity   string `json:"activity"`
	Kind       string `json:"kind"`
	Subject    string `json:"subject"`

	ProjStatus string `json:"projStatus"`
	TaskStatus string `json:"taskStatus"`

	PlanStart   string `json:"planStart"`
	PlanEnd     string `json:"planEnd"`
	ActualStart string `json:"actualStart"`
	ActualEnd   string `json:"actualEnd"`
	CurrentEnd  string `json:"currentEnd"`
	Task        string `json:"task"`
	TaskOwner   string `json:"taskOwner"`
	TaskDue     string `json:"taskDue"`

	EstimatePeriodic  string `json:"estimatePeriodic"`
	CurrentPeriodic   string `json:"currentPeriodic"`
	CurrentAnnual     string `json:"currentAnnual"`
	AnnualEstimate    string `json:"annualEstimate"`
	WinningPeriodic   string `json:"winningPeriodic"`
	WinningAnnual     string `json:"winningAnnual"`
	AgreementYears    string `json:"agreementYears"`
	OptionYears       string `json:"optionYears"`
	TotalYears        string `json:"totalYears"`
	TotalYearsCurrent string `json:"totalYearsCurrent"`
	SuppliersCount    string `json:"suppliersCount"`

	Notes            string `json:"notes"`
	CurrentOrderNo   string `json:"currentOrderNo"`
	NewOrderNo       string `json:"newOrderNo"`
	CurrentSuppliers string `json:"currentSuppliers"`
	WinnersNames     string `json:"winnersNames"`

	// Extra keeps attributes written by other clients that this type does
	// not model, so a load/save cycle does not drop them.
	Extra map[string]json.RawMessage `json:"-"`
}

// Form carries submitted field values keyed by their JSON names.
type Form map[string]string

// ParseForm reads a JSON object of submitted values. Numbers and booleans
// are kept as their JSON text and null as an empty value.
func ParseForm(data []byte) (Form, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	form := make(Form, len(raw))
	for name, value := range raw {
		form[name] = rawText(value)
	}
	return form, nil
}

// textFields maps JSON names to the index of each string field.
var textFields = func() map[string]int {
	fields := make(map[string]int)
	t := reflect.TypeOf(Project{})
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Type.Kind() != reflect.String {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		fields[name] = i
	}
	return fields
}()

// FieldNames returns the JSON names of all text attributes.
func FieldNames() []string {
	t := reflect.TypeOf(Project{})
	names := make([]string, 0, len(textFields))
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if f.Type.Kind() == reflect.String && name != "id" {
			names = append(names, name)
		}
	}
	return names
}

// Field returns the value of a text attribute by JSON name. Unmodeled
// attributes are read from Extra when they hold a JSON string.
func (p *Project) Field(name string) string {
	if idx, ok := textFields[name]; ok {
		return reflect.ValueOf(p).Elem().Field(idx).String()
	}
	raw, ok := p.Extra[name]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// SetField assigns a text attribute by JSON name. Unmodeled names are kept
// in Extra. Identity and timestamps cannot be set this way.
func (p *Project) SetField(name, value string) {
	switch name {
	case "id", "createdAt", "updatedAt":
		return
	}
	if idx, ok := textFields[name]; ok {
		reflect.ValueOf(p).Elem().Field(idx).SetString(value)
		return
	}
	if p.Extra == nil {
		p.Extra = make(map[string]json.RawMessage)
	}
	raw, _ := json.Marshal(value)
	p.Extra[name] = raw
}

// Apply overlays submitted form values onto the project.
func (p *Project) Apply(form Form) {
	for name, value := range form {
		p.SetField(name, value)
	}
}

// Clone returns a deep copy of the project.
func (p Project) Clone() Project {
	out := p
	if p.CreatedAt != nil {
		t := *p.CreatedAt
		out.CreatedAt = &t
	}
	if p.UpdatedAt != nil {
		t := *p.UpdatedAt
		out.UpdatedAt = &t
	}
	if p.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(p.Extra))
		for k, v := range p.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

type projectJSON Project

// MarshalJSON writes the modeled attributes followed by any preserved extras.
func (p Project) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(projectJSON(p))
	if err != nil {
		return nil, err
	}
	if len(p.Extra) == 0 {
		return data, nil
	}
	merged := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for k, v := range p.Extra {
		if _, known := merged[k]; !known {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// UnmarshalJSON reads a project and keeps unmodeled attributes in Extra.
// Non-string values of modeled text attributes are stored as their JSON text.
func (p *Project) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var out Project
	for name, value := range raw {
		switch name {
		case "id":
			out.ID = rawText(value)
		case "createdAt", "updatedAt":
			t := rawTime(value)
			if t == nil {
				// Unparseable timestamps survive the round-trip untouched.
				if string(value) != "null" {
					out.keep(name, value)
				}
				continue
			}
			if name == "createdAt" {
				out.CreatedAt = t
			} else {
				out.UpdatedAt = t
			}
		default:
			if _, ok := textFields[name]; ok {
				out.SetField(name, rawText(value))
				continue
			}
			out.keep(name, value)
		}
	}
	*p = out
	return nil
}

func (p *Project) keep(name string, value json.RawMessage) {
	if p.Extra == nil {
		p.Extra = make(map[string]json.RawMessage)
	}
	p.Extra[name] = value
}

func rawText(value json.RawMessage) string {
	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		return s
	}
	if string(value) == "null" {
		return ""
	}
	return strings.TrimSpace(string(value))
}

func rawTime(value json.RawMessage) *time.Time {
	var t time.Time
	if err := json.Unmarshal(value, &t); err != nil {
		return nil
	}
	return &t
}

func (p Project) String() string {
	return fmt.Sprintf("project %s (%s/%s)", p.ID, p.Activity, p.ProjStatus)
}
