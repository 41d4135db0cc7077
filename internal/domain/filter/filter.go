// Package filter derives filter options from project lists and applies
// equality filters.
package filter

import (
	"net/url"
	"slices"
	"strings"

	"github.com/forestops/procdash/internal/domain/project"
)

// Field names a filterable attribute.
type Field string

const (
	FieldYear     Field = "year"
	FieldArea     Field = "area"
	FieldDept     Field = "dept"
	FieldUnit     Field = "unit"
	FieldBuyer    Field = "buyer"
	FieldActivity Field = "activity"
	FieldStatus   Field = "status"
	FieldTask     Field = "task"
)

// Fields lists the filterable fields in display order.
var Fields = []Field{
	FieldYear, FieldArea, FieldDept, FieldUnit,
	FieldBuyer, FieldActivity, FieldStatus, FieldTask,
}

// Value returns the record attribute a field filters on.
func (f Field) Value(p *project.Project) string {
	switch f {
	case FieldStatus:
		return p.ProjStatus
	case FieldTask:
		return p.TaskStatus
	default:
		return p.Field(string(f))
	}
}

// Filters holds the active filter value per field. A missing or empty value
// places no constraint on that field.
type Filters map[Field]string

// Options holds the selectable values per field.
type Options map[Field][]string

// DistinctValues returns the unique non-empty values of field in first-seen order.
func DistinctValues(projects []project.Project, field Field) []string {
	seen := make(map[string]bool)
	values := []string{}
	for i := range projects {
		v := field.Value(&projects[i])
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	return values
}

// BuildOptions returns the distinct values of every filterable field.
func BuildOptions(projects []project.Project) Options {
	opts := make(Options, len(Fields))
	for _, f := range Fields {
		opts[f] = DistinctValues(projects, f)
	}
	return opts
}

// Unmatched returns, in field order, the fields whose selected value is not
// among the options. A client resets those selections to "all" after a
// reload; the filters themselves still apply as given.
func (o Options) Unmatched(filters Filters) []Field {
	var out []Field
	for _, f := range Fields {
		v := filters[f]
		if v == "" {
			continue
		}
		if !slices.Contains(o[f], v) {
			out = append(out, f)
		}
	}
	return out
}

// Match reports whether a project passes every active filter. Comparison is
// exact and case-sensitive.
func (f Filters) Match(p *project.Project) bool {
	for field, want := range f {
		if want != "" && field.Value(p) != want {
			return false
		}
	}
	return true
}

// Apply returns the projects passing every active filter. The input is
// never modified.
func Apply(projects []project.Project, filters Filters) []project.Project {
	out := make([]project.Project, 0, len(projects))
	for i := range projects {
		if filters.Match(&projects[i]) {
			out = append(out, projects[i])
		}
	}
	return out
}

// ParseQuery reads filters from query parameters named after the fields.
func ParseQuery(values url.Values) Filters {
	filters := make(Filters)
	for _, f := range Fields {
		if v := strings.TrimSpace(values.Get(string(f))); v != "" {
			filters[f] = v
		}
	}
	return filters
}
