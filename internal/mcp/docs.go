package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `procdash tracks forest-operations procurement projects and their dashboard.

Core concepts:
- Project: one procurement record (year, area, department, buyer, activity, status, planned and actual dates, money fields).
- Activity: procurement path (מכרז, ספק יחיד, תחרות, הארכה/הגדלה, ...). Progress rows follow a fixed activity order; unknown activities follow in first-seen order.
- Progress: per activity, the share of records that are הסתיים, מבוטל or מוקפא.
- Protection: planned dates of a record older than 24h are locked until unlocked with the admin code. An unlock lasts 20 minutes for one session and one record.

Workflow:
1) Orient: get_filter_options, then get_dashboard (optionally with filters).
2) Browse: list_projects with filters; get_project for one record.
3) Write: save_project. Omit id to create. Both planStart and planEnd (YYYY-MM-DD) are required and planEnd must not precede planStart.
4) If save_project returns PLAN_DATES_LOCKED, call unlock_plan_dates then retry within 20 minutes using the same session.

Transport notes:
- HTTP: the session comes from the Mcp-Session-Id header.
- Stdio: pass session_id arguments or _meta.session_id; otherwise one shared session is used.

Docs:
- procdash://docs/fields
- procdash://docs/protection
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "procdash://docs/fields",
		Name:        "docs_fields",
		Title:       "Project fields",
		Description: "Field names, derived values and conditional sections of a project record.",
		Content: `# Project fields

All values are text. Dates use ` + "`YYYY-MM-DD`" + `.

## Identity
- ` + "`id`" + `, ` + "`createdAt`" + `, ` + "`updatedAt`" + ` are assigned by the server and cannot be set.

## Classification
- ` + "`year`" + `, ` + "`area`" + `, ` + "`dept`" + `, ` + "`unit`" + `, ` + "`buyer`" + `, ` + "`activity`" + `, ` + "`kind`" + `

## Status
- ` + "`projStatus`" + `: בתהליך, הסתיים, לא התחיל, מבוטל, מוקפא. Defaults to בתהליך.
- ` + "`taskStatus`" + `: derived from ` + "`taskDue`" + ` when blank (בתהליך until the due day ends, then בחריגה).

## Derived money fields
- ` + "`totalYears`" + ` = agreementYears + optionYears
- ` + "`annualEstimate`" + ` = estimatePeriodic / totalYears
- ` + "`currentAnnual`" + ` = currentPeriodic / totalYearsCurrent

Derived values are recomputed on every save.

## Conditional sections
- Tender-only fields are kept only for activity מכרז.
- Competitive fields are kept for מכרז, תחרות and ספק יחיד.
- Current engagement fields are kept only for kind "המשך להתקשרות נוכחית".

Fields of hidden sections are cleared on save. Unknown fields are preserved.
`,
	},
	{
		URI:         "procdash://docs/protection",
		Name:        "docs_protection",
		Title:       "Plan-date protection",
		Description: "When planned dates lock and how unlock windows work.",
		Content: `# Plan-date protection

- A record whose ` + "`createdAt`" + ` is at least 24 hours old has protected planned dates.
- Saving a change to ` + "`planStart`" + ` or ` + "`planEnd`" + ` on such a record fails with PLAN_DATES_LOCKED.
- Saving other fields, or the same dates, is always allowed.
- ` + "`unlock_plan_dates`" + ` with the admin code opens a window for that record in the calling session.
- The window closes 20 minutes after it was granted. A new unlock restarts it.
- Windows do not carry over between sessions or records.
- A wrong code returns INVALID_CODE and changes nothing.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
