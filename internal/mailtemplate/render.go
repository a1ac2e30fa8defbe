// Package mailtemplate renders notification templates. Placeholders take the
// form {{key}} or {{group.key}}; unknown keys render as an empty string.
package mailtemplate

import (
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/fadilmartias/fasthire/internal/model"
)

var placeholder = regexp.MustCompile(`\{\{([^}]+)\}\}`)

type Applicant struct {
	Name  string
	Email string
}

type Job struct {
	Title    string
	Location string
}

type Application struct {
	Result      string
	Note        string
	SubmittedAt time.Time
}

type Interview struct {
	Date string
	Time string
}

// Context is the data a template may reference.
type Context struct {
	Applicant   Applicant
	Job         Job
	Application Application
	Interview   Interview
}

// NewContext builds a context from an application with its applicant and job loaded.
func NewContext(app *model.Application) Context {
	var c Context
	if app == nil {
		return c
	}
	if app.Applicant != nil {
		c.Applicant = Applicant{Name: app.Applicant.Name, Email: app.Applicant.Email}
	}
	if app.Job != nil {
		c.Job = Job{Title: app.Job.JobTitle, Location: app.Job.Location}
		if c.Job.Location == "" {
			c.Job.Location = "Not specified"
		}
	}
	c.Application.Result = app.ResultLabel()
	c.Application.SubmittedAt = app.SubmittedAt
	if app.Note != nil {
		c.Application.Note = *app.Note
	}
	return c
}

func (c Context) lookup(key string) string {
	switch strings.TrimSpace(key) {
	case "applicant.name", "candidate_name":
		return c.Applicant.Name
	case "applicant.email":
		return c.Applicant.Email
	case "job.title", "position":
		return c.Job.Title
	case "job.location":
		return c.Job.Location
	case "application.result":
		return c.Application.Result
	case "application.note":
		return c.Application.Note
	case "application.submitted_at":
		if c.Application.SubmittedAt.IsZero() {
			return ""
		}
		return c.Application.SubmittedAt.Format("2 January 2006")
	case "interview.date", "interview_date":
		return c.Interview.Date
	case "interview.time", "interview_time":
		return c.Interview.Time
	}
	return ""
}

// Render substitutes every placeholder in tpl.
func Render(tpl string, ctx Context) string {
	return placeholder.ReplaceAllStringFunc(tpl, func(m string) string {
		return ctx.lookup(m[2 : len(m)-2])
	})
}

// RenderHTML is Render for HTML bodies: substituted values are escaped, the
// template markup is kept as written.
func RenderHTML(tpl string, ctx Context) string {
	return placeholder.ReplaceAllStringFunc(tpl, func(m string) string {
		return html.EscapeString(ctx.lookup(m[2 : len(m)-2]))
	})
}

// Message is a rendered subject and HTML body.
type Message struct {
	Subject string
	HTML    string
}

func RenderTemplate(t *model.EmailTemplate, ctx Context) Message {
	return Message{
		Subject: Render(t.SubjectTemplate, ctx),
		HTML:    RenderHTML(t.BodyTemplate, ctx),
	}
}
