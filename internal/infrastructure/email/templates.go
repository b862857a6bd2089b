// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	texttemplate "text/template"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain/models"
)

//go:embed templates/*
var templateFS embed.FS

// RenderedEmail holds both HTML and text versions of a rendered email
type RenderedEmail struct {
	HTML string
	Text string
}

// executor is satisfied by both html and text templates.
type executor interface {
	Execute(w io.Writer, data any) error
}

// TemplateSet holds the HTML and text templates of one email kind
type TemplateSet struct {
	HTML *template.Template
	Text *texttemplate.Template
}

// Templates holds all meeting email templates
type Templates struct {
	Invitation   TemplateSet
	Cancellation TemplateSet
}

// templateConfig defines a template to be loaded
type templateConfig struct {
	name string
	path string
}

// MeetingEmailData is the data available to every meeting template.
type MeetingEmailData struct {
	Community string
	Group     string
	Topic     string
	Platform  string
	StartTime string
	JoinURL   string
	Etherpad  string
	Agenda    string
	IsRecord  bool
	PortalEN  string
	PortalZH  string
}

// newMeetingEmailData builds the template data of meeting. Dates and clocks
// are already local to the community.
func newMeetingEmailData(meeting *models.Meeting, portal Portal) MeetingEmailData {
	return MeetingEmailData{
		Community: meeting.Community,
		Group:     meeting.GroupName,
		Topic:     meeting.Topic,
		Platform:  platformDisplayName(meeting.Platform),
		StartTime: meeting.Date + " " + meeting.Start,
		JoinURL:   meeting.JoinURL,
		Etherpad:  meeting.Etherpad,
		Agenda:    meeting.Agenda,
		IsRecord:  meeting.IsRecord,
		PortalEN:  portal.EN,
		PortalZH:  portal.ZH,
	}
}

func platformDisplayName(platform string) string {
	switch platform {
	case models.PlatformTencent:
		return "Tencent"
	case models.PlatformWelink:
		return "WeLink"
	case models.PlatformZoom:
		return "Zoom"
	}
	return platform
}

// loadTemplates parses every embedded meeting template.
func loadTemplates() (Templates, error) {
	invitation, err := loadTemplateSet("meeting_invitation")
	if err != nil {
		return Templates{}, err
	}
	cancellation, err := loadTemplateSet("meeting_cancellation")
	if err != nil {
		return Templates{}, err
	}
	return Templates{Invitation: invitation, Cancellation: cancellation}, nil
}

func loadTemplateSet(base string) (TemplateSet, error) {
	html, err := loadTemplate(templateConfig{name: base + ".html", path: "templates/" + base + ".html"})
	if err != nil {
		return TemplateSet{}, err
	}
	text, err := loadTextTemplate(templateConfig{name: base + ".txt", path: "templates/" + base + ".txt"})
	if err != nil {
		return TemplateSet{}, err
	}
	return TemplateSet{HTML: html, Text: text}, nil
}

// loadTemplate loads a single HTML template with the shared function map
func loadTemplate(config templateConfig) (*template.Template, error) {
	tmpl, err := template.New(config.name).Funcs(template.FuncMap{
		"newLineToBreakLine": newLineToBreakLine,
	}).ParseFS(templateFS, config.path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s template: %w", config.name, err)
	}
	return tmpl, nil
}

// loadTextTemplate loads a plain text template. Text bodies are not HTML escaped.
func loadTextTemplate(config templateConfig) (*texttemplate.Template, error) {
	tmpl, err := texttemplate.New(config.name).ParseFS(templateFS, config.path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s template: %w", config.name, err)
	}
	return tmpl, nil
}

// renderTemplate renders any template with the provided data
func renderTemplate(tmpl executor, data any) (string, error) {
	var buf bytes.Buffer
	err := tmpl.Execute(&buf, data)
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// render renders both versions of set.
func (set TemplateSet) render(data MeetingEmailData) (*RenderedEmail, error) {
	html, err := renderTemplate(set.HTML, data)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", set.HTML.Name(), err)
	}
	text, err := renderTemplate(set.Text, data)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", set.Text.Name(), err)
	}
	return &RenderedEmail{HTML: html, Text: text}, nil
}

// newLineToBreakLine converts newlines to HTML break tags for proper email formatting
func newLineToBreakLine(s string) template.HTML {
	escaped := template.HTMLEscapeString(s)
	replaced := strings.ReplaceAll(escaped, "\n", "<br>")
	// Return as template.HTML to prevent double escaping
	return template.HTML(replaced)
}
