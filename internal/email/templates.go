package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	TenderNo   string
	TenderName string
}

type raScheduledEmailData struct {
	baseEmailData
	StartTime string
	EndTime   string
}

type raResultEmailData struct {
	baseEmailData
	Result string
	Won    bool
}

type tqReceivedEmailData struct {
	baseEmailData
	Deadline string
}

type tqRepliedEmailData struct {
	baseEmailData
}

type tqMissedEmailData struct {
	baseEmailData
	Reason string
}

type qualificationEmailData struct {
	baseEmailData
	Qualified bool
}

func renderEmailTemplate(name string, data any) (string, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/"+name)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render email template %s: %w", name, err)
	}
	return buf.String(), nil
}
