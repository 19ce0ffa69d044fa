package email

import (
	"bytes"
	_ "embed"
	"html/template"
	"time"

	"ai-newsletter/internal/model"
)

type section struct {
	Topic   string
	Content string
}

type data struct {
	Subject  string
	Date     string
	Sections []section
	// Substituted by Listmonk at send time; typed as a URL so the
	// placeholder survives template execution verbatim.
	UnsubscribeURL template.URL
}

//go:embed email.tmpl
var emailTpl string

var compiled = template.Must(template.New("email").Parse(emailTpl))

// Render produces the HTML email body for generated newsletter content.
// It is a pure function of the content.
func Render(c model.Content) (string, error) {
	d := data{
		Subject:        c.Subject,
		Date:           c.GeneratedAt.UTC().Format("January 02, 2006"),
		Sections:       make([]section, 0, len(c.Sections)),
		UnsubscribeURL: template.URL("{{ unsubscribe_url }}"),
	}
	if c.GeneratedAt.IsZero() {
		d.Date = time.Now().UTC().Format("January 02, 2006")
	}
	for _, s := range c.Sections {
		d.Sections = append(d.Sections, section{Topic: s.Topic, Content: s.Content})
	}
	var buf bytes.Buffer
	if err := compiled.Execute(&buf, d); err != nil {
		return "", err
	}
	return buf.String(), nil
}
