package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html"
	"html/template"
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	templatesOnce sync.Once
	templates     *template.Template
	templatesErr  error

	stripPolicy = bluemonday.StrictPolicy()
	blankLines  = regexp.MustCompile(`\n\s*\n+`)
)

func loadTemplates() (*template.Template, error) {
	templatesOnce.Do(func() {
		templates, templatesErr = template.New("mail").Funcs(template.FuncMap{
			"join": strings.Join,
		}).ParseFS(templateFS, "templates/*.html")
	})
	return templates, templatesErr
}

// Render executes the message template, filling the HTML body and a plain
// text body with the markup stripped.
func Render(m *Message) error {
	if m.TemplateName == "" {
		return nil
	}

	tmpl, err := loadTemplates()
	if err != nil {
		return fmt.Errorf("mailer: parse templates: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, m.TemplateName+".html", m.TemplateData); err != nil {
		return fmt.Errorf("mailer: render %s: %w", m.TemplateName, err)
	}

	m.HTMLContent = buf.String()
	m.TextContent = StripTags(m.HTMLContent)
	return nil
}

// StripTags converts an HTML body into readable plain text.
func StripTags(body string) string {
	text := html.UnescapeString(stripPolicy.Sanitize(body))
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	return strings.TrimSpace(blankLines.ReplaceAllString(text, "\n\n"))
}
