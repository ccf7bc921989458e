package notifier

import (
	"bytes"
	htmltemplate "html/template"
	"text/template"

	"github.com/good-yellow-bee/synergy/internal/models"
)

const plainTemplate = `Hi {{.Name}},

{{.Title}}
{{.Message}}
{{if .ProjectName}}
Project: {{.ProjectName}}{{end}}

You are receiving this because email notifications are enabled in your Synergy settings.
`

const htmlTemplate = `<!DOCTYPE html>
<html><body style="font-family: sans-serif">
<p>Hi {{.Name}},</p>
<h2 style="color: {{.KindColor}}">{{.Title}}</h2>
<p>{{.Message}}</p>
{{if .ProjectName}}<p><strong>Project:</strong> {{.ProjectName}}</p>{{end}}
<p style="color: #757575; font-size: 12px">You are receiving this because email notifications are enabled in your Synergy settings.</p>
</body></html>
`

// Templates holds parsed email templates.
type Templates struct {
	html  *htmltemplate.Template
	plain *template.Template
}

// TemplateData contains data for template rendering.
type TemplateData struct {
	Name        string
	Title       string
	Message     string
	Kind        string
	KindColor   string
	ProjectName string
}

// LoadTemplates parses the email templates.
func LoadTemplates() (*Templates, error) {
	html, err := htmltemplate.New("email.html").Parse(htmlTemplate)
	if err != nil {
		return nil, err
	}
	plain, err := template.New("email.txt").Parse(plainTemplate)
	if err != nil {
		return nil, err
	}
	return &Templates{html: html, plain: plain}, nil
}

// RenderHTML renders the HTML body. Values are escaped.
func (t *Templates) RenderHTML(data *TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := t.html.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderPlain renders the plain text body.
func (t *Templates) RenderPlain(data *TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := t.plain.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// NewTemplateData builds template data for one recipient.
func NewTemplateData(recipient *models.User, n *models.Notification) *TemplateData {
	return &TemplateData{
		Name:        recipient.Name(),
		Title:       n.Title,
		Message:     n.Message,
		Kind:        string(n.Kind),
		KindColor:   kindColor(n.Kind),
		ProjectName: n.ProjectName,
	}
}

func kindColor(k models.NotificationKind) string {
	switch k {
	case models.NotificationSuccess:
		return "#388e3c"
	case models.NotificationWarning:
		return "#f57c00"
	case models.NotificationInfo:
		return "#1976d2"
	default:
		return "#757575"
	}
}
