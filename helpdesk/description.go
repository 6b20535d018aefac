package helpdesk

import (
	"html/template"
	"strings"
)

// DescriptionData is the context rendered into a ticket's HTML description.
// Customer and Orders are optional enrichment; a nil Customer renders a
// caller-only description.
type DescriptionData struct {
	CallerName   string
	CallerNumber string
	Direction    string
	Duration     string
	Customer     *CustomerSummary
	Orders       []OrderLine
}

type CustomerSummary struct {
	Name        string
	Email       string
	TotalOrders int
}

type OrderLine struct {
	Number string
	Status string
	Total  string
}

var descriptionTmpl = template.Must(template.New("description").Parse(`<div>
<p><strong>Call from:</strong> {{if .CallerName}}{{.CallerName}} ({{.CallerNumber}}){{else}}{{.CallerNumber}}{{end}}</p>
<p><strong>Direction:</strong> {{.Direction}}{{if .Duration}} &middot; <strong>Duration:</strong> {{.Duration}}{{end}}</p>
{{- if .Customer}}
<hr/>
<p><strong>Customer:</strong> {{.Customer.Name}} &lt;{{.Customer.Email}}&gt; ({{.Customer.TotalOrders}} orders)</p>
{{- end}}
{{- if .Orders}}
<table border="1" cellpadding="4">
<tr><th>Order</th><th>Status</th><th>Total</th></tr>
{{- range .Orders}}
<tr><td>{{.Number}}</td><td>{{.Status}}</td><td>{{.Total}}</td></tr>
{{- end}}
</table>
{{- end}}
</div>`))

// BuildDescription renders the HTML description for a call-event ticket.
// html/template escapes all interpolated values, so caller-controlled strings
// cannot inject markup into the helpdesk UI.
func BuildDescription(data DescriptionData) (string, error) {
	var out strings.Builder
	if err := descriptionTmpl.Execute(&out, data); err != nil {
		return "", err
	}
	return out.String(), nil
}
