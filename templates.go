package statusview

import (
	"bytes"
	"html/template"
)

var templates = template.Must(template.New("statusview").Parse(`
{{define "configErrors"}}<div class="notification is-danger mt-0 mb-0">
  <div>Please check the below errors!</div>
  <div class="content">
    <ul>
{{- range .}}
      <li>{{.}}</li>
{{- end}}
    </ul>
  </div>
</div>{{end}}

{{define "diagram"}}<div style="overflow-x: auto">
  <div class="{{if .Source}}diagram{{else}}mermaid{{end}}" id="{{.ID}}-container"{{if .Style}} style="{{.Style}}"{{end}}>{{.Markup}}</div>
{{- range .Scripts}}
  <script type="module">{{.}}</script>
{{- end}}
</div>{{end}}
`))

func executeTemplate(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
