package writer

import (
	"html/template"
	"io"
	"strings"

	"github.com/lithammer/dedent"
	"github.com/raine/vinscripted/internal/listing"
)

var attributeLabels = map[string]string{
	"category":  "Catégorie",
	"condition": "État",
	"color":     "Couleur",
	"size":      "Taille",
	"brand":     "Marque",
	"material":  "Matière",
}

var previewTemplate = template.Must(template.New("preview").Funcs(template.FuncMap{
	"label": func(name string) string { return attributeLabels[name] },
}).Parse(strings.TrimSpace(dedent.Dedent(`
	<div class="vinscripted-modal">
	  <h2>{{.Title}}</h2>
	  <div class="vinscripted-description">{{.Description}}</div>
	  {{- if .Attributes}}
	  <ul class="vinscripted-attributes">
	  {{- range .Attributes}}
	    <li><strong>{{label .Name}}</strong> {{.Value}}</li>
	  {{- end}}
	  </ul>
	  {{- end}}
	  {{- if .Keywords}}
	  <p class="vinscripted-keywords">{{range $i, $k := .Keywords}}{{if $i}} {{end}}#{{$k}}{{end}}</p>
	  {{- end}}
	</div>
`))))

type previewData struct {
	Title       string
	Description string
	Attributes  []listing.Attribute
	Keywords    []string
}

// RenderPreview writes the listing as an HTML fragment. All model-provided
// text is escaped and undetected attributes are hidden.
func RenderPreview(w io.Writer, result *listing.Result) error {
	return previewTemplate.Execute(w, previewData{
		Title:       result.Title,
		Description: result.Description,
		Attributes:  result.Attributes.Detected(),
		Keywords:    result.Keywords,
	})
}
