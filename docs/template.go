package docs

import (
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/Masterminds/sprig/v3"
)

// page is the data handed to the render templates.
type page struct {
	Title   string
	Entries []Entry
}

const markdownTemplate = `# {{ .Title }} Events <{{ len .Entries }} Events>
{{- range $i, $e := .Entries }}

## {{ $e.Event }}
{{ $e.Description }}
{{- if $e.Params }}
{{- range $j, $p := $e.Params }}
> **{{ add $j 1 }}**. {{ $p }}<br>
{{- end }}
{{- else }}
> **<none>**
{{- end }}
{{- if ne (add $i 1) (len $.Entries) }}

---
{{- end }}
{{- end }}

---
**Generated by dispatch/docs**
`

const htmlTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{ .Title }} Events</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; background: #f5f5f5; }
        .title { color: #2c3e50; font-size: 32px; text-align: center; margin-bottom: 30px; }
        .event-count { background: #a1ed1f; color: white; padding: 2px 10px; border-radius: 12px; font-size: 25px; }
        .event { background: white; padding: 20px; margin-bottom: 20px; border-radius: 5px; box-shadow: 0 2px 5px rgba(0,0,0,0.1); }
        .event-name { color: #2c3e50; font-size: 24px; margin: 0 0 10px 0; border-bottom: 2px solid #3498db; padding-bottom: 5px; }
        .event-desc { color: #555; margin-bottom: 15px; }
        .params-box { background: #f8f9fa; border-left: 4px solid #3498db; padding: 15px; margin: 15px 0; }
        .params-title { color: #2c3e50; font-weight: bold; margin-bottom: 10px; }
        .param { margin: 8px 0; padding-left: 15px; }
        .param-desc { color: #555; }
        .divider { height: 1px; background: #ddd; margin: 25px 0; }
        .footer { text-align: center; color: #888; margin-top: 40px; padding-top: 20px; border-top: 1px solid #eee; }
    </style>
</head>
<body>
    <h1 class="title">
        {{ .Title }} Events
        <span class="event-count">{{ len .Entries }} Events</span>
    </h1>
    <div class="container">
{{- range $i, $e := .Entries }}
        <div class="event">
            <h2 class="event-name">{{ $e.Event }}</h2>
            <div class="event-desc">{{ $e.Description }}</div>
            <div class="params-box">
                <div class="params-title">Arguments passed to handlers:</div>
{{- if $e.Params }}
{{- range $j, $p := $e.Params }}
                <div class="param">
                    <span>{{ add $j 1 }}.</span>
                    <span class="param-desc">{{ $p }}</span>
                </div>
{{- end }}
{{- else }}
                <div class="param">
                    <span>&lt;none&gt;</span>
                </div>
{{- end }}
            </div>
        </div>
{{- if ne (add $i 1) (len $.Entries) }}
        <div class="divider"></div>
{{- end }}
{{- end }}
    </div>
    <div class="footer">
        Generated by dispatch/docs
    </div>
</body>
</html>
`

var (
	mdTpl = texttemplate.Must(
		texttemplate.New("markdown").Funcs(sprig.TxtFuncMap()).Parse(markdownTemplate))
	htmlTpl = htmltemplate.Must(
		htmltemplate.New("html").Funcs(sprig.HtmlFuncMap()).Parse(htmlTemplate))
)

// renderMarkdown renders the page as a Markdown document.
func renderMarkdown(p page) (string, error) {
	var b strings.Builder
	if err := mdTpl.Execute(&b, p); err != nil {
		return "", err
	}
	return b.String(), nil
}

// renderHTML renders the page as a standalone HTML document.
func renderHTML(p page) (string, error) {
	var b strings.Builder
	if err := htmlTpl.Execute(&b, p); err != nil {
		return "", err
	}
	return b.String(), nil
}
