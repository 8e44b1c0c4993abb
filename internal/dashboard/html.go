package dashboard

import (
	"bytes"
	"html/template"
	"io"
	"time"

	"github.com/drew/databoard/internal/model"
	"github.com/drew/databoard/internal/results"
	"github.com/yuin/goldmark"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Metric text comes from the built-in table, not from users, so inline HTML
// such as <sub> in formulas is passed through
var md = goldmark.New(goldmark.WithRendererOptions(gmhtml.WithUnsafe()))

// PageOptions controls where the page links to. The server points at its
// routes; the static report points at files next to index.html.
type PageOptions struct {
	// SelectionURL returns the page of another selection
	SelectionURL func(sel model.Selection) string
	ChartURL     string
	ImageURL     string
	CSVURL       string
	XLSXURL      string
	Generated    time.Time
}

type option struct {
	Label    string
	URL      string
	Selected bool
}

type pageData struct {
	Title      string
	Result     *results.Result
	Parameters []option
	Heights    []option
	Summary    template.HTML
	Definition template.HTML
	Rows       [][]string
	Options    PageOptions
}

// Page renders the results page of one selection
func Page(w io.Writer, res *results.Result, opts PageOptions) error {
	data := pageData{
		Title:   res.Title(),
		Result:  res,
		Rows:    res.Table.Rows(),
		Options: opts,
	}

	sel := res.Selection
	for _, p := range model.Parameters() {
		data.Parameters = append(data.Parameters, option{
			Label:    string(p),
			URL:      opts.SelectionURL(model.Selection{Parameter: p, Height: sel.Height}),
			Selected: p == sel.Parameter,
		})
	}
	for _, h := range model.Heights() {
		data.Heights = append(data.Heights, option{
			Label:    string(h),
			URL:      opts.SelectionURL(model.Selection{Parameter: sel.Parameter, Height: h}),
			Selected: h == sel.Height,
		})
	}

	var err error
	if data.Summary, err = markdown(res.Metric.Summary); err != nil {
		return err
	}
	if data.Definition, err = markdown(res.Metric.Definition); err != nil {
		return err
	}

	return pageTemplate.Execute(w, data)
}

// markdown converts metric descriptions to HTML
func markdown(src string) (template.HTML, error) {
	if src == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

var funcs = template.FuncMap{
	"formatTime": formatTime,
	"sectionErr": func(res *results.Result, s string) *results.SectionError {
		return res.Err(results.Section(s))
	},
}

var pageTemplate = template.Must(template.New("page").Funcs(funcs).Parse(styleTemplate + pageHTML))

var indexTemplate = template.Must(template.New("index").Funcs(funcs).Parse(styleTemplate + indexHTML))

const styleTemplate = `{{define "style"}}
    <style>
        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }

        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Oxygen, Ubuntu, Cantarell, sans-serif;
            background: #f5f5f5;
            color: #333;
            line-height: 1.6;
        }

        .layout {
            display: flex;
            min-height: 100vh;
        }

        aside {
            width: 260px;
            background: white;
            padding: 30px 20px;
            box-shadow: 2px 0 4px rgba(0,0,0,0.1);
        }

        aside label {
            display: block;
            font-size: 14px;
            color: #7f8c8d;
            margin: 15px 0 5px;
        }

        aside select {
            width: 100%;
            padding: 6px;
            border: 1px solid #dee2e6;
            border-radius: 4px;
        }

        .container {
            flex: 1;
            max-width: 1100px;
            margin: 0 auto;
            padding: 20px;
        }

        h1 {
            font-size: 32px;
            margin-bottom: 20px;
            color: #2c3e50;
        }

        .section {
            background: white;
            padding: 30px;
            border-radius: 8px;
            box-shadow: 0 2px 4px rgba(0,0,0,0.1);
            margin-bottom: 30px;
        }

        h2 {
            font-size: 24px;
            margin-bottom: 20px;
            color: #2c3e50;
            border-bottom: 3px solid;
            border-image: linear-gradient(to right, #e74c3c, #f39c12, #27ae60, #3498db, #9b59b6) 1;
        }

        details {
            margin-bottom: 20px;
        }

        summary {
            cursor: pointer;
            font-weight: 600;
        }

        .chart img, .field img {
            max-width: 100%;
        }

        .caption {
            color: #7f8c8d;
            font-size: 14px;
            text-align: center;
        }

        .error {
            background: #fdecea;
            border-left: 4px solid #e74c3c;
            padding: 12px 16px;
            border-radius: 4px;
            color: #c0392b;
        }

        .error .kind {
            font-weight: bold;
            margin-right: 8px;
        }

        table {
            width: 100%;
            border-collapse: collapse;
        }

        th {
            text-align: left;
            padding: 12px;
            background: #f8f9fa;
            font-weight: 600;
            color: #2c3e50;
            border-bottom: 2px solid #dee2e6;
        }

        td {
            padding: 12px;
            border-bottom: 1px solid #dee2e6;
        }

        td.num {
            text-align: right;
            font-family: monospace;
        }

        tr:hover {
            background: #f8f9fa;
        }

        .downloads a {
            margin-right: 15px;
            color: #3498db;
        }

        .subtitle {
            color: #7f8c8d;
            font-size: 14px;
        }
    </style>
{{end -}}
{{define "error"}}<div class="error"><span class="kind">{{.Kind}}</span>{{.Message}}</div>{{end -}}
`

const pageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    {{template "style"}}
</head>
<body>
<div class="layout">
    <aside>
        <label for="parameter">Choose parameter.</label>
        <select id="parameter" onchange="location.href=this.value">
            {{range .Parameters}}<option value="{{.URL}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>
            {{end}}
        </select>
        <label for="height">Select prosthesis height.</label>
        <select id="height" onchange="location.href=this.value">
            {{range .Heights}}<option value="{{.URL}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>
            {{end}}
        </select>
    </aside>
    <div class="container">
        <h1>{{.Title}}</h1>
        {{with .Definition}}
        <details open>
            <summary>See definition</summary>
            {{.}}
        </details>
        {{end}}

        {{$param := .Result.Selection.Parameter}}
        <div class="section chart">
            <h2>{{$param}} contours</h2>
            {{.Summary}}
            {{with sectionErr .Result "chart"}}{{template "error" .}}{{else}}
            <img src="{{.Options.ChartURL}}" alt="{{.Result.Chart.Label}} by location">
            {{end}}
        </div>

        {{if .Result.Metric.HasImage}}
        <div class="section field">
            <h2>{{$param}} field</h2>
            {{with sectionErr .Result "image"}}{{template "error" .}}{{else}}{{with .Result.Image}}
            <img src="{{$.Options.ImageURL}}" alt="{{.Name}}">
            <p class="caption">{{.Caption}}</p>
            {{end}}{{end}}
        </div>
        {{end}}

        <div class="section data">
            <h2>{{$param}} data</h2>
            {{with sectionErr .Result "table"}}{{template "error" .}}{{else}}
            <table>
                <thead>
                    <tr>{{range .Result.Table.Columns}}<th>{{.}}</th>{{end}}</tr>
                </thead>
                <tbody>
                    {{range .Rows}}<tr>{{range $i, $cell := .}}<td{{if ge $i 2}} class="num"{{end}}>{{$cell}}</td>{{end}}</tr>
                    {{end}}
                </tbody>
            </table>
            <p class="downloads">
                {{with .Options.CSVURL}}<a href="{{.}}">Download CSV</a>{{end}}
                {{with .Options.XLSXURL}}<a href="{{.}}">Download XLSX</a>{{end}}
            </p>
            {{end}}
        </div>
        {{with formatTime .Options.Generated}}<p class="subtitle">Generated {{.}}</p>{{end}}
    </div>
</div>
</body>
</html>
`

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>databoard results</title>
    {{template "style"}}
</head>
<body>
<div class="container">
    <h1>Results</h1>
    <p class="subtitle">Generated {{formatTime .Generated}}</p>
    <div class="section">
        <table>
            <thead>
                <tr><th>Parameter</th><th>Height</th><th>Rows</th><th>Locations</th><th>Errors</th></tr>
            </thead>
            <tbody>
                {{range .Selections}}<tr>
                    <td><a href="{{.Page}}">{{.Parameter}}</a></td>
                    <td>{{.Height}}</td>
                    <td class="num">{{.Rows}}</td>
                    <td class="num">{{.Locations}}</td>
                    <td>{{range .Errors}}<div><span class="kind">{{.Kind}}</span> {{.Section}}</div>{{else}}-{{end}}</td>
                </tr>
                {{end}}
            </tbody>
        </table>
    </div>
</div>
</body>
</html>
`
