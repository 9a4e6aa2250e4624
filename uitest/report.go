package uitest

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"
)

// Entry is one line of a report: a check result, or a screen capture when
// Screen is set.
type Entry struct {
	Label  string
	Passed bool
	Screen string
}

// Report records checks and screen captures in the order they happened and
// writes them out as a single HTML page.
type Report struct {
	Title     string
	Started   time.Time
	OutputDir string
	Entries   []Entry
}

// NewReport creates an empty report written under outputDir.
func NewReport(title, outputDir string) *Report {
	return &Report{Title: title, Started: time.Now(), OutputDir: outputDir}
}

// AddResult records a check.
func (r *Report) AddResult(name string, passed bool) {
	r.Entries = append(r.Entries, Entry{Label: name, Passed: passed})
}

// AddSnapshot records a screen capture.
func (r *Report) AddSnapshot(label, screen string) {
	r.Entries = append(r.Entries, Entry{Label: label, Screen: screen})
}

// Passed counts passing checks.
func (r *Report) Passed() int {
	n := 0
	for _, e := range r.Entries {
		if e.Screen == "" && e.Passed {
			n++
		}
	}
	return n
}

// Failed counts failing checks.
func (r *Report) Failed() int {
	n := 0
	for _, e := range r.Entries {
		if e.Screen == "" && !e.Passed {
			n++
		}
	}
	return n
}

var reportPage = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}} UI report</title>
<style>
body { font: 14px/1.4 monospace; background: #111418; color: #d8dee9; margin: 2em auto; max-width: 1100px; }
h1 { font-size: 1.4em; margin-bottom: 0; }
.when { color: #7b8594; }
.verdict { padding: .6em 1em; margin: 1em 0; border-left: 4px solid; }
.ok { color: #8fd694; border-color: #8fd694; }
.bad { color: #f08080; border-color: #f08080; }
.check { padding: .2em 1em; }
figure { margin: 1em 0; border: 1px solid #2c323c; }
figcaption { background: #1b1f26; padding: .3em 1em; color: #a3acb9; }
figure pre { margin: 0; padding: 1em; overflow-x: auto; line-height: 1.15; }
</style>
</head>
<body>
<h1>{{.Title}} UI report</h1>
<p class="when">{{.Started.Format "2006-01-02 15:04:05"}}</p>
{{if .Failures}}<p class="verdict bad">{{.Failures}} of {{.Total}} checks failed</p>
{{else}}<p class="verdict ok">{{.Total}} checks passed</p>
{{end}}
{{range .Entries}}{{if .Screen}}<figure><figcaption>{{.Label}}</figcaption><pre>{{.Screen}}</pre></figure>
{{else if .Passed}}<div class="check ok">&#10003; {{.Label}}</div>
{{else}}<div class="check bad">&#10007; {{.Label}}</div>
{{end}}{{end}}
</body>
</html>
`))

// Generate writes the report into OutputDir and returns the file path.
func (r *Report) Generate() (string, error) {
	if err := os.MkdirAll(r.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(r.OutputDir, fmt.Sprintf("%s-%s.html", r.Title, r.Started.Format("20060102-150405")))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}
	defer f.Close()

	data := struct {
		*Report
		Total    int
		Failures int
	}{r, r.Passed() + r.Failed(), r.Failed()}
	if err := reportPage.Execute(f, data); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
