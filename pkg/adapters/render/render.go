package render

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
	"time"

	"github.com/wadjakorntonsri/ecli-publisher/pkg/core/domain"
	"github.com/wadjakorntonsri/ecli-publisher/pkg/ports"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed templates/*.tex
var latexTemplates embed.FS

var (
	longRule   = regexp.MustCompile(`-{4,}`)
	pageMark   = regexp.MustCompile(`---(.+?)---`)
	tightList  = regexp.MustCompile(`\\tightlist\n`)
	itemBreak  = regexp.MustCompile(`\\item\n\s+`)
	latexLabel = regexp.MustCompile(`\\label.*`)
	nonWord    = regexp.MustCompile(`[\W_]+`)

	latexEscaper = strings.NewReplacer(
		`\`, `\textbackslash{}`, `&`, `\&`, `%`, `\%`, `$`, `\$`, `#`, `\#`,
		`_`, `\_`, `{`, `\{`, `}`, `\}`, `~`, `\textasciitilde{}`, `^`, `\textasciicircum{}`,
	)
)

// runFunc executes an external tool with stdin in dir and returns its stdout.
type runFunc func(ctx context.Context, dir string, stdin []byte, name string, args ...string) ([]byte, error)

// Renderer converts document text to HTML in-process and to LaTeX and PDF
// through pandoc and pdflatex.
type Renderer struct {
	md          goldmark.Markdown
	latex       *template.Template
	pandocBin   string
	pdflatexBin string
	timeout     time.Duration
	run         runFunc
}

func New(pandocBin, pdflatexBin string, timeout time.Duration) *Renderer {
	tmpl := template.Must(template.New("").Delims("<<", ">>").ParseFS(latexTemplates, "templates/*.tex"))
	return &Renderer{
		md:          goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough)),
		latex:       tmpl,
		pandocBin:   pandocBin,
		pdflatexBin: pdflatexBin,
		timeout:     timeout,
		run:         runTool,
	}
}

// HTML renders markdown text and turns ---N--- markers into page bars.
func (r *Renderer) HTML(text string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(strings.ReplaceAll(text, "_", `\_`)), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return PageBreaks(buf.String()), nil
}

// PageBreaks replaces page markers with numbered anchors.
func PageBreaks(html string) string {
	n := 0
	html = longRule.ReplaceAllString(html, "---")
	return pageMark.ReplaceAllStringFunc(html, func(m string) string {
		n++
		label := pageMark.FindStringSubmatch(m)[1]
		return fmt.Sprintf(`<a name="p%d"></a><div class="page_bar"><a href="#p%d">%s</a></div>`, n, n, label)
	})
}

func (r *Renderer) LaTeX(ctx context.Context, doc *domain.Document) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	raw, err := r.run(ctx, "", []byte(doc.Text), r.pandocBin, "-f", "markdown", "-t", "latex", "--wrap=preserve")
	if err != nil {
		return nil, fmt.Errorf("pandoc failed: %w", err)
	}

	var out bytes.Buffer
	err = r.latex.ExecuteTemplate(&out, "default_doc.tex", map[string]string{
		"Title": latexEscaper.Replace(doc.ECLI),
		"Body":  cleanLatex(string(raw)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fill latex template: %w", err)
	}
	return out.Bytes(), nil
}

func cleanLatex(latex string) string {
	latex = tightList.ReplaceAllString(latex, "")
	latex = itemBreak.ReplaceAllString(latex, "\t\\item ")
	latex = latexLabel.ReplaceAllString(latex, "")
	latex = longRule.ReplaceAllString(latex, "---")
	return pageMark.ReplaceAllString(latex, "\\vfill${1}\\pagebreak\n\n")
}

func (r *Renderer) PDF(ctx context.Context, doc *domain.Document) ([]byte, error) {
	latex, err := r.LaTeX(ctx, doc)
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp("", "ecli-pdf-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	if err := os.WriteFile(filepath.Join(dir, "file.tex"), latex, 0o600); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if _, err := r.run(ctx, dir, nil, r.pdflatexBin, "-interaction=batchmode", "-halt-on-error", "file.tex"); err != nil {
		return nil, fmt.Errorf("pdflatex failed: %w", err)
	}

	pdf, err := os.ReadFile(filepath.Join(dir, "file.pdf"))
	if err != nil {
		return nil, fmt.Errorf("pdflatex produced no output: %w", err)
	}
	return pdf, nil
}

// FileName turns an identifier into a safe download name.
func FileName(identifier string) string {
	return nonWord.ReplaceAllString(identifier, "-")
}

func runTool(ctx context.Context, dir string, stdin []byte, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

var _ ports.Renderer = (*Renderer)(nil)
