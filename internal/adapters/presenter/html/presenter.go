// Package html renderiza o ReportDocument e o formulário de entrada.
package html

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/JeanGrijp/seo-report/internal/core/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

type Presenter struct {
	report  *template.Template
	form    *template.Template
	printer *message.Printer
}

// New carrega os templates embutidos. lang controla os separadores de milhar.
func New(lang string) (*Presenter, error) {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.AmericanEnglish
	}
	p := &Presenter{printer: message.NewPrinter(tag)}

	funcs := template.FuncMap{
		"num":    p.number,
		"money":  p.money,
		"label":  sectionLabel,
		"upper":  strings.ToUpper,
		"rating": p.rating,
	}

	p.report, err = template.New("report.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/report.html")
	if err != nil {
		return nil, fmt.Errorf("parse report template: %w", err)
	}
	p.form, err = template.New("form.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/form.html")
	if err != nil {
		return nil, fmt.Errorf("parse form template: %w", err)
	}
	return p, nil
}

type reportView struct {
	Doc    domain.ReportDocument
	Failed []domain.Section
	Empty  bool
}

// Render escreve o relatório; seções ausentes não geram nenhuma região.
func (p *Presenter) Render(w io.Writer, doc domain.ReportDocument) error {
	view := reportView{Doc: doc, Empty: !doc.HasData()}
	for _, s := range domain.AllSections {
		if doc.Status(s) == domain.StatusFailed {
			view.Failed = append(view.Failed, s)
		}
	}
	return p.execute(w, p.report, view)
}

func (p *Presenter) RenderForm(w io.Writer) error {
	return p.execute(w, p.form, nil)
}

// execute renderiza num buffer para não escrever HTML parcial em caso de erro.
func (p *Presenter) execute(w io.Writer, t *template.Template, data any) error {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("render %s: %w", t.Name(), err)
	}
	_, err := buf.WriteTo(w)
	return err
}

func (p *Presenter) number(n int64) string {
	return p.printer.Sprintf("%d", n)
}

func (p *Presenter) money(v float64) string {
	return p.printer.Sprintf("$%.2f", v)
}

func (p *Presenter) rating(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return p.printer.Sprintf("%.1f", *v)
}

func sectionLabel(s domain.Section) string {
	switch s {
	case domain.SectionOverview:
		return "Domain overview"
	case domain.SectionBacklinks:
		return "Backlinks"
	case domain.SectionCompetitors:
		return "Local competitors"
	case domain.SectionTopKeywords:
		return "Top keywords"
	case domain.SectionOpportunities:
		return "Keyword opportunities"
	case domain.SectionKeywordGaps:
		return "Keyword gaps"
	case domain.SectionAnalyzedKeywords:
		return "Analyzed keywords"
	default:
		return string(s)
	}
}
