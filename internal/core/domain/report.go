package domain

import (
	"fmt"
	"net"
	"strings"
	"time"
)

type Tier string

const (
	TierQuick    Tier = "quick"
	TierStandard Tier = "standard"
	TierDetailed Tier = "detailed"
)

func ParseTier(s string) (Tier, error) {
	switch Tier(s) {
	case TierQuick, TierStandard, TierDetailed:
		return Tier(s), nil
	default:
		return "", NewError(KindValidation, "parse tier", fmt.Sprintf("unknown report type %q", s))
	}
}

// ReportRequest é imutável depois de construído pela borda HTTP.
type ReportRequest struct {
	Domain   string
	Tier     Tier
	Keywords []string
}

// Section nomeia cada subárvore opcional do relatório.
type Section string

const (
	SectionOverview         Section = "overview"
	SectionBacklinks        Section = "backlinks"
	SectionCompetitors      Section = "competitors"
	SectionTopKeywords      Section = "top_keywords"
	SectionOpportunities    Section = "opportunities"
	SectionKeywordGaps      Section = "keyword_gaps"
	SectionAnalyzedKeywords Section = "analyzed_keywords"
)

// AllSections segue a ordem de exibição do relatório.
var AllSections = []Section{
	SectionOverview,
	SectionBacklinks,
	SectionCompetitors,
	SectionTopKeywords,
	SectionOpportunities,
	SectionKeywordGaps,
	SectionAnalyzedKeywords,
}

// SectionStatus distingue "não solicitado" de "falhou" no payload.
type SectionStatus string

const (
	StatusAbsent SectionStatus = "absent"
	StatusOK     SectionStatus = "ok"
	StatusEmpty  SectionStatus = "empty"
	StatusFailed SectionStatus = "failed"
)

type Overview struct {
	OrganicTraffic  int64 `json:"organic_traffic"`
	OrganicKeywords int64 `json:"organic_keywords"`
	TrafficValue    int64 `json:"traffic_value"`
}

type Backlinks struct {
	Total    int64 `json:"total"`
	Domains  int64 `json:"domains"`
	Dofollow int64 `json:"dofollow"`
}

type Competitor struct {
	Domain  string   `json:"domain"`
	Name    string   `json:"name"`
	Rating  *float64 `json:"rating,omitempty"`
	Reviews int64    `json:"reviews"`
	Address string   `json:"address"`
}

type KeywordRecord struct {
	Keyword          string  `json:"keyword"`
	Position         int     `json:"position,omitempty"`
	SearchVolume     int64   `json:"search_volume"`
	CPC              float64 `json:"cpc"`
	Competition      string  `json:"competition,omitempty"`
	URL              string  `json:"url,omitempty"`
	PotentialTraffic int64   `json:"potential_traffic"`
}

// ReportDocument é o resultado agregado; toda seção é opcional.
type ReportDocument struct {
	ReportID         string                    `json:"report_id"`
	Domain           string                    `json:"domain"`
	ReportType       Tier                      `json:"report_type"`
	GeneratedAt      time.Time                 `json:"generated_at"`
	Overview         *Overview                 `json:"overview,omitempty"`
	Backlinks        *Backlinks                `json:"backlinks,omitempty"`
	Competitors      []Competitor              `json:"competitors,omitempty"`
	TopKeywords      []KeywordRecord           `json:"top_keywords,omitempty"`
	Opportunities    []KeywordRecord           `json:"opportunities,omitempty"`
	KeywordGaps      []KeywordRecord           `json:"keyword_gaps,omitempty"`
	AnalyzedKeywords []KeywordRecord           `json:"analyzed_keywords,omitempty"`
	Sections         map[Section]SectionStatus `json:"sections"`
}

// HasData informa se alguma seção foi preenchida.
func (d ReportDocument) HasData() bool {
	return d.Overview != nil ||
		d.Backlinks != nil ||
		len(d.Competitors) > 0 ||
		len(d.TopKeywords) > 0 ||
		len(d.Opportunities) > 0 ||
		len(d.KeywordGaps) > 0 ||
		len(d.AnalyzedKeywords) > 0
}

func (d ReportDocument) Status(s Section) SectionStatus {
	if st, ok := d.Sections[s]; ok {
		return st
	}
	return StatusAbsent
}

// MaxKeywords limita quantas palavras-chave fornecidas seguem para o provedor.
const MaxKeywords = 10

// NewReportRequest normaliza e valida a entrada vinda da borda HTTP.
func NewReportRequest(rawDomain, reportType string, keywords []string) (ReportRequest, error) {
	d, err := NormalizeDomain(rawDomain)
	if err != nil {
		return ReportRequest{}, err
	}
	tier, err := ParseTier(reportType)
	if err != nil {
		return ReportRequest{}, err
	}

	cleaned := make([]string, 0, len(keywords))
	seen := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		key := strings.ToLower(kw)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		cleaned = append(cleaned, kw)
	}

	return ReportRequest{Domain: d, Tier: tier, Keywords: cleaned}, nil
}

// NormalizeDomain remove esquema, credenciais, porta e caminho, e devolve o host em minúsculas.
func NormalizeDomain(raw string) (string, error) {
	d := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.Index(d, "://"); i >= 0 {
		d = d[i+3:]
	}
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	if i := strings.LastIndex(d, "@"); i >= 0 {
		d = d[i+1:]
	}
	if host, _, err := net.SplitHostPort(d); err == nil {
		d = host
	}
	d = strings.Trim(d, ".")
	if d == "" {
		return "", NewError(KindValidation, "normalize domain", "domain is required")
	}
	if strings.ContainsAny(d, " \t") {
		return "", NewError(KindValidation, "normalize domain", fmt.Sprintf("invalid domain %q", raw))
	}
	return d, nil
}
