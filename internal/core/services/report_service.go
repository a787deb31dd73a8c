package services

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JeanGrijp/seo-report/internal/core/domain"
	"github.com/JeanGrijp/seo-report/internal/core/ports"
)

// Call identifica uma chamada do plano de um relatório.
type Call string

const (
	CallOverview       Call = "overview"
	CallCompetitors    Call = "competitors"
	CallBacklinks      Call = "backlinks"
	CallRankedKeywords Call = "ranked_keywords"
	CallKeywordVolume  Call = "keyword_volume"
)

const (
	EndpointHistoricalRank = "/v3/dataforseo_labs/google/historical_rank_overview/live"
	EndpointMapsSearch     = "/v3/serp/google/maps/live/advanced"
	EndpointBacklinks      = "/v3/backlinks/summary/live"
	EndpointRankedKeywords = "/v3/dataforseo_labs/google/ranked_keywords/live"
	EndpointSearchVolume   = "/v3/keywords_data/google_ads/search_volume/live"
)

// ReportConfig agrega os parâmetros enviados ao provedor e a política de execução.
type ReportConfig struct {
	LocationCode        int
	LanguageCode        string
	HistoryMonths       int
	CompetitorRegion    string
	CompetitorDepth     int
	CompetitorLimit     int
	RankedKeywordsLimit int
	Timeout             time.Duration
	Parallel            bool
	Now                 func() time.Time
	NewID               func() string
}

func (c *ReportConfig) applyDefaults() {
	if c.LocationCode == 0 {
		c.LocationCode = 2840
	}
	if c.LanguageCode == "" {
		c.LanguageCode = "en"
	}
	if c.HistoryMonths <= 0 {
		c.HistoryMonths = 12
	}
	if c.CompetitorDepth <= 0 {
		c.CompetitorDepth = 20
	}
	if c.CompetitorLimit <= 0 {
		c.CompetitorLimit = 5
	}
	if c.RankedKeywordsLimit <= 0 {
		c.RankedKeywordsLimit = 100
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.NewID == nil {
		c.NewID = uuid.NewString
	}
}

// ReportService orquestra as chamadas do plano e degrada seção por seção.
type ReportService struct {
	client  ports.UpstreamClient
	config  ReportConfig
	metrics ports.Metrics
	log     *zap.Logger
}

var _ ports.ReportBuilder = (*ReportService)(nil)

func NewReportService(client ports.UpstreamClient, cfg ReportConfig, metrics ports.Metrics, log *zap.Logger) (*ReportService, error) {
	if client == nil {
		return nil, fmt.Errorf("upstream client is required")
	}
	cfg.applyDefaults()
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ReportService{client: client, config: cfg, metrics: metrics, log: log}, nil
}

// CallPlan devolve as chamadas de um tier, na ordem em que são feitas.
func CallPlan(tier domain.Tier, keywords []string) []Call {
	switch tier {
	case domain.TierQuick:
		return []Call{CallOverview}
	case domain.TierStandard:
		return []Call{CallOverview, CallCompetitors, CallBacklinks}
	case domain.TierDetailed:
		plan := []Call{CallOverview, CallCompetitors, CallBacklinks, CallRankedKeywords}
		if len(keywords) > 0 {
			plan = append(plan, CallKeywordVolume)
		}
		return plan
	default:
		return nil
	}
}

// Build só falha por falta de credenciais; falhas upstream viram seções ausentes.
func (s *ReportService) Build(ctx context.Context, req domain.ReportRequest) (domain.ReportDocument, error) {
	if err := s.client.Ready(); err != nil {
		return domain.ReportDocument{}, err
	}

	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	b := newReportBuilder()
	plan := CallPlan(req.Tier, req.Keywords)

	if s.config.Parallel {
		var g errgroup.Group
		for _, call := range plan {
			g.Go(func() error {
				s.run(ctx, call, req, b)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for _, call := range plan {
			s.run(ctx, call, req, b)
		}
	}

	doc := b.document(req, plan)
	doc.ReportID = s.config.NewID()
	doc.GeneratedAt = s.config.Now().UTC()

	s.record(req.Tier, doc)
	return doc, nil
}

func (s *ReportService) run(ctx context.Context, call Call, req domain.ReportRequest, b *reportBuilder) {
	var err error
	switch call {
	case CallOverview:
		err = s.overview(ctx, req, b)
	case CallCompetitors:
		err = s.competitors(ctx, req, b)
	case CallBacklinks:
		err = s.backlinks(ctx, req, b)
	case CallRankedKeywords:
		err = s.rankedKeywords(ctx, req, b)
	case CallKeywordVolume:
		err = s.keywordVolume(ctx, req, b)
	}
	if err != nil {
		s.log.Warn("report call failed",
			zap.String("call", string(call)),
			zap.String("domain", req.Domain),
			zap.String("kind", string(domain.KindOf(err))),
			zap.Error(err),
		)
	}
}

func (s *ReportService) overview(ctx context.Context, req domain.ReportRequest, b *reportBuilder) error {
	dateFrom := s.config.Now().AddDate(0, -s.config.HistoryMonths, 0)
	dateFrom = time.Date(dateFrom.Year(), dateFrom.Month(), 1, 0, 0, 0, 0, time.UTC)

	raw, err := s.client.Call(ctx, http.MethodPost, EndpointHistoricalRank, []targetTask{{
		Target:       req.Domain,
		LocationCode: s.config.LocationCode,
		LanguageCode: s.config.LanguageCode,
		DateFrom:     dateFrom.Format("2006-01-02"),
	}})
	var results []domain.HistoricalRankResult
	if err == nil {
		results, err = decodeResults[domain.HistoricalRankResult](EndpointHistoricalRank, raw)
	}
	if err != nil {
		b.setOverview(ZeroOverview(), domain.StatusFailed)
		return err
	}

	if overview, ok := MapOverview(results); ok {
		b.setOverview(overview, domain.StatusOK)
	} else {
		b.setOverview(nil, domain.StatusEmpty)
	}
	return nil
}

func (s *ReportService) competitors(ctx context.Context, req domain.ReportRequest, b *reportBuilder) error {
	competitors, err := s.lookupCompetitors(ctx, req.Domain)
	if err != nil {
		b.setCompetitors(nil, domain.StatusFailed)
		return err
	}
	b.setCompetitors(competitors, statusFor(len(competitors)))
	return nil
}

// lookupCompetitors faz a busca em duas etapas: perfil do alvo e depois concorrentes na mesma categoria e cidade.
func (s *ReportService) lookupCompetitors(ctx context.Context, target string) ([]domain.Competitor, error) {
	name := businessName(target)
	region := s.config.CompetitorRegion

	first, err := s.mapsSearch(ctx, joinQuery(name, region), 0)
	if err != nil {
		return nil, fmt.Errorf("target lookup: %w", err)
	}
	category, city := targetProfile(first)

	second, err := s.mapsSearch(ctx, competitorQuery(category, city, region), s.config.CompetitorDepth)
	if err != nil {
		return nil, fmt.Errorf("competitor lookup: %w", err)
	}

	return rankCompetitors(target, name, city, second, s.config.CompetitorLimit), nil
}

func (s *ReportService) mapsSearch(ctx context.Context, keyword string, depth int) ([]domain.MapsItem, error) {
	raw, err := s.client.Call(ctx, http.MethodPost, EndpointMapsSearch, []keywordTask{{
		Keyword:      keyword,
		LocationCode: s.config.LocationCode,
		LanguageCode: s.config.LanguageCode,
		Depth:        depth,
	}})
	if err != nil {
		return nil, err
	}
	results, err := decodeResults[domain.MapsResult](EndpointMapsSearch, raw)
	if err != nil {
		return nil, err
	}
	return mapsItems(results), nil
}

func (s *ReportService) backlinks(ctx context.Context, req domain.ReportRequest, b *reportBuilder) error {
	raw, err := s.client.Call(ctx, http.MethodPost, EndpointBacklinks, []targetTask{{Target: req.Domain}})
	var results []domain.BacklinkSummaryResult
	if err == nil {
		results, err = decodeResults[domain.BacklinkSummaryResult](EndpointBacklinks, raw)
	}
	if err != nil {
		b.setBacklinks(nil, domain.StatusFailed)
		return err
	}

	if backlinks, ok := MapBacklinks(results); ok {
		b.setBacklinks(backlinks, domain.StatusOK)
	} else {
		b.setBacklinks(nil, domain.StatusEmpty)
	}
	return nil
}

func (s *ReportService) rankedKeywords(ctx context.Context, req domain.ReportRequest, b *reportBuilder) error {
	raw, err := s.client.Call(ctx, http.MethodPost, EndpointRankedKeywords, []targetTask{{
		Target:       req.Domain,
		LocationCode: s.config.LocationCode,
		LanguageCode: s.config.LanguageCode,
		Limit:        s.config.RankedKeywordsLimit,
	}})
	var results []domain.RankedKeywordsResult
	if err == nil {
		results, err = decodeResults[domain.RankedKeywordsResult](EndpointRankedKeywords, raw)
	}
	if err != nil {
		b.setRanked(nil, false)
		return err
	}
	b.setRanked(MapRankedKeywords(results), true)
	return nil
}

func (s *ReportService) keywordVolume(ctx context.Context, req domain.ReportRequest, b *reportBuilder) error {
	keywords := limitKeywords(req.Keywords, domain.MaxKeywords)
	raw, err := s.client.Call(ctx, http.MethodPost, EndpointSearchVolume, []volumeTask{{
		Keywords:     keywords,
		LocationCode: s.config.LocationCode,
		LanguageCode: s.config.LanguageCode,
	}})
	var items []domain.SearchVolumeItem
	if err == nil {
		items, err = decodeResults[domain.SearchVolumeItem](EndpointSearchVolume, raw)
	}
	if err != nil {
		b.setAnalyzed(nil, false)
		return err
	}
	b.setAnalyzed(orderByRequest(MapSearchVolume(items), keywords), true)
	return nil
}

func (s *ReportService) record(tier domain.Tier, doc domain.ReportDocument) {
	failed := 0
	for section, status := range doc.Sections {
		if status == domain.StatusAbsent {
			continue
		}
		s.metrics.IncSection(string(section), string(status))
		if status == domain.StatusFailed {
			failed++
		}
	}

	outcome := "ok"
	switch {
	case !doc.HasData():
		outcome = "empty"
	case failed > 0:
		outcome = "partial"
	}
	s.metrics.IncReport(string(tier), outcome)
}

func statusFor(n int) domain.SectionStatus {
	if n == 0 {
		return domain.StatusEmpty
	}
	return domain.StatusOK
}

type targetTask struct {
	Target       string `json:"target"`
	LocationCode int    `json:"location_code,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
	DateFrom     string `json:"date_from,omitempty"`
	Limit        int    `json:"limit,omitempty"`
}

type keywordTask struct {
	Keyword      string `json:"keyword"`
	LocationCode int    `json:"location_code"`
	LanguageCode string `json:"language_code"`
	Depth        int    `json:"depth,omitempty"`
}

type volumeTask struct {
	Keywords     []string `json:"keywords"`
	LocationCode int      `json:"location_code"`
	LanguageCode string   `json:"language_code"`
}

// reportBuilder acumula as seções; é seguro para uso concorrente no modo paralelo.
type reportBuilder struct {
	mu sync.Mutex

	overview    *domain.Overview
	backlinks   *domain.Backlinks
	competitors []domain.Competitor
	ranked      []domain.KeywordRecord
	analyzed    []domain.KeywordRecord
	statuses    map[domain.Section]domain.SectionStatus

	rankedOK   bool
	analyzedOK bool
}

func newReportBuilder() *reportBuilder {
	return &reportBuilder{statuses: make(map[domain.Section]domain.SectionStatus)}
}

func (b *reportBuilder) setOverview(o *domain.Overview, status domain.SectionStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.overview = o
	b.statuses[domain.SectionOverview] = status
}

func (b *reportBuilder) setBacklinks(bl *domain.Backlinks, status domain.SectionStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.backlinks = bl
	b.statuses[domain.SectionBacklinks] = status
}

func (b *reportBuilder) setCompetitors(c []domain.Competitor, status domain.SectionStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.competitors = c
	b.statuses[domain.SectionCompetitors] = status
}

func (b *reportBuilder) setRanked(records []domain.KeywordRecord, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ranked = records
	b.rankedOK = ok
}

func (b *reportBuilder) setAnalyzed(records []domain.KeywordRecord, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.analyzed = records
	b.analyzedOK = ok
}

// document monta o relatório final; seções fora do plano ficam como absent.
func (b *reportBuilder) document(req domain.ReportRequest, plan []Call) domain.ReportDocument {
	b.mu.Lock()
	defer b.mu.Unlock()

	doc := domain.ReportDocument{
		Domain:     req.Domain,
		ReportType: req.Tier,
		Sections:   make(map[domain.Section]domain.SectionStatus, len(domain.AllSections)),
	}
	for _, section := range domain.AllSections {
		doc.Sections[section] = domain.StatusAbsent
	}

	planned := make(map[Call]bool, len(plan))
	for _, c := range plan {
		planned[c] = true
	}

	if planned[CallOverview] {
		doc.Overview = b.overview
		doc.Sections[domain.SectionOverview] = b.statuses[domain.SectionOverview]
	}
	if planned[CallBacklinks] {
		doc.Backlinks = b.backlinks
		doc.Sections[domain.SectionBacklinks] = b.statuses[domain.SectionBacklinks]
	}
	if planned[CallCompetitors] {
		doc.Competitors = b.competitors
		doc.Sections[domain.SectionCompetitors] = b.statuses[domain.SectionCompetitors]
	}

	if planned[CallRankedKeywords] {
		if b.rankedOK {
			doc.TopKeywords, doc.Opportunities = classifyRanked(b.ranked)
			doc.Sections[domain.SectionTopKeywords] = statusFor(len(doc.TopKeywords))
			doc.Sections[domain.SectionOpportunities] = statusFor(len(doc.Opportunities))
		} else {
			doc.Sections[domain.SectionTopKeywords] = domain.StatusFailed
			doc.Sections[domain.SectionOpportunities] = domain.StatusFailed
		}
	}

	if planned[CallKeywordVolume] {
		if b.analyzedOK {
			doc.AnalyzedKeywords = b.analyzed
			doc.Sections[domain.SectionAnalyzedKeywords] = statusFor(len(b.analyzed))
		} else {
			doc.Sections[domain.SectionAnalyzedKeywords] = domain.StatusFailed
		}

		// Gaps need both keyword calls.
		if b.analyzedOK && b.rankedOK {
			doc.KeywordGaps = keywordGaps(b.analyzed, b.ranked)
			doc.Sections[domain.SectionKeywordGaps] = statusFor(len(doc.KeywordGaps))
		} else {
			doc.Sections[domain.SectionKeywordGaps] = domain.StatusFailed
		}
	}

	return doc
}
