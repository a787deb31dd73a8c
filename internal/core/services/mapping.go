package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/JeanGrijp/seo-report/internal/core/domain"
)

// decodeResults decodes a provider "result" array. A null or empty result is not an error.
func decodeResults[T any](endpoint string, raw json.RawMessage) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var out []T
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, domain.WrapError(domain.KindUpstream, endpoint, fmt.Errorf("decode result: %w", err))
	}
	return out, nil
}

func roundInt(v *float64) int64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0
	}
	return int64(math.Round(*v))
}

func floatOr(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// MapOverview usa o ponto mais recente do histórico. ok=false quando não há itens.
func MapOverview(results []domain.HistoricalRankResult) (*domain.Overview, bool) {
	var latest *domain.HistoricalRankItem
	for i := range results {
		for j := range results[i].Items {
			item := &results[i].Items[j]
			if latest == nil || !olderThan(item, latest) {
				latest = item
			}
		}
	}
	if latest == nil {
		return nil, false
	}

	var organic domain.OrganicMetrics
	if latest.Metrics != nil && latest.Metrics.Organic != nil {
		organic = *latest.Metrics.Organic
	}
	return &domain.Overview{
		OrganicTraffic:  roundInt(organic.ETV),
		OrganicKeywords: roundInt(organic.Count),
		TrafficValue:    roundInt(organic.EstimatedPaidTrafficCost),
	}, true
}

// olderThan compares by year/month when both items carry them; otherwise later items win.
func olderThan(a, b *domain.HistoricalRankItem) bool {
	if a.Year == nil || a.Month == nil || b.Year == nil || b.Month == nil {
		return false
	}
	if *a.Year != *b.Year {
		return *a.Year < *b.Year
	}
	return *a.Month < *b.Month
}

// ZeroOverview é o fallback histórico quando a chamada de overview falha.
func ZeroOverview() *domain.Overview {
	return &domain.Overview{}
}

// MapBacklinks calcula dofollow como backlinks menos os nofollow.
func MapBacklinks(results []domain.BacklinkSummaryResult) (*domain.Backlinks, bool) {
	if len(results) == 0 {
		return nil, false
	}
	r := results[0]
	total := roundInt(r.Backlinks)
	dofollow := total - r.ReferringLinksAttributes["nofollow"]
	if dofollow < 0 {
		dofollow = 0
	}
	return &domain.Backlinks{
		Total:    total,
		Domains:  roundInt(r.ReferringDomains),
		Dofollow: dofollow,
	}, true
}

func MapRankedKeywords(results []domain.RankedKeywordsResult) []domain.KeywordRecord {
	var records []domain.KeywordRecord
	for _, result := range results {
		for _, item := range result.Items {
			if item.KeywordData == nil {
				continue
			}
			keyword := deref(item.KeywordData.Keyword)
			if keyword == "" {
				continue
			}

			record := domain.KeywordRecord{Keyword: keyword}
			if info := item.KeywordData.KeywordInfo; info != nil {
				record.SearchVolume = roundInt(info.SearchVolume)
				record.CPC = floatOr(info.CPC)
				record.Competition = deref(info.CompetitionLevel)
			}
			if el := item.RankedSERPElement; el != nil && el.SERPItem != nil {
				switch {
				case el.SERPItem.RankAbsolute != nil:
					record.Position = *el.SERPItem.RankAbsolute
				case el.SERPItem.RankGroup != nil:
					record.Position = *el.SERPItem.RankGroup
				}
				record.URL = deref(el.SERPItem.URL)
			}
			records = append(records, record)
		}
	}
	return records
}

func MapSearchVolume(items []domain.SearchVolumeItem) []domain.KeywordRecord {
	records := make([]domain.KeywordRecord, 0, len(items))
	for _, item := range items {
		keyword := deref(item.Keyword)
		if keyword == "" {
			continue
		}
		records = append(records, domain.KeywordRecord{
			Keyword:      keyword,
			SearchVolume: roundInt(item.SearchVolume),
			CPC:          floatOr(item.CPC),
			Competition:  deref(item.Competition),
		})
	}
	return records
}

func mapsItems(results []domain.MapsResult) []domain.MapsItem {
	var items []domain.MapsItem
	for _, r := range results {
		items = append(items, r.Items...)
	}
	return items
}
