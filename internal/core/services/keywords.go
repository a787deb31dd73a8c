package services

import (
	"math"
	"sort"
	"strings"

	"github.com/JeanGrijp/seo-report/internal/core/domain"
)

const (
	topKeywordMaxPosition  = 10
	opportunityMaxPosition = 30

	// firstPositionCTR is the share of search volume assumed for position 1.
	firstPositionCTR = 0.30
)

// potentialTraffic = round(volume × 0.30 / position); nunca cresce quando a posição piora.
func potentialTraffic(volume int64, position int) int64 {
	if volume <= 0 || position <= 0 {
		return 0
	}
	return int64(math.Round(float64(volume) * firstPositionCTR / float64(position)))
}

// classifyRanked separa posições 1–10 (top) de 11–30 (oportunidades).
func classifyRanked(records []domain.KeywordRecord) (top, opportunities []domain.KeywordRecord) {
	for _, r := range records {
		switch {
		case r.Position >= 1 && r.Position <= topKeywordMaxPosition:
			r.PotentialTraffic = potentialTraffic(r.SearchVolume, r.Position)
			top = append(top, r)
		case r.Position > topKeywordMaxPosition && r.Position <= opportunityMaxPosition:
			r.PotentialTraffic = potentialTraffic(r.SearchVolume, r.Position)
			opportunities = append(opportunities, r)
		}
	}
	sortByPosition(top)
	sortByPosition(opportunities)
	return top, opportunities
}

func sortByPosition(records []domain.KeywordRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Position != records[j].Position {
			return records[i].Position < records[j].Position
		}
		return records[i].SearchVolume > records[j].SearchVolume
	})
}

// keywordGaps devolve as palavras analisadas para as quais o domínio não aparece até a posição 30.
func keywordGaps(analyzed, ranked []domain.KeywordRecord) []domain.KeywordRecord {
	ranking := make(map[string]struct{}, len(ranked))
	for _, r := range ranked {
		if r.Position >= 1 && r.Position <= opportunityMaxPosition {
			ranking[strings.ToLower(r.Keyword)] = struct{}{}
		}
	}

	var gaps []domain.KeywordRecord
	for _, a := range analyzed {
		if _, ok := ranking[strings.ToLower(a.Keyword)]; ok {
			continue
		}
		gaps = append(gaps, a)
	}
	return gaps
}

// orderByRequest reordena os resultados na ordem em que as palavras foram pedidas.
func orderByRequest(records []domain.KeywordRecord, requested []string) []domain.KeywordRecord {
	index := make(map[string]int, len(requested))
	for i, kw := range requested {
		index[strings.ToLower(kw)] = i
	}
	rank := func(r domain.KeywordRecord) int {
		if i, ok := index[strings.ToLower(r.Keyword)]; ok {
			return i
		}
		return len(requested)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return rank(records[i]) < rank(records[j])
	})
	return records
}

func limitKeywords(keywords []string, max int) []string {
	if max > 0 && len(keywords) > max {
		return keywords[:max]
	}
	return keywords
}
