package domain

// Tipos parciais das respostas do provedor. Todo campo é ponteiro porque o
// provedor omite campos com frequência; o mapeamento decide os defaults.

type OrganicMetrics struct {
	ETV                      *float64 `json:"etv"`
	Count                    *float64 `json:"count"`
	EstimatedPaidTrafficCost *float64 `json:"estimated_paid_traffic_cost"`
}

type HistoricalRankItem struct {
	Year    *int `json:"year"`
	Month   *int `json:"month"`
	Metrics *struct {
		Organic *OrganicMetrics `json:"organic"`
	} `json:"metrics"`
}

type HistoricalRankResult struct {
	Target *string              `json:"target"`
	Items  []HistoricalRankItem `json:"items"`
}

type MapsRating struct {
	Value      *float64 `json:"value"`
	VotesCount *float64 `json:"votes_count"`
	RatingMax  *float64 `json:"rating_max"`
	RatingType *string  `json:"rating_type"`
}

type MapsItem struct {
	Title     *string     `json:"title"`
	Domain    *string     `json:"domain"`
	Category  *string     `json:"category"`
	PlaceType *string     `json:"place_type"`
	Address   *string     `json:"address"`
	Rating    *MapsRating `json:"rating"`
}

type MapsResult struct {
	Keyword *string    `json:"keyword"`
	Items   []MapsItem `json:"items"`
}

type BacklinkSummaryResult struct {
	Target                   *string          `json:"target"`
	Backlinks                *float64         `json:"backlinks"`
	ReferringDomains         *float64         `json:"referring_domains"`
	ReferringLinksAttributes map[string]int64 `json:"referring_links_attributes"`
}

type KeywordInfo struct {
	SearchVolume     *float64 `json:"search_volume"`
	CPC              *float64 `json:"cpc"`
	CompetitionLevel *string  `json:"competition_level"`
}

type RankedKeywordItem struct {
	KeywordData *struct {
		Keyword     *string      `json:"keyword"`
		KeywordInfo *KeywordInfo `json:"keyword_info"`
	} `json:"keyword_data"`
	RankedSERPElement *struct {
		SERPItem *struct {
			RankAbsolute *int     `json:"rank_absolute"`
			RankGroup    *int     `json:"rank_group"`
			URL          *string  `json:"url"`
			ETV          *float64 `json:"etv"`
		} `json:"serp_item"`
	} `json:"ranked_serp_element"`
}

type RankedKeywordsResult struct {
	Target     *string             `json:"target"`
	TotalCount *int64              `json:"total_count"`
	Items      []RankedKeywordItem `json:"items"`
}

type SearchVolumeItem struct {
	Keyword      *string  `json:"keyword"`
	SearchVolume *float64 `json:"search_volume"`
	CPC          *float64 `json:"cpc"`
	Competition  *string  `json:"competition"`
}

type AccountData struct {
	Login *string `json:"login"`
	Money *struct {
		Balance *float64 `json:"balance"`
	} `json:"money"`
}
