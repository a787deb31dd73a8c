package services

import (
	"regexp"
	"sort"
	"strings"

	"github.com/JeanGrijp/seo-report/internal/core/domain"
)

const defaultCategory = "business"

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// businessName deriva o nome do negócio do primeiro rótulo do domínio.
func businessName(target string) string {
	host := bareHost(target)
	label := host
	if i := strings.Index(host, "."); i >= 0 {
		label = host[:i]
	}
	return strings.TrimSpace(nonAlnum.ReplaceAllString(strings.ToLower(label), " "))
}

func bareHost(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	return strings.TrimPrefix(d, "www.")
}

// cityFromAddress assume o formato "123 Main St, City, ST 12345".
func cityFromAddress(address string) string {
	parts := strings.Split(address, ",")
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[len(parts)-2])
}

func joinQuery(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}

func competitorQuery(category, city, region string) string {
	switch {
	case city != "":
		return joinQuery(category, "in", city, region)
	case region != "":
		return joinQuery(category, "near", region)
	default:
		return category
	}
}

// targetProfile extrai categoria e cidade do primeiro resultado da busca pelo próprio negócio.
func targetProfile(items []domain.MapsItem) (category, city string) {
	category = defaultCategory
	if len(items) == 0 {
		return category, ""
	}
	first := items[0]
	if c := deref(first.Category); c != "" {
		category = c
	} else if p := deref(first.PlaceType); p != "" {
		category = p
	}
	return category, cityFromAddress(deref(first.Address))
}

type competitorCandidate struct {
	domain.Competitor
	City     string
	SameCity bool
}

// rankCompetitors filtra o próprio alvo, coloca a mesma cidade primeiro,
// desempata por número de avaliações decrescente e corta em limit.
func rankCompetitors(target, name, targetCity string, items []domain.MapsItem, limit int) []domain.Competitor {
	targetHost := bareHost(target)
	lowerName := strings.ToLower(strings.TrimSpace(name))
	lowerCity := strings.ToLower(targetCity)

	candidates := make([]competitorCandidate, 0, len(items))
	for _, item := range items {
		d := deref(item.Domain)
		if d == "" || bareHost(d) == targetHost {
			continue
		}
		title := deref(item.Title)
		if lowerName != "" && strings.Contains(strings.ToLower(title), lowerName) {
			continue
		}

		address := deref(item.Address)
		city := cityFromAddress(address)
		c := competitorCandidate{
			Competitor: domain.Competitor{
				Domain:  d,
				Name:    title,
				Address: address,
			},
			City:     city,
			SameCity: lowerCity != "" && strings.ToLower(city) == lowerCity,
		}
		if item.Rating != nil {
			if item.Rating.Value != nil {
				v := *item.Rating.Value
				c.Rating = &v
			}
			c.Reviews = roundInt(item.Rating.VotesCount)
		}
		candidates = append(candidates, c)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].SameCity != candidates[j].SameCity {
			return candidates[i].SameCity
		}
		return candidates[i].Reviews > candidates[j].Reviews
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := make([]domain.Competitor, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.Competitor)
	}
	return out
}
