package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/JeanGrijp/seo-report/internal/core/domain"
)

func str(s string) *string { return &s }

func f64(v float64) *float64 { return &v }

func mapsItem(title, d, address string, votes float64) domain.MapsItem {
	return domain.MapsItem{
		Title:   str(title),
		Domain:  str(d),
		Address: str(address),
		Rating:  &domain.MapsRating{Value: f64(4.2), VotesCount: f64(votes)},
	}
}

func TestBusinessName(t *testing.T) {
	tests := map[string]string{
		"example.com":          "example",
		"www.joes-pizza.co.uk": "joes pizza",
		"WWW.Acme_Corp.io":     "acme corp",
		"localhost":            "localhost",
		"":                     "",
	}
	for in, want := range tests {
		assert.Equal(t, want, businessName(in), in)
	}
}

func TestCityFromAddress(t *testing.T) {
	assert.Equal(t, "Austin", cityFromAddress("1 Main St, Austin, TX 78701"))
	assert.Equal(t, "Springfield", cityFromAddress("Springfield, IL"))
	assert.Equal(t, "", cityFromAddress("Nowhere"))
	assert.Equal(t, "", cityFromAddress(""))
}

func TestCompetitorQuery(t *testing.T) {
	assert.Equal(t, "Dentist in Austin", competitorQuery("Dentist", "Austin", ""))
	assert.Equal(t, "Dentist in Austin Texas", competitorQuery("Dentist", "Austin", "Texas"))
	assert.Equal(t, "Dentist near Texas", competitorQuery("Dentist", "", "Texas"))
	assert.Equal(t, "Dentist", competitorQuery("Dentist", "", ""))
}

func TestTargetProfile(t *testing.T) {
	category, city := targetProfile(nil)
	assert.Equal(t, defaultCategory, category)
	assert.Empty(t, city)

	category, city = targetProfile([]domain.MapsItem{{PlaceType: str("Bakery"), Address: str("5 High St, Leeds, LS1")}})
	assert.Equal(t, "Bakery", category)
	assert.Equal(t, "Leeds", city)

	category, _ = targetProfile([]domain.MapsItem{{Category: str("Cafe"), PlaceType: str("Bakery")}})
	assert.Equal(t, "Cafe", category)
}

func TestRankCompetitors_FiltersTarget(t *testing.T) {
	items := []domain.MapsItem{
		mapsItem("Example Shop", "other.com", "1 A St, Austin, TX", 5),
		mapsItem("Someone", "www.example.com", "1 A St, Austin, TX", 5),
		mapsItem("No Domain", "", "1 A St, Austin, TX", 500),
		mapsItem("Rival", "rival.com", "1 A St, Austin, TX", 5),
	}

	got := rankCompetitors("example.com", "example", "Austin", items, 5)
	if assert.Len(t, got, 1) {
		assert.Equal(t, "rival.com", got[0].Domain)
		assert.Equal(t, "Rival", got[0].Name)
		assert.Equal(t, int64(5), got[0].Reviews)
		assert.InDelta(t, 4.2, *got[0].Rating, 0.001)
	}
}

func TestRankCompetitors_NoRatingLeavesNil(t *testing.T) {
	items := []domain.MapsItem{{Title: str("Rival"), Domain: str("rival.com")}}
	got := rankCompetitors("example.com", "example", "", items, 5)
	if assert.Len(t, got, 1) {
		assert.Nil(t, got[0].Rating)
		assert.Zero(t, got[0].Reviews)
	}
}

func TestRankCompetitors_UnknownCityOnlySortsByReviews(t *testing.T) {
	items := []domain.MapsItem{
		mapsItem("A", "a.com", "x", 1),
		mapsItem("B", "b.com", "y", 3),
		mapsItem("C", "c.com", "z", 2),
	}
	got := rankCompetitors("example.com", "example", "", items, 5)
	var domains []string
	for _, c := range got {
		domains = append(domains, c.Domain)
	}
	assert.Equal(t, []string{"b.com", "c.com", "a.com"}, domains)
}

func TestRankCompetitors_OrderingProperty(t *testing.T) {
	cities := []string{"Austin", "Dallas", "Houston"}

	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 25).Draw(t, "n")
		items := make([]domain.MapsItem, n)
		cityOf := make(map[string]string, n)
		votesOf := make(map[string]int64, n)
		for i := range items {
			city := rapid.SampledFrom(cities).Draw(t, "city")
			votes := rapid.IntRange(0, 1000).Draw(t, "votes")
			d := fmt.Sprintf("biz%d.com", i)
			items[i] = mapsItem(fmt.Sprintf("Biz %d", i), d, "1 St, "+city+", TX", float64(votes))
			cityOf[d] = city
			votesOf[d] = int64(votes)
		}

		got := rankCompetitors("example.com", "example", "Austin", items, 5)

		if len(got) > 5 {
			t.Fatalf("got %d competitors, want at most 5", len(got))
		}
		if want := min(n, 5); len(got) != want {
			t.Fatalf("got %d competitors, want %d", len(got), want)
		}

		seenOther := false
		for i, c := range got {
			same := cityOf[c.Domain] == "Austin"
			if same && seenOther {
				t.Fatalf("same-city %s after other-city entry", c.Domain)
			}
			if !same {
				seenOther = true
			}
			if c.Reviews != votesOf[c.Domain] {
				t.Fatalf("reviews for %s = %d, want %d", c.Domain, c.Reviews, votesOf[c.Domain])
			}
			if i > 0 {
				prev := got[i-1]
				if (cityOf[prev.Domain] == "Austin") == same && prev.Reviews < c.Reviews {
					t.Fatalf("reviews not descending within group: %d then %d", prev.Reviews, c.Reviews)
				}
			}
		}
	})
}
