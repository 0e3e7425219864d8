package matcher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screener/internal/screening"
	"screener/internal/screening/dataset"
	"screener/pkg/testutil"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func candidate(name, country string, dob *time.Time) dataset.Candidate {
	return dataset.NewCandidate("", []string{name}, country, dob)
}

func names(hits []screening.Match) []string {
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.Name)
	}
	return out
}

func TestMatch_NameOnly(t *testing.T) {
	candidates := []dataset.Candidate{
		candidate("Jon Smith", "United Kingdom", nil),
		candidate("John Smyth", "", date(1950, 1, 1)),
		candidate("Alice Brown", "France", nil),
		candidate("John Smith", "Ireland", nil),
	}

	testutil.Given(t, "a query with only a name and a 0.9 threshold", func(t *testing.T) {
		q := screening.Query{Name: "John Smith", MinScore: 90}

		testutil.When(t, "the candidates are matched", func(t *testing.T) {
			hits, err := Match(context.Background(), q, candidates, "us_sdn")
			require.NoError(t, err)

			testutil.Then(t, "only names scoring at least 90 are returned in candidate order", func(t *testing.T) {
				assert.Equal(t, []string{"John Smyth", "John Smith"}, names(hits))
				assert.Equal(t, 90, hits[0].NameScore)
				assert.Equal(t, 100, hits[1].NameScore)
			})

			testutil.Then(t, "country is not scored", func(t *testing.T) {
				for _, h := range hits {
					assert.Nil(t, h.CountryScore)
					assert.Equal(t, "us_sdn", h.Source)
				}
			})
		})
	})
}

func TestMatch_NoCountryNoDOBNeverFilters(t *testing.T) {
	candidates := []dataset.Candidate{
		candidate("Ivan Petrov", "", nil),
		candidate("Ivan Petrov", "Russia", date(1970, 1, 1)),
		candidate("Ivan Petrov", "Belarus", nil),
	}
	q := screening.Query{Name: "ivan petrov", MinScore: 100}

	hits, err := Match(context.Background(), q, candidates, "eu")
	require.NoError(t, err)
	assert.Len(t, hits, 3)
}

func TestMatch_CountryFilter(t *testing.T) {
	candidates := []dataset.Candidate{
		candidate("Maria Garcia", "Germany", nil),
		candidate("Maria Garcia", "Spain", nil),
		candidate("Maria Garcia", "", nil),
	}
	q := screening.Query{Name: "Maria Garcia", Country: "Spain", MinScore: 60}

	hits, err := Match(context.Background(), q, candidates, "eu")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Spain", hits[0].Country)
	require.NotNil(t, hits[0].CountryScore)
	assert.Equal(t, 100, *hits[0].CountryScore)
}

func TestMatch_DOBWindow(t *testing.T) {
	dob := date(1980, 5, 1)
	candidates := []dataset.Candidate{
		candidate("X", "", date(1980, 10, 28)), // +180 days
		candidate("X", "", date(1980, 10, 29)), // +181 days
		candidate("X", "", date(1979, 11, 3)),  // -180 days
		candidate("X", "", date(1979, 11, 2)),  // -181 days
		candidate("X", "", nil),
		candidate("X", "", date(1980, 5, 1)),
	}
	q := screening.Query{Name: "X", MinScore: 50, DOB: dob, DOBWindowDays: 180}

	hits, err := Match(context.Background(), q, candidates, "eu")
	require.NoError(t, err)

	var got []time.Time
	for _, h := range hits {
		require.NotNil(t, h.BirthDate)
		got = append(got, *h.BirthDate)
	}
	assert.Equal(t, []time.Time{*date(1980, 10, 28), *date(1979, 11, 3), *date(1980, 5, 1)}, got)
}

func TestMatch_MissingBirthDateNeverMatchesDOBQuery(t *testing.T) {
	candidates := []dataset.Candidate{candidate("Exact Name", "Spain", nil)}
	q := screening.Query{Name: "Exact Name", MinScore: 0, DOB: date(1980, 1, 1), DOBWindowDays: 365 * 100}

	hits, err := Match(context.Background(), q, candidates, "eu")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestMatch_Idempotent(t *testing.T) {
	candidates := []dataset.Candidate{
		candidate("John Smith", "Ireland", date(1960, 2, 2)),
		candidate("Johnny Smithers", "Ireland", date(1961, 3, 3)),
		candidate("John Smyth", "Iceland", date(1960, 4, 4)),
	}
	q := screening.Query{Name: "john smith", Country: "ireland", MinScore: 60, DOB: date(1960, 6, 1), DOBWindowDays: 400}

	first, err := Match(context.Background(), q, candidates, "eu")
	require.NoError(t, err)
	second, err := Match(context.Background(), q, candidates, "eu")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)
}

func TestMatch_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Match(ctx, screening.Query{Name: "X", MinScore: 50}, []dataset.Candidate{candidate("X", "", nil)}, "eu")
	assert.ErrorIs(t, err, context.Canceled)
}
