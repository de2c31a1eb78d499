package hiscores

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/leaguetracker/internal/model"
	"github.com/mcoot/leaguetracker/internal/testutil"
)

// rankingHTML renders a ranking page shaped like the live site
func rankingHTML(rows [][2]string, nextHref string) string {
	var b strings.Builder
	b.WriteString(`<html><body><table class="personal-hiscores__table"><tbody>`)
	for i, row := range rows {
		fmt.Fprintf(&b,
			`<tr class="personal-hiscores__row"><td class="right">%d</td><td class="left"><a href="#">%s</a></td><td class="right">%s</td></tr>`,
			i+1, row[0], row[1])
	}
	b.WriteString(`</tbody></table>`)
	if nextHref != "" {
		fmt.Fprintf(&b, `<a class="personal-hiscores__pagination-arrow--down" href="%s">next</a>`, nextHref)
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

func nextHref(page int) string {
	return fmt.Sprintf("overall?category_type=1&amp;table=0&amp;page=%d", page)
}

// statsCSV renders an index_lite body with every skill ranked and the given
// activity lines overridden
func statsCSV(activities map[int]string) string {
	lines := make([]string, 0, 99)
	for i := 0; i < 24; i++ {
		lines = append(lines, fmt.Sprintf("%d,%d,%d", 100+i, 50+i, 1000*(i+1)))
	}
	for i := 24; i < 99; i++ {
		line, ok := activities[i]
		if !ok {
			line = "-1,-1"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n") + "\n"
}

// Parser tests

func TestParseRosterPage(t *testing.T) {
	html := rankingHTML([][2]string{
		{"Some Player", "12,345"},
		{"Other", "9,001"},
	}, nextHref(3))

	page, err := parseRosterPage(strings.NewReader(html), 2)
	require.NoError(t, err)
	assert.True(t, page.HasNext)
	assert.Equal(t, []Entry{
		{Name: "Some Player", Score: 12345},
		{Name: "Other", Score: 9001},
	}, page.Entries)
}

func TestParseRosterPageTermination(t *testing.T) {
	tests := []struct {
		name string
		href string
		page int
	}{
		{name: "no next link", href: "", page: 1},
		{name: "next points backwards", href: nextHref(4), page: 4},
		{name: "next points to earlier page", href: nextHref(2), page: 5},
		{name: "unparseable next link", href: "overall?page=abc", page: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := rankingHTML([][2]string{{"Alice", "10"}}, tt.href)
			page, err := parseRosterPage(strings.NewReader(html), tt.page)
			require.NoError(t, err)
			assert.False(t, page.HasNext)
			assert.Len(t, page.Entries, 1)
		})
	}
}

func TestParseRosterPageSkipsIncompleteRows(t *testing.T) {
	html := `<table>
<tr class="personal-hiscores__row"><td class="right">1</td><td>no link</td><td class="right">5</td></tr>
<tr class="personal-hiscores__row"><td class="right">2</td><td><a>OnlyRank</a></td></tr>
<tr class="personal-hiscores__row"><td class="right">3</td><td><a>Bob</a></td><td class="right">7</td></tr>
</table>`
	page, err := parseRosterPage(strings.NewReader(html), 1)
	require.NoError(t, err)
	assert.Equal(t, []Entry{{Name: "Bob", Score: 7}}, page.Entries)
}

func TestParseRosterPageMalformedScore(t *testing.T) {
	html := rankingHTML([][2]string{{"Alice", "lots"}}, nextHref(2))
	_, err := parseRosterPage(strings.NewReader(html), 1)
	assert.ErrorIs(t, err, ErrMalformedPage)
}

func TestParseStats(t *testing.T) {
	body := statsCSV(map[int]string{
		24: "17,4200",
		30: "250,12",
		41: "abc,def",
		98: "9,150",
	})

	stats, err := parseStats(body)
	require.NoError(t, err)

	assert.Len(t, stats.Skills, len(model.Skills))
	assert.Equal(t, model.SkillEntry{Rank: 100, Level: 50, XP: 1000}, stats.Skills[model.SkillOverall])
	assert.Equal(t, model.SkillEntry{Rank: 123, Level: 73, XP: 24000}, stats.Skills[model.SkillConstruction])

	league, ok := stats.Activity(model.ActivityLeaguePoints)
	require.True(t, ok)
	assert.Equal(t, model.ActivityEntry{Rank: 17, Score: 4200}, league)

	_, ok = stats.Activity(model.ActivityClueScrollsAll)
	assert.True(t, ok)
	_, ok = stats.Activity(model.ActivityAbyssalSire)
	assert.False(t, ok, "unparsable activity is absent")
	_, ok = stats.Activity(model.ActivityVorkath)
	assert.False(t, ok, "unranked activity is absent")

	zulrah, ok := stats.Activity(model.ActivityZulrah)
	require.True(t, ok)
	assert.Equal(t, 150, zulrah.Score)
}

func TestParseStatsMalformedSkill(t *testing.T) {
	body := strings.Replace(statsCSV(nil), "105,55,6000", "105,x,6000", 1)
	_, err := parseStats(body)
	assert.ErrorIs(t, err, ErrMalformedStats)

	_, err = parseStats("1,2,3\n")
	assert.ErrorIs(t, err, ErrMalformedStats)
}

func TestBossLinesCoverLayout(t *testing.T) {
	assert.Equal(t, 98, activityLines[model.ActivityZulrah])
	assert.Equal(t, 41, activityLines[model.ActivityAbyssalSire])
}

// Client tests

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.RequestsPerSecond = 0
	cfg.Timeout = 5 * time.Second
	return NewClient(cfg, testutil.NopLogger())
}

func TestClientFetchPage(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/overall", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("category_type"))
		assert.Equal(t, "0", r.URL.Query().Get("table"))
		assert.Equal(t, "3", r.URL.Query().Get("page"))
		_, _ = w.Write([]byte(rankingHTML([][2]string{{"Alice", "1,000"}}, nextHref(4))))
	}))

	page, err := client.FetchPage(context.Background(), 3)
	require.NoError(t, err)
	assert.True(t, page.HasNext)
	assert.Equal(t, []Entry{{Name: "Alice", Score: 1000}}, page.Entries)
}

func TestClientFetchPageMalformedEndsRoster(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(rankingHTML([][2]string{{"Alice", "n/a"}}, nextHref(2))))
	}))

	page, err := client.FetchPage(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, page.HasNext)
	assert.Empty(t, page.Entries)
}

func TestClientFetchPageServerError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := client.FetchPage(context.Background(), 1)
	assert.Error(t, err)
}

func TestClientFetchStats(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/index_lite.ws", r.URL.Path)
		if r.URL.Query().Get("player") != "Some Player" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(statsCSV(map[int]string{24: "1,500"})))
	}))

	stats, err := client.FetchStats(context.Background(), "Some Player")
	require.NoError(t, err)
	league, ok := stats.Activity(model.ActivityLeaguePoints)
	require.True(t, ok)
	assert.Equal(t, 500, league.Score)

	_, err = client.FetchStats(context.Background(), "Nobody")
	assert.ErrorIs(t, err, model.ErrPlayerNotFound)
}

func TestClientRateLimits(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.RequestsPerSecond = 1
	client := NewClient(cfg, testutil.NopLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	// First request uses the burst; the second must wait past the deadline
	_, err := client.FetchStats(ctx, "a")
	assert.ErrorIs(t, err, model.ErrPlayerNotFound)
	_, err = client.FetchStats(ctx, "b")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrPlayerNotFound)
	assert.Equal(t, int32(1), hits.Load())
}
