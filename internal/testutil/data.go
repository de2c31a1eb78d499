package testutil

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/mcoot/leaguetracker/internal/model"
)

// DataGenerator creates deterministic test data from a seed
type DataGenerator struct {
	faker *gofakeit.Faker
}

// NewDataGenerator creates a generator; the same seed yields the same data
func NewDataGenerator(seed uint64) *DataGenerator {
	return &DataGenerator{faker: gofakeit.New(seed)}
}

// PlayerNames returns count distinct display names
func (g *DataGenerator) PlayerNames(count int) []string {
	names := make([]string, 0, count)
	seen := make(map[string]struct{}, count)
	for len(names) < count {
		name := g.faker.Username()
		if len(name) > 12 {
			name = name[:12]
		}
		if _, dup := seen[name]; dup {
			name = fmt.Sprintf("%s%d", name[:min(len(name), 9)], len(names))
			if _, dup := seen[name]; dup {
				continue
			}
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// Stats returns a plausible stats record with every skill ranked and league
// points set
func (g *DataGenerator) Stats() model.Stats {
	stats := model.NewStats()
	total := 0
	for _, skill := range model.Skills[1:] {
		level := g.faker.Number(1, 99)
		total += level
		stats.Skills[skill] = model.SkillEntry{
			Rank:  g.faker.Number(1, 500000),
			Level: level,
			XP:    g.faker.Number(0, 13034431),
		}
	}
	stats.Skills[model.SkillOverall] = model.SkillEntry{
		Rank:  g.faker.Number(1, 500000),
		Level: total,
		XP:    g.faker.Number(0, 200000000),
	}
	stats.Activities[model.ActivityLeaguePoints] = model.ActivityEntry{
		Rank:  g.faker.Number(1, 100000),
		Score: g.faker.Number(0, 50000),
	}
	return stats
}
