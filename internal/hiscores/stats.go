package hiscores

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mcoot/leaguetracker/internal/model"
)

// Line numbers of the tracked activities in an index_lite response. Skills
// occupy lines 0-23 in model.Skills order. Untracked lines (deadman, bounty
// hunter, LMS, PvP arena) are ignored.
var activityLines = func() map[model.Activity]int {
	lines := map[model.Activity]int{
		model.ActivityLeaguePoints:        24,
		model.ActivityClueScrollsAll:      30,
		model.ActivityClueScrollsBeginner: 31,
		model.ActivityClueScrollsEasy:     32,
		model.ActivityClueScrollsMedium:   33,
		model.ActivityClueScrollsHard:     34,
		model.ActivityClueScrollsElite:    35,
		model.ActivityClueScrollsMaster:   36,
		model.ActivitySoulWarsZeal:        39,
		model.ActivityRiftsClosed:         40,
	}
	for i, boss := range bossOrder {
		lines[boss] = 41 + i
	}
	return lines
}()

var bossOrder = []model.Activity{
	model.ActivityAbyssalSire,
	model.ActivityAlchemicalHydra,
	model.ActivityArtio,
	model.ActivityBarrowsChests,
	model.ActivityBryophyta,
	model.ActivityCallisto,
	model.ActivityCalvarion,
	model.ActivityCerberus,
	model.ActivityChambersOfXeric,
	model.ActivityChambersOfXericChallengeMode,
	model.ActivityChaosElemental,
	model.ActivityChaosFanatic,
	model.ActivityCommanderZilyana,
	model.ActivityCorporealBeast,
	model.ActivityCrazyArchaeologist,
	model.ActivityDagannothPrime,
	model.ActivityDagannothRex,
	model.ActivityDagannothSupreme,
	model.ActivityDerangedArchaeologist,
	model.ActivityDukeSucellus,
	model.ActivityGeneralGraardor,
	model.ActivityGiantMole,
	model.ActivityGrotesqueGuardians,
	model.ActivityHespori,
	model.ActivityKalphiteQueen,
	model.ActivityKingBlackDragon,
	model.ActivityKraken,
	model.ActivityKreearra,
	model.ActivityKrilTsutsaroth,
	model.ActivityMimic,
	model.ActivityNex,
	model.ActivityNightmare,
	model.ActivityPhosanisNightmare,
	model.ActivityObor,
	model.ActivityPhantomMuspah,
	model.ActivitySarachnis,
	model.ActivityScorpia,
	model.ActivitySkotizo,
	model.ActivitySpindel,
	model.ActivityTempoross,
	model.ActivityTheGauntlet,
	model.ActivityTheCorruptedGauntlet,
	model.ActivityTheLeviathan,
	model.ActivityTheWhisperer,
	model.ActivityTheatreOfBlood,
	model.ActivityTheatreOfBloodHardMode,
	model.ActivityThermonuclearSmokeDevil,
	model.ActivityTombsOfAmascut,
	model.ActivityTombsOfAmascutExpertMode,
	model.ActivityTzKalZuk,
	model.ActivityTzTokJad,
	model.ActivityVardorvis,
	model.ActivityVenenatis,
	model.ActivityVetion,
	model.ActivityVorkath,
	model.ActivityWintertodt,
	model.ActivityZalcano,
	model.ActivityZulrah,
}

// parseStats decodes an index_lite CSV body. Every skill line must parse;
// an activity whose line is missing, unparsable or unranked is left absent.
func parseStats(body string) (*model.Stats, error) {
	lines := strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n")
	if len(lines) < len(model.Skills) {
		return nil, fmt.Errorf("%w: %d lines", ErrMalformedStats, len(lines))
	}

	stats := model.NewStats()
	for i, skill := range model.Skills {
		values, ok := parseInts(lines[i], 3)
		if !ok {
			return nil, fmt.Errorf("%w: skill %s line %q", ErrMalformedStats, skill, lines[i])
		}
		stats.Skills[skill] = model.SkillEntry{Rank: values[0], Level: values[1], XP: values[2]}
	}

	for activity, line := range activityLines {
		if line >= len(lines) {
			continue
		}
		values, ok := parseInts(lines[line], 2)
		if !ok || values[0] < 0 || values[1] < 0 {
			continue
		}
		stats.Activities[activity] = model.ActivityEntry{Rank: values[0], Score: values[1]}
	}
	return &stats, nil
}

// parseInts parses the first n comma separated integers of line
func parseInts(line string, n int) ([]int, bool) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) < n {
		return nil, false
	}
	values := make([]int, n)
	for i := 0; i < n; i++ {
		v, err := strconv.Atoi(strings.TrimSpace(fields[i]))
		if err != nil {
			return nil, false
		}
		values[i] = v
	}
	return values, true
}
