package model

// Skill names a hiscores skill
type Skill string

const (
	SkillOverall      Skill = "overall"
	SkillAttack       Skill = "attack"
	SkillDefence      Skill = "defence"
	SkillStrength     Skill = "strength"
	SkillHitpoints    Skill = "hitpoints"
	SkillRanged       Skill = "ranged"
	SkillPrayer       Skill = "prayer"
	SkillMagic        Skill = "magic"
	SkillCooking      Skill = "cooking"
	SkillWoodcutting  Skill = "woodcutting"
	SkillFletching    Skill = "fletching"
	SkillFishing      Skill = "fishing"
	SkillFiremaking   Skill = "firemaking"
	SkillCrafting     Skill = "crafting"
	SkillSmithing     Skill = "smithing"
	SkillMining       Skill = "mining"
	SkillHerblore     Skill = "herblore"
	SkillAgility      Skill = "agility"
	SkillThieving     Skill = "thieving"
	SkillSlayer       Skill = "slayer"
	SkillFarming      Skill = "farming"
	SkillRunecraft    Skill = "runecraft"
	SkillHunter       Skill = "hunter"
	SkillConstruction Skill = "construction"
)

// Skills lists every skill in hiscores order
var Skills = []Skill{
	SkillOverall, SkillAttack, SkillDefence, SkillStrength, SkillHitpoints,
	SkillRanged, SkillPrayer, SkillMagic, SkillCooking, SkillWoodcutting,
	SkillFletching, SkillFishing, SkillFiremaking, SkillCrafting, SkillSmithing,
	SkillMining, SkillHerblore, SkillAgility, SkillThieving, SkillSlayer,
	SkillFarming, SkillRunecraft, SkillHunter, SkillConstruction,
}

// Activity names a tracked hiscores activity, minigame or boss
type Activity string

const (
	ActivityLeaguePoints                 Activity = "leaguePoints"
	ActivityClueScrollsAll               Activity = "clueScrollsAll"
	ActivityClueScrollsBeginner          Activity = "clueScrollsBeginner"
	ActivityClueScrollsEasy              Activity = "clueScrollsEasy"
	ActivityClueScrollsMedium            Activity = "clueScrollsMedium"
	ActivityClueScrollsHard              Activity = "clueScrollsHard"
	ActivityClueScrollsElite             Activity = "clueScrollsElite"
	ActivityClueScrollsMaster            Activity = "clueScrollsMaster"
	ActivitySoulWarsZeal                 Activity = "soulWarsZeal"
	ActivityRiftsClosed                  Activity = "riftsClosed"
	ActivityAbyssalSire                  Activity = "abyssalSire"
	ActivityAlchemicalHydra              Activity = "alchemicalHydra"
	ActivityArtio                        Activity = "artio"
	ActivityBarrowsChests                Activity = "barrowsChests"
	ActivityBryophyta                    Activity = "bryophyta"
	ActivityCallisto                     Activity = "callisto"
	ActivityCalvarion                    Activity = "calvarion"
	ActivityCerberus                     Activity = "cerberus"
	ActivityChambersOfXeric              Activity = "chambersOfXeric"
	ActivityChambersOfXericChallengeMode Activity = "chambersOfXericChallengeMode"
	ActivityChaosElemental               Activity = "chaosElemental"
	ActivityChaosFanatic                 Activity = "chaosFanatic"
	ActivityCommanderZilyana             Activity = "commanderZilyana"
	ActivityCorporealBeast               Activity = "corporealBeast"
	ActivityCrazyArchaeologist           Activity = "crazyArchaeologist"
	ActivityDagannothPrime               Activity = "dagannothPrime"
	ActivityDagannothRex                 Activity = "dagannothRex"
	ActivityDagannothSupreme             Activity = "dagannothSupreme"
	ActivityDerangedArchaeologist        Activity = "derangedArchaeologist"
	ActivityDukeSucellus                 Activity = "dukeSucellus"
	ActivityGeneralGraardor              Activity = "generalGraardor"
	ActivityGiantMole                    Activity = "giantMole"
	ActivityGrotesqueGuardians           Activity = "grotesqueGuardians"
	ActivityHespori                      Activity = "hespori"
	ActivityKalphiteQueen                Activity = "kalphiteQueen"
	ActivityKingBlackDragon              Activity = "kingBlackDragon"
	ActivityKraken                       Activity = "kraken"
	ActivityKreearra                     Activity = "kreearra"
	ActivityKrilTsutsaroth               Activity = "krilTsutsaroth"
	ActivityMimic                        Activity = "mimic"
	ActivityNex                          Activity = "nex"
	ActivityNightmare                    Activity = "nightmare"
	ActivityPhosanisNightmare            Activity = "phosanisNightmare"
	ActivityObor                         Activity = "obor"
	ActivityPhantomMuspah                Activity = "phantomMuspah"
	ActivitySarachnis                    Activity = "sarachnis"
	ActivityScorpia                      Activity = "scorpia"
	ActivitySkotizo                      Activity = "skotizo"
	ActivitySpindel                      Activity = "spindel"
	ActivityTempoross                    Activity = "tempoross"
	ActivityTheGauntlet                  Activity = "theGauntlet"
	ActivityTheCorruptedGauntlet         Activity = "theCorruptedGauntlet"
	ActivityTheLeviathan                 Activity = "theLeviathan"
	ActivityTheWhisperer                 Activity = "theWhisperer"
	ActivityTheatreOfBlood               Activity = "theatreOfBlood"
	ActivityTheatreOfBloodHardMode       Activity = "theatreOfBloodHardMode"
	ActivityThermonuclearSmokeDevil      Activity = "thermonuclearSmokeDevil"
	ActivityTombsOfAmascut               Activity = "tombsOfAmascut"
	ActivityTombsOfAmascutExpertMode     Activity = "tombsOfAmascutExpertMode"
	ActivityTzKalZuk                     Activity = "tzkalZuk"
	ActivityTzTokJad                     Activity = "tztokJad"
	ActivityVardorvis                    Activity = "vardorvis"
	ActivityVenenatis                    Activity = "venenatis"
	ActivityVetion                       Activity = "vetion"
	ActivityVorkath                      Activity = "vorkath"
	ActivityWintertodt                   Activity = "wintertodt"
	ActivityZalcano                      Activity = "zalcano"
	ActivityZulrah                       Activity = "zulrah"
)

// SkillEntry is a player's standing in a single skill
type SkillEntry struct {
	Rank  int `json:"rank"`
	Level int `json:"level"`
	XP    int `json:"xp"`
}

// ActivityEntry is a player's standing in a single activity
type ActivityEntry struct {
	Rank  int `json:"rank"`
	Score int `json:"score"`
}

// Stats is a player's full hiscores record.
// An activity the player is unranked in has no entry in Activities.
type Stats struct {
	Skills     map[Skill]SkillEntry       `json:"skills"`
	Activities map[Activity]ActivityEntry `json:"activities"`
}

// NewStats returns an empty Stats with initialised maps
func NewStats() Stats {
	return Stats{
		Skills:     make(map[Skill]SkillEntry, len(Skills)),
		Activities: make(map[Activity]ActivityEntry),
	}
}

// Clone returns a copy that shares no maps with s
func (s Stats) Clone() Stats {
	out := Stats{
		Skills:     make(map[Skill]SkillEntry, len(s.Skills)),
		Activities: make(map[Activity]ActivityEntry, len(s.Activities)),
	}
	for k, v := range s.Skills {
		out.Skills[k] = v
	}
	for k, v := range s.Activities {
		out.Activities[k] = v
	}
	return out
}

// Activity returns the entry for an activity and whether the player is ranked in it
func (s Stats) Activity(a Activity) (ActivityEntry, bool) {
	e, ok := s.Activities[a]
	return e, ok
}
