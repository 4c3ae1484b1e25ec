package normalize

// SportMLB is the vocabulary key for Major League Baseball
const SportMLB = "mlb"

var mlbTeams = []Team{
	{Code: "NYY", Name: "New York Yankees", Aliases: []string{"NY Yankees"}},
	{Code: "BOS", Name: "Boston Red Sox"},
	{Code: "TOR", Name: "Toronto Blue Jays"},
	{Code: "TB", Name: "Tampa Bay Rays", Aliases: []string{"TB Rays"}},
	{Code: "BAL", Name: "Baltimore Orioles"},
	{Code: "CLE", Name: "Cleveland Guardians"},
	{Code: "CHW", Name: "Chicago White Sox", Aliases: []string{"Chi White Sox", "Chi. White Sox"}},
	{Code: "MIN", Name: "Minnesota Twins"},
	{Code: "KC", Name: "Kansas City Royals", Aliases: []string{"KC Royals"}},
	{Code: "DET", Name: "Detroit Tigers"},
	{Code: "HOU", Name: "Houston Astros"},
	{Code: "LAA", Name: "Los Angeles Angels", Aliases: []string{"LA Angels", "Los Angeles Angels of Anaheim"}},
	{Code: "SEA", Name: "Seattle Mariners"},
	{Code: "TEX", Name: "Texas Rangers"},
	{Code: "OAK", Name: "Oakland Athletics", Aliases: []string{"Athletics", "Sacramento Athletics"}},
	{Code: "ATL", Name: "Atlanta Braves"},
	{Code: "NYM", Name: "New York Mets", Aliases: []string{"NY Mets"}},
	{Code: "PHI", Name: "Philadelphia Phillies"},
	{Code: "WAS", Name: "Washington Nationals"},
	{Code: "MIA", Name: "Miami Marlins"},
	{Code: "MIL", Name: "Milwaukee Brewers"},
	{Code: "CHC", Name: "Chicago Cubs", Aliases: []string{"Chi Cubs", "Chi. Cubs"}},
	{Code: "STL", Name: "St. Louis Cardinals", Aliases: []string{"StL Cardinals", "St Louis Cardinals"}},
	{Code: "CIN", Name: "Cincinnati Reds"},
	{Code: "PIT", Name: "Pittsburgh Pirates"},
	{Code: "LAD", Name: "Los Angeles Dodgers", Aliases: []string{"LA Dodgers"}},
	{Code: "SD", Name: "San Diego Padres", Aliases: []string{"SD Padres"}},
	{Code: "SF", Name: "San Francisco Giants", Aliases: []string{"SF Giants"}},
	{Code: "COL", Name: "Colorado Rockies"},
	{Code: "AZ", Name: "Arizona Diamondbacks"},
}

var mlbMascots = map[string]string{
	"yankees":      "NYY",
	"red sox":      "BOS",
	"blue jays":    "TOR",
	"rays":         "TB",
	"orioles":      "BAL",
	"guardians":    "CLE",
	"white sox":    "CHW",
	"twins":        "MIN",
	"royals":       "KC",
	"tigers":       "DET",
	"astros":       "HOU",
	"angels":       "LAA",
	"mariners":     "SEA",
	"rangers":      "TEX",
	"athletics":    "OAK",
	"braves":       "ATL",
	"mets":         "NYM",
	"phillies":     "PHI",
	"nationals":    "WAS",
	"marlins":      "MIA",
	"brewers":      "MIL",
	"cubs":         "CHC",
	"cardinals":    "STL",
	"reds":         "CIN",
	"pirates":      "PIT",
	"dodgers":      "LAD",
	"padres":       "SD",
	"giants":       "SF",
	"rockies":      "COL",
	"diamondbacks": "AZ",
}

// Special city spellings used by the consensus pages. Single-franchise cities
// resolve directly; shared cities are registered as ambiguous.
var mlbSpecial = map[string]string{
	"CHI. WHITE SOX": "CHW",
	"CHI. CUBS":      "CHC",
	"LA DODGERS":     "LAD",
	"LA ANGELS":      "LAA",
	"NY YANKEES":     "NYY",
	"NY METS":        "NYM",
	"ST. LOUIS":      "STL",
	"SAN FRANCISCO":  "SF",
	"SAN DIEGO":      "SD",
	"TAMPA BAY":      "TB",
	"KANSAS CITY":    "KC",
}

// MLBVocabulary builds the baseball vocabulary
func MLBVocabulary() *Vocabulary {
	v := NewVocabulary(SportMLB, mlbTeams)
	v.AddCodeAlias("ATH", "OAK")
	v.AddCodeAlias("ARI", "AZ")
	v.AddCodeAlias("WSH", "WAS")
	v.AddCodeAlias("CWS", "CHW")
	v.AddCodeAlias("TBR", "TB")
	v.AddCodeAlias("KCR", "KC")
	v.AddCodeAlias("SDP", "SD")
	v.AddCodeAlias("SFG", "SF")
	for name, code := range mlbSpecial {
		v.AddSpecial(name, code)
	}
	v.AddAmbiguous("LOS ANGELES", "LAD", "LAA")
	v.AddAmbiguous("LA", "LAD", "LAA")
	v.AddAmbiguous("NEW YORK", "NYY", "NYM")
	v.AddAmbiguous("NY", "NYY", "NYM")
	v.AddAmbiguous("CHICAGO", "CHC", "CHW")
	v.AddAmbiguous("CHI.", "CHC", "CHW")
	v.AddAmbiguous("CHI", "CHC", "CHW")
	for fragment, code := range mlbMascots {
		v.AddPartial(fragment, code)
	}
	return v
}
