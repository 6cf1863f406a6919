package feed

// Feed a syndication source to collect from
type Feed struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
}

// StaticLink a quick link rendered at the top of the index page
type StaticLink struct {
	Label string `json:"label" yaml:"label"`
	URL   string `json:"url" yaml:"url"`
}

// DefaultFeeds returns the built-in feed list, biased toward sources that
// actually publish RSS/Atom. National feeds are narrowed down by the
// collector's relevance filter.
func DefaultFeeds() []Feed {
	return []Feed{
		{
			Name: "Google News — Gamecocks Football",
			URL:  "https://news.google.com/rss/search?q=%22South+Carolina%22+Gamecocks+football&hl=en-US&gl=US&ceid=US:en",
		},
		{
			Name: "Google News — South Carolina Football",
			URL:  "https://news.google.com/rss/search?q=%22South+Carolina%22+football&hl=en-US&gl=US&ceid=US:en",
		},
		{
			Name: "Google News — Gamecocks",
			URL:  "https://news.google.com/rss/search?q=Gamecocks+football&hl=en-US&gl=US&ceid=US:en",
		},
		{
			Name: "Google News — Shane Beamer",
			URL:  "https://news.google.com/rss/search?q=%22Shane+Beamer%22&hl=en-US&gl=US&ceid=US:en",
		},
		{
			Name: "Garnet & Black Attack",
			URL:  "https://www.garnetandblackattack.com/rss/index.xml",
		},
		{
			Name: "The State — USC Football",
			URL:  "https://www.thestate.com/sports/college/university-of-south-carolina/usc-football/?outputType=amp&type=rss",
		},
		{
			Name: "ESPN — CFB News",
			URL:  "https://www.espn.com/espn/rss/ncf/news",
		},
	}
}

// DefaultStaticLinks returns the built-in quick links
func DefaultStaticLinks() []StaticLink {
	return []StaticLink{
		{Label: "Fight Song", URL: "/fight-song"},
		{Label: "Betting", URL: "https://www.espn.com/chalk/"},
		{Label: "South Carolina — Official", URL: "https://gamecocksonline.com/sports/football/"},
		{Label: "Schedule", URL: "https://gamecocksonline.com/sports/football/schedule/"},
		{Label: "Roster", URL: "https://gamecocksonline.com/sports/football/roster/"},
		{Label: "ESPN", URL: "https://www.espn.com/college-football/team/_/id/2579/south-carolina-gamecocks"},
		{Label: "CBS Sports", URL: "https://www.cbssports.com/college-football/teams/SC/south-carolina-gamecocks/"},
		{Label: "Yahoo Sports", URL: "https://sports.yahoo.com/ncaaf/teams/south-carolina/"},
		{Label: "247Sports", URL: "https://247sports.com/college/south-carolina/"},
		{Label: "GamecockCentral", URL: "https://www.on3.com/teams/south-carolina-gamecocks/"},
		{Label: "Garnet & Black Attack", URL: "https://www.garnetandblackattack.com/"},
		{Label: "The State (Columbia)", URL: "https://www.thestate.com/sports/college/university-of-south-carolina/usc-football/"},
		{Label: "Reddit — r/Gamecocks", URL: "https://www.reddit.com/r/Gamecocks/"},
		{Label: "YouTube — GamecockCentral", URL: "https://www.youtube.com/@GamecockCentral"},
		{Label: "YouTube — 247Sports", URL: "https://www.youtube.com/@247Sports"},
		{Label: "YouTube — ESPN CFB", URL: "https://www.youtube.com/@ESPNCFB"},
	}
}
