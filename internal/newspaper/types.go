// Package newspaper defines an issue of The Daily Decree: the records a model
// must produce for each turn, the response schemas sent to providers, and the
// defaulting rules that turn loosely-typed model output into a complete Issue.
package newspaper

// Stats are the four national indicators, each in 0–100.
type Stats struct {
	Economy   int `json:"economy"`
	Stability int `json:"stability"`
	Liberty   int `json:"liberty"`
	Approval  int `json:"approval"`
}

// Story is a single article.
type Story struct {
	Headline string `json:"headline"`
	Subhead  string `json:"subhead,omitempty"`
	Content  string `json:"content"`
	Author   string `json:"author,omitempty"`
	Category string `json:"category,omitempty"`
}

// MainStory is the front-page article and the prompt for its photo.
type MainStory struct {
	Story
	VisualPrompt string `json:"visualPrompt"`
}

// Trend is the direction of a market item.
type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendNeutral Trend = "neutral"
)

// MarketItem is one row of the markets panel.
type MarketItem struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Change string `json:"change"`
	Trend  Trend  `json:"trend"`
}

// MarketData groups the markets panel rows.
type MarketData struct {
	Indices     []MarketItem `json:"indices"`
	Commodities []MarketItem `json:"commodities"`
	Currencies  []MarketItem `json:"currencies"`
}

// Character is a member of the recurring cast.
type Character struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	Description string `json:"description,omitempty"`
}

// RecommendedAction is a suggested next move and who suggests it.
type RecommendedAction struct {
	Text        string `json:"text"`
	Recommender string `json:"recommender,omitempty"`
}

// AdvisorOpinion is one advisor's answer to the player's question.
type AdvisorOpinion struct {
	AdvisorName string `json:"advisorName"`
	Role        string `json:"role"`
	Advice      string `json:"advice"`
}

// Stance is a foreign country's relationship to the player's country.
type Stance string

const (
	StanceAlly     Stance = "Ally"
	StanceFriendly Stance = "Friendly"
	StanceNeutral  Stance = "Neutral"
	StanceStrained Stance = "Strained"
	StanceHostile  Stance = "Hostile"
	StanceWar      Stance = "War"
)

// Stances lists every valid stance, friendliest first.
var Stances = []Stance{StanceAlly, StanceFriendly, StanceNeutral, StanceStrained, StanceHostile, StanceWar}

// Valid reports whether s is one of the known stances.
func (s Stance) Valid() bool {
	for _, v := range Stances {
		if s == v {
			return true
		}
	}
	return false
}

// DiplomacyRecord is what the intelligence service knows about one country.
// Records are replaced, never edited in place.
type DiplomacyRecord struct {
	Name           string `json:"name"`
	LeaderName     string `json:"leaderName"`
	GovernmentType string `json:"governmentType"`
	Stance         Stance `json:"stance"`
	Summary        string `json:"description"`
}

// Issue is one turn's complete newspaper.
type Issue struct {
	IssueDate          string              `json:"issueDate"`
	IssueNumber        int                 `json:"issueNumber"`
	NewspaperName      string              `json:"newspaperName"`
	Country            Country             `json:"country"`
	Characters         []Character         `json:"characters"`
	RecommendedActions []RecommendedAction `json:"recommendedActions"`
	MainStory          MainStory           `json:"mainStory"`
	Editorial          Story               `json:"editorial"`
	WorldNews          []Story             `json:"worldNews"`
	LocalNews          []Story             `json:"localNews"`
	BusinessNews       []Story             `json:"businessNews"`
	MarketData         MarketData          `json:"marketData"`
	ImageURL           string              `json:"imageUrl,omitempty"`
	Stats              Stats               `json:"stats"`
	GameOver           bool                `json:"gameOver"`
	GameOverReason     string              `json:"gameOverReason"`
	AIModel            string              `json:"aiModel,omitempty"`

	// Diplomacy is keyed by country name.
	Diplomacy map[string]DiplomacyRecord `json:"diplomacy"`
}

// TurnRecord is one line of the campaign log.
type TurnRecord struct {
	TurnNumber    int    `json:"turnNumber"`
	PlayerAction  string `json:"playerAction"`
	ResultSummary string `json:"resultSummary"`
}

// Clone returns a copy whose slices and map can be modified independently.
func (is *Issue) Clone() *Issue {
	if is == nil {
		return nil
	}
	c := *is
	c.Characters = append([]Character{}, is.Characters...)
	c.RecommendedActions = append([]RecommendedAction{}, is.RecommendedActions...)
	c.WorldNews = append([]Story{}, is.WorldNews...)
	c.LocalNews = append([]Story{}, is.LocalNews...)
	c.BusinessNews = append([]Story{}, is.BusinessNews...)
	c.MarketData = MarketData{
		Indices:     append([]MarketItem{}, is.MarketData.Indices...),
		Commodities: append([]MarketItem{}, is.MarketData.Commodities...),
		Currencies:  append([]MarketItem{}, is.MarketData.Currencies...),
	}
	c.Diplomacy = make(map[string]DiplomacyRecord, len(is.Diplomacy))
	for k, v := range is.Diplomacy {
		c.Diplomacy[k] = v
	}
	return &c
}

// MergeDiplomacy returns a new map holding every entry of prev overlaid with
// every entry of next. Neither input is modified.
func MergeDiplomacy(prev, next map[string]DiplomacyRecord) map[string]DiplomacyRecord {
	out := make(map[string]DiplomacyRecord, len(prev)+len(next))
	for k, v := range prev {
		out[k] = v
	}
	for k, v := range next {
		out[k] = v
	}
	return out
}
