package newspaper

import "github.com/talgya/daily-decree/internal/llm"

func str(description ...string) llm.Schema {
	s := llm.Schema{"type": "STRING"}
	if len(description) > 0 {
		s["description"] = description[0]
	}
	return s
}

func enum(values ...string) llm.Schema {
	return llm.Schema{"type": "STRING", "enum": values}
}

func obj(props map[string]llm.Schema, required ...string) llm.Schema {
	s := llm.Schema{"type": "OBJECT", "properties": props}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func arr(items llm.Schema) llm.Schema {
	return llm.Schema{"type": "ARRAY", "items": items}
}

var (
	integer = llm.Schema{"type": "INTEGER"}
	boolean = llm.Schema{"type": "BOOLEAN"}
)

func storySchema() llm.Schema {
	return obj(map[string]llm.Schema{
		"headline": str(),
		"subhead":  str(),
		"content":  str(`Detailed article text. Use \n\n for paragraphs.`),
		"author":   str(),
		"category": str(),
	}, "headline", "content")
}

func marketItemSchema() llm.Schema {
	return obj(map[string]llm.Schema{
		"name":   str(),
		"value":  str(),
		"change": str(),
		"trend":  enum(string(TrendUp), string(TrendDown), string(TrendNeutral)),
	}, "name", "value", "change", "trend")
}

func stanceValues() []string {
	out := make([]string, len(Stances))
	for i, s := range Stances {
		out[i] = string(s)
	}
	return out
}

// CountrySchema describes one DiplomacyRecord.
func CountrySchema() llm.Schema {
	return obj(map[string]llm.Schema{
		"name":           str(),
		"leaderName":     str(),
		"governmentType": str(),
		"stance":         enum(stanceValues()...),
		"description":    str("Brief intelligence summary of their current state."),
	}, "name", "leaderName", "governmentType", "stance", "description")
}

// AdvisorSchema describes a list of AdvisorOpinion.
func AdvisorSchema() llm.Schema {
	return arr(obj(map[string]llm.Schema{
		"advisorName": str(),
		"role":        str(),
		"advice":      str(),
	}, "advisorName", "role", "advice"))
}

// IssueSchema describes a full Issue.
func IssueSchema() llm.Schema {
	countries := make([]string, len(Countries))
	for i, c := range Countries {
		countries[i] = string(c)
	}

	return obj(map[string]llm.Schema{
		"issueDate":     str(),
		"issueNumber":   integer,
		"newspaperName": str(),
		"country":       enum(countries...),
		"characters": arr(obj(map[string]llm.Schema{
			"name":        str(),
			"role":        str(),
			"description": str(),
		}, "name", "role")),
		"recommendedActions": arr(obj(map[string]llm.Schema{
			"text":        str("A high-stakes, concise executive order proposal."),
			"recommender": str("The full name and complete official title of the official."),
		}, "text", "recommender")),
		"mainStory": obj(map[string]llm.Schema{
			"headline":     str(),
			"subhead":      str(),
			"content":      str(),
			"author":       str(),
			"visualPrompt": str(),
		}, "headline", "content", "visualPrompt"),
		"editorial":    storySchema(),
		"worldNews":    arr(storySchema()),
		"localNews":    arr(storySchema()),
		"businessNews": arr(storySchema()),
		"marketData": obj(map[string]llm.Schema{
			"indices":     arr(marketItemSchema()),
			"commodities": arr(marketItemSchema()),
			"currencies":  arr(marketItemSchema()),
		}, "indices", "commodities", "currencies"),
		"stats": obj(map[string]llm.Schema{
			"economy":   integer,
			"stability": integer,
			"liberty":   integer,
			"approval":  integer,
		}, "economy", "stability", "liberty", "approval"),
		"gameOver":       boolean,
		"gameOverReason": str(),
		"diplomacy":      arr(CountrySchema()),
	}, "issueDate", "mainStory", "editorial", "worldNews", "localNews", "businessNews",
		"marketData", "stats", "gameOver", "characters", "recommendedActions")
}
