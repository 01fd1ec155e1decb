package newspaper

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/daily-decree/internal/llm"
)

// Fallback text used when the model leaves a field out.
const (
	DefaultNewspaperName = "The Daily Decree"
	DefaultHeadline      = "Extra! Extra! News Room Silenced!"
	DefaultSubhead       = "Technical difficulties in the capital"
	DefaultContent       = "The printing presses are struggling to keep up with the rapid pace of change. Our reporters are currently investigating the latest developments."
	DefaultAuthor        = "Staff Reporter"
	DefaultVisualPrompt  = "Busy newsroom office 1980s"
	DefaultEditorialHead = "Opinion: The Road Ahead"
	DefaultEditorialBody = "We must remain vigilant in these trying times."
	DefaultStat          = 50
	DateLayout           = "January 2, 2006"
)

// FallbackAdvice is returned when the cabinet cannot be reached.
var FallbackAdvice = []AdvisorOpinion{
	{AdvisorName: "Chief of Staff", Role: "Advisor", Advice: "Communication breakdown, sir."},
}

// now is replaced in tests.
var now = time.Now

// ParseIssue accepts sanitized model output as an Issue. The text must be a
// JSON object whose mainStory.headline is a non-empty string; everything else
// is defaulted by Normalize.
func ParseIssue(text string, country Country, model string) (*Issue, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("parse issue: %v: %w", err, llm.ErrInvalidResponse)
	}
	if !hasMainHeadline(raw) {
		return nil, fmt.Errorf("parse issue: missing main headline: %w", llm.ErrInvalidResponse)
	}
	return Normalize(raw, country, model), nil
}

// CheckIssue reports whether text would be accepted by ParseIssue.
func CheckIssue(text string) error {
	var raw map[string]any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return fmt.Errorf("check issue: %v: %w", err, llm.ErrInvalidResponse)
	}
	if !hasMainHeadline(raw) {
		return fmt.Errorf("check issue: missing main headline: %w", llm.ErrInvalidResponse)
	}
	return nil
}

func hasMainHeadline(raw map[string]any) bool {
	headline, _ := object(raw["mainStory"])["headline"].(string)
	return strings.TrimSpace(headline) != ""
}

// Normalize builds a complete Issue from any decoded payload, including nil.
// It never fails: missing lists become empty, missing stats become 50,
// missing text gets fixed fallbacks, and the country is always the caller's.
func Normalize(raw map[string]any, country Country, model string) *Issue {
	main := object(raw["mainStory"])
	editorial := object(raw["editorial"])
	market := object(raw["marketData"])
	stats := object(raw["stats"])

	issue := &Issue{
		IssueDate:          text(raw["issueDate"], now().Format(DateLayout)),
		IssueNumber:        positiveInt(raw["issueNumber"], 1),
		NewspaperName:      text(raw["newspaperName"], DefaultNewspaperName),
		Country:            country,
		Characters:         characters(raw["characters"]),
		RecommendedActions: actions(raw["recommendedActions"]),
		MainStory: MainStory{
			Story: Story{
				Headline: text(main["headline"], DefaultHeadline),
				Subhead:  text(main["subhead"], DefaultSubhead),
				Content:  text(main["content"], DefaultContent),
				Author:   text(main["author"], DefaultAuthor),
			},
			VisualPrompt: text(main["visualPrompt"], DefaultVisualPrompt),
		},
		Editorial: Story{
			Headline: text(editorial["headline"], DefaultEditorialHead),
			Subhead:  text(editorial["subhead"], ""),
			Content:  text(editorial["content"], DefaultEditorialBody),
			Author:   text(editorial["author"], ""),
		},
		WorldNews:    stories(raw["worldNews"]),
		LocalNews:    stories(raw["localNews"]),
		BusinessNews: stories(raw["businessNews"]),
		MarketData: MarketData{
			Indices:     marketItems(market["indices"]),
			Commodities: marketItems(market["commodities"]),
			Currencies:  marketItems(market["currencies"]),
		},
		ImageURL: text(raw["imageUrl"], ""),
		Stats: Stats{
			Economy:   stat(stats["economy"]),
			Stability: stat(stats["stability"]),
			Liberty:   stat(stats["liberty"]),
			Approval:  stat(stats["approval"]),
		},
		GameOver:       truthy(raw["gameOver"]),
		GameOverReason: text(raw["gameOverReason"], ""),
		AIModel:        model,
		Diplomacy:      diplomacy(raw["diplomacy"]),
	}
	if issue.AIModel == "" {
		issue.AIModel = text(raw["aiModel"], "Unknown")
	}
	return issue
}

// ParseAdvisors accepts a JSON array of advisor opinions. Entries without
// advice are dropped; an empty result is an error.
func ParseAdvisors(text string) ([]AdvisorOpinion, error) {
	var raw []any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("parse advisors: %v: %w", err, llm.ErrInvalidResponse)
	}
	var out []AdvisorOpinion
	for _, v := range raw {
		o := object(v)
		advice := textOf(o["advice"])
		if advice == "" {
			continue
		}
		out = append(out, AdvisorOpinion{
			AdvisorName: textOf(o["advisorName"]),
			Role:        textOf(o["role"]),
			Advice:      advice,
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("parse advisors: no advice given: %w", llm.ErrInvalidResponse)
	}
	return out, nil
}

// CheckAdvisors reports whether text would be accepted by ParseAdvisors.
func CheckAdvisors(text string) error {
	_, err := ParseAdvisors(text)
	return err
}

// CheckCountry rejects a country record without a leader name.
func CheckCountry(text string) error {
	var raw map[string]any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return fmt.Errorf("check country: %v: %w", err, llm.ErrInvalidResponse)
	}
	if textOf(raw["leaderName"]) == "" {
		return fmt.Errorf("check country: missing leader name: %w", llm.ErrInvalidResponse)
	}
	return nil
}

// ParseDiplomacy accepts a single country record. The record is always filed
// under the requested name, whatever the model called it.
func ParseDiplomacy(text, name string) (DiplomacyRecord, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return DiplomacyRecord{}, fmt.Errorf("parse country: %v: %w", err, llm.ErrInvalidResponse)
	}
	rec := diplomacyRecord(raw, name)
	rec.Name = name
	return rec, nil
}

func diplomacy(v any) map[string]DiplomacyRecord {
	out := make(map[string]DiplomacyRecord)
	switch d := v.(type) {
	case map[string]any:
		for name, entry := range d {
			out[name] = diplomacyRecord(object(entry), name)
		}
	case []any:
		for _, entry := range d {
			rec := diplomacyRecord(object(entry), "")
			if rec.Name != "" {
				out[rec.Name] = rec
			}
		}
	}
	return out
}

func diplomacyRecord(o map[string]any, name string) DiplomacyRecord {
	stance := Stance(textOf(o["stance"]))
	if !stance.Valid() {
		stance = StanceNeutral
	}
	summary := textOf(o["description"])
	if summary == "" {
		summary = textOf(o["summary"])
	}
	return DiplomacyRecord{
		Name:           text(o["name"], name),
		LeaderName:     text(o["leaderName"], "Unknown"),
		GovernmentType: text(o["governmentType"], "Unknown"),
		Stance:         stance,
		Summary:        summary,
	}
}

func characters(v any) []Character {
	out := []Character{}
	for _, e := range list(v) {
		o := object(e)
		name := textOf(o["name"])
		if name == "" {
			continue
		}
		out = append(out, Character{Name: name, Role: textOf(o["role"]), Description: textOf(o["description"])})
	}
	return out
}

func actions(v any) []RecommendedAction {
	out := []RecommendedAction{}
	for _, e := range list(v) {
		if s, ok := e.(string); ok && s != "" {
			out = append(out, RecommendedAction{Text: s})
			continue
		}
		o := object(e)
		t := textOf(o["text"])
		if t == "" {
			continue
		}
		out = append(out, RecommendedAction{Text: t, Recommender: textOf(o["recommender"])})
	}
	return out
}

func stories(v any) []Story {
	out := []Story{}
	for _, e := range list(v) {
		o := object(e)
		headline := textOf(o["headline"])
		if headline == "" {
			continue
		}
		out = append(out, Story{
			Headline: headline,
			Subhead:  textOf(o["subhead"]),
			Content:  textOf(o["content"]),
			Author:   textOf(o["author"]),
			Category: textOf(o["category"]),
		})
	}
	return out
}

func marketItems(v any) []MarketItem {
	out := []MarketItem{}
	for _, e := range list(v) {
		o := object(e)
		name := textOf(o["name"])
		if name == "" {
			continue
		}
		trend := Trend(textOf(o["trend"]))
		if trend != TrendUp && trend != TrendDown {
			trend = TrendNeutral
		}
		out = append(out, MarketItem{Name: name, Value: textOf(o["value"]), Change: textOf(o["change"]), Trend: trend})
	}
	return out
}

// stat reads a 0–100 indicator. Numbers and numeric strings are accepted and
// clamped; anything else is DefaultStat.
func stat(v any) int {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case json.Number:
		var err error
		if f, err = n.Float64(); err != nil {
			return DefaultStat
		}
	case string:
		var err error
		if f, err = strconv.ParseFloat(strings.TrimSpace(n), 64); err != nil {
			return DefaultStat
		}
	default:
		return DefaultStat
	}
	if math.IsNaN(f) {
		return DefaultStat
	}
	return int(math.Round(math.Max(0, math.Min(100, f))))
}

func positiveInt(v any, def int) int {
	switch n := v.(type) {
	case float64:
		if n >= 1 {
			return int(n)
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil && i >= 1 {
			return i
		}
	}
	return def
}

func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(b, "true")
	case float64:
		return b != 0
	}
	return false
}

func object(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return nil
}

func list(v any) []any {
	if l, ok := v.([]any); ok {
		return l
	}
	return nil
}

func textOf(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	}
	return ""
}

func text(v any, def string) string {
	if s := textOf(v); s != "" {
		return s
	}
	return def
}
