package game

import (
	"fmt"
	"strings"

	"github.com/talgya/daily-decree/internal/newspaper"
)

// Number of past turns quoted back to the model.
const promptHistory = 5

const (
	initSystem      = "You are the Editor-in-Chief. Write detailed, immersive, journalistic content. NO PLACEHOLDERS."
	turnSystem      = "Maintain character continuity. global variety. NO PLACEHOLDERS."
	advisorSystem   = "Provide strategic in-character advice."
	diplomacySystem = "You are an intelligence analyst. Be consistent with the text provided."
)

func buildInitPrompt(country newspaper.Country, leader string) string {
	if leader == "" {
		leader = "Generate a fitting name"
	}
	return fmt.Sprintf("Initialize a political simulation for: %s. LEADER NAME: %s. Generate staff, 4+ world stories, and 3 recommended actions.",
		country.Context(), leader)
}

type turnInput struct {
	country newspaper.Country
	cast    []newspaper.Character
	stats   newspaper.Stats
	turn    int
	history []newspaper.TurnRecord
	action  string
}

func buildTurnPrompt(in turnInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Country: %s. CHARACTERS: %s. ", in.country.Context(), castList(in.cast))
	fmt.Fprintf(&b, "PLAYER ACTION: %q. 4+ world news, 3 NEW actions.\n\n", in.action)

	fmt.Fprintf(&b, "TURN: %d\n", in.turn+1)
	fmt.Fprintf(&b, "CURRENT STATS: economy %d, stability %d, liberty %d, approval %d\n",
		in.stats.Economy, in.stats.Stability, in.stats.Liberty, in.stats.Approval)

	if len(in.history) > 0 {
		b.WriteString("\nRECENT DECREES:\n")
		start := len(in.history) - promptHistory
		if start < 0 {
			start = 0
		}
		for _, h := range in.history[start:] {
			fmt.Fprintf(&b, "- Turn %d: %s -> %s\n", h.TurnNumber, h.PlayerAction, h.ResultSummary)
		}
	}

	b.WriteString("\nIf any stat reaches 0 or the government falls, set gameOver true and explain why in gameOverReason.")
	return b.String()
}

func buildAdvisorPrompt(question string, cast []newspaper.Character) string {
	names := make([]string, len(cast))
	for i, c := range cast {
		names[i] = c.Name
	}
	return fmt.Sprintf("Question: %q. Cabinet: %s. Provide strategic advice.", question, strings.Join(names, ", "))
}

func buildDiplomacyPrompt(target string, home newspaper.Country, issue *newspaper.Issue) string {
	var b strings.Builder

	fmt.Fprintf(&b, "TASK: Identify or Generate details for the country: %q.\n\n", target)
	b.WriteString("SOURCE MATERIAL (Current Newspaper):\n")
	b.WriteString(articlesText(issue))
	b.WriteString("\n\nINSTRUCTIONS:\n")
	fmt.Fprintf(&b, "1. Scan the SOURCE MATERIAL. Is there a leader mentioned for %s? If so, use their name.\n", target)
	fmt.Fprintf(&b, "2. If NOT mentioned, GENERATE a realistic leader name, government type, and current diplomatic stance towards the player's country (%s).\n", home)
	fmt.Fprintf(&b, "3. Determine the 'stance' based on real-world geopolitics relative to %s or recent news events in the text.\n", home)
	return b.String()
}

func castList(cast []newspaper.Character) string {
	parts := make([]string, len(cast))
	for i, c := range cast {
		parts[i] = fmt.Sprintf("%q (%s)", c.Name, c.Role)
	}
	return strings.Join(parts, ", ")
}

func articlesText(issue *newspaper.Issue) string {
	if issue == nil {
		return "(no articles)"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s. %s\n", issue.MainStory.Headline, issue.MainStory.Content)
	for _, s := range issue.WorldNews {
		fmt.Fprintf(&b, "%s. %s\n", s.Headline, s.Content)
	}
	return strings.TrimSpace(b.String())
}
