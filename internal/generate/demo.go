package generate

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/shelftalk/shelftalk/internal/models"
)

// demoAnswer is one canned question/answer pair. Delay is expressed in
// delay units (seconds in production) to mimic generation latency.
type demoAnswer struct {
	text  string
	delay int
}

// demoResponses maps the exact supported questions to their answers.
var demoResponses = map[string]demoAnswer{
	"Hi, can you help me find a good book to read today?": {
		text: "I'd be happy to help you find a great book! Since I don't want to use any tools, let me ask you some questions instead. What kind of books do you usually enjoy reading? Are you in the mood for something light and easy or something more complex and thought-provoking?\nAlso, is there a particular author or genre that you've been wanting to explore or revisit? Let's chat about it and see if we can find the perfect book for your reading pleasure!",
		delay: 7,
	},
	"Find books by J.K. Rowling about magic.": {
		text: "Here are some books by J.K. Rowling that you might enjoy:\n\"Harry Potter and the Philosopher's Stone\" - The first book in the beloved Harry Potter series, where we meet the young wizard who attends Hogwarts School of Witchcraft and Wizardry.\n\"Harry Potter and the Chamber of Secrets\" - The second installment in the series, where Harry returns to Hogwarts for his second year, only to discover a mysterious chamber within the school that threatens to unleash evil upon the wizarding world.\n\"Harry Potter and the Prisoner of Azkaban\" - The third book in the series, where Sirius Black, a wizard believed to have betrayed Harry's parents to Voldemort, escapes from Azkaban prison and is believed to be coming after Harry.\n\"Fantastic Beasts and Where to Find Them\" - A companion book to the Harry Potter series, this guide to magical creatures was written by magizoologist Newt Scamander and first appeared in the Fantastic Beasts film series.\n\"The Casual Vacancy\" - While not strictly a magic novel, this novel by J.K. Rowling explores themes of power, privilege, and the human condition in a small English town.\nWould you like more information about any of these books or would you like me to recommend something else?",
		delay: 3,
	},
	"Recommend a sci-fi book like Dune.": {
		text: "Here are some results:\n\"Diaspora\" by Greg Egan - A novel about a group of sentient AIs who leave their home planet to explore the universe.\n\"The City & The City\" by China Miéville - A police procedural set in a world where two cities coexist in the same space.\n\"Altered Carbon\" by Richard K. Morgan - A cyberpunk novel about a human consciousness that is transferred into new bodies.\nThese books all share some similarities with Dune in terms of their complex world-building and exploration of philosophical themes.\nWould you like to know more about any of these books or would you like me to recommend something else?",
		delay: 3,
	},
}

// demoFallbackDelay applies to inputs outside the canned table.
const demoFallbackDelay = 2

const demoFallbackText = "I'm sorry, but this is a demo version and I can only respond to specific pre-programmed questions. Please try one of these exact questions:\n\n1. \"Hi, can you help me find a good book to read today?\"\n2. \"Find books by J.K. Rowling about magic.\"\n3. \"Recommend a sci-fi book like Dune.\"\n\nThank you for your understanding!"

// DemoResponder answers only the fixed set of canned questions. It is
// deterministic and side-effect-free.
type DemoResponder struct {
	logger zerolog.Logger

	// delayUnit scales the table delays; production uses one second.
	delayUnit time.Duration
}

// NewDemoResponder creates a demo-mode responder.
func NewDemoResponder(logger zerolog.Logger) *DemoResponder {
	return &DemoResponder{logger: logger, delayUnit: time.Second}
}

// Mode implements Responder.
func (d *DemoResponder) Mode() string { return "demo" }

// Questions returns the supported questions for the demo-status endpoint.
func Questions() []string {
	out := make([]string, 0, len(demoResponses))
	for q := range demoResponses {
		out = append(out, q)
	}
	sort.Strings(out)
	return out
}

// lookup finds the canned answer for an input. Exact match wins; otherwise
// a case- and whitespace-normalized comparison is tried.
func lookup(input string) (demoAnswer, bool) {
	if ans, ok := demoResponses[input]; ok {
		return ans, true
	}
	normalized := normalize(input)
	for question, ans := range demoResponses {
		if normalized == normalize(question) {
			return ans, true
		}
	}
	return demoAnswer{}, false
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Generate implements Responder.
func (d *DemoResponder) Generate(ctx context.Context, sessionID, input string) (Reply, error) {
	ans, ok := lookup(input)
	if !ok {
		d.logger.Info().Str("session_id", sessionID).Msg("non-demo question received")
		ans = demoAnswer{text: demoFallbackText, delay: demoFallbackDelay}
	}

	if err := sleep(ctx, time.Duration(ans.delay)*d.delayUnit); err != nil {
		return Reply{}, err
	}

	return Reply{Text: ans.text, Status: models.StatusComplete}, nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
