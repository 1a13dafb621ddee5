package generate

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shelftalk/shelftalk/internal/models"
)

// bookIDRegex matches "book 3", "book #3" and similar references.
var bookIDRegex = regexp.MustCompile(`book\s*#?(\d+)`)

// DetectActions scans reply text for an embedded save-book intent and
// returns a structured action payload. Absence of a match is not an
// error; most replies carry no action.
func DetectActions(text string) *models.MessageActions {
	lower := strings.ToLower(text)

	if !strings.Contains(lower, "save") {
		return nil
	}
	if !containsAny(lower, "book", "added", "list") {
		return nil
	}

	match := bookIDRegex.FindStringSubmatch(lower)
	if match == nil {
		return nil
	}
	bookID, err := strconv.Atoi(match[1])
	if err != nil {
		return nil
	}

	return &models.MessageActions{Type: "save_book", BookID: bookID}
}
