package domain

import (
	"fmt"
	"strings"
)

// AllCategories selects every command category.
const AllCategories = "All"

// Command is one entry of the bot's command catalog.
type Command struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Usage       string   `json:"usage,omitempty"`
	Aliases     []string `json:"aliases,omitempty"`
}

// DecodeCommands parses the catalog returned by /api/commands.
func DecodeCommands(b []byte) ([]Command, error) {
	var cmds []Command
	if err := json.Unmarshal(b, &cmds); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return cmds, nil
}

// Categories returns AllCategories followed by every distinct category in
// first-seen order.
func Categories(cmds []Command) []string {
	out := []string{AllCategories}
	seen := make(map[string]struct{}, len(cmds))
	for _, c := range cmds {
		if _, ok := seen[c.Category]; ok {
			continue
		}
		seen[c.Category] = struct{}{}
		out = append(out, c.Category)
	}
	return out
}

// FilterCommands keeps commands of the given category (empty or AllCategories
// match any) whose name or description contains term, ignoring case.
func FilterCommands(cmds []Command, category, term string) []Command {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]Command, 0, len(cmds))
	for _, c := range cmds {
		if category != "" && category != AllCategories && c.Category != category {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(c.Name), term) &&
			!strings.Contains(strings.ToLower(c.Description), term) {
			continue
		}
		out = append(out, c)
	}
	return out
}
