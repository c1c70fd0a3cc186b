package validation

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/a2aregistry/backend/internal/models"
)

// Name and description bounds from the A2A card rules (after trimming).
const (
	NameMinLen        = 2
	NameMaxLen        = 100
	DescriptionMinLen = 10
	DescriptionMaxLen = 1000
)

// Result is the outcome of validating an agent card. Errors block
// registration; warnings are advisory and never do. On success Card
// holds the normalized card (trimmed fields, defaulted modes).
type Result struct {
	Valid    bool              `json:"valid"`
	Errors   []string          `json:"errors"`
	Warnings []string          `json:"warnings"`
	Card     *models.AgentCard `json:"card,omitempty"`
}

// ValidateCard checks a candidate agent card. Structural failures are
// all collected (no fail-fast) and reported as "<field-path>: <message>"
// with dotted paths for nested fields, e.g. "skills.0.id".
func ValidateCard(card models.AgentCard) Result {
	var errs, warns []string

	// Bounds count characters, not bytes, so multibyte names are not
	// over-counted.
	card.Name = strings.TrimSpace(card.Name)
	if utf8.RuneCountInString(card.Name) < NameMinLen {
		errs = append(errs, fmt.Sprintf("name: must be at least %d characters", NameMinLen))
	} else if utf8.RuneCountInString(card.Name) > NameMaxLen {
		errs = append(errs, fmt.Sprintf("name: must be at most %d characters", NameMaxLen))
	}

	card.Description = strings.TrimSpace(card.Description)
	if utf8.RuneCountInString(card.Description) < DescriptionMinLen {
		errs = append(errs, fmt.Sprintf("description: must be at least %d characters", DescriptionMinLen))
	} else if utf8.RuneCountInString(card.Description) > DescriptionMaxLen {
		errs = append(errs, fmt.Sprintf("description: must be at most %d characters", DescriptionMaxLen))
	}

	u, err := url.Parse(card.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, "url: must be an absolute URL with scheme and host")
	} else if u.Scheme != "https" && !isLocalHost(u.Hostname()) {
		warns = append(warns, "URL uses HTTP instead of HTTPS. Consider using HTTPS for production.")
	}

	for i, skill := range card.Skills {
		if skill.ID == "" {
			errs = append(errs, fmt.Sprintf("skills.%d.id: must not be empty", i))
		} else if strings.IndexFunc(skill.ID, unicode.IsSpace) >= 0 {
			errs = append(errs, fmt.Sprintf("skills.%d.id: must not contain whitespace", i))
		}
		if skill.Description == "" {
			warns = append(warns, fmt.Sprintf("Skill %q has no description.", skill.ID))
		}
		if len(skill.Examples) == 0 {
			warns = append(warns, fmt.Sprintf("Skill %q has no examples. Examples help other agents understand usage.", skill.ID))
		}
	}

	if len(card.Skills) == 0 {
		warns = append(warns, "Agent has no skills defined. Consider adding skills to help discovery.")
	}
	if card.Version == "" {
		warns = append(warns, "No version specified. Consider adding a version for tracking changes.")
	}

	if len(errs) > 0 {
		return Result{Valid: false, Errors: errs, Warnings: warns}
	}

	if len(card.DefaultInputModes) == 0 {
		card.DefaultInputModes = []string{"text"}
	}
	if len(card.DefaultOutputModes) == 0 {
		card.DefaultOutputModes = []string{"text"}
	}
	return Result{Valid: true, Warnings: warns, Card: &card}
}

func isLocalHost(host string) bool {
	switch strings.ToLower(host) {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return strings.HasSuffix(strings.ToLower(host), ".localhost")
}
