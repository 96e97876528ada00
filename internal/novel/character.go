package novel

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// CharacterProfile is a roster entry: the authored description of a
// character, as opposed to the tracker's evolving state. Name is the
// canonical key; Aliases are alternative appellations (nicknames, titles,
// kinship terms) that upstream analysis resolves to Name before any
// tracker mutation.
type CharacterProfile struct {
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	Personality   string            `json:"personality,omitempty"`
	Background    string            `json:"background,omitempty"`
	Aliases       []string          `json:"aliases,omitempty"`
	Relationships map[string]string `json:"relationships,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// NewCharacterProfile creates a profile with the creation time stamped.
func NewCharacterProfile(name, description, personality string) *CharacterProfile {
	return &CharacterProfile{
		Name:        name,
		Description: description,
		Personality: personality,
		CreatedAt:   time.Now(),
	}
}

// AddAlias records an alias if it is new and not the canonical name
// itself. Returns true when the alias was added.
func (c *CharacterProfile) AddAlias(alias string) bool {
	alias = strings.TrimSpace(alias)
	if alias == "" || alias == c.Name {
		return false
	}
	for _, existing := range c.Aliases {
		if existing == alias {
			return false
		}
	}
	c.Aliases = append(c.Aliases, alias)
	return true
}

// HasAlias reports whether alias is recorded for this character.
func (c *CharacterProfile) HasAlias(alias string) bool {
	for _, existing := range c.Aliases {
		if existing == alias {
			return true
		}
	}
	return false
}

// FullDescription renders the profile as prose for context assembly.
func (c *CharacterProfile) FullDescription() string {
	parts := []string{
		fmt.Sprintf("角色：%s", c.Name),
		fmt.Sprintf("描述：%s", c.Description),
	}
	if c.Personality != "" {
		parts = append(parts, fmt.Sprintf("性格：%s", c.Personality))
	}
	if c.Background != "" {
		parts = append(parts, fmt.Sprintf("背景：%s", c.Background))
	}
	if len(c.Relationships) > 0 {
		names := make([]string, 0, len(c.Relationships))
		for name := range c.Relationships {
			names = append(names, name)
		}
		sort.Strings(names)
		rels := make([]string, 0, len(names))
		for _, name := range names {
			rels = append(rels, fmt.Sprintf("%s(%s)", name, c.Relationships[name]))
		}
		parts = append(parts, "关系："+strings.Join(rels, "、"))
	}
	return strings.Join(parts, "\n")
}
