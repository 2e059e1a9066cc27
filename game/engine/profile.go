package engine

import (
	"fmt"
	"sort"
	"unicode"
	"unicode/utf8"
)

// Profile holds the presentation and input settings of a game: which tokens
// move the actor and which glyphs draw the board. It never describes a layout.
type Profile struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Bindings    map[string]string `json:"bindings" yaml:"bindings"`
	Glyphs      Glyphs            `json:"glyphs" yaml:"glyphs"`
}

// Glyphs are the single-rune strings used to draw each cell state.
type Glyphs struct {
	Empty        string `json:"empty" yaml:"empty"`
	Object       string `json:"object" yaml:"object"`
	Actor        string `json:"actor" yaml:"actor"`
	Goal         string `json:"goal" yaml:"goal"`
	ObjectOnGoal string `json:"object_on_goal" yaml:"object_on_goal"`
	ActorOnGoal  string `json:"actor_on_goal" yaml:"actor_on_goal"`
	Wall         string `json:"wall" yaml:"wall"`
}

// DefaultGlyphs are the reference glyphs.
func DefaultGlyphs() Glyphs {
	return Glyphs{
		Empty:        " ",
		Object:       "o",
		Actor:        "p",
		Goal:         ".",
		ObjectOnGoal: "O",
		ActorOnGoal:  "P",
		Wall:         "#",
	}
}

// DefaultProfile returns the built-in "classic" profile bound to w/a/s/d.
func DefaultProfile() *Profile {
	return &Profile{
		Name:        "classic",
		Description: "w/a/s/d to move, reference glyphs",
		Bindings: map[string]string{
			"w": "up",
			"a": "left",
			"s": "down",
			"d": "right",
		},
		Glyphs: DefaultGlyphs(),
	}
}

// Resolve maps an input token to a direction. Bound tokens win; the canonical
// names up/down/left/right are always understood. Matching is case-sensitive.
func (p *Profile) Resolve(token string) (Direction, bool) {
	if p != nil {
		if name, ok := p.Bindings[token]; ok {
			return ParseDirection(name)
		}
	}
	return ParseDirection(token)
}

// KeysFor returns the tokens bound to dir, sorted for stable output.
func (p *Profile) KeysFor(dir Direction) []string {
	var keys []string
	for token, name := range p.Bindings {
		if d, ok := ParseDirection(name); ok && d == dir {
			keys = append(keys, token)
		}
	}
	sort.Strings(keys)
	return keys
}

// Runes returns the glyphs as runes in Empty, Object, Actor, Goal,
// ObjectOnGoal, ActorOnGoal, Wall order.
func (g Glyphs) Runes() []rune {
	out := make([]rune, 0, 7)
	for _, s := range g.fields() {
		r, _ := utf8.DecodeRuneInString(s)
		out = append(out, r)
	}
	return out
}

func (g Glyphs) fields() []string {
	return []string{g.Empty, g.Object, g.Actor, g.Goal, g.ObjectOnGoal, g.ActorOnGoal, g.Wall}
}

var glyphNames = []string{"empty", "object", "actor", "goal", "object_on_goal", "actor_on_goal", "wall"}

// ValidateProfile checks that a profile is usable: it has a name, every
// binding names a direction, every direction has a binding and the glyphs are
// distinct single printable runes. A direction name may only be bound to
// itself.
func ValidateProfile(p *Profile) error {
	if p == nil {
		return fmt.Errorf("profile cannot be nil")
	}
	if p.Name == "" {
		return fmt.Errorf("profile name is required")
	}
	if len(p.Bindings) == 0 {
		return fmt.Errorf("profile must define key bindings")
	}

	reachable := make(map[Direction]bool)
	for token, name := range p.Bindings {
		if token == "" {
			return fmt.Errorf("binding token cannot be empty")
		}
		d, ok := ParseDirection(name)
		if !ok {
			return fmt.Errorf("binding %q maps to unknown direction %q", token, name)
		}
		if canonical, isName := ParseDirection(token); isName && canonical != d {
			return fmt.Errorf("binding %q remaps a direction name to %s", token, d)
		}
		reachable[d] = true
	}
	for _, d := range Directions {
		if !reachable[d] {
			return fmt.Errorf("no binding for direction %s", d)
		}
	}

	seen := make(map[rune]string)
	for i, s := range p.Glyphs.fields() {
		if utf8.RuneCountInString(s) != 1 {
			return fmt.Errorf("glyph %s must be a single character, got %q", glyphNames[i], s)
		}
		r, _ := utf8.DecodeRuneInString(s)
		if r != ' ' && !unicode.IsPrint(r) {
			return fmt.Errorf("glyph %s is not printable: %q", glyphNames[i], s)
		}
		if other, dup := seen[r]; dup {
			return fmt.Errorf("glyphs %s and %s are both %q", other, glyphNames[i], s)
		}
		seen[r] = glyphNames[i]
	}
	return nil
}

// Clone returns a deep copy of the profile.
func (p *Profile) Clone() *Profile {
	c := *p
	c.Bindings = make(map[string]string, len(p.Bindings))
	for k, v := range p.Bindings {
		c.Bindings[k] = v
	}
	return &c
}
