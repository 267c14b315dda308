// Package pattern infers positional character-class patterns from sample
// strings and expands them back into random strings of the same shape.
package pattern

import (
	"fmt"
	"math/rand"
	"strings"
)

// Set is an inclusive rune range. A literal character is a Set with Lo == Hi.
type Set struct {
	Lo rune
	Hi rune
}

func (s Set) contains(r rune) bool {
	return r >= s.Lo && r <= s.Hi
}

func (s Set) isRange() bool {
	return s.Hi > s.Lo
}

var (
	digits        = Set{'0', '9'}
	upperLatin    = Set{'A', 'Z'}
	lowerLatin    = Set{'a', 'z'}
	upperCyrillic = Set{'А', 'Я'}
	lowerCyrillic = Set{'а', 'я'}
)

// classOf maps a rune to its character class. Runes outside the known
// classes stand for themselves.
func classOf(r rune) Set {
	for _, class := range []Set{digits, upperLatin, lowerLatin, upperCyrillic, lowerCyrillic} {
		if class.contains(r) {
			return class
		}
	}
	return Set{r, r}
}

// Position is the ordered list of sets allowed at one index of the string.
type Position struct {
	sets     []Set
	alphabet []rune
}

func newPosition(sets []Set) Position {
	p := Position{sets: sets}
	seen := make(map[rune]bool)
	for _, s := range sets {
		for r := s.Lo; r <= s.Hi; r++ {
			if !seen[r] {
				seen[r] = true
				p.alphabet = append(p.alphabet, r)
			}
		}
	}
	return p
}

func (p Position) allows(r rune) bool {
	for _, s := range p.sets {
		if s.contains(r) {
			return true
		}
	}
	return false
}

// Pattern is a sequence of positions. The zero value is the empty pattern.
type Pattern struct {
	positions []Position
}

// Extract builds the pattern describing every value in values. Each position
// collects the classes of the characters seen there in first-seen order;
// shorter values simply stop contributing.
func Extract(values []string) Pattern {
	var sets [][]Set
	for _, v := range values {
		for i, r := range []rune(v) {
			if i == len(sets) {
				sets = append(sets, nil)
			}
			class := classOf(r)
			found := false
			for _, s := range sets[i] {
				if s == class {
					found = true
					break
				}
			}
			if !found {
				sets[i] = append(sets[i], class)
			}
		}
	}

	p := Pattern{positions: make([]Position, len(sets))}
	for i, s := range sets {
		p.positions[i] = newPosition(s)
	}
	return p
}

// Len returns the number of positions.
func (p Pattern) Len() int {
	return len(p.positions)
}

// IsEmpty reports whether the pattern has no positions.
func (p Pattern) IsEmpty() bool {
	return len(p.positions) == 0
}

// String renders the pattern as consecutive bracket expressions.
func (p Pattern) String() string {
	var b strings.Builder
	for _, pos := range p.positions {
		b.WriteByte('[')
		for i, s := range pos.sets {
			if s.isRange() {
				b.WriteRune(s.Lo)
				b.WriteByte('-')
				b.WriteRune(s.Hi)
				continue
			}
			writeLiteral(&b, s.Lo, i == 0)
		}
		b.WriteByte(']')
	}
	return b.String()
}

func writeLiteral(b *strings.Builder, r rune, first bool) {
	switch r {
	case '\\', ']', '[', '^':
		b.WriteByte('\\')
	case '-':
		if !first {
			b.WriteByte('\\')
		}
	}
	b.WriteRune(r)
}

// Generate draws one string: for every position a rune is picked uniformly
// from the union of that position's sets.
func (p Pattern) Generate(r *rand.Rand) string {
	out := make([]rune, len(p.positions))
	for i, pos := range p.positions {
		out[i] = pos.alphabet[r.Intn(len(pos.alphabet))]
	}
	return string(out)
}

// Space returns the number of distinct strings the pattern can produce.
func (p Pattern) Space() float64 {
	if len(p.positions) == 0 {
		return 1
	}
	space := 1.0
	for _, pos := range p.positions {
		space *= float64(len(pos.alphabet))
	}
	return space
}

// Match reports whether s has exactly the pattern's length and every rune is
// allowed at its position.
func (p Pattern) Match(s string) bool {
	runes := []rune(s)
	if len(runes) != len(p.positions) {
		return false
	}
	for i, r := range runes {
		if !p.positions[i].allows(r) {
			return false
		}
	}
	return true
}

// Parse reads a pattern in the rendered bracket form. Characters outside
// brackets are single-literal positions; a backslash escapes the next rune.
func Parse(s string) (Pattern, error) {
	runes := []rune(s)
	var positions []Position

	for i := 0; i < len(runes); {
		switch runes[i] {
		case '[':
			sets, next, err := parseBracket(runes, i+1)
			if err != nil {
				return Pattern{}, err
			}
			positions = append(positions, newPosition(sets))
			i = next
		case '\\':
			if i+1 >= len(runes) {
				return Pattern{}, fmt.Errorf("dangling escape at offset %d in pattern %q", i, s)
			}
			positions = append(positions, newPosition([]Set{{runes[i+1], runes[i+1]}}))
			i += 2
		case ']':
			return Pattern{}, fmt.Errorf("unexpected ']' at offset %d in pattern %q", i, s)
		default:
			positions = append(positions, newPosition([]Set{{runes[i], runes[i]}}))
			i++
		}
	}
	return Pattern{positions: positions}, nil
}

type atom struct {
	r       rune
	escaped bool
}

func readAtom(runes []rune, i int) (atom, int, error) {
	if runes[i] == '\\' {
		if i+1 >= len(runes) {
			return atom{}, i, fmt.Errorf("dangling escape at offset %d", i)
		}
		return atom{r: runes[i+1], escaped: true}, i + 2, nil
	}
	return atom{r: runes[i]}, i + 1, nil
}

func parseBracket(runes []rune, i int) ([]Set, int, error) {
	var sets []Set
	start := i
	for {
		if i >= len(runes) {
			return nil, i, fmt.Errorf("unterminated '[' at offset %d", start-1)
		}
		if runes[i] == ']' {
			break
		}

		lo, next, err := readAtom(runes, i)
		if err != nil {
			return nil, i, err
		}
		i = next

		// An unescaped '-' between two atoms forms a range.
		if i+1 < len(runes) && runes[i] == '-' && runes[i+1] != ']' {
			hi, after, err := readAtom(runes, i+1)
			if err != nil {
				return nil, i, err
			}
			if hi.r < lo.r {
				return nil, i, fmt.Errorf("invalid range %c-%c", lo.r, hi.r)
			}
			sets = appendSet(sets, Set{lo.r, hi.r})
			i = after
			continue
		}
		sets = appendSet(sets, Set{lo.r, lo.r})
	}
	if len(sets) == 0 {
		return nil, i, fmt.Errorf("empty set at offset %d", start-1)
	}
	return sets, i + 1, nil
}

func appendSet(sets []Set, s Set) []Set {
	for _, existing := range sets {
		if existing == s {
			return sets
		}
	}
	return append(sets, s)
}
