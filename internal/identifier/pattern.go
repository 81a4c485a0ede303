// Package identifier renders synthetic identifiers from a small pattern
// mini-language.
//
// A pattern is a template string containing typed placeholders:
//
//	{Ndigits}  - N-wide, zero-padded run driven by a monotonic counter
//	{Nletters} - N independently chosen uppercase letters
//	{Nhex}     - N independently chosen hex digits
//
// Text outside placeholders, and any configured prefix/suffix, is passed
// through unchanged. Malformed templates degrade to literal pass-through
// rather than erroring.
package identifier

import (
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Package-level default RNG for callers that do not inject one.
var defaultRNG = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))

var placeholderRe = regexp.MustCompile(`\{(\d+)(digits|letters|hex)\}`)

const (
	uppercaseLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	hexDigits        = "0123456789ABCDEF"
	decimalDigits    = "0123456789"
)

// Pattern describes an identifier scheme.
type Pattern struct {
	Template   string `yaml:"pattern" json:"pattern"`
	StartValue int64  `yaml:"start_value" json:"start_value"`
	Increment  int64  `yaml:"increment" json:"increment"`
	Prefix     string `yaml:"prefix" json:"prefix"`
	Suffix     string `yaml:"suffix" json:"suffix"`
}

// Generator renders identifiers from a Pattern.
type Generator struct {
	pattern Pattern
	rng     *rand.Rand
}

// New creates a Generator for the given pattern.
// If rng is nil, a shared default RNG is used.
func New(pattern Pattern, rng *rand.Rand) *Generator {
	if rng == nil {
		rng = defaultRNG
	}
	if pattern.Increment == 0 {
		pattern.Increment = 1
	}
	return &Generator{pattern: pattern, rng: rng}
}

// Pattern returns the configured pattern.
func (g *Generator) Pattern() Pattern {
	return g.pattern
}

// Generate renders an identifier for the given counter value.
//
// Digit runs are deterministic for a given counter: zero-pad(start +
// counter*increment, width). Letter and hex runs are drawn from the
// generator's randomness source.
func (g *Generator) Generate(counter int64) string {
	value := g.pattern.StartValue + counter*g.pattern.Increment

	rendered := placeholderRe.ReplaceAllStringFunc(g.pattern.Template, func(m string) string {
		sub := placeholderRe.FindStringSubmatch(m)
		width, err := strconv.Atoi(sub[1])
		if err != nil || width <= 0 {
			return m
		}
		switch sub[2] {
		case "digits":
			return zeroPad(value, width)
		case "letters":
			return randomRun(g.rng, uppercaseLetters, width)
		case "hex":
			return randomRun(g.rng, hexDigits, width)
		}
		return m
	})

	return g.pattern.Prefix + rendered + g.pattern.Suffix
}

// ExpandRandom replaces every {Ndigits} placeholder in pattern with N
// independently chosen decimal digits. Used for pattern-generated values
// that have no counter semantics, such as phone numbers.
func ExpandRandom(pattern string, rng *rand.Rand) string {
	if rng == nil {
		rng = defaultRNG
	}
	return placeholderRe.ReplaceAllStringFunc(pattern, func(m string) string {
		sub := placeholderRe.FindStringSubmatch(m)
		width, err := strconv.Atoi(sub[1])
		if err != nil || width <= 0 || sub[2] != "digits" {
			return m
		}
		return randomRun(rng, decimalDigits, width)
	})
}

// zeroPad formats value left-padded with zeros to at least width characters.
// Values wider than width are kept whole rather than truncated.
func zeroPad(value int64, width int) string {
	s := strconv.FormatInt(value, 10)
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

func randomRun(rng *rand.Rand, alphabet string, width int) string {
	var b strings.Builder
	b.Grow(width)
	for i := 0; i < width; i++ {
		b.WriteByte(alphabet[rng.IntN(len(alphabet))])
	}
	return b.String()
}
