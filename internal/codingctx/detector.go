package codingctx

import (
	"fmt"
	"regexp"
	"strings"
)

var codingKeywordRe = regexp.MustCompile(`(?i)\b(code|program|developer|function|class|variable|algorithm|method|api|framework|library|syntax|compiler|interpreter|runtime|debug|exception|javascript|python|java|typescript|rust|golang|html|css|sql|react|node|django|database|git)\b`)

// keyword families per dimension, used to pick which coding dimensions
// show up in a generated key.
var dimensionKeywords = map[string]*regexp.Regexp{
	"💻🔧":  regexp.MustCompile(`(?i)\b(implement|syntax|snippet|refactor|function|method)\b`),
	"🏗️🔍": regexp.MustCompile(`(?i)\b(architecture|design|build|feature|optimi[sz]e|improve)\b`),
	"🧩🧠":  regexp.MustCompile(`(?i)\b(algorithm|complexity|puzzle|problem|solve)\b`),
	"🐛📚":  regexp.MustCompile(`(?i)\b(debug|bug|stack ?trace|exception|error)\b`),
	"🚀🛡️": regexp.MustCompile(`(?i)\b(deploy|ship|security|vulnerab|auth)\b`),
}

// minimumSampleLength guards against scoring a conversation that has
// barely started.
const minimumSampleLength = 100

// Detect reports whether conversation text reads as a programming
// context.
func Detect(sample string) bool {
	if len(sample) < minimumSampleLength {
		return false
	}
	return codingKeywordRe.MatchString(sample)
}

// GenerateKey builds a coding ME-component overlay from a conversation
// sample. Dimensions are chosen by keyword family; magnitude scales with
// hit count and the angle stays at the balanced center. Returns "" when
// nothing matched.
func GenerateKey(sample string) string {
	if !Detect(sample) {
		return ""
	}

	dims := make([]string, 0, len(dimensionKeywords))
	for _, dim := range []string{"💻🔧", "🏗️🔍", "🧩🧠", "🐛📚", "🚀🛡️"} {
		hits := len(dimensionKeywords[dim].FindAllStringIndex(sample, 6))
		if hits == 0 {
			continue
		}
		magnitude := 4 + hits
		if magnitude > 9 {
			magnitude = 9
		}
		dims = append(dims, fmt.Sprintf("%s%d∠90", dim, magnitude))
	}
	if len(dims) == 0 {
		return ""
	}
	return "[ME|" + strings.Join(dims, "|") + "]"
}
