// Package codingctx scores conversation text for programming focus and
// produces the coding-specific dimensions merged into user-set keys.
// The scoring is illustrative and carries no correctness guarantee; it
// only ever enriches a payload, never blocks one.
package codingctx

import "strings"

// DimensionPair is one coding-specific emoji-pair dimension.
type DimensionPair struct {
	Pair        string
	Name        string
	Description string
}

// CodingDimensions catalogs the emoji pairs used for programming
// interaction styles.
var CodingDimensions = []DimensionPair{
	{Pair: "💻🔧", Name: "ImplementationFocus", Description: "high-level design versus low-level implementation detail"},
	{Pair: "🏗️🔍", Name: "CodeScope", Description: "building new features versus improving existing code"},
	{Pair: "🧩🧠", Name: "ProblemSolving", Description: "pattern matching versus first-principles analysis"},
	{Pair: "🔄📊", Name: "ProcessVsResults", Description: "process emphasis versus shipping results"},
	{Pair: "📚🧪", Name: "LearnVsApply", Description: "explaining concepts versus applying them"},
	{Pair: "🚀🛡️", Name: "SpeedVsSecurity", Description: "development speed versus safety"},
}

// HasCodingDimensions reports whether a payload already carries one of
// the coding emoji pairs, in which case no enrichment is attempted.
func HasCodingDimensions(payload string) bool {
	for _, dim := range CodingDimensions {
		if strings.Contains(payload, dim.Pair) {
			return true
		}
	}
	return false
}
