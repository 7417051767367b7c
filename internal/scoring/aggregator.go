package scoring

import (
	"fmt"

	"github.com/gcbaptista/go-position-search/model"
)

// MissPolicy decides what an unresolved term contributes.
type MissPolicy struct {
	substitute bool
	position   int
}

// MissScoresZero makes an unresolved term contribute 0 with a "no match" explanation.
func MissScoresZero() MissPolicy {
	return MissPolicy{}
}

// MissUsesDefaultPosition scores an unresolved term as if it occurred at position, flagging the
// explanation with the lookup outcome. A negative position falls back to DefaultMissPosition.
func MissUsesDefaultPosition(position int) MissPolicy {
	if position < 0 {
		position = DefaultMissPosition
	}
	return MissPolicy{substitute: true, position: position}
}

// Aggregator sums the decay scores of a document's terms. Terms never interact: the document
// score is the plain sum of independent per-term contributions.
type Aggregator struct {
	resolver *Resolver
	miss     MissPolicy
}

// NewAggregator creates an aggregator resolving positions through resolver.
func NewAggregator(resolver *Resolver, miss MissPolicy) *Aggregator {
	return &Aggregator{resolver: resolver, miss: miss}
}

// Aggregate scores docID against terms, scaling every contribution by boost. The explanation
// has one detail per term, in (field, text) order, and its value equals the returned score.
func (a *Aggregator) Aggregate(docID uint32, terms TermSet, boost float64) (float64, model.Explanation) {
	sorted := terms.Sorted()
	details := make([]model.Explanation, 0, len(sorted))
	total := 0.0

	for _, term := range sorted {
		leaf := a.contribution(docID, term, boost)
		total += leaf.Value
		details = append(details, leaf)
	}

	return total, model.Match(total, fmt.Sprintf("score(doc=%d), sum of:", docID), details...)
}

// Score is Aggregate without the explanation.
func (a *Aggregator) Score(docID uint32, terms TermSet, boost float64) float64 {
	total := 0.0
	for term := range terms {
		total += a.contribution(docID, term, boost).Value
	}
	return total
}

func (a *Aggregator) contribution(docID uint32, term TermRef, boost float64) model.Explanation {
	res := a.resolver.Resolve(docID, term)

	if position, found := res.Position.Value(); found {
		return model.Match(boost*Decay(position), termDescription(term, boost, position))
	}

	if !a.miss.substitute {
		leaf := model.NoMatch(fmt.Sprintf("no matching terms for field=%s, term=%s", term.Field, term.Text))
		leaf.Error = res.Kind.String()
		return leaf
	}

	leaf := model.Match(boost*Decay(a.miss.position), termDescription(term, boost, a.miss.position))
	leaf.Error = fmt.Sprintf("%s, default position %d used", res.Kind, a.miss.position)
	return leaf
}

func termDescription(term TermRef, boost float64, position int) string {
	if boost == 1 {
		return fmt.Sprintf("score(field=%s, term=%s, pos=%d, func=%s)",
			term.Field, term.Text, position, decayFormula(boost, position))
	}
	return fmt.Sprintf("score(field=%s, term=%s, boost=%g, pos=%d, func=%s)",
		term.Field, term.Text, boost, position, decayFormula(boost, position))
}
