package syntax

// SemanticTokenType classifies parts of a query for highlighting
type SemanticTokenType string

const (
	SemanticKey      SemanticTokenType = "key"
	SemanticOperator SemanticTokenType = "operator"
	SemanticValue    SemanticTokenType = "value"
	SemanticNegation SemanticTokenType = "negation"
	SemanticFreeText SemanticTokenType = "freetext"
	SemanticBoolean  SemanticTokenType = "boolean"
	SemanticParen    SemanticTokenType = "paren"
)

// SemanticToken is one highlighted region of a query
type SemanticToken struct {
	Text    string            `json:"text"`
	Type    SemanticTokenType `json:"semantic_type"`
	Range   Range             `json:"range"`
	Invalid bool              `json:"invalid,omitempty"`
}

// SemanticTokens splits a parse result into highlighted regions in source order
func SemanticTokens(r *ParseResult) []SemanticToken {
	c := &semanticCollector{src: r.Source}
	for _, tok := range r.Tokens {
		tok.Accept(c)
	}
	return c.out
}

type semanticCollector struct {
	src string
	out []SemanticToken
}

func (c *semanticCollector) add(typ SemanticTokenType, rng Range, invalid bool) {
	if rng.Len() <= 0 {
		return
	}
	c.out = append(c.out, SemanticToken{
		Text:    c.src[rng.Start.Offset:rng.End.Offset],
		Type:    typ,
		Range:   rng,
		Invalid: invalid,
	})
}

func (c *semanticCollector) VisitFreeText(t *FreeText) {
	c.add(SemanticFreeText, t.Range, t.Invalid)
}

func (c *semanticCollector) VisitFilter(t *Filter) {
	if t.Negated {
		c.add(SemanticNegation, Range{Start: t.Range.Start, End: t.KeyRange.Start}, false)
	}
	c.add(SemanticKey, t.KeyRange, t.State == StateUnsupported)
	c.add(SemanticOperator, t.OperatorRange(), t.Reason == ReasonOperatorNotAllowed)
	c.add(SemanticValue, t.ValueRange, t.State == StateInvalid)
}

func (c *semanticCollector) VisitBoolean(t *LogicBoolean) {
	c.add(SemanticBoolean, t.Range, false)
}

func (c *semanticCollector) VisitGroup(t *LogicGroup) {
	open := Range{Start: t.Range.Start, End: t.Range.Start.Advance("(")}
	c.add(SemanticParen, open, false)
	for _, child := range t.Children {
		child.Accept(c)
	}
	closeStart := t.Range.End
	closeStart.Offset--
	closeStart.Character--
	c.add(SemanticParen, Range{Start: closeStart, End: t.Range.End}, false)
}
