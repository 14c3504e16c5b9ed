package txn

import (
	"github.com/ArunaStorage/aruna-sub004/pkg/merrors"
	"github.com/ArunaStorage/aruna-sub004/pkg/models"
	"github.com/tidwall/gjson"
)

// CompiledRule is the §4.11 expression tree, evaluated per
// affected-resource document at commit. Trees are built in Go and
// registered with RuleSet.Put; a Rule's source text is not parsed
// (CreateRule only stores it).
type CompiledRule interface {
	Eval(document []byte) (bool, error)
}

// And requires every child to hold.
type And []CompiledRule

func (a And) Eval(doc []byte) (bool, error) {
	for _, c := range a {
		ok, err := c.Eval(doc)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Or requires at least one child to hold.
type Or []CompiledRule

func (o Or) Eval(doc []byte) (bool, error) {
	for _, c := range o {
		ok, err := c.Eval(doc)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Not negates its child.
type Not struct{ Child CompiledRule }

func (n Not) Eval(doc []byte) (bool, error) {
	ok, err := n.Child.Eval(doc)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// Compare evaluates a gjson path against a literal using Op.
type Compare struct {
	Path    string
	Op      models.CompareOp
	Literal string
}

func (c Compare) Eval(doc []byte) (bool, error) {
	value := gjson.GetBytes(doc, c.Path)
	switch c.Op {
	case models.OpEq:
		return value.String() == c.Literal, nil
	case models.OpNeq:
		return value.String() != c.Literal, nil
	case models.OpGt:
		return value.Num > gjson.Parse(c.Literal).Num, nil
	case models.OpGte:
		return value.Num >= gjson.Parse(c.Literal).Num, nil
	case models.OpLt:
		return value.Num < gjson.Parse(c.Literal).Num, nil
	case models.OpLte:
		return value.Num <= gjson.Parse(c.Literal).Num, nil
	case models.OpContains:
		found := false
		value.ForEach(func(_, v gjson.Result) bool {
			if v.String() == c.Literal {
				found = true
				return false
			}
			return true
		})
		return found, nil
	default:
		return false, merrors.New(merrors.KindValidation, "unknown compare op %d", int(c.Op))
	}
}

// RuleSet pairs a Rule's identity with its compiled tree so the
// executor (and control.RuleSet, reusing this type per §4.9) can look
// up and evaluate it by id.
type RuleSet struct {
	rules map[models.ID]CompiledRule
}

// NewRuleSet builds an empty RuleSet.
func NewRuleSet() *RuleSet {
	return &RuleSet{rules: map[models.ID]CompiledRule{}}
}

// Put registers the compiled form of a rule.
func (rs *RuleSet) Put(id models.ID, rule CompiledRule) {
	rs.rules[id] = rule
}

// Evaluate runs the named rule's tree against document, returning
// PolicyViolation-shaped behavior to the caller: a non-true result or
// an evaluation error must abort the transaction (§4.5 "Rule
// evaluation").
func (rs *RuleSet) Evaluate(id models.ID, document []byte) (bool, error) {
	rule, ok := rs.rules[id]
	if !ok {
		return false, merrors.New(merrors.KindNotFound, "rule %s not compiled", id)
	}
	return rule.Eval(document)
}
