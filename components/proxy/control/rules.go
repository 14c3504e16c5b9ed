package control

import (
	"github.com/ArunaStorage/aruna-sub004/pkg/models"
	"github.com/ArunaStorage/aruna-sub004/txn"
)

// Target names the data-proxy operation a rule binds to.
type Target string

const (
	TargetAll            Target = "All"
	TargetObject         Target = "Object"
	TargetBundle         Target = "Bundle"
	TargetObjectPackage  Target = "ObjectPackage"
	TargetReplicationIn  Target = "ReplicationIn"
	TargetReplicationOut Target = "ReplicationOut"
)

// RuleSet is a thin per-target wrapper over txn.RuleSet: the data
// proxy has no CEL-like expression evaluator of its own, so it reuses
// the control plane's compiled rule tree rather than hand-rolling a
// second evaluator for the same expression language.
type RuleSet struct {
	compiled *txn.RuleSet
	byTarget map[Target][]models.ID
}

// NewRuleSet builds an empty RuleSet.
func NewRuleSet() *RuleSet {
	return &RuleSet{compiled: txn.NewRuleSet(), byTarget: make(map[Target][]models.ID)}
}

// Bind registers rule under id and binds it to target.
func (r *RuleSet) Bind(target Target, id models.ID, rule txn.CompiledRule) {
	r.compiled.Put(id, rule)
	r.byTarget[target] = append(r.byTarget[target], id)
}

// Evaluate runs every rule bound to target against document, denying
// (false) on the first failing or erroring rule. A target with no
// bound rules allows by default.
func (r *RuleSet) Evaluate(target Target, document []byte) (bool, error) {
	for _, id := range r.byTarget[target] {
		ok, err := r.compiled.Evaluate(id, document)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}
