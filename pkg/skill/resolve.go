package skill

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/jingkaihe/skillspec/pkg/expr"
)

// RuleFault records expression problems hit while evaluating one rule's
// condition. The rule counts as not matching.
type RuleFault struct {
	RuleID string       `json:"rule_id"`
	Faults []expr.Fault `json:"faults,omitempty"`
	Error  string       `json:"error,omitempty"`
}

// Conflict describes an ambiguous match: two or more rules matched at the
// highest matching priority tier.
type Conflict struct {
	RuleIDs    []string           `json:"rule_ids"`
	Winner     string             `json:"winner"`
	Resolution ConflictResolution `json:"resolution"`
	Message    string             `json:"message"`
}

// Resolution is the result of resolving decision rules against an
// environment.
type Resolution struct {
	Strategy    MatchStrategy `json:"strategy"`
	Fired       []Rule        `json:"fired"`
	UsedDefault bool          `json:"used_default"`
	Matched     []string      `json:"matched"`
	Considered  []string      `json:"considered"`
	Conflicts   []Conflict    `json:"conflicts,omitempty"`
	Faults      []RuleFault   `json:"faults,omitempty"`
}

// Outcome returns the outcome of the first fired rule.
func (r *Resolution) Outcome() (Outcome, bool) {
	if len(r.Fired) == 0 {
		return Outcome{}, false
	}
	return r.Fired[0].Then, true
}

// Resolve determines which decision rule(s) fire for the given environment.
//
// Non-default rules are checked in descending priority order, declaration
// order breaking ties. A rule whose condition faults or fails to parse
// counts as not matching. Every rule is evaluated so the resolution carries
// full diagnostics; evaluation is pure, so this cannot change the outcome.
//
// first_match fires the first matching rule in check order. priority looks
// at the highest priority tier among the matches: a single match there
// fires, two or more are ambiguous and conflict_resolution decides (error,
// warn and pick declaration order, or first_wins silently). all_match fires
// every matching rule in check order. The default rule fires only when
// nothing matched and is never part of ambiguity detection.
func Resolve(doc *Document, env expr.Env) (*Resolution, error) {
	cfg := doc.DecisionRules.Config.withDefaults()
	res := &Resolution{Strategy: cfg.MatchStrategy}

	nonDefault := doc.DecisionRules.NonDefault()
	ordered := make([]Rule, len(nonDefault))
	copy(ordered, nonDefault)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	var matched []Rule
	for _, rule := range ordered {
		res.Considered = append(res.Considered, rule.ID)

		parsed, err := expr.Parse(string(rule.When))
		if err != nil {
			res.Faults = append(res.Faults, RuleFault{RuleID: rule.ID, Error: err.Error()})
			continue
		}

		ok, faults := parsed.EvalBool(env)
		if len(faults) > 0 {
			res.Faults = append(res.Faults, RuleFault{RuleID: rule.ID, Faults: faults})
		}
		if ok {
			matched = append(matched, rule)
			res.Matched = append(res.Matched, rule.ID)
		}
	}

	if len(matched) == 0 {
		def, _ := doc.DecisionRules.Default()
		if def == nil {
			return res, errors.New("no rule matched and no default rule is declared")
		}
		res.Fired = []Rule{*def}
		res.UsedDefault = true
		return res, nil
	}

	switch cfg.MatchStrategy {
	case MatchAllMatch:
		res.Fired = matched
		return res, nil

	case MatchPriority:
		// matched is sorted by priority desc, so the top tier is the
		// leading run
		tier := []Rule{matched[0]}
		for _, rule := range matched[1:] {
			if rule.Priority != matched[0].Priority {
				break
			}
			tier = append(tier, rule)
		}
		winner := tier[0]
		res.Fired = []Rule{winner}
		if len(tier) == 1 {
			return res, nil
		}
		return resolveAmbiguity(res, tier, winner, cfg.ConflictResolution)

	default: // first_match
		res.Fired = []Rule{matched[0]}
		return res, nil
	}
}

func resolveAmbiguity(res *Resolution, tier []Rule, winner Rule, resolution ConflictResolution) (*Resolution, error) {
	if resolution == ConflictFirstWins {
		return res, nil
	}

	ids := make([]string, len(tier))
	for i, rule := range tier {
		ids[i] = rule.ID
	}
	conflict := Conflict{
		RuleIDs:    ids,
		Winner:     winner.ID,
		Resolution: resolution,
		Message: fmt.Sprintf("rules %s matched at priority %d",
			strings.Join(ids, ", "), winner.Priority),
	}
	res.Conflicts = append(res.Conflicts, conflict)

	if resolution == ConflictError {
		return res, errors.Errorf("ambiguous rule match: %s", conflict.Message)
	}
	return res, nil
}
