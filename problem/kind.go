package problem

import (
	"sort"
	"strings"
)

// Feature is a named capability flag of a problem. The names are a
// cross-tool contract shared with readers, writers, and engines; they must
// not be renamed casually.
type Feature string

const (
	FeatureActionBased Feature = "ACTION_BASED"

	FeatureFlatTyping         Feature = "FLAT_TYPING"
	FeatureHierarchicalTyping Feature = "HIERARCHICAL_TYPING"

	FeatureActionParameters           Feature = "ACTION_PARAMETERS"
	FeatureBoolActionParameters       Feature = "BOOL_ACTION_PARAMETERS"
	FeatureBoundedIntActionParameters Feature = "BOUNDED_INT_ACTION_PARAMETERS"

	FeatureDiscreteNumbers   Feature = "DISCRETE_NUMBERS"
	FeatureContinuousNumbers Feature = "CONTINUOUS_NUMBERS"
	FeatureBoundedTypes      Feature = "BOUNDED_TYPES"

	FeatureNegativeConditions    Feature = "NEGATIVE_CONDITIONS"
	FeatureDisjunctiveConditions Feature = "DISJUNCTIVE_CONDITIONS"
	FeatureEqualities            Feature = "EQUALITIES"
	FeatureExistentialConditions Feature = "EXISTENTIAL_CONDITIONS"
	FeatureUniversalConditions   Feature = "UNIVERSAL_CONDITIONS"

	FeatureConditionalEffects Feature = "CONDITIONAL_EFFECTS"
	FeatureIncreaseEffects    Feature = "INCREASE_EFFECTS"
	FeatureDecreaseEffects    Feature = "DECREASE_EFFECTS"
	FeatureForallEffects      Feature = "FORALL_EFFECTS"

	FeatureNumericFluents Feature = "NUMERIC_FLUENTS"
	FeatureObjectFluents  Feature = "OBJECT_FLUENTS"

	FeatureContinuousTime Feature = "CONTINUOUS_TIME"

	FeatureTrajectoryConstraints Feature = "TRAJECTORY_CONSTRAINTS"
	FeatureStateInvariants       Feature = "STATE_INVARIANTS"

	FeatureActionsCost     Feature = "ACTIONS_COST"
	FeaturePlanLength      Feature = "PLAN_LENGTH"
	FeatureFinalValue      Feature = "FINAL_VALUE"
)

// featureFamily groups flags; families are fixed and purely descriptive.
var featureFamily = map[Feature]string{
	FeatureActionBased:                "PROBLEM_CLASS",
	FeatureFlatTyping:                 "TYPING",
	FeatureHierarchicalTyping:         "TYPING",
	FeatureActionParameters:           "PARAMETERS",
	FeatureBoolActionParameters:       "PARAMETERS",
	FeatureBoundedIntActionParameters: "PARAMETERS",
	FeatureDiscreteNumbers:            "NUMBERS",
	FeatureContinuousNumbers:          "NUMBERS",
	FeatureBoundedTypes:               "NUMBERS",
	FeatureNegativeConditions:         "CONDITIONS_KIND",
	FeatureDisjunctiveConditions:      "CONDITIONS_KIND",
	FeatureEqualities:                 "CONDITIONS_KIND",
	FeatureExistentialConditions:      "CONDITIONS_KIND",
	FeatureUniversalConditions:        "CONDITIONS_KIND",
	FeatureConditionalEffects:         "EFFECTS_KIND",
	FeatureIncreaseEffects:            "EFFECTS_KIND",
	FeatureDecreaseEffects:            "EFFECTS_KIND",
	FeatureForallEffects:              "EFFECTS_KIND",
	FeatureNumericFluents:             "FLUENTS_TYPE",
	FeatureObjectFluents:              "FLUENTS_TYPE",
	FeatureContinuousTime:             "TIME",
	FeatureTrajectoryConstraints:      "CONSTRAINTS_KIND",
	FeatureStateInvariants:            "CONSTRAINTS_KIND",
	FeatureActionsCost:                "QUALITY_METRICS",
	FeaturePlanLength:                 "QUALITY_METRICS",
	FeatureFinalValue:                 "QUALITY_METRICS",
}

// Family returns the family a feature belongs to, or "" if unknown.
func (f Feature) Family() string { return featureFamily[f] }

// Kind is a set of features, ordered by set inclusion. It is the
// pre/post-condition contract of every compilation pass: a pass accepts any
// problem whose kind is a subset of its supported kind.
type Kind map[Feature]bool

// NewKind creates a kind holding the given features.
func NewKind(features ...Feature) Kind {
	k := make(Kind, len(features))
	for _, f := range features {
		k[f] = true
	}
	return k
}

// Has reports whether f is in the kind.
func (k Kind) Has(f Feature) bool { return k[f] }

// Set adds f and returns the kind for chaining.
func (k Kind) Set(f Feature) Kind {
	k[f] = true
	return k
}

// Unset removes f and returns the kind for chaining.
func (k Kind) Unset(f Feature) Kind {
	delete(k, f)
	return k
}

// Clone returns an independent copy.
func (k Kind) Clone() Kind {
	out := make(Kind, len(k))
	for f, on := range k {
		if on {
			out[f] = true
		}
	}
	return out
}

// Union returns the least upper bound of k and other.
func (k Kind) Union(other Kind) Kind {
	out := k.Clone()
	for f, on := range other {
		if on {
			out[f] = true
		}
	}
	return out
}

// IsSubset reports whether every feature of k is also in other.
func (k Kind) IsSubset(other Kind) bool {
	for f, on := range k {
		if on && !other[f] {
			return false
		}
	}
	return true
}

// Features returns the flags in sorted order.
func (k Kind) Features() []Feature {
	out := make([]Feature, 0, len(k))
	for f, on := range k {
		if on {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (k Kind) String() string {
	features := k.Features()
	parts := make([]string, len(features))
	for i, f := range features {
		parts[i] = string(f)
	}
	return strings.Join(parts, ", ")
}
