package alerting

import (
	"fmt"
	"math"
	"strings"

	"github.com/aquamon/aquamon-go/internal/datastore/entities"
	"github.com/aquamon/aquamon-go/internal/errors"
)

// ConditionResult reports the outcome of evaluating one condition against a
// sample, used by the rule test endpoint.
type ConditionResult struct {
	Condition entities.AlertCondition `json:"condition"`
	Value     float64                 `json:"value"`
	Passed    bool                    `json:"passed"`
}

// EvaluateConditions evaluates every condition against the sample and returns
// whether all of them hold (AND logic). Every condition is evaluated even
// after a failure so the per-condition results are complete for the dry-run
// path. A malformed condition yields an error and no verdict.
func EvaluateConditions(conditions []entities.AlertCondition, sample TelemetrySample) (bool, []ConditionResult, error) {
	results := make([]ConditionResult, 0, len(conditions))
	allPassed := true
	for i := range conditions {
		cond := &conditions[i]
		value, ok := MetricValue(sample, cond.Metric)
		if !ok {
			return false, nil, errors.Validationf("condition %d references unknown metric %q", i+1, cond.Metric)
		}
		passed, err := compare(value, cond.Operator, cond.Threshold)
		if err != nil {
			return false, nil, errors.Validationf("condition %d: %v", i+1, err)
		}
		if !passed {
			allPassed = false
		}
		results = append(results, ConditionResult{Condition: *cond, Value: value, Passed: passed})
	}
	return allPassed, results, nil
}

func compare(value float64, operator string, threshold float64) (bool, error) {
	switch operator {
	case OperatorGT:
		return value > threshold, nil
	case OperatorLT:
		return value < threshold, nil
	case OperatorGTE:
		return value >= threshold, nil
	case OperatorLTE:
		return value <= threshold, nil
	case OperatorEQ:
		return value == threshold, nil
	case OperatorNEQ:
		return value != threshold, nil
	default:
		return false, fmt.Errorf("unknown operator %q", operator)
	}
}

// ValidateConditions rejects a rule definition whose condition list is empty
// or contains an unknown metric, an unknown operator, or a non-finite
// threshold. It performs no side effects.
func ValidateConditions(conditions []entities.AlertCondition) error {
	if len(conditions) == 0 {
		return errors.Validationf("at least one condition is required")
	}
	for i := range conditions {
		cond := &conditions[i]
		if _, ok := validMetrics[cond.Metric]; !ok {
			return errors.Validationf("condition %d: invalid metric %q", i+1, cond.Metric)
		}
		if _, ok := validOperators[cond.Operator]; !ok {
			return errors.Validationf("condition %d: invalid operator %q", i+1, cond.Operator)
		}
		if math.IsNaN(cond.Threshold) || math.IsInf(cond.Threshold, 0) {
			return errors.Validationf("condition %d: threshold must be a finite number", i+1)
		}
	}
	return nil
}

// conditionText renders a condition list as a readable expression, e.g.
// "temperature gt 40 AND flowRate gt 12".
func conditionText(conditions []entities.AlertCondition) string {
	parts := make([]string, 0, len(conditions))
	for i := range conditions {
		cond := &conditions[i]
		parts = append(parts, fmt.Sprintf("%s %s %g", cond.Metric, cond.Operator, cond.Threshold))
	}
	return strings.Join(parts, " AND ")
}
