package paraminject

import "os"

// Conditional decides whether the options grouped by When are applied.
type Conditional interface {
	evaluate() bool
}

// ConditionFunc adapts a function to a Conditional. It is evaluated once, by NewInjector.
type ConditionFunc func() bool

func (f ConditionFunc) evaluate() bool { return f() }

type environmentVariableConditional struct {
	name           string
	havingValue    string
	matchIfMissing bool
}

func (c *environmentVariableConditional) evaluate() bool {
	val, ok := os.LookupEnv(c.name)
	if !ok {
		return c.matchIfMissing
	}
	return val == c.havingValue
}

// OnEnvironmentVariable holds when the variable name is set to havingValue,
// or when it is unset and matchIfMissing is true.
func OnEnvironmentVariable(name, havingValue string, matchIfMissing bool) Conditional {
	return &environmentVariableConditional{
		name:           name,
		havingValue:    havingValue,
		matchIfMissing: matchIfMissing,
	}
}

type notConditional struct {
	condition Conditional
}

func (c *notConditional) evaluate() bool { return !c.condition.evaluate() }

// Not negates a Conditional.
func Not(condition Conditional) Conditional {
	return &notConditional{condition: condition}
}
