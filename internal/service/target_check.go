package service

import (
	"github.com/antonmedv/expr"
	"github.com/antonmedv/expr/vm"
	"github.com/pkg/errors"

	"ietool.dev/backend-next/internal/app/appconfig"
)

// TargetCheckEnv is the environment a target check rule is evaluated in.
type TargetCheckEnv struct {
	Section         string
	LastCT          float64
	BaseCT          float64
	TargetCycleTime float64
	TargetUPH       float64
}

// TargetCheck decides whether a section bottleneck keeps up with the work
// plan.
type TargetCheck struct {
	program *vm.Program
}

func NewTargetCheck(conf *appconfig.Config) (*TargetCheck, error) {
	return CompileTargetCheck(conf.TargetCheckRule)
}

func CompileTargetCheck(rule string) (*TargetCheck, error) {
	program, err := expr.Compile(rule, expr.Env(TargetCheckEnv{}), expr.AsBool())
	if err != nil {
		return nil, errors.Wrapf(err, "invalid target check rule %q", rule)
	}
	return &TargetCheck{program: program}, nil
}

func (c *TargetCheck) Evaluate(env TargetCheckEnv) (bool, error) {
	out, err := expr.Run(c.program, env)
	if err != nil {
		return false, err
	}
	return out.(bool), nil
}
