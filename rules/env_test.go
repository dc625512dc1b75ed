package rules

import (
	"testing"

	"github.com/expr-lang/expr"
	"github.com/nstehr/vimy/vimy-bc/model"
)

func evalCond(t *testing.T, src string, env UnitEnv) bool {
	t.Helper()
	prog, err := expr.Compile(src, expr.Env(UnitEnv{}), expr.AsBool())
	if err != nil {
		t.Fatalf("compile %q: %v", src, err)
	}
	out, err := expr.Run(prog, env)
	if err != nil {
		t.Fatalf("run %q: %v", src, err)
	}
	return out.(bool)
}

func TestUnitEnv_Conditions(t *testing.T) {
	rocket := UnitEnv{
		Unit:  model.Unit{ID: 1, Type: model.Rocket, Location: model.At(model.Earth, 1, 1), Built: true, Garrison: []int{2, 3}},
		Round: 40,
	}
	passenger := UnitEnv{Unit: model.Unit{ID: 2, Type: model.Knight, Location: model.Inside(1)}}

	tests := []struct {
		src  string
		env  UnitEnv
		want bool
	}{
		{`IsRole("rocket") && GarrisonSize() > 0`, rocket, true},
		{`IsRole("ROCKET")`, rocket, true},
		{`IsRole("factory")`, rocket, false},
		{`IsStructure() && Built()`, rocket, true},
		{`OnMap()`, passenger, false},
		{`!IsRole("rocket") && OnMap()`, passenger, false},
		{`Round >= 40 && Karbonite == 0`, rocket, true},
		{`Unit.ID == 2`, passenger, true},
	}
	for _, tt := range tests {
		if got := evalCond(t, tt.src, tt.env); got != tt.want {
			t.Errorf("%s on %s = %v, want %v", tt.src, tt.env.Unit.TypeName(), got, tt.want)
		}
	}
}
