package e2e

import (
	"github.com/cucumber/godog"

	"inheritx/e2e/steps/common"
	"inheritx/e2e/steps/finality"
	"inheritx/e2e/steps/ledger"
)

// RegisterSteps binds identity and request steps, then the ledger and
// finality vocabularies, to one scenario.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	ledger.RegisterSteps(ctx, tc)
	finality.RegisterSteps(ctx, tc)
}
