package finality

import (
	"context"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	PUT(path string, body any) error
	GET(path string) error
}

// RegisterSteps registers will pointer and death confirmation steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &finalitySteps{tc: tc}

	ctx.Step(`^I set the will pointer to "([^"]*)"$`, steps.setWill)
	ctx.Step(`^I read the will pointer$`, steps.readWill)
	ctx.Step(`^I confirm death$`, steps.confirmDeath)
	ctx.Step(`^I check whether death is confirmed$`, steps.checkConfirmed)
	ctx.Step(`^I take a snapshot$`, steps.snapshot)
}

type finalitySteps struct {
	tc TestContext
}

func (s *finalitySteps) setWill(ctx context.Context, pointer string) error {
	return s.tc.PUT("/will", map[string]string{"pointer": pointer})
}

func (s *finalitySteps) readWill(ctx context.Context) error {
	return s.tc.GET("/will")
}

func (s *finalitySteps) confirmDeath(ctx context.Context) error {
	return s.tc.POST("/death-confirmation", nil)
}

func (s *finalitySteps) checkConfirmed(ctx context.Context) error {
	return s.tc.GET("/death-confirmation")
}

func (s *finalitySteps) snapshot(ctx context.Context) error {
	return s.tc.GET("/snapshot")
}
