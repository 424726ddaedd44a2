package common

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	SetIdentity(name, address string)
	ActAs(name string) error
	GET(path string) error
	GetLastStatusCode() int
	GetLastResponseBody() []byte
	GetResponseField(field string) (any, error)
}

// RegisterSteps registers identity, request and assertion steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	// Identity steps
	ctx.Step(`^the registry owner is configured$`, steps.ownerFromEnv)
	ctx.Step(`^an identity "([^"]*)" with address "([^"]*)"$`, steps.identity)
	ctx.Step(`^I act as "([^"]*)"$`, steps.actAs)
	ctx.Step(`^I act anonymously$`, steps.actAnonymously)

	// Generic request steps
	ctx.Step(`^I GET "([^"]*)"$`, steps.get)

	// Assertion steps
	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, steps.fieldShouldBe)
	ctx.Step(`^the rejection reason should be "([^"]*)"$`, steps.reasonShouldBe)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) ownerFromEnv(ctx context.Context) error {
	owner := os.Getenv("INHERITX_REGISTRY_OWNER")
	if owner == "" {
		return fmt.Errorf("INHERITX_REGISTRY_OWNER must match the server's owner")
	}
	s.tc.SetIdentity("owner", owner)
	return nil
}

func (s *commonSteps) identity(ctx context.Context, name, address string) error {
	s.tc.SetIdentity(name, address)
	return nil
}

func (s *commonSteps) actAs(ctx context.Context, name string) error {
	return s.tc.ActAs(name)
}

func (s *commonSteps) actAnonymously(ctx context.Context) error {
	return s.tc.ActAs("")
}

func (s *commonSteps) get(ctx context.Context, path string) error {
	return s.tc.GET(path)
}

func (s *commonSteps) statusShouldBe(ctx context.Context, expected int) error {
	if got := s.tc.GetLastStatusCode(); got != expected {
		return fmt.Errorf("expected status %d, got %d: %s", expected, got, s.tc.GetLastResponseBody())
	}
	return nil
}

func (s *commonSteps) fieldShouldBe(ctx context.Context, field, expected string) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	got := fmt.Sprint(v)
	if n, ok := v.(json.Number); ok {
		got = n.String()
	}
	if got != expected {
		return fmt.Errorf("expected %s=%q, got %q", field, expected, got)
	}
	return nil
}

func (s *commonSteps) reasonShouldBe(ctx context.Context, expected string) error {
	return s.fieldShouldBe(ctx, "reason", expected)
}
