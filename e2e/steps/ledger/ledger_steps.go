package ledger

import (
	"context"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	Identity(name string) (string, error)
	POST(path string, body any) error
	GET(path string) error
	DELETE(path string) error
}

// RegisterSteps registers beneficiary ledger step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &ledgerSteps{tc: tc}

	ctx.Step(`^I add "([^"]*)" as a token beneficiary with share "([^"]*)"$`, steps.addToken)
	ctx.Step(`^I add "([^"]*)" as an NFT beneficiary with asset "([^"]*)"$`, steps.addNFT)
	ctx.Step(`^I add "([^"]*)" as a multi-token beneficiary with asset "([^"]*)" and amount "([^"]*)"$`, steps.addMultiToken)
	ctx.Step(`^I remove beneficiary "([^"]*)"$`, steps.remove)
	ctx.Step(`^I verify beneficiary "([^"]*)"$`, steps.verify)
	ctx.Step(`^I read the (type|share|token-id|amount|status) of "([^"]*)"$`, steps.read)
	ctx.Step(`^I look up beneficiary "([^"]*)"$`, steps.lookup)
}

type ledgerSteps struct {
	tc TestContext
}

func (s *ledgerSteps) addToken(ctx context.Context, name, share string) error {
	addr, err := s.tc.Identity(name)
	if err != nil {
		return err
	}
	return s.tc.POST("/beneficiaries/token", map[string]string{"recipient": addr, "share": share})
}

func (s *ledgerSteps) addNFT(ctx context.Context, name, assetID string) error {
	addr, err := s.tc.Identity(name)
	if err != nil {
		return err
	}
	return s.tc.POST("/beneficiaries/nft", map[string]string{"recipient": addr, "asset_id": assetID})
}

func (s *ledgerSteps) addMultiToken(ctx context.Context, name, assetID, amount string) error {
	addr, err := s.tc.Identity(name)
	if err != nil {
		return err
	}
	return s.tc.POST("/beneficiaries/multi-token", map[string]string{
		"recipient": addr,
		"asset_id":  assetID,
		"amount":    amount,
	})
}

func (s *ledgerSteps) remove(ctx context.Context, name string) error {
	addr, err := s.tc.Identity(name)
	if err != nil {
		return err
	}
	return s.tc.DELETE("/beneficiaries/" + addr)
}

func (s *ledgerSteps) verify(ctx context.Context, name string) error {
	addr, err := s.tc.Identity(name)
	if err != nil {
		return err
	}
	return s.tc.POST("/beneficiaries/"+addr+"/verify", nil)
}

func (s *ledgerSteps) read(ctx context.Context, accessor, name string) error {
	addr, err := s.tc.Identity(name)
	if err != nil {
		return err
	}
	return s.tc.GET("/beneficiaries/" + addr + "/" + accessor)
}

func (s *ledgerSteps) lookup(ctx context.Context, name string) error {
	addr, err := s.tc.Identity(name)
	if err != nil {
		return err
	}
	return s.tc.GET("/beneficiaries/" + addr)
}
