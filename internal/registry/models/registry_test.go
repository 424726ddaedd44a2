package models

import (
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/suite"

	id "inheritx/pkg/domain"
)

var (
	owner    = id.MustParseAddress("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
	stranger = id.MustParseAddress("0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359")
	alice    = id.MustParseAddress("0xdbf03b407c01e7cd3cbea99509d93f8dddc8c6fb")
	bob      = id.MustParseAddress("0xd1220a0cf47c7b9be7a2e6ba89f429762e7b9adb")
)

type RegistrySuite struct {
	suite.Suite
	reg *Registry
	now time.Time
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.now = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	reg, err := NewRegistry(id.NewRegistryID(), owner, s.now)
	s.Require().NoError(err)
	s.reg = reg
}

func (s *RegistrySuite) add(b *Beneficiary) {
	s.Require().NoError(s.reg.CanAddBeneficiary(owner, b))
	s.reg.ApplyAddBeneficiary(b, s.now)
}

func (s *RegistrySuite) TestNewRegistry() {
	s.Run("rejects zero owner", func() {
		_, err := NewRegistry(id.NewRegistryID(), id.ZeroAddress, s.now)
		s.Require().Error(err)
	})

	s.Run("rejects nil id", func() {
		_, err := NewRegistry(id.RegistryID{}, owner, s.now)
		s.Require().Error(err)
	})

	s.Run("starts active with empty ledger and will", func() {
		s.Equal(StatusActive, s.reg.Status())
		s.False(s.reg.IsFrozen())
		s.Empty(s.reg.Beneficiaries)
		s.Empty(s.reg.WillPointer)
	})
}

func (s *RegistrySuite) TestAccessGuard() {
	s.Require().NoError(AuthorizeOwner(owner, owner))
	s.Require().ErrorIs(AuthorizeOwner(owner, stranger), ErrUnauthorized)
	s.Require().ErrorIs(AuthorizeOwner(owner, id.ZeroAddress), ErrUnauthorized)

	b := NewTokenBeneficiary(alice, *uint256.NewInt(10), s.now)
	s.Require().ErrorIs(s.reg.CanAddBeneficiary(stranger, b), ErrUnauthorized)
	s.Require().ErrorIs(s.reg.CanSetWillPointer(stranger, "ipfs://x"), ErrUnauthorized)
	s.Require().ErrorIs(s.reg.CanConfirmDeath(stranger), ErrUnauthorized)
	s.Require().ErrorIs(s.reg.CanRemoveBeneficiary(stranger, alice), ErrUnauthorized)
	s.Require().ErrorIs(s.reg.CanVerifyBeneficiary(stranger, alice), ErrUnauthorized)
}

func (s *RegistrySuite) TestAddBeneficiary() {
	s.Run("token share of zero is accepted", func() {
		s.add(NewTokenBeneficiary(alice, Unset, s.now))
		got, err := s.reg.Beneficiary(alice)
		s.Require().NoError(err)
		s.Equal(VariantToken, got.Variant())
		s.False(got.Verified)
	})

	s.Run("duplicate recipient is rejected regardless of variant", func() {
		err := s.reg.CanAddBeneficiary(owner, NewNFTBeneficiary(alice, *uint256.NewInt(7), s.now))
		s.Require().ErrorIs(err, ErrDuplicateBeneficiary)
	})

	s.Run("zero recipient is rejected", func() {
		err := s.reg.CanAddBeneficiary(owner, NewNFTBeneficiary(id.ZeroAddress, *uint256.NewInt(7), s.now))
		s.Require().ErrorIs(err, ErrInvalidRecipient)
	})

	s.Run("zero multi-token amount is rejected", func() {
		err := s.reg.CanAddBeneficiary(owner, NewMultiTokenBeneficiary(bob, *uint256.NewInt(42), Unset, s.now))
		s.Require().ErrorIs(err, ErrInvalidAmount)
	})

	s.Run("re-add after remove is allowed with a new variant", func() {
		s.Require().NoError(s.reg.CanRemoveBeneficiary(owner, alice))
		s.reg.ApplyRemoveBeneficiary(alice, s.now)
		s.add(NewNFTBeneficiary(alice, *uint256.NewInt(7), s.now))

		got, err := s.reg.Beneficiary(alice)
		s.Require().NoError(err)
		s.Equal(VariantNFT, got.Variant())
	})
}

func (s *RegistrySuite) TestVariantAccessors() {
	s.add(NewNFTBeneficiary(alice, *uint256.NewInt(7), s.now))
	s.add(NewMultiTokenBeneficiary(bob, *uint256.NewInt(42), *uint256.NewInt(3), s.now))

	nft, err := s.reg.Beneficiary(alice)
	s.Require().NoError(err)
	s.Equal(VariantNFT, nft.Variant())
	s.Equal(*uint256.NewInt(7), nft.TokenID())
	s.Equal(Unset, nft.Share())
	s.Equal(Unset, nft.Amount())

	multi, err := s.reg.Beneficiary(bob)
	s.Require().NoError(err)
	s.Equal(VariantMultiToken, multi.Variant())
	s.Equal(*uint256.NewInt(42), multi.TokenID())
	s.Equal(*uint256.NewInt(3), multi.Amount())
	s.Equal(Unset, multi.Share())

	_, err = s.reg.Beneficiary(stranger)
	s.Require().ErrorIs(err, ErrBeneficiaryNotFound)
}

func (s *RegistrySuite) TestVerification() {
	s.add(NewTokenBeneficiary(alice, *uint256.NewInt(50), s.now))

	s.Run("missing recipient", func() {
		s.Require().ErrorIs(s.reg.CanVerifyBeneficiary(owner, bob), ErrBeneficiaryNotFound)
	})

	s.Run("idempotent and keeps first verification time", func() {
		first := s.now.Add(time.Hour)
		s.Require().NoError(s.reg.CanVerifyBeneficiary(owner, alice))
		s.reg.ApplyVerifyBeneficiary(alice, first)

		s.Require().NoError(s.reg.CanVerifyBeneficiary(owner, alice))
		s.reg.ApplyVerifyBeneficiary(alice, first.Add(time.Hour))

		got, err := s.reg.Beneficiary(alice)
		s.Require().NoError(err)
		s.True(got.Verified)
		s.Require().NotNil(got.VerifiedAt)
		s.Equal(first, *got.VerifiedAt)
	})
}

func (s *RegistrySuite) TestWillPointer() {
	s.Require().ErrorIs(s.reg.CanSetWillPointer(owner, ""), ErrEmptyPointer)
	s.Require().ErrorIs(s.reg.CanSetWillPointer(owner, "   "), ErrEmptyPointer)

	s.Require().NoError(s.reg.CanSetWillPointer(owner, "ipfs://Qm123"))
	s.reg.ApplySetWillPointer("ipfs://Qm123", s.now)
	s.reg.ApplySetWillPointer("ipfs://Qm456", s.now)
	s.Equal("ipfs://Qm456", s.reg.WillPointer)
}

func (s *RegistrySuite) TestFinalityGate() {
	s.add(NewTokenBeneficiary(alice, *uint256.NewInt(50), s.now))

	s.Require().NoError(s.reg.CanConfirmDeath(owner))
	s.reg.ApplyConfirmDeath(s.now)
	s.Equal(StatusConfirmed, s.reg.Status())
	s.Require().NotNil(s.reg.ConfirmedAt)

	s.Run("second confirmation is rejected", func() {
		s.Require().ErrorIs(s.reg.CanConfirmDeath(owner), ErrAlreadyConfirmed)
		s.True(s.reg.DeathConfirmed)
	})

	s.Run("every mutation is frozen", func() {
		s.Require().ErrorIs(s.reg.CanAddBeneficiary(owner, NewTokenBeneficiary(bob, Unset, s.now)), ErrRegistryFrozen)
		s.Require().ErrorIs(s.reg.CanAddBeneficiary(owner, NewNFTBeneficiary(bob, Unset, s.now)), ErrRegistryFrozen)
		s.Require().ErrorIs(s.reg.CanAddBeneficiary(owner, NewMultiTokenBeneficiary(bob, Unset, *uint256.NewInt(1), s.now)), ErrRegistryFrozen)
		s.Require().ErrorIs(s.reg.CanRemoveBeneficiary(owner, alice), ErrRegistryFrozen)
		s.Require().ErrorIs(s.reg.CanVerifyBeneficiary(owner, alice), ErrRegistryFrozen)
		s.Require().ErrorIs(s.reg.CanSetWillPointer(owner, "ipfs://late"), ErrRegistryFrozen)
	})

	s.Run("frozen check precedes input validation", func() {
		s.Require().ErrorIs(s.reg.CanAddBeneficiary(owner, NewTokenBeneficiary(id.ZeroAddress, Unset, s.now)), ErrRegistryFrozen)
		s.Require().ErrorIs(s.reg.CanSetWillPointer(owner, ""), ErrRegistryFrozen)
	})

	s.Run("non-owner still sees unauthorized after freeze", func() {
		s.Require().ErrorIs(s.reg.CanSetWillPointer(stranger, "ipfs://late"), ErrUnauthorized)
	})
}

func (s *RegistrySuite) TestCloneIsolation() {
	s.add(NewTokenBeneficiary(alice, *uint256.NewInt(50), s.now))
	c := s.reg.Clone()
	c.ApplyVerifyBeneficiary(alice, s.now)
	c.ApplyConfirmDeath(s.now)

	s.False(s.reg.Beneficiaries[alice].Verified)
	s.False(s.reg.DeathConfirmed)
}

func (s *RegistrySuite) TestListBeneficiariesIsOrdered() {
	s.add(NewTokenBeneficiary(alice, *uint256.NewInt(1), s.now))
	s.add(NewTokenBeneficiary(bob, *uint256.NewInt(2), s.now))
	s.add(NewTokenBeneficiary(stranger, *uint256.NewInt(3), s.now))

	list := s.reg.ListBeneficiaries()
	s.Require().Len(list, 3)
	s.Equal(bob, list[0].Recipient)
	s.Equal(alice, list[1].Recipient)
	s.Equal(stranger, list[2].Recipient)
}

func TestErrorKind(t *testing.T) {
	suite.Run(t, new(errorKindSuite))
}

type errorKindSuite struct{ suite.Suite }

func (s *errorKindSuite) TestKinds() {
	s.Equal("registry_frozen", ErrorKind(ErrRegistryFrozen))
	s.Equal("unauthorized", ErrorKind(ErrUnauthorized))
	s.Equal("already_confirmed", ErrorKind(ErrAlreadyConfirmed))
	s.Equal("", ErrorKind(errMissingAllocation))
}
