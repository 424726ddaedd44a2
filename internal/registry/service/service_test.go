package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"inheritx/internal/audit"
	registrymetrics "inheritx/internal/registry/metrics"
	"inheritx/internal/registry/models"
	"inheritx/internal/registry/service/mocks"
	"inheritx/internal/registry/store"
	id "inheritx/pkg/domain"
	dErrors "inheritx/pkg/domain-errors"
	"inheritx/pkg/platform/sentinel"
	"inheritx/pkg/requestcontext"
)

var (
	owner    = id.MustParseAddress("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
	stranger = id.MustParseAddress("0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359")
	alice    = id.MustParseAddress("0xdbf03b407c01e7cd3cbea99509d93f8dddc8c6fb")
	// 0xAAA... stands in for the recipient of the multi-token walkthrough.
	recipientAAA = id.MustParseAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
)

type ServiceSuite struct {
	suite.Suite
	ctx        context.Context
	store      *store.InMemoryStore
	auditStore *audit.InMemoryStore
	metrics    *registrymetrics.Metrics
	service    *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	s.store = store.NewInMemory()
	s.auditStore = audit.NewInMemoryStore()
	s.metrics = registrymetrics.New(prometheus.NewRegistry())
	s.service = New(id.RegistryIDForOwner(owner), s.store,
		WithAuditPublisher(audit.NewPublisher(s.auditStore)),
		WithAuditLog(s.auditStore),
		WithMetrics(s.metrics),
	)
	_, err := s.service.Open(s.ctx, owner)
	s.Require().NoError(err)
}

func (s *ServiceSuite) snapshot() *models.Snapshot {
	snap, err := s.service.Snapshot(s.ctx)
	s.Require().NoError(err)
	return snap
}

func (s *ServiceSuite) TestOpen() {
	s.Run("reopening with the same owner returns the existing registry", func() {
		_, err := s.service.AddTokenBeneficiary(s.ctx, owner, alice, *uint256.NewInt(5))
		s.Require().NoError(err)

		reg, err := s.service.Open(s.ctx, owner)
		s.Require().NoError(err)
		s.True(reg.HasBeneficiary(alice))
	})

	s.Run("a different owner is rejected", func() {
		_, err := s.service.Open(s.ctx, stranger)
		s.Require().ErrorIs(err, ErrOwnerMismatch)
	})

	s.Run("zero owner is a validation error", func() {
		svc := New(id.NewRegistryID(), store.NewInMemory())
		_, err := svc.Open(s.ctx, id.ZeroAddress)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("operations before open report a missing registry", func() {
		svc := New(id.NewRegistryID(), store.NewInMemory())
		_, err := svc.IsDeathConfirmed(s.ctx)
		s.Require().ErrorIs(err, ErrRegistryNotFound)
	})
}

// TestMultiTokenWalkthrough follows the reference scenario end to end.
func (s *ServiceSuite) TestMultiTokenWalkthrough() {
	_, err := s.service.AddMultiTokenBeneficiary(s.ctx, owner, recipientAAA, *uint256.NewInt(42), *uint256.NewInt(3))
	s.Require().NoError(err)

	variant, err := s.service.GetBeneficiaryType(s.ctx, recipientAAA)
	s.Require().NoError(err)
	s.Equal(models.VariantMultiToken, variant)

	tokenID, err := s.service.GetBeneficiaryTokenID(s.ctx, recipientAAA)
	s.Require().NoError(err)
	s.Equal(*uint256.NewInt(42), tokenID)

	amount, err := s.service.GetBeneficiaryAmount(s.ctx, recipientAAA)
	s.Require().NoError(err)
	s.Equal(*uint256.NewInt(3), amount)

	s.Require().NoError(s.service.SetEncryptedWill(s.ctx, owner, "ipfs://Qm123"))
	pointer, err := s.service.GetEncryptedWill(s.ctx)
	s.Require().NoError(err)
	s.Equal("ipfs://Qm123", pointer)

	final, err := s.service.ConfirmDeath(s.ctx, owner)
	s.Require().NoError(err)
	s.True(final.Final())

	confirmed, err := s.service.IsDeathConfirmed(s.ctx)
	s.Require().NoError(err)
	s.True(confirmed)

	err = s.service.SetEncryptedWill(s.ctx, owner, "ipfs://Qm999")
	s.Require().ErrorIs(err, models.ErrRegistryFrozen)

	pointer, err = s.service.GetEncryptedWill(s.ctx)
	s.Require().NoError(err)
	s.Equal("ipfs://Qm123", pointer)
	s.Equal(final.Digest, s.snapshot().Digest)
}

func (s *ServiceSuite) TestUniqueness() {
	_, err := s.service.AddTokenBeneficiary(s.ctx, owner, alice, *uint256.NewInt(50))
	s.Require().NoError(err)

	_, err = s.service.AddNFTBeneficiary(s.ctx, owner, alice, *uint256.NewInt(7))
	s.Require().ErrorIs(err, models.ErrDuplicateBeneficiary)

	s.Require().NoError(s.service.RemoveBeneficiary(s.ctx, owner, alice))
	_, err = s.service.AddNFTBeneficiary(s.ctx, owner, alice, *uint256.NewInt(7))
	s.Require().NoError(err)

	variant, err := s.service.GetBeneficiaryType(s.ctx, alice)
	s.Require().NoError(err)
	s.Equal(models.VariantNFT, variant)

	share, err := s.service.GetBeneficiaryShare(s.ctx, alice)
	s.Require().NoError(err)
	s.Equal(models.Unset, share)
}

func (s *ServiceSuite) TestStatusIsExistenceNotVerification() {
	exists, err := s.service.GetBeneficiaryStatus(s.ctx, alice)
	s.Require().NoError(err)
	s.False(exists)

	_, err = s.service.AddTokenBeneficiary(s.ctx, owner, alice, models.Unset)
	s.Require().NoError(err)

	exists, err = s.service.GetBeneficiaryStatus(s.ctx, alice)
	s.Require().NoError(err)
	s.True(exists)

	b, err := s.service.GetBeneficiary(s.ctx, alice)
	s.Require().NoError(err)
	s.False(b.Verified)
}

func (s *ServiceSuite) TestAccessorsOnMissingRecipient() {
	_, err := s.service.GetBeneficiaryType(s.ctx, alice)
	s.Require().ErrorIs(err, models.ErrBeneficiaryNotFound)
	_, err = s.service.GetBeneficiaryShare(s.ctx, alice)
	s.Require().ErrorIs(err, models.ErrBeneficiaryNotFound)
	_, err = s.service.GetBeneficiaryTokenID(s.ctx, alice)
	s.Require().ErrorIs(err, models.ErrBeneficiaryNotFound)
	_, err = s.service.GetBeneficiaryAmount(s.ctx, alice)
	s.Require().ErrorIs(err, models.ErrBeneficiaryNotFound)
	s.Require().ErrorIs(s.service.RemoveBeneficiary(s.ctx, owner, alice), models.ErrBeneficiaryNotFound)
	_, err = s.service.VerifyBeneficiary(s.ctx, owner, alice)
	s.Require().ErrorIs(err, models.ErrBeneficiaryNotFound)
}

func (s *ServiceSuite) TestVerificationIdempotence() {
	_, err := s.service.AddTokenBeneficiary(s.ctx, owner, alice, *uint256.NewInt(50))
	s.Require().NoError(err)

	first, err := s.service.VerifyBeneficiary(s.ctx, owner, alice)
	s.Require().NoError(err)
	s.True(first.Verified)

	second, err := s.service.VerifyBeneficiary(s.ctx, owner, alice)
	s.Require().NoError(err)
	s.True(second.Verified)

	trail, err := s.service.AuditTrail(s.ctx)
	s.Require().NoError(err)
	actions := make([]string, 0, len(trail))
	for _, e := range trail {
		actions = append(actions, e.Action)
	}
	s.Equal([]string{"beneficiary_added", "beneficiary_verified"}, actions)
}

func (s *ServiceSuite) TestFreezeMonotonicity() {
	_, err := s.service.AddTokenBeneficiary(s.ctx, owner, alice, *uint256.NewInt(50))
	s.Require().NoError(err)
	_, err = s.service.ConfirmDeath(s.ctx, owner)
	s.Require().NoError(err)
	frozen := s.snapshot()

	_, err = s.service.AddTokenBeneficiary(s.ctx, owner, stranger, *uint256.NewInt(1))
	s.Require().ErrorIs(err, models.ErrRegistryFrozen)
	_, err = s.service.AddNFTBeneficiary(s.ctx, owner, stranger, *uint256.NewInt(1))
	s.Require().ErrorIs(err, models.ErrRegistryFrozen)
	_, err = s.service.AddMultiTokenBeneficiary(s.ctx, owner, stranger, *uint256.NewInt(1), *uint256.NewInt(1))
	s.Require().ErrorIs(err, models.ErrRegistryFrozen)
	s.Require().ErrorIs(s.service.RemoveBeneficiary(s.ctx, owner, alice), models.ErrRegistryFrozen)
	_, err = s.service.VerifyBeneficiary(s.ctx, owner, alice)
	s.Require().ErrorIs(err, models.ErrRegistryFrozen)
	s.Require().ErrorIs(s.service.SetEncryptedWill(s.ctx, owner, "ipfs://late"), models.ErrRegistryFrozen)

	_, err = s.service.ConfirmDeath(s.ctx, owner)
	s.Require().ErrorIs(err, models.ErrAlreadyConfirmed)

	confirmed, err := s.service.IsDeathConfirmed(s.ctx)
	s.Require().NoError(err)
	s.True(confirmed)
	s.Equal(frozen, s.snapshot())
}

func (s *ServiceSuite) TestAuthorizationLeavesStateUnchanged() {
	_, err := s.service.AddTokenBeneficiary(s.ctx, owner, alice, *uint256.NewInt(50))
	s.Require().NoError(err)
	s.Require().NoError(s.service.SetEncryptedWill(s.ctx, owner, "ipfs://Qm123"))
	before := s.snapshot()

	_, err = s.service.AddTokenBeneficiary(s.ctx, stranger, stranger, *uint256.NewInt(1))
	s.Require().ErrorIs(err, models.ErrUnauthorized)
	_, err = s.service.AddNFTBeneficiary(s.ctx, stranger, stranger, *uint256.NewInt(1))
	s.Require().ErrorIs(err, models.ErrUnauthorized)
	_, err = s.service.AddMultiTokenBeneficiary(s.ctx, stranger, stranger, *uint256.NewInt(1), *uint256.NewInt(1))
	s.Require().ErrorIs(err, models.ErrUnauthorized)
	s.Require().ErrorIs(s.service.RemoveBeneficiary(s.ctx, stranger, alice), models.ErrUnauthorized)
	_, err = s.service.VerifyBeneficiary(s.ctx, stranger, alice)
	s.Require().ErrorIs(err, models.ErrUnauthorized)
	s.Require().ErrorIs(s.service.SetEncryptedWill(s.ctx, stranger, "ipfs://evil"), models.ErrUnauthorized)
	_, err = s.service.ConfirmDeath(s.ctx, stranger)
	s.Require().ErrorIs(err, models.ErrUnauthorized)

	s.Equal(before, s.snapshot())
	for _, op := range []string{"AddTokenBeneficiary", "RemoveBeneficiary", "SetEncryptedWill", "ConfirmDeath"} {
		rejected := s.metrics.Operations.WithLabelValues(op, registrymetrics.OutcomeRejected)
		s.Equal(float64(1), testutil.ToFloat64(rejected), op)
	}
}

func (s *ServiceSuite) TestInputValidation() {
	_, err := s.service.AddTokenBeneficiary(s.ctx, owner, id.ZeroAddress, *uint256.NewInt(1))
	s.Require().ErrorIs(err, models.ErrInvalidRecipient)
	_, err = s.service.AddMultiTokenBeneficiary(s.ctx, owner, alice, *uint256.NewInt(1), models.Unset)
	s.Require().ErrorIs(err, models.ErrInvalidAmount)
	s.Require().ErrorIs(s.service.SetEncryptedWill(s.ctx, owner, " \t"), models.ErrEmptyPointer)

	list, err := s.service.ListBeneficiaries(s.ctx)
	s.Require().NoError(err)
	s.Empty(list)
}

// TestConcurrentMutationsAreSerialized races adds for distinct recipients
// against one confirmation; every add either lands before the gate or is
// rejected as frozen.
func (s *ServiceSuite) TestConcurrentMutationsAreSerialized() {
	const writers = 40
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		added   int
		blocked int
	)
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var raw [20]byte
			raw[0], raw[19] = 0x10, byte(i+1)
			recipient := id.BytesToAddress(raw[:])
			_, err := s.service.AddTokenBeneficiary(s.ctx, owner, recipient, *uint256.NewInt(uint64(i)))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				added++
			case errors.Is(err, models.ErrRegistryFrozen):
				blocked++
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := s.service.ConfirmDeath(s.ctx, owner)
		s.NoError(err)
	}()
	wg.Wait()

	s.Equal(writers, added+blocked)
	snap := s.snapshot()
	s.True(snap.Final())
	s.Len(snap.Beneficiaries, added)
}

func TestServiceWithMocks(t *testing.T) {
	suite.Run(t, new(MockedServiceSuite))
}

type MockedServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	store     *mocks.MockStore
	publisher *mocks.MockAuditPublisher
	auditLog  *mocks.MockAuditLog
	service   *Service
	reg       *models.Registry
}

func (s *MockedServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = mocks.NewMockStore(s.ctrl)
	s.publisher = mocks.NewMockAuditPublisher(s.ctrl)
	s.auditLog = mocks.NewMockAuditLog(s.ctrl)
	reg, err := models.NewRegistry(id.NewRegistryID(), owner, time.Now())
	s.Require().NoError(err)
	s.reg = reg
	s.service = New(reg.ID, s.store,
		WithAuditPublisher(s.publisher),
		WithAuditLog(s.auditLog),
		WithMetrics(registrymetrics.New(prometheus.NewRegistry())),
	)
}

// runExecute makes the mock store behave like a real one for one call.
func (s *MockedServiceSuite) runExecute() {
	s.store.EXPECT().Execute(gomock.Any(), s.reg.ID, gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ id.RegistryID, validate func(*models.Registry) error, mutate func(*models.Registry)) (*models.Registry, error) {
			working := s.reg.Clone()
			if err := validate(working); err != nil {
				return nil, err
			}
			mutate(working)
			s.reg = working
			return working.Clone(), nil
		})
}

func (s *MockedServiceSuite) TestAuditEventShape() {
	ctx := requestcontext.WithRequestID(context.Background(), "req-1")
	s.runExecute()
	s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, e audit.Event) error {
			s.Equal(string(audit.EventBeneficiaryAdded), e.Action)
			s.Equal(audit.CategoryCompliance, e.Category)
			s.Equal(owner, e.Actor)
			s.Equal(alice.String(), e.Subject)
			s.Equal("variant=nft asset_id=7", e.Detail)
			s.Equal("req-1", e.RequestID)
			return nil
		})

	_, err := s.service.AddNFTBeneficiary(ctx, owner, alice, *uint256.NewInt(7))
	s.Require().NoError(err)
}

func (s *MockedServiceSuite) TestAuditFailureDoesNotFailCommittedMutation() {
	s.runExecute()
	s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("sink down"))

	s.Require().NoError(s.service.SetEncryptedWill(context.Background(), owner, "ipfs://Qm123"))
	s.Equal("ipfs://Qm123", s.reg.WillPointer)
}

func (s *MockedServiceSuite) TestRejectionEmitsNoAudit() {
	s.runExecute()
	// no Emit expectation: gomock fails the test on an unexpected call
	err := s.service.SetEncryptedWill(context.Background(), stranger, "ipfs://Qm123")
	s.Require().ErrorIs(err, models.ErrUnauthorized)
}

func (s *MockedServiceSuite) TestStoreErrorsAreTranslated() {
	ctx := context.Background()

	s.Run("not found", func() {
		s.store.EXPECT().FindByID(gomock.Any(), s.reg.ID).Return(nil, sentinel.ErrNotFound)
		_, err := s.service.GetEncryptedWill(ctx)
		s.Require().ErrorIs(err, ErrRegistryNotFound)
	})

	s.Run("unavailable", func() {
		s.store.EXPECT().Execute(gomock.Any(), s.reg.ID, gomock.Any(), gomock.Any()).
			Return(nil, sentinel.ErrUnavailable)
		_, err := s.service.ConfirmDeath(ctx, owner)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	s.Run("deadline", func() {
		s.store.EXPECT().FindByID(gomock.Any(), s.reg.ID).Return(nil, context.DeadlineExceeded)
		_, err := s.service.Snapshot(ctx)
		s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
	})

	s.Run("anything else is internal", func() {
		s.store.EXPECT().FindByID(gomock.Any(), s.reg.ID).Return(nil, errors.New("boom"))
		_, err := s.service.ListBeneficiaries(ctx)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("audit log failure", func() {
		s.auditLog.EXPECT().ListByRegistry(gomock.Any(), s.reg.ID).Return(nil, errors.New("boom"))
		_, err := s.service.AuditTrail(ctx)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *MockedServiceSuite) TestOpenRace() {
	s.store.EXPECT().FindByID(gomock.Any(), s.reg.ID).Return(nil, sentinel.ErrNotFound)
	s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(sentinel.ErrConflict)
	s.store.EXPECT().FindByID(gomock.Any(), s.reg.ID).Return(s.reg.Clone(), nil)

	reg, err := s.service.Open(context.Background(), owner)
	s.Require().NoError(err)
	s.Equal(owner, reg.Owner)
}
