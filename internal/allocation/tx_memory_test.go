package allocation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"stokri/pkg/domain"
	dErrors "stokri/pkg/domain-errors"
)

type MemoryTxSuite struct {
	suite.Suite
	tx StoreTx
}

func TestMemoryTxSuite(t *testing.T) {
	suite.Run(t, new(MemoryTxSuite))
}

func (s *MemoryTxSuite) SetupTest() {
	s.tx = NewMemoryTx(NewStores(nil, nil, nil, nil))
}

func (s *MemoryTxSuite) TestSerializesSameAsset() {
	assetID := domain.AssetID(uuid.New())

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.tx.RunInTx(context.Background(), assetID, func(Stores) error {
				mu.Lock()
				active++
				if active > maxSeen {
					maxSeen = active
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				active--
				mu.Unlock()
				return nil
			})
			s.NoError(err)
		}()
	}
	wg.Wait()
	s.Equal(1, maxSeen)
}

func (s *MemoryTxSuite) TestCancelledContextAborts() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.tx.RunInTx(ctx, domain.AssetID(uuid.New()), func(Stores) error {
		s.Fail("fn must not run")
		return nil
	})
	s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
}

func (s *MemoryTxSuite) TestLockWaitHonorsDeadline() {
	assetID := domain.AssetID(uuid.New())
	holding := make(chan struct{})
	release := make(chan struct{})

	go func() {
		_ = s.tx.RunInTx(context.Background(), assetID, func(Stores) error {
			close(holding)
			<-release
			return nil
		})
	}()
	<-holding
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := s.tx.RunInTx(ctx, assetID, func(Stores) error { return nil })
	s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
}

func (s *MemoryTxSuite) TestErrorPropagates() {
	want := dErrors.New(dErrors.CodeInvalidState, "nope")
	err := s.tx.RunInTx(context.Background(), domain.AssetID(uuid.New()), func(Stores) error {
		return want
	})
	s.Equal(want, err)
}
