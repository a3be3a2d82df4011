package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/suite"

	"github.com/srediag/shmseg/pkg/shm"
)

var seq atomic.Int64

func testName() string {
	return fmt.Sprintf("/shmseg-registry-%d-%d", os.Getpid(), seq.Add(1))
}

func gaugeValue(g prometheus.Gauge) float64 {
	m := &dto.Metric{}
	_ = g.Write(m)
	return m.GetGauge().GetValue()
}

type RegistryTestSuite struct {
	suite.Suite
	ctx context.Context
	reg *prometheus.Registry
	r   *Registry
}

func (s *RegistryTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.reg = prometheus.NewRegistry()
	r, err := New(Options{Workers: 2, Registerer: s.reg})
	s.Require().NoError(err)
	s.r = r
}

func (s *RegistryTestSuite) TearDownTest() {
	s.Require().NoError(s.r.Close(s.ctx))
}

func (s *RegistryTestSuite) create(name string, size int) *Handle {
	h, err := s.r.Acquire(s.ctx, shm.OpenOptions{Name: name, Size: size, Create: true})
	if err != nil && errors.Is(err, shm.ErrUnsupported) {
		s.T().Skipf("no shared memory backend: %v", err)
	}
	s.Require().NoError(err)
	return h
}

func (s *RegistryTestSuite) TestAcquireSharesMapping() {
	name := testName()
	h1 := s.create(name, 64)
	// The second acquire would fail with ErrAlreadyExists if it opened the name again.
	h2, err := s.r.Acquire(s.ctx, shm.OpenOptions{Name: name[1:], Size: 64, Create: true})
	s.Require().NoError(err)
	s.Require().Same(h1.Segment(), h2.Segment())
	s.Require().Equal(1, s.r.Len())
	s.Require().Equal(float64(1), gaugeValue(s.r.gauge))

	s.Require().NoError(h1.Segment().Write([]byte("shared"), 0))
	got, err := h2.Segment().Read(6, 0)
	s.Require().NoError(err)
	s.Require().Equal([]byte("shared"), got)

	s.Require().NoError(h1.Release())
	s.Require().NoError(h2.Release())
}

func (s *RegistryTestSuite) TestLastReleaseCloses() {
	name := testName()
	h1 := s.create(name, 32)
	h2, err := s.r.Acquire(s.ctx, shm.OpenOptions{Name: name})
	s.Require().NoError(err)
	seg := h1.Segment()

	s.Require().NoError(h1.Release())
	s.Require().True(seg.IsOpen())
	_, ok := s.r.Get(name)
	s.Require().True(ok)

	s.Require().NoError(h2.Release())
	s.Require().False(seg.IsOpen())
	_, ok = s.r.Get(name)
	s.Require().False(ok)
	s.Require().Equal(0, s.r.Len())
	s.Require().Equal(float64(0), gaugeValue(s.r.gauge))

	// The creator's close removed the name.
	_, err = shm.Attach(s.ctx, name)
	s.Require().ErrorIs(err, shm.ErrNotFound)
}

func (s *RegistryTestSuite) TestReleaseTwice() {
	name := testName()
	h1 := s.create(name, 16)
	h2, err := s.r.Acquire(s.ctx, shm.OpenOptions{Name: name})
	s.Require().NoError(err)

	s.Require().NoError(h1.Release())
	s.Require().NoError(h1.Release())
	// h1's second release must not have dropped h2's reference.
	s.Require().True(h2.Segment().IsOpen())
	s.Require().NoError(h2.Release())
}

func (s *RegistryTestSuite) TestAcquireMissing() {
	_, err := s.r.Acquire(s.ctx, shm.OpenOptions{Name: testName()})
	if errors.Is(err, shm.ErrUnsupported) {
		s.T().Skip("no shared memory backend")
	}
	s.Require().ErrorIs(err, shm.ErrNotFound)
	s.Require().Equal(0, s.r.Len())
}

func (s *RegistryTestSuite) TestLookups() {
	names := []string{testName(), testName(), testName()}
	for _, name := range names {
		s.create(name, 8)
	}
	s.Require().Equal(3, s.r.Len())

	got := s.r.Names()
	sort.Strings(got)
	want := append([]string(nil), names...)
	sort.Strings(want)
	s.Require().Equal(want, got)

	seg, ok := s.r.Get(names[0][1:])
	s.Require().True(ok)
	s.Require().Equal(names[0], seg.Name())

	visited := 0
	s.r.Range(func(name string, seg *shm.Segment) bool {
		s.Require().Equal(name, seg.Name())
		visited++
		return visited < 2
	})
	s.Require().Equal(2, visited)
}

func (s *RegistryTestSuite) TestCloseClosesAll() {
	var segs []*shm.Segment
	for i := 0; i < 5; i++ {
		segs = append(segs, s.create(testName(), 128).Segment())
	}
	s.Require().NoError(s.r.Close(s.ctx))
	for _, seg := range segs {
		s.Require().False(seg.IsOpen())
	}
	s.Require().Equal(0, s.r.Len())
	s.Require().Equal(float64(0), gaugeValue(s.r.gauge))

	_, err := s.r.Acquire(s.ctx, shm.OpenOptions{Name: testName(), Size: 8, Create: true})
	s.Require().ErrorIs(err, ErrClosed)
	s.Require().NoError(s.r.Close(s.ctx))
}

func (s *RegistryTestSuite) TestReleaseAfterClose() {
	h := s.create(testName(), 8)
	s.Require().NoError(s.r.Close(s.ctx))
	s.Require().NoError(h.Release())
}

func (s *RegistryTestSuite) TestConcurrentAcquire() {
	name := testName()
	owner := s.create(name, 256)
	defer owner.Release()

	var wg sync.WaitGroup
	handles := make([]*Handle, 16)
	for i := range handles {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, err := s.r.Acquire(s.ctx, shm.OpenOptions{Name: name})
			if err == nil {
				handles[i] = h
			}
		}(i)
	}
	wg.Wait()
	for _, h := range handles {
		s.Require().NotNil(h)
		s.Require().Same(owner.Segment(), h.Segment())
		s.Require().NoError(h.Release())
	}
	s.Require().True(owner.Segment().IsOpen())
}

func (s *RegistryTestSuite) TestDuplicateRegisterer() {
	_, err := New(Options{Registerer: s.reg})
	s.Require().Error(err)
}

func TestRegistryTestSuite(t *testing.T) {
	suite.Run(t, new(RegistryTestSuite))
}
