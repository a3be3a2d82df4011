package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type AuditTestSuite struct {
	suite.Suite
}

func (s *AuditTestSuite) TestRecordsInOrder() {
	log := NewRingLog(8)
	defer log.Close()

	s.Require().NoError(log.LogEvent("created", map[string]interface{}{"name": "/a"}))
	s.Require().NoError(log.LogEvent("closed", nil))

	events := log.Events()
	s.Require().Len(events, 2)
	s.Require().Equal("created", events[0].Name)
	s.Require().Equal("/a", events[0].Details["name"])
	s.Require().Equal("closed", events[1].Name)
	s.Require().Nil(events[1].Details)

	// Events is a snapshot; the log still holds both entries.
	s.Require().Len(log.Events(), 2)
}

func (s *AuditTestSuite) TestDetailsAreCopied() {
	log := NewRingLog(2)
	defer log.Close()

	details := map[string]interface{}{"size": 64}
	s.Require().NoError(log.LogEvent("created", details))
	details["size"] = 128
	s.Require().Equal(64, log.Events()[0].Details["size"])
}

func (s *AuditTestSuite) TestEvictsOldest() {
	log := NewRingLog(3)
	defer log.Close()

	for _, name := range []string{"a", "b", "c", "d", "e"} {
		s.Require().NoError(log.LogEvent(name, nil))
	}
	events := log.Events()
	s.Require().Len(events, 3)
	s.Require().Equal("c", events[0].Name)
	s.Require().Equal("e", events[2].Name)
	s.Require().Equal(uint64(2), log.Dropped())
}

func (s *AuditTestSuite) TestTimestamps() {
	log := NewRingLog(1)
	defer log.Close()
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	log.now = func() time.Time { return at }

	s.Require().NoError(log.LogEvent("created", nil))
	s.Require().Equal(at, log.Events()[0].Time)
}

func (s *AuditTestSuite) TestClosed() {
	log := NewRingLog(0)
	s.Require().NoError(log.LogEvent("created", nil))
	log.Close()
	s.Require().ErrorIs(log.LogEvent("closed", nil), ErrClosed)
	s.Require().Nil(log.Events())
}

func TestAuditTestSuite(t *testing.T) {
	suite.Run(t, new(AuditTestSuite))
}
