package testutils

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
)

// DefaultWaitTimeout bounds every wait for asynchronous outcomes in tests
const DefaultWaitTimeout = 2 * time.Second

// BaseSuite is embedded by package test suites. It provides a debug logger
// and a FakeRadio that is recreated for every test.
//
//	type SessionSuite struct {
//	    testutils.BaseSuite
//	}
//
//	func (s *SessionSuite) SetupTest() {
//	    s.BaseSuite.SetupTest()
//	    s.Radio.On("Connect", "AA:BB").Return(nil).Once()
//	}
type BaseSuite struct {
	suite.Suite

	Helper *TestHelper
	Logger *logrus.Logger
	Radio  *FakeRadio
}

// SetupSuite creates the shared helper and logger
func (s *BaseSuite) SetupSuite() {
	s.Helper = NewTestHelper(s.T())
	s.Logger = s.Helper.Logger
}

// SetupTest creates a fresh FakeRadio that accepts Start and Close
func (s *BaseSuite) SetupTest() {
	s.Radio = NewFakeRadio()
	s.Radio.AllowLifecycle()
}

// TearDownTest verifies that every expected radio command was issued
func (s *BaseSuite) TearDownTest() {
	if s.Radio != nil {
		s.Radio.AssertExpectations(s.T())
	}
	s.Radio = nil
}
