package main

import (
	"bytes"
	"context"

	"github.com/fatih/color"

	"github.com/srg/blecentral/internal/testutils"
)

// Test device as go-ble reports it
const (
	TestDeviceAddress = testutils.DefaultPeripheralAddress
	TestDeviceName    = testutils.DefaultPeripheralName
)

// CommandTestSuite runs commands against a mocked go-ble radio that
// advertises one heart rate strap.
type CommandTestSuite struct {
	testutils.MockPeripheralSuite
}

func (s *CommandTestSuite) SetupSuite() {
	s.MockPeripheralSuite.SetupSuite()
	color.NoColor = true
}

// ExecuteCommand runs the CLI with args and returns stdout and the error.
// Logs go to a separate buffer so they never mix with command output.
func (s *CommandTestSuite) ExecuteCommand(args ...string) (string, error) {
	root := newRootCmd()
	out := new(bytes.Buffer)
	logs := new(bytes.Buffer)
	root.SetOut(out)
	root.SetErr(logs)
	root.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := root.ExecuteContext(context.Background())
	if logs.Len() > 0 {
		s.T().Logf("command logs:\n%s", logs.String())
	}
	return out.String(), err
}
