package testutils

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// recordingT captures assertion failures instead of failing the test
type recordingT struct {
	failures []string
}

func (r *recordingT) Errorf(format string, args ...interface{}) {
	r.failures = append(r.failures, fmt.Sprintf(format, args...))
}

func TestJSONAsserter(t *testing.T) {
	actual := `[{"address": "aa:bb", "rssi": -60, "last_seen": "2025-01-01T00:00:00Z", "samples": 3}]`

	t.Run("placeholder and extra keys", func(t *testing.T) {
		rec := &recordingT{}
		NewJSONAsserter(rec).Assert(actual, `[{"address": "aa:bb", "last_seen": "<<PRESENCE>>"}]`)
		assert.Empty(t, rec.failures)
	})

	t.Run("placeholder requires the key", func(t *testing.T) {
		rec := &recordingT{}
		NewJSONAsserter(rec).Assert(actual, `[{"address": "aa:bb", "name": "<<PRESENCE>>"}]`)
		assert.Len(t, rec.failures, 1)
	})

	t.Run("value mismatch", func(t *testing.T) {
		rec := &recordingT{}
		NewJSONAsserter(rec).Assert(actual, `[{"rssi": -61}]`)
		assert.Len(t, rec.failures, 1)
		assert.Contains(t, rec.failures[0], "-61")
	})

	t.Run("strict keys", func(t *testing.T) {
		rec := &recordingT{}
		NewJSONAsserter(rec).WithOptions(WithIgnoreExtraKeys(false), WithIgnoredFields("last_seen")).
			Assert(actual, `[{"address": "aa:bb", "rssi": -60, "samples": 3}]`)
		assert.Empty(t, rec.failures)
	})

	t.Run("invalid json", func(t *testing.T) {
		rec := &recordingT{}
		NewJSONAsserter(rec).Assert("{", `{}`)
		assert.Len(t, rec.failures, 1)
		assert.Contains(t, rec.failures[0], "invalid actual JSON")
	})
}

func TestTextAsserter(t *testing.T) {
	t.Run("trailing whitespace and outer blank lines", func(t *testing.T) {
		rec := &recordingT{}
		NewTextAsserter(rec).Assert("\nService 180d   \n  └─ 2a37\n\n", "Service 180d\n  └─ 2a37")
		assert.Empty(t, rec.failures)
	})

	t.Run("reports unified diff", func(t *testing.T) {
		rec := &recordingT{}
		NewTextAsserter(rec).Assert("Service 180d\n  └─ 2a38", "Service 180d\n  └─ 2a37")
		assert.Len(t, rec.failures, 1)
		assert.Contains(t, rec.failures[0], "-  └─ 2a37")
		assert.Contains(t, rec.failures[0], "+  └─ 2a38")
	})

	t.Run("empty lines", func(t *testing.T) {
		rec := &recordingT{}
		NewTextAsserter(rec).WithOptions(WithIgnoreEmptyLines(true)).Assert("a\n\nb", "a\nb")
		assert.Empty(t, rec.failures)
	})

	t.Run("colors", func(t *testing.T) {
		rec := &recordingT{}
		NewTextAsserter(rec).WithOptions(WithEnableColors(true)).Assert("a", "b")
		assert.Len(t, rec.failures, 1)
		assert.Contains(t, rec.failures[0], "\x1b[")
	})
}
