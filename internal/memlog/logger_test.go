package memlog

import (
	"testing"

	"github.com/op/go-logging"
	"github.com/stretchr/testify/assert"
)

// TestNew_PreservesEarlierSubsystemLevels guards against New replacing the
// shared go-logging backend wholesale on every call, which would leave only
// the most recently constructed subsystem's level filtering in effect.
func TestNew_PreservesEarlierSubsystemLevels(t *testing.T) {
	New("ERROR", "SubsystemA")
	New("DEBUG", "SubsystemB")

	assert.Equal(t, logging.ERROR, backend.GetLevel("SubsystemA"))
	assert.Equal(t, logging.DEBUG, backend.GetLevel("SubsystemB"))
}
