package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubNamer struct {
	name string
	ok   bool
}

func (s stubNamer) InstanceName() (string, bool) { return s.name, s.ok }

func TestEnsureSessionCreatesOnce(t *testing.T) {
	var b Bootstrap
	s1 := b.EnsureSession("app", "host1", "inst1")
	s2 := b.EnsureSession("app", "host2", "inst2")

	require.Same(t, s1, s2)
	assert.Equal(t, "host1", s1.HostName)
}

func TestEnsureSessionConcurrentFirstCallersSerialise(t *testing.T) {
	var b Bootstrap
	var wg sync.WaitGroup
	sessions := make([]*Session, 50)

	for i := range sessions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sessions[i] = b.EnsureSession("app", "host", "inst")
		}(i)
	}
	wg.Wait()

	for _, s := range sessions {
		require.Same(t, sessions[0], s)
	}
}

func TestUpgradeInstanceNameOnlyWhenEmpty(t *testing.T) {
	var b Bootstrap
	b.EnsureSession("app", "host", "")

	b.UpgradeInstanceName(stubNamer{name: "from-adapter", ok: true})
	assert.Equal(t, "from-adapter", b.session.InstanceName)

	b.UpgradeInstanceName(stubNamer{name: "second", ok: true})
	assert.Equal(t, "from-adapter", b.session.InstanceName, "should not be overwritten once set")
}

func TestUpgradeInstanceNameNoopWhenAlreadyConfigured(t *testing.T) {
	var b Bootstrap
	b.EnsureSession("app", "host", "configured")

	b.UpgradeInstanceName(stubNamer{name: "from-adapter", ok: true})
	assert.Equal(t, "configured", b.session.InstanceName)
}
