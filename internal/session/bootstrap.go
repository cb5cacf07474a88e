// Package session implements exactly-once lazy creation of the
// measurement session identity (applicationName, hostName,
// instanceName) the request monitor attaches to every trace.
package session

import "sync"

// Session identifies the application/host/instance triple a
// measurement run belongs to.
type Session struct {
	ApplicationName string
	HostName        string
	InstanceName    string
}

// InstanceNamer is implemented by a MonitoredRequest adapter that can
// supply a process instance name the first time one is needed.
type InstanceNamer interface {
	InstanceName() (string, bool)
}

// Bootstrap creates the process-wide Session exactly once. The first
// caller to reach EnsureSession allocates it; concurrent first callers
// are serialised on a sync.Once. If the configured instance name is
// empty, the first monitored request may upgrade the session by asking
// its adapter, guarded by a narrower mutex so redundant upgrade
// attempts collapse into one.
type Bootstrap struct {
	once    sync.Once
	session *Session

	upgradeMu sync.Mutex
}

// EnsureSession returns the process Session, creating it on first call
// from (appName, hostName, instanceName).
func (b *Bootstrap) EnsureSession(appName, hostName, instanceName string) *Session {
	b.once.Do(func() {
		b.session = &Session{
			ApplicationName: appName,
			HostName:        hostName,
			InstanceName:    instanceName,
		}
	})
	return b.session
}

// UpgradeInstanceName asks namer for an instance name and applies it to
// the session if one hasn't been set yet. Safe to call from multiple
// goroutines; only the first successful call takes effect.
func (b *Bootstrap) UpgradeInstanceName(namer InstanceNamer) {
	if b.session == nil || namer == nil {
		return
	}
	b.upgradeMu.Lock()
	defer b.upgradeMu.Unlock()
	if b.session.InstanceName != "" {
		return
	}
	if name, ok := namer.InstanceName(); ok && name != "" {
		b.session.InstanceName = name
	}
}
