package malloc

import "sync"
import "sync/atomic"

import "github.com/bnclabs/gomem/api"
import "github.com/bnclabs/golog"
import s "github.com/bnclabs/gosettings"

// The process-wide mallocer has a two-phase lifecycle: while no
// allocation has gone through it, Setup() and SetMallocer() may
// configure or replace it; the first Default() call locks it in and
// any later reconfiguration attempt panics with api.ErrorLocked.

type mallocerbox struct {
	mallocer api.Mallocer
}

var defbox atomic.Pointer[mallocerbox]

var global struct {
	mu       sync.Mutex
	setts    s.Settings
	mallocer api.Mallocer
}

// Setup the settings used to build the default pooled mallocer. Shall
// be called before the first use of Default().
func Setup(setts s.Settings) {
	global.mu.Lock()
	defer global.mu.Unlock()
	if defbox.Load() != nil {
		panic(api.ErrorLocked)
	}
	global.setts = Defaultsettings().Mixin(setts)
}

// SetMallocer replace the process-wide mallocer, typically with a
// Passthru instance. Shall be called before the first use of
// Default().
func SetMallocer(mallocer api.Mallocer) {
	global.mu.Lock()
	defer global.mu.Unlock()
	if defbox.Load() != nil {
		panic(api.ErrorLocked)
	}
	global.mallocer = mallocer
}

// Default the process-wide mallocer, lazily initialized on first call.
func Default() api.Mallocer {
	if box := defbox.Load(); box != nil {
		return box.mallocer
	}

	global.mu.Lock()
	defer global.mu.Unlock()
	if box := defbox.Load(); box != nil {
		return box.mallocer
	}
	mallocer := global.mallocer
	if mallocer == nil {
		setts := global.setts
		if setts == nil {
			setts = Defaultsettings()
		}
		mallocer = NewArena(setts)
		log.Infof("malloc: default arena initialized\n")
	}
	defbox.Store(&mallocerbox{mallocer: mallocer})
	return mallocer
}

// for tests only, breaks the lock-in rule by design.
func resetglobal() {
	global.mu.Lock()
	defer global.mu.Unlock()
	defbox.Store(nil)
	global.setts, global.mallocer = nil, nil
}
