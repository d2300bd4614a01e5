package background

import (
	"os"
	"os/signal"

	"github.com/joescharf/procd/internal/output"
)

var (
	signalNotify = signal.Notify
	signalStop   = signal.Stop
)

// signalTable keeps callbacks per signal, and signals in first-registration
// order so subscription is deterministic.
type signalTable struct {
	order     []os.Signal
	callbacks map[os.Signal][]func()
}

func newSignalTable() *signalTable {
	return &signalTable{callbacks: make(map[os.Signal][]func())}
}

func (t *signalTable) add(sig os.Signal, fn func()) {
	if _, ok := t.callbacks[sig]; !ok {
		t.order = append(t.order, sig)
	}
	t.callbacks[sig] = append(t.callbacks[sig], fn)
}

func (t *signalTable) signals() []os.Signal {
	return append([]os.Signal(nil), t.order...)
}

func (t *signalTable) lookup(sig os.Signal) []func() {
	return t.callbacks[sig]
}

// subscribe asks the OS to queue every signal that has callbacks. Delivery
// never runs callbacks; dispatch does, on the loop goroutine.
func (r *Runner) subscribe() chan os.Signal {
	sigs := r.signals.signals()
	ch := make(chan os.Signal, 2*len(sigs)+1)
	if len(sigs) > 0 {
		r.notify(ch, sigs...)
	}
	return ch
}

func (r *Runner) unsubscribe(ch chan os.Signal) {
	r.stop(ch)
}

// dispatch runs the callbacks of every queued signal without blocking.
func (r *Runner) dispatch(ch <-chan os.Signal, out *output.UI) {
	for {
		select {
		case sig := <-ch:
			r.deliver(sig, out)
		default:
			return
		}
	}
}

func (r *Runner) deliver(sig os.Signal, out *output.UI) {
	r.emitSignal(sig)
	r.inSignal = true
	defer func() { r.inSignal = false }()
	for _, fn := range r.signals.lookup(sig) {
		out.VerboseLog("Received signal '%s', calling registered callback.", sig)
		fn()
	}
}
