package jtagtap

import "sync/atomic"

// Handle is the active Transport slot consumers are given at startup. The
// five operations are installed together as one interface value, so a reader
// sees either no transport or a complete one.
type Handle struct {
	t atomic.Pointer[installed]
}

type installed struct {
	Transport
}

// Install makes t the active transport.
func (h *Handle) Install(t Transport) {
	h.t.Store(&installed{t})
}

// Transport returns the active transport, or nil before Install.
func (h *Handle) Transport() Transport {
	if p := h.t.Load(); p != nil {
		return p.Transport
	}
	return nil
}

// Installed reports whether a transport has been installed.
func (h *Handle) Installed() bool {
	return h.t.Load() != nil
}
