package line

// Target is a device on the far side of a simulated cable. Rise is called on
// every TCK rising edge with the TMS/TDI levels present at that edge; Fall on
// every falling edge. TDO reports the level the target currently presents.
type Target interface {
	Rise(tms, tdi bool)
	Fall()
	TDO() bool
}

// Event is one recorded Set call.
type Event struct {
	Signal Signal
	Level  Level
}

// Pulse captures one TCK rising edge: the TMS/TDI levels the target saw, and
// the TDO value the probe sampled while TCK was high (Sampled is false if TDO
// was not read during the pulse).
type Pulse struct {
	TMS     bool
	TDI     bool
	TDO     bool
	Sampled bool
}

// Sim is an in-memory Line Driver for tests and the CLI simulator. It records
// every level change and clock pulse. With Loopback set, TDO mirrors the last
// driven TDI, as if the two pins were wired together. When Target is set it
// supplies TDO instead.
type Sim struct {
	Loopback bool
	Target   Target

	// FailConfigure injects Configure errors per signal.
	FailConfigure map[Signal]error

	levels map[Signal]Level
	dirs   map[Signal]Direction
	resets map[Signal]int
	events []Event
	pulses []Pulse
}

// NewSim constructs a simulator with every line low and unconfigured.
func NewSim() *Sim {
	return &Sim{
		levels: make(map[Signal]Level),
		dirs:   make(map[Signal]Direction),
		resets: make(map[Signal]int),
	}
}

// NewLoopback returns a simulator with TDI wired to TDO.
func NewLoopback() *Sim {
	s := NewSim()
	s.Loopback = true
	return s
}

func (s *Sim) Set(sig Signal, l Level) {
	prev := s.levels[sig]
	s.levels[sig] = l
	s.events = append(s.events, Event{Signal: sig, Level: l})

	if sig != TCK || prev == l {
		return
	}
	if l == High {
		tms, tdi := bool(s.levels[TMS]), bool(s.levels[TDI])
		s.pulses = append(s.pulses, Pulse{TMS: tms, TDI: tdi})
		if s.Target != nil {
			s.Target.Rise(tms, tdi)
		}
		return
	}
	if s.Target != nil {
		s.Target.Fall()
	}
}

func (s *Sim) Get(sig Signal) Level {
	var l Level
	switch {
	case sig != TDO:
		l = s.levels[sig]
	case s.Target != nil:
		l = Level(s.Target.TDO())
	case s.Loopback:
		l = s.levels[TDI]
	default:
		l = s.levels[TDO]
	}

	if sig == TDO && s.levels[TCK] == High && len(s.pulses) > 0 {
		p := &s.pulses[len(s.pulses)-1]
		if !p.Sampled {
			p.TDO = bool(l)
			p.Sampled = true
		}
	}
	return l
}

func (s *Sim) Configure(sig Signal, d Direction) error {
	if err := s.FailConfigure[sig]; err != nil {
		return err
	}
	s.dirs[sig] = d
	return nil
}

func (s *Sim) Reset(sig Signal) error {
	s.resets[sig]++
	delete(s.dirs, sig)
	return nil
}

// Level returns the current level of a line.
func (s *Sim) Level(sig Signal) Level {
	return s.levels[sig]
}

// DirectionOf reports the configured direction and whether the line has been
// configured since its last reset.
func (s *Sim) DirectionOf(sig Signal) (Direction, bool) {
	d, ok := s.dirs[sig]
	return d, ok
}

// ResetCount reports how many times Reset was called on a line.
func (s *Sim) ResetCount(sig Signal) int {
	return s.resets[sig]
}

// Events returns a copy of every recorded Set.
func (s *Sim) Events() []Event {
	return append([]Event(nil), s.events...)
}

// Pulses returns a copy of every recorded TCK rising edge.
func (s *Sim) Pulses() []Pulse {
	return append([]Pulse(nil), s.pulses...)
}

// TMSTrace returns the TMS level seen at each rising edge.
func (s *Sim) TMSTrace() []bool {
	out := make([]bool, len(s.pulses))
	for i, p := range s.pulses {
		out[i] = p.TMS
	}
	return out
}

// ClearLog drops recorded events and pulses but keeps line levels.
func (s *Sim) ClearLog() {
	s.events = nil
	s.pulses = nil
}
