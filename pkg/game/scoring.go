package game

// CallOutcome records how a call resolved, for the progression manager and
// for event payloads. Counteractor is -1 when nobody counteracted.
type CallOutcome struct {
	Caller       int   `json:"caller"`
	Counteractor int   `json:"counteractor"`
	Success      bool  `json:"success"`
	HandPoints   []int `json:"hand_points"`
	Deltas       []int `json:"deltas"`
}

// CallZap resolves a zap declaration by the acting seat. Callable as an
// alternative to playing or drawing on the caller's own turn, provided the
// caller's hand totals at most CallThreshold points.
//
// The first other active seat, scanning in turn order from the seat after the
// caller, whose hand totals no more than the caller's, counteracts. Without a
// counteractor the call succeeds: the caller's score is unchanged and every
// other active seat takes its own hand points. A counteracted caller takes
// their hand points plus CounteractPenalty per opponent; all other seats are
// unaffected. Either way the round finishes.
func (s State) CallZap(seat int) (State, *CallOutcome, error) {
	if err := s.checkActing(seat); err != nil {
		return s, nil, err
	}
	if s.Phase != PhasePlay && s.Phase != PhaseDraw {
		return s, nil, ErrWrongPhase
	}

	callerPoints := s.SeatHandPoints(seat)
	if callerPoints > CallThreshold {
		return s, nil, ErrHandTooBig
	}

	out := &CallOutcome{
		Caller:       seat,
		Counteractor: -1,
		HandPoints:   make([]int, s.NumSeats()),
		Deltas:       make([]int, s.NumSeats()),
	}
	for i := range s.Hands {
		out.HandPoints[i] = s.SeatHandPoints(i)
	}

	active := s.ActiveSeats()
	n := s.NumSeats()
	for i := 1; i < n; i++ {
		other := (seat + i) % n
		if !s.IsActive(other) || other == seat {
			continue
		}
		if out.HandPoints[other] <= callerPoints {
			out.Counteractor = other
			break
		}
	}

	if out.Counteractor >= 0 {
		out.Deltas[seat] = callerPoints + CounteractPenalty*(len(active)-1)
	} else {
		out.Success = true
		for _, other := range active {
			if other != seat {
				out.Deltas[other] = out.HandPoints[other]
			}
		}
	}

	next := s.clone()
	for i, d := range out.Deltas {
		next.Scores[i] += d
	}
	next.Phase = PhaseFinished
	next.LastAction = &ActionRecord{Seat: seat, Type: ActionCall}
	return next, out, nil
}
