package game

import (
	"errors"
	"testing"
)

// callState builds a 3-seat state in the Play phase with fixed hands:
// seat 0 holds 3 points, seats 1 and 2 hold 6 points each.
func callState() State {
	s := NewState(3, 2, 0, false, nil, nil)
	s.Phase = PhasePlay
	s.Hands[0] = []Card{MakeCard(Spades, Three)}
	s.Hands[1] = []Card{MakeCard(Hearts, Six)}
	s.Hands[2] = []Card{MakeCard(Diamonds, Six)}
	return s
}

func TestCallSuccess(t *testing.T) {
	s := callState()

	next, out, err := s.CallZap(0)
	if err != nil {
		t.Fatalf("CallZap: %v", err)
	}
	if !out.Success || out.Counteractor != -1 {
		t.Fatalf("outcome = %+v, want uncontested success", out)
	}
	if next.Phase != PhaseFinished {
		t.Errorf("phase = %v, want FINISHED", next.Phase)
	}
	wantScores := []int{0, 6, 6}
	for seat, want := range wantScores {
		if next.Scores[seat] != want {
			t.Errorf("seat %d score = %d, want %d", seat, next.Scores[seat], want)
		}
	}
	if out.HandPoints[0] != 3 {
		t.Errorf("caller hand points = %d, want 3", out.HandPoints[0])
	}
}

func TestCallCounteracted(t *testing.T) {
	s := callState()
	s.Hands[2] = []Card{MakeCard(Clubs, Three)} // ties the caller's 3 points

	next, out, err := s.CallZap(0)
	if err != nil {
		t.Fatalf("CallZap: %v", err)
	}
	if out.Success || out.Counteractor != 2 {
		t.Fatalf("outcome = %+v, want counteraction by seat 2", out)
	}
	// Caller takes own points plus 5 per other active seat: 3 + 5*2.
	if next.Scores[0] != 13 {
		t.Errorf("caller score = %d, want 13", next.Scores[0])
	}
	// Everyone else is unaffected on a counteracted call.
	if next.Scores[1] != 0 || next.Scores[2] != 0 {
		t.Errorf("other scores = %v, want untouched", next.Scores[1:])
	}
}

func TestCallCounteractorScanOrder(t *testing.T) {
	s := callState()
	s.Turn = 1
	s.Hands[1] = []Card{MakeCard(Spades, Two)}  // caller, 2 points
	s.Hands[2] = []Card{MakeCard(Hearts, Ace)}  // 1 point, scanned first
	s.Hands[0] = []Card{MakeCard(Clubs, Ace)}   // 1 point, scanned second

	_, out, err := s.CallZap(1)
	if err != nil {
		t.Fatalf("CallZap: %v", err)
	}
	if out.Counteractor != 2 {
		t.Errorf("counteractor = %d, want 2 (first in turn order after the caller)", out.Counteractor)
	}
}

func TestCallIgnoresEliminatedSeats(t *testing.T) {
	s := callState()
	s.Eliminated[2] = true
	s.Hands[2] = nil // eliminated seats hold no cards

	next, out, err := s.CallZap(0)
	if err != nil {
		t.Fatalf("CallZap: %v", err)
	}
	if !out.Success {
		t.Fatalf("outcome = %+v, want success (seat 2 cannot counteract)", out)
	}
	if next.Scores[2] != 0 {
		t.Errorf("eliminated seat score = %d, want untouched", next.Scores[2])
	}
	if next.Scores[1] != 6 {
		t.Errorf("seat 1 score = %d, want 6", next.Scores[1])
	}
}

func TestCallHandTooBig(t *testing.T) {
	s := callState()
	s.Hands[0] = []Card{MakeCard(Spades, Six)}

	if _, _, err := s.CallZap(0); !errors.Is(err, ErrHandTooBig) {
		t.Errorf("err = %v, want ErrHandTooBig", err)
	}
}

func TestCallAllowedFromDrawPhase(t *testing.T) {
	s := callState()
	s.Phase = PhaseDraw

	next, _, err := s.CallZap(0)
	if err != nil {
		t.Fatalf("call from draw phase: %v", err)
	}
	if next.Phase != PhaseFinished {
		t.Errorf("phase = %v, want FINISHED", next.Phase)
	}
}

func TestCallNotAllowedBeforeDeal(t *testing.T) {
	s := NewState(3, 1, 0, false, nil, nil)
	if _, _, err := s.CallZap(0); !errors.Is(err, ErrWrongPhase) {
		t.Errorf("err = %v, want ErrWrongPhase", err)
	}
}

func TestCallJokersCountZero(t *testing.T) {
	s := callState()
	s.Hands[0] = []Card{JokerA, JokerB, MakeCard(Spades, Five)}

	_, out, err := s.CallZap(0)
	if err != nil {
		t.Fatalf("CallZap with jokers: %v", err)
	}
	if out.HandPoints[0] != 5 {
		t.Errorf("caller hand points = %d, want 5", out.HandPoints[0])
	}
}
