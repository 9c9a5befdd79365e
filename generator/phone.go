package generator

import "fmt"

const phoneModulus = 10000

// PhoneSequence hands out mobile numbers of the form 010-MMMM-LLLL from two
// rolling four digit counters. Both counters advance on every call and wrap
// to 0 past 9999, so one sequence yields phoneModulus distinct numbers before
// repeating. Sequences on different lanes never produce the same number.
type PhoneSequence struct {
	mid  int
	last int
}

func NewPhoneSequence(mid int, last int) *PhoneSequence {
	s := &PhoneSequence{}
	s.SetMid(mid)
	s.SetLast(last)
	return s
}

// Places the sequence on a lane: mid starts at lane, last at 0
func NewPhoneLane(lane int) *PhoneSequence {
	return NewPhoneSequence(lane, 0)
}

func (s *PhoneSequence) SetMid(seq int) {
	s.mid = wrap(seq)
}

func (s *PhoneSequence) SetLast(seq int) {
	s.last = wrap(seq)
}

// Returns the current counters
func (s *PhoneSequence) State() (mid int, last int) {
	return s.mid, s.last
}

// Returns the lane of the sequence, the constant distance between the two
// counters. It does not change as the sequence advances.
func (s *PhoneSequence) Lane() int {
	return wrap(s.mid - s.last)
}

// Returns the number for the current counters and advances both
func (s *PhoneSequence) Next() string {
	phone := fmt.Sprintf("010-%04d-%04d", s.mid, s.last)
	s.mid = wrap(s.mid + 1)
	s.last = wrap(s.last + 1)
	return phone
}

func wrap(n int) int {
	return ((n % phoneModulus) + phoneModulus) % phoneModulus
}
