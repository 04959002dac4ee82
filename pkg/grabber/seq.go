package grabber

// RewardSeq is a finite sequence that can be walked once. After it is drained every
// further Next reports false; there is no way to rewind it.
type RewardSeq struct {
	items []EpochReward
	pos   int
}

// NewRewardSeq wraps items in a sequence that yields each of them once.
func NewRewardSeq(items []EpochReward) *RewardSeq {
	return &RewardSeq{items: items}
}

// Next returns the next reward, or false once the sequence is exhausted.
func (s *RewardSeq) Next() (EpochReward, bool) {
	if s == nil || s.pos >= len(s.items) {
		return EpochReward{}, false
	}
	r := s.items[s.pos]
	s.pos++
	if s.pos == len(s.items) {
		s.items = nil
		s.pos = 0
	}
	return r, true
}

// Collect drains whatever is left into a slice.
func (s *RewardSeq) Collect() []EpochReward {
	out := make([]EpochReward, 0)
	for r, ok := s.Next(); ok; r, ok = s.Next() {
		out = append(out, r)
	}
	return out
}
