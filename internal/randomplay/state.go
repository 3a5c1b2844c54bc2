package randomplay

// State is the per-session progress of random play.
// SolvedIDs holds correctly answered quiz ids in answer order, without duplicates.
// CurrentID is the quiz handed out by the last PresentNext and not yet answered (0 = none).
type State struct {
	SolvedIDs []int64 `json:"solved_ids"`
	CurrentID int64   `json:"current_id,omitempty"`
}

func (s *State) Score() int { return len(s.SolvedIDs) }

// Reset starts a new streak.
func (s *State) Reset() {
	s.SolvedIDs = nil
	s.CurrentID = 0
}

func (s *State) solved(id int64) bool {
	for _, v := range s.SolvedIDs {
		if v == id {
			return true
		}
	}
	return false
}

func (s *State) markSolved(id int64) {
	if !s.solved(id) {
		s.SolvedIDs = append(s.SolvedIDs, id)
	}
}
