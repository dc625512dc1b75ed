package model

// GameSnapshot is the state observed at the start of a round. A new one is
// fetched every round and never reused.
type GameSnapshot struct {
	Round     int    `json:"round"`
	Team      Team   `json:"team"`
	Planet    Planet `json:"planet"`
	Karbonite int    `json:"karbonite"`
	Units     []Unit `json:"units"`
}

// CountByType summarizes the owned units for round logging.
func (s GameSnapshot) CountByType() map[string]int {
	counts := make(map[string]int)
	for _, u := range s.Units {
		counts[u.TypeName()]++
	}
	return counts
}
