package model

// EscalationLevel is the fixed set of responses the external decision
// collaborator can recommend.
type EscalationLevel string

// Escalation levels, mildest first.
const (
	LevelFalsePositive EscalationLevel = "false_positive"
	LevelLog           EscalationLevel = "log"
	LevelCallSecurity  EscalationLevel = "call_security"
	LevelAlarm         EscalationLevel = "alarm"
	LevelUnreadable    EscalationLevel = "unreadable"
)

// Valid reports whether the level is one of the known values.
func (l EscalationLevel) Valid() bool {
	switch l {
	case LevelFalsePositive, LevelLog, LevelCallSecurity, LevelAlarm, LevelUnreadable:
		return true
	}
	return false
}

// Decision is the outcome of one external escalation-decision call.
type Decision struct {
	Summary string          `json:"summary"`
	Level   EscalationLevel `json:"escalation_level"`
	Reason  string          `json:"escalation_reason"`
}

// VerdictEvent is published once per successfully decided escalation,
// in the order the consumer completes them.
type VerdictEvent struct {
	Image    string   `json:"image"` // data-URI encoded JPEG
	Decision Decision `json:"decision"`
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry struct {
	ID    string  `json:"id"`
	Image string  `json:"image"` // data-URI encoded JPEG
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}
