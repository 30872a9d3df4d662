// Package domain holds the pure tendering workflow rules: the closed status
// vocabularies, result mappings and the derived dashboard classification.
// Nothing here touches the database.
package domain

import "fmt"

// RAStatus is the reverse-auction sub-workflow status vocabulary. The set is
// closed; anything else is rejected at the transition boundary.
type RAStatus string

const (
	RAUnderEvaluation RAStatus = "Under Evaluation"
	RAScheduled       RAStatus = "RA Scheduled"
	RAStarted         RAStatus = "RA Started"
	RAEnded           RAStatus = "RA Ended"
	RADisqualified    RAStatus = "Disqualified"
	RAWon             RAStatus = "Won"
	RALost            RAStatus = "Lost"
	RALostH1          RAStatus = "Lost - H1 Elimination"
)

// Valid reports whether s is part of the closed vocabulary.
func (s RAStatus) Valid() bool {
	switch s {
	case RAUnderEvaluation, RAScheduled, RAStarted, RAEnded,
		RADisqualified, RAWon, RALost, RALostH1:
		return true
	}
	return false
}

// RAResult is the uploaded reverse-auction outcome.
type RAResult string

const (
	ResultWon           RAResult = "Won"
	ResultLost          RAResult = "Lost"
	ResultH1Elimination RAResult = "H1 Elimination"
)

// Valid reports whether r is part of the closed vocabulary.
func (r RAResult) Valid() bool {
	switch r {
	case ResultWon, ResultLost, ResultH1Elimination:
		return true
	}
	return false
}

// StatusForResult maps an uploaded outcome to the reverse-auction status it
// settles the record in.
func StatusForResult(r RAResult) (RAStatus, error) {
	switch r {
	case ResultWon:
		return RAWon, nil
	case ResultLost:
		return RALost, nil
	case ResultH1Elimination:
		return RALostH1, nil
	default:
		return "", fmt.Errorf("unknown reverse auction result %q", r)
	}
}

// ProjectionStatus maps a reverse-auction status to the coarse outcome string
// written to the result projection. Started and Ended report as scheduled
// because the auction has no outcome yet.
func ProjectionStatus(s RAStatus) string {
	switch s {
	case RAStarted, RAEnded:
		return string(RAScheduled)
	default:
		return string(s)
	}
}

// TQStatus is the tender-query sub-workflow status vocabulary.
type TQStatus string

const (
	TQAwaited                TQStatus = "TQ awaited"
	TQReceived               TQStatus = "TQ received"
	TQReplied                TQStatus = "TQ replied"
	TQDisqualifiedMissed     TQStatus = "Disqualified, TQ missed"
	TQDisqualifiedNoReceived TQStatus = "Disqualified, No TQ received"
	TQRepliedQualified       TQStatus = "TQ replied, Qualified"
	TQQualifiedNoReceived    TQStatus = "Qualified, No TQ received"
)

// Valid reports whether s is part of the closed vocabulary.
func (s TQStatus) Valid() bool {
	switch s {
	case TQAwaited, TQReceived, TQReplied, TQDisqualifiedMissed,
		TQDisqualifiedNoReceived, TQRepliedQualified, TQQualifiedNoReceived:
		return true
	}
	return false
}
