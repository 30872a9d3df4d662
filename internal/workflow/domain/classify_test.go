package domain

import (
	"testing"
	"time"
)

func ptrResult(r RAResult) *RAResult   { return &r }
func ptrTime(t time.Time) *time.Time   { return &t }
func ptrTQStatus(s TQStatus) *TQStatus { return &s }

// Every combination of (has record, result set, start set, end set) must land
// in exactly one tab.
func TestClassifyRAExhaustive(t *testing.T) {
	now := time.Now()

	type combo struct {
		hasRecord bool
		result    *RAResult
		start     *time.Time
		end       *time.Time
	}

	want := func(c combo) RATab {
		switch {
		case !c.hasRecord:
			return RATabUnderEvaluation
		case c.result != nil:
			return RATabCompleted
		case c.start != nil || c.end != nil:
			return RATabScheduled
		default:
			return RATabUnderEvaluation
		}
	}

	var combos []combo
	for _, hasRecord := range []bool{false, true} {
		for _, result := range []*RAResult{nil, ptrResult(ResultWon)} {
			for _, start := range []*time.Time{nil, ptrTime(now)} {
				for _, end := range []*time.Time{nil, ptrTime(now.Add(time.Hour))} {
					combos = append(combos, combo{hasRecord, result, start, end})
				}
			}
		}
	}

	seen := map[RATab]int{}
	for _, c := range combos {
		got := ClassifyRA(RASnapshot{HasRecord: c.hasRecord, Result: c.result, StartTime: c.start, EndTime: c.end})
		if got != want(c) {
			t.Errorf("ClassifyRA(hasRecord=%v result=%v start=%v end=%v) = %q, want %q",
				c.hasRecord, c.result != nil, c.start != nil, c.end != nil, got, want(c))
		}
		seen[got]++
	}

	for _, tab := range []RATab{RATabUnderEvaluation, RATabScheduled, RATabCompleted} {
		if seen[tab] == 0 {
			t.Errorf("no combination reached tab %q", tab)
		}
	}
}

func TestClassifyTQ(t *testing.T) {
	tests := []struct {
		name   string
		latest *TQStatus
		want   TQTab
	}{
		{"no rows", nil, TQTabAwaited},
		{"awaited", ptrTQStatus(TQAwaited), TQTabAwaited},
		{"received", ptrTQStatus(TQReceived), TQTabReceived},
		{"replied", ptrTQStatus(TQReplied), TQTabReplied},
		{"replied qualified", ptrTQStatus(TQRepliedQualified), TQTabQualified},
		{"qualified without tq", ptrTQStatus(TQQualifiedNoReceived), TQTabQualified},
		{"missed", ptrTQStatus(TQDisqualifiedMissed), TQTabDisqualified},
		{"disqualified without tq", ptrTQStatus(TQDisqualifiedNoReceived), TQTabDisqualified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyTQ(tt.latest); got != tt.want {
				t.Errorf("ClassifyTQ = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLatestTQTieBreak(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		rows []TQMeta
		want int64
	}{
		{
			"updated_at wins",
			[]TQMeta{
				{ID: 1, CreatedAt: base, UpdatedAt: base.Add(2 * time.Hour)},
				{ID: 2, CreatedAt: base.Add(time.Hour), UpdatedAt: base.Add(time.Hour)},
			},
			1,
		},
		{
			"created_at breaks updated_at tie",
			[]TQMeta{
				{ID: 5, CreatedAt: base, UpdatedAt: base.Add(time.Hour)},
				{ID: 3, CreatedAt: base.Add(time.Minute), UpdatedAt: base.Add(time.Hour)},
			},
			3,
		},
		{
			"id breaks full timestamp tie",
			[]TQMeta{
				{ID: 7, CreatedAt: base, UpdatedAt: base},
				{ID: 9, CreatedAt: base, UpdatedAt: base},
				{ID: 8, CreatedAt: base, UpdatedAt: base},
			},
			9,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			latest := LatestTQ(tt.rows)
			if latest == nil {
				t.Fatal("LatestTQ returned nil")
			}
			if latest.ID != tt.want {
				t.Errorf("latest id = %d, want %d", latest.ID, tt.want)
			}
		})
	}

	if LatestTQ(nil) != nil {
		t.Error("LatestTQ(nil) should be nil")
	}
}

func TestStatusForResult(t *testing.T) {
	tests := []struct {
		result RAResult
		want   RAStatus
	}{
		{ResultWon, RAWon},
		{ResultLost, RALost},
		{ResultH1Elimination, RALostH1},
	}
	for _, tt := range tests {
		got, err := StatusForResult(tt.result)
		if err != nil {
			t.Fatalf("StatusForResult(%q): %v", tt.result, err)
		}
		if got != tt.want {
			t.Errorf("StatusForResult(%q) = %q, want %q", tt.result, got, tt.want)
		}
	}

	if _, err := StatusForResult(RAResult("Draw")); err == nil {
		t.Error("expected error for unknown result")
	}
}

func TestProjectionStatus(t *testing.T) {
	if got := ProjectionStatus(RAStarted); got != string(RAScheduled) {
		t.Errorf("ProjectionStatus(RAStarted) = %q, want %q", got, RAScheduled)
	}
	if got := ProjectionStatus(RAEnded); got != string(RAScheduled) {
		t.Errorf("ProjectionStatus(RAEnded) = %q, want %q", got, RAScheduled)
	}
	if got := ProjectionStatus(RAWon); got != string(RAWon) {
		t.Errorf("ProjectionStatus(RAWon) = %q, want %q", got, RAWon)
	}
}

func TestVocabularyValidation(t *testing.T) {
	if !RAScheduled.Valid() || RAStatus("Paused").Valid() {
		t.Error("RAStatus.Valid misclassified")
	}
	if !ResultH1Elimination.Valid() || RAResult("h1").Valid() {
		t.Error("RAResult.Valid misclassified")
	}
	if !TQRepliedQualified.Valid() || TQStatus("TQ Replied").Valid() {
		t.Error("TQStatus.Valid misclassified")
	}
}
