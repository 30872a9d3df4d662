package statuscatalog

import (
	"context"
	"testing"
)

type staticLister struct {
	statuses []Status
}

func (l *staticLister) ListAll(_ context.Context) ([]Status, error) {
	return l.statuses, nil
}

func cat(s string) *string { return &s }

func fullCatalogRows() []Status {
	return []Status{
		{ID: 15, Name: "Did Not Bid", Category: cat("dnb")},
		{ID: 19, Name: NameTQReceived, Category: cat("bid")},
		{ID: 20, Name: NameTQReplied, Category: cat("bid")},
		{ID: 21, Name: NameRAScheduled, Category: cat("bid")},
		{ID: 23, Name: NameH1Elimination, Category: cat("lost")},
		{ID: 24, Name: "Lost", Category: cat("lost")},
		{ID: 37, Name: NameQualifiedNoTQReceived, Category: cat("bid")},
		{ID: 38, Name: NameDisqualifiedNoTQReceived, Category: cat("lost")},
		{ID: 39, Name: NameDisqualifiedTQMissed, Category: cat("lost")},
		{ID: 40, Name: NameTQRepliedQualified, Category: cat("bid")},
	}
}

func TestLoadResolvesCodes(t *testing.T) {
	c, err := Load(context.Background(), &staticLister{statuses: fullCatalogRows()})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	codes := c.Codes()
	if codes.RAScheduled != 21 {
		t.Errorf("RAScheduled = %d, want 21", codes.RAScheduled)
	}
	if codes.H1Elimination != 23 {
		t.Errorf("H1Elimination = %d, want 23", codes.H1Elimination)
	}
	if codes.TQReceived != 19 || codes.TQReplied != 20 {
		t.Errorf("TQ codes = %d/%d, want 19/20", codes.TQReceived, codes.TQReplied)
	}
	if codes.DisqualifiedTQMissed != 39 || codes.QualifiedNoTQReceived != 37 {
		t.Errorf("qualification codes = %d/%d, want 39/37", codes.DisqualifiedTQMissed, codes.QualifiedNoTQReceived)
	}
	if codes.DisqualifiedNoTQReceived != 38 || codes.TQRepliedQualified != 40 {
		t.Errorf("qualification codes = %d/%d, want 38/40", codes.DisqualifiedNoTQReceived, codes.TQRepliedQualified)
	}
}

func TestLoadFailsOnMissingStatus(t *testing.T) {
	rows := fullCatalogRows()
	// drop RA Scheduled
	filtered := rows[:0]
	for _, s := range rows {
		if s.Name != NameRAScheduled {
			filtered = append(filtered, s)
		}
	}

	if _, err := Load(context.Background(), &staticLister{statuses: filtered}); err == nil {
		t.Fatal("expected error for missing status, got nil")
	}
}

func TestIDsForCategories(t *testing.T) {
	c, err := Load(context.Background(), &staticLister{statuses: fullCatalogRows()})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	tests := []struct {
		name       string
		categories []string
		want       map[int64]bool
	}{
		{"dnb only", []string{"dnb"}, map[int64]bool{15: true}},
		{"dnb and lost", []string{"dnb", "lost"}, map[int64]bool{15: true, 23: true, 24: true, 38: true, 39: true}},
		{"unknown category", []string{"archived"}, map[int64]bool{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.IDsForCategories(tt.categories)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d ids, want %d: %v", len(got), len(tt.want), got)
			}
			for _, id := range got {
				if !tt.want[id] {
					t.Errorf("unexpected id %d", id)
				}
			}
		})
	}
}
