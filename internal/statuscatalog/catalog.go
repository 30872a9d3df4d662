package statuscatalog

import (
	"context"
	"fmt"
)

// Catalog status names the engine resolves at startup. A deployment whose
// seed data lacks any of these cannot run the workflow engine, so Load fails
// fast instead of deferring the error to the first transition.
const (
	NameRAScheduled              = "RA Scheduled"
	NameH1Elimination            = "H1 Elimination"
	NameTQReceived               = "TQ Received"
	NameTQReplied                = "TQ Replied"
	NameDisqualifiedTQMissed     = "Disqualified, TQ Missed"
	NameQualifiedNoTQReceived    = "Qualified, No TQ Received"
	NameDisqualifiedNoTQReceived = "Disqualified, No TQ Received"
	NameTQRepliedQualified       = "TQ Replied, Qualified"
)

// Codes holds the resolved ids of the statuses the engine assigns directly.
type Codes struct {
	RAScheduled              int64
	H1Elimination            int64
	TQReceived               int64
	TQReplied                int64
	DisqualifiedTQMissed     int64
	QualifiedNoTQReceived    int64
	DisqualifiedNoTQReceived int64
	TQRepliedQualified       int64
}

// Lister provides the catalog rows. Satisfied by *Repository.
type Lister interface {
	ListAll(ctx context.Context) ([]Status, error)
}

// Catalog is the in-memory status catalog, loaded once at startup.
type Catalog struct {
	byID       map[int64]Status
	byName     map[string]int64
	byCategory map[string][]int64
	codes      Codes
}

// Load reads the full catalog and resolves the engine status codes,
// returning an error naming the first missing status.
func Load(ctx context.Context, lister Lister) (*Catalog, error) {
	statuses, err := lister.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	c := &Catalog{
		byID:       make(map[int64]Status, len(statuses)),
		byName:     make(map[string]int64, len(statuses)),
		byCategory: make(map[string][]int64),
	}
	for _, s := range statuses {
		c.byID[s.ID] = s
		c.byName[s.Name] = s.ID
		if s.Category != nil {
			c.byCategory[*s.Category] = append(c.byCategory[*s.Category], s.ID)
		}
	}

	resolve := func(name string, dst *int64) error {
		id, ok := c.byName[name]
		if !ok {
			return fmt.Errorf("status catalog missing %q", name)
		}
		*dst = id
		return nil
	}

	for _, entry := range []struct {
		name string
		dst  *int64
	}{
		{NameRAScheduled, &c.codes.RAScheduled},
		{NameH1Elimination, &c.codes.H1Elimination},
		{NameTQReceived, &c.codes.TQReceived},
		{NameTQReplied, &c.codes.TQReplied},
		{NameDisqualifiedTQMissed, &c.codes.DisqualifiedTQMissed},
		{NameQualifiedNoTQReceived, &c.codes.QualifiedNoTQReceived},
		{NameDisqualifiedNoTQReceived, &c.codes.DisqualifiedNoTQReceived},
		{NameTQRepliedQualified, &c.codes.TQRepliedQualified},
	} {
		if err := resolve(entry.name, entry.dst); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Codes returns the resolved engine status codes.
func (c *Catalog) Codes() Codes {
	return c.codes
}

// Name returns the display name for a status id.
func (c *Catalog) Name(id int64) (string, bool) {
	s, ok := c.byID[id]
	return s.Name, ok
}

// Exists reports whether a status id is present in the catalog.
func (c *Catalog) Exists(id int64) bool {
	_, ok := c.byID[id]
	return ok
}

// IDsForCategory returns the status ids carrying the given category.
func (c *Catalog) IDsForCategory(category string) []int64 {
	return c.byCategory[category]
}

// IDsForCategories returns the union of status ids for the given categories.
func (c *Catalog) IDsForCategories(categories []string) []int64 {
	var ids []int64
	for _, cat := range categories {
		ids = append(ids, c.byCategory[cat]...)
	}
	return ids
}
