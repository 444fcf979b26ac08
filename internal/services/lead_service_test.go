package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/skyreachair/leadfunnel/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDefaultsToNew(t *testing.T) {
	s, _ := newLeadService(t)

	lead := mustCreateLead(t, s, &models.Lead{FirstName: " Ann ", Phone: "5551234567"})
	assert.NotEqual(t, uuid.Nil, lead.ID)
	assert.Equal(t, models.StatusNew, lead.Status)
	assert.Equal(t, "Ann", lead.FirstName)
	assert.Equal(t, models.DefaultLeadSource, lead.Source)
	assert.False(t, lead.CreatedAt.IsZero())

	got, err := s.FindByID(context.Background(), lead.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Ann", got.FirstName)
	assert.Nil(t, got.AssignedTo)
	assert.Empty(t, got.Notes)
}

func TestCreateRejectsMissingFields(t *testing.T) {
	s, db := newLeadService(t)

	_, err := s.Create(context.Background(), &models.Lead{FirstName: "Ann", Email: "nope"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	fields := map[string]string{}
	for _, f := range verr.Fields {
		fields[f.Field] = f.Message
	}
	assert.Contains(t, fields, "phone")
	assert.Contains(t, fields, "email")

	var count int64
	require.NoError(t, db.Model(&models.Lead{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateRejectsUnknownStatus(t *testing.T) {
	s, _ := newLeadService(t)
	_, err := s.Create(context.Background(), &models.Lead{FirstName: "Ann", Phone: "555", Status: "archived"})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestFindByIDNotFound(t *testing.T) {
	s, _ := newLeadService(t)

	_, err := s.FindByID(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrLeadNotFound)

	_, err = s.FindByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrLeadNotFound)
}

func TestListPagination(t *testing.T) {
	s, _ := newLeadService(t)
	base := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	seeded := seedLeads(t, s, 45, base)

	page, err := s.List(context.Background(), LeadFilter{Page: 2, Limit: 20})
	require.NoError(t, err)

	assert.Equal(t, int64(45), page.Total)
	assert.Equal(t, 3, page.Pages)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 20, page.Limit)
	require.Len(t, page.Leads, 20)

	// Newest first: page 2 holds the 21st to 40th newest records.
	for i, l := range page.Leads {
		assert.Equal(t, seeded[44-20-i].ID, l.ID, "position %d", i)
	}

	last, err := s.List(context.Background(), LeadFilter{Page: 3, Limit: 20})
	require.NoError(t, err)
	assert.Len(t, last.Leads, 5)
}

func TestListPagesStableOnTiedTimestamps(t *testing.T) {
	s, _ := newLeadService(t)
	at := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	created := map[uuid.UUID]bool{}
	for i := 0; i < 7; i++ {
		l := mustCreateLead(t, s, &models.Lead{FirstName: fmt.Sprintf("Tie%d", i), Phone: "5551234567", CreatedAt: at})
		created[l.ID] = true
	}

	var seen []uuid.UUID
	for page := 1; page <= 4; page++ {
		got, err := s.List(context.Background(), LeadFilter{Page: page, Limit: 2})
		require.NoError(t, err)
		for _, l := range got.Leads {
			seen = append(seen, l.ID)
		}
	}

	require.Len(t, seen, 7)
	unique := map[uuid.UUID]bool{}
	for i, id := range seen {
		assert.True(t, created[id])
		assert.False(t, unique[id], "lead %s listed twice", id)
		unique[id] = true
		if i > 0 {
			assert.Greater(t, seen[i-1].String(), id.String())
		}
	}
}

func TestListResolvesAssigneeWithoutNotes(t *testing.T) {
	s, db := newLeadService(t)
	ctx := context.Background()
	owner := createUser(t, db, "Owner", "owner@example.com", models.RoleAdmin)
	lead := mustCreateLead(t, s, &models.Lead{FirstName: "Ann", Phone: "5551234567"})
	_, err := s.Assign(ctx, lead.ID.String(), owner.ID.String())
	require.NoError(t, err)
	_, err = s.AppendNote(ctx, lead.ID.String(), "Called back", owner.ID)
	require.NoError(t, err)

	page, err := s.List(ctx, LeadFilter{})
	require.NoError(t, err)
	require.Len(t, page.Leads, 1)
	require.NotNil(t, page.Leads[0].AssignedTo)
	assert.Equal(t, "Owner", page.Leads[0].AssignedTo.Name)
	assert.Empty(t, page.Leads[0].Notes)

	full, err := s.FindByID(ctx, lead.ID.String())
	require.NoError(t, err)
	require.Len(t, full.Notes, 1)
	require.NotNil(t, full.Notes[0].Author)
	assert.Equal(t, "Owner", full.Notes[0].Author.Name)
}

func TestListDefaultsAndCap(t *testing.T) {
	s, _ := newLeadService(t)
	seedLeads(t, s, 3, time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC))

	page, err := s.List(context.Background(), LeadFilter{Page: -1, Limit: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, DefaultPageSize, page.Limit)

	page, err = s.List(context.Background(), LeadFilter{Limit: 5000})
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, page.Limit)
	assert.Equal(t, 1, page.Pages)
}

func TestListEmpty(t *testing.T) {
	s, _ := newLeadService(t)
	page, err := s.List(context.Background(), LeadFilter{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.Zero(t, page.Pages)
	assert.NotNil(t, page.Leads)
}

func TestListSearch(t *testing.T) {
	s, _ := newLeadService(t)
	ctx := context.Background()

	sarah := mustCreateLead(t, s, &models.Lead{FirstName: "Sarah", LastName: "Mitchell", Email: "sarah@example.com", Phone: "555-000-1111"})
	mustCreateLead(t, s, &models.Lead{FirstName: "Dan", LastName: "Brown", Email: "dan@smith.io", Phone: "555-222-3333"})
	mustCreateLead(t, s, &models.Lead{FirstName: "Lee", LastName: "Park", Phone: "(212) 987-6543"})

	cases := []struct {
		search string
		want   int
	}{
		{"mit", 2},
		{"MITCH", 1},
		{"sarah@", 1},
		{"987-65", 1},
		{"brown", 1},
		{"%", 0},
		{"_", 0},
		{"nobody", 0},
	}
	for _, tc := range cases {
		t.Run(tc.search, func(t *testing.T) {
			page, err := s.List(ctx, LeadFilter{Search: tc.search})
			require.NoError(t, err)
			assert.Len(t, page.Leads, tc.want)
			assert.Equal(t, int64(tc.want), page.Total)
		})
	}

	page, err := s.List(ctx, LeadFilter{Search: "mitchell"})
	require.NoError(t, err)
	require.Len(t, page.Leads, 1)
	assert.Equal(t, sarah.ID, page.Leads[0].ID)
}

func TestListStatusFilterAndUnassignedVisible(t *testing.T) {
	s, db := newLeadService(t)
	ctx := context.Background()
	owner := createUser(t, db, "Owner", "owner@example.com", models.RoleAdmin)

	a := mustCreateLead(t, s, &models.Lead{FirstName: "A", Phone: "1"})
	b := mustCreateLead(t, s, &models.Lead{FirstName: "B", Phone: "2"})
	_, err := s.UpdateStatus(ctx, a.ID.String(), "contacted")
	require.NoError(t, err)
	_, err = s.Assign(ctx, b.ID.String(), owner.ID.String())
	require.NoError(t, err)

	page, err := s.List(ctx, LeadFilter{Status: "contacted"})
	require.NoError(t, err)
	require.Len(t, page.Leads, 1)
	assert.Equal(t, a.ID, page.Leads[0].ID)

	page, err = s.List(ctx, LeadFilter{})
	require.NoError(t, err)
	assert.Len(t, page.Leads, 2)

	byID := map[uuid.UUID]models.Lead{}
	for _, l := range page.Leads {
		byID[l.ID] = l
	}
	assert.Nil(t, byID[a.ID].AssignedTo)
	require.NotNil(t, byID[b.ID].AssignedTo)
	assert.Equal(t, "Owner", byID[b.ID].AssignedTo.Name)
}

func TestUpdateStatusAnyToAny(t *testing.T) {
	s, _ := newLeadService(t)
	ctx := context.Background()
	lead := mustCreateLead(t, s, &models.Lead{FirstName: "Ann", Phone: "555"})

	for _, st := range []string{"completed", "new", "cancelled", "scheduled", "contacted"} {
		got, err := s.UpdateStatus(ctx, lead.ID.String(), st)
		require.NoError(t, err)
		assert.Equal(t, models.LeadStatus(st), got.Status)
	}
}

func TestUpdateStatusRejectsUnknownValue(t *testing.T) {
	s, _ := newLeadService(t)
	ctx := context.Background()
	lead := mustCreateLead(t, s, &models.Lead{FirstName: "Ann", Phone: "555"})

	for _, st := range []string{"archived", "", "NEW", "done"} {
		_, err := s.UpdateStatus(ctx, lead.ID.String(), st)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, st)
		assert.Equal(t, "status", verr.Fields[0].Field)
	}

	got, err := s.FindByID(ctx, lead.ID.String())
	require.NoError(t, err)
	assert.Equal(t, models.StatusNew, got.Status)
}

func TestUpdateStatusNotFound(t *testing.T) {
	s, _ := newLeadService(t)
	_, err := s.UpdateStatus(context.Background(), uuid.NewString(), "contacted")
	assert.ErrorIs(t, err, ErrLeadNotFound)
}

func TestAppendNoteKeepsOrder(t *testing.T) {
	s, db := newLeadService(t)
	ctx := context.Background()
	author := createUser(t, db, "Tech One", "tech@example.com", models.RoleTechnician)
	lead := mustCreateLead(t, s, &models.Lead{FirstName: "Ann", Phone: "555"})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.AppendNote(ctx, lead.ID.String(), fmt.Sprintf("other %d", i), author.ID)
			assert.NoError(t, err)
		}(i)
	}

	_, err := s.AppendNote(ctx, lead.ID.String(), "A", author.ID)
	require.NoError(t, err)
	got, err := s.AppendNote(ctx, lead.ID.String(), "  B  ", author.ID)
	require.NoError(t, err)
	wg.Wait()

	got, err = s.FindByID(ctx, lead.ID.String())
	require.NoError(t, err)
	require.Len(t, got.Notes, 10)

	idx := map[string]int{}
	for i, n := range got.Notes {
		idx[n.Text] = i
		require.NotNil(t, n.Author)
		assert.Equal(t, "Tech One", n.Author.Name)
	}
	assert.Less(t, idx["A"], idx["B"])
	for i := 1; i < len(got.Notes); i++ {
		assert.Less(t, got.Notes[i-1].ID, got.Notes[i].ID)
	}
}

func TestAppendNoteValidation(t *testing.T) {
	s, _ := newLeadService(t)
	ctx := context.Background()
	lead := mustCreateLead(t, s, &models.Lead{FirstName: "Ann", Phone: "555"})

	_, err := s.AppendNote(ctx, lead.ID.String(), "   ", uuid.New())
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = s.AppendNote(ctx, uuid.NewString(), "hello", uuid.New())
	assert.ErrorIs(t, err, ErrLeadNotFound)
}

func TestAssign(t *testing.T) {
	s, db := newLeadService(t)
	ctx := context.Background()
	first := createUser(t, db, "First", "first@example.com", models.RoleManager)
	second := createUser(t, db, "Second", "second@example.com", models.RoleTechnician)
	lead := mustCreateLead(t, s, &models.Lead{FirstName: "Ann", Phone: "555"})

	got, err := s.Assign(ctx, lead.ID.String(), first.ID.String())
	require.NoError(t, err)
	require.NotNil(t, got.AssignedTo)
	assert.Equal(t, "first@example.com", got.AssignedTo.Email)

	got, err = s.Assign(ctx, lead.ID.String(), second.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Second", got.AssignedTo.Name)

	_, err = s.Assign(ctx, lead.ID.String(), uuid.NewString())
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = s.Assign(ctx, uuid.NewString(), first.ID.String())
	assert.ErrorIs(t, err, ErrLeadNotFound)

	var verr *ValidationError
	_, err = s.Assign(ctx, lead.ID.String(), "")
	assert.ErrorAs(t, err, &verr)
	_, err = s.Assign(ctx, lead.ID.String(), "abc")
	assert.ErrorAs(t, err, &verr)
}

func TestStats(t *testing.T) {
	s, _ := newLeadService(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 15, 14, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return now })

	mustCreateLead(t, s, &models.Lead{FirstName: "Today", LastName: "New", Phone: "1", CreatedAt: time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)})
	mustCreateLead(t, s, &models.Lead{FirstName: "Early", LastName: "March", Phone: "2", Status: models.StatusContacted, CreatedAt: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)})
	mustCreateLead(t, s, &models.Lead{FirstName: "Last", LastName: "Month", Phone: "3", CreatedAt: time.Date(2026, 2, 20, 10, 0, 0, 0, time.UTC)})
	latest := mustCreateLead(t, s, &models.Lead{FirstName: "Latest", Phone: "4", Status: models.StatusScheduled, CreatedAt: time.Date(2026, 3, 15, 13, 0, 0, 0, time.UTC)})

	stats, recent, err := s.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(4), stats.Total)
	assert.Equal(t, int64(2), stats.New)
	assert.Equal(t, int64(2), stats.Today)
	assert.Equal(t, int64(3), stats.ThisMonth)
	assert.Equal(t, map[string]int64{"new": 2, "contacted": 1, "scheduled": 1}, stats.StatusBreakdown)

	require.Len(t, recent, 4)
	assert.Equal(t, latest.ID, recent[0].ID)
	assert.Equal(t, "Latest", recent[0].FirstName)
	assert.Equal(t, models.StatusScheduled, recent[0].Status)
}

func TestStatsRecentLimitedToFive(t *testing.T) {
	s, _ := newLeadService(t)
	seedLeads(t, s, 8, time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC))

	stats, recent, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(8), stats.Total)
	assert.Len(t, recent, 5)
}

func TestMarkEmailSent(t *testing.T) {
	s, _ := newLeadService(t)
	ctx := context.Background()
	lead := mustCreateLead(t, s, &models.Lead{FirstName: "Ann", Phone: "555"})

	require.NoError(t, s.MarkEmailSent(ctx, lead.ID, "<id@smtp>"))

	got, err := s.FindByID(ctx, lead.ID.String())
	require.NoError(t, err)
	assert.True(t, got.EmailSent)
	assert.Equal(t, "<id@smtp>", got.EmailID)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c\\d`, escapeLike(`c\d`))
}
