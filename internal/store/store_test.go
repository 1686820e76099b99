package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DK01git/JobAutomation/internal/model"
	"github.com/DK01git/JobAutomation/internal/store"
)

func job(id, title, company string) model.JobPosting {
	return model.JobPosting{ID: id, Title: title, Company: company, Status: model.StatusDiscovered}
}

// ── DedupKey ───────────────────────────────────────────────────────────────

func TestDedupKey_NormalizesCaseAndWhitespace(t *testing.T) {
	cases := []struct {
		title, company string
	}{
		{"Data Engineer", "Acme"},
		{"data engineer", "acme"},
		{"  Data   Engineer ", " ACME "},
		{"DATA\tENGINEER", "Acme"},
	}
	want := store.DedupKey("Data Engineer", "Acme")
	for _, c := range cases {
		if got := store.DedupKey(c.title, c.company); got != want {
			t.Errorf("DedupKey(%q, %q) = %q, want %q", c.title, c.company, got, want)
		}
	}
}

func TestDedupKey_DistinctCompanies(t *testing.T) {
	a := store.DedupKey("Data Engineer", "Acme")
	b := store.DedupKey("Data Engineer", "Initech")
	assert.NotEqual(t, a, b)
}

// ── Merge ──────────────────────────────────────────────────────────────────

func TestMerge_DropsRepeatDiscoveries(t *testing.T) {
	m := store.NewMemory()
	require.Equal(t, 1, m.Merge([]model.JobPosting{job("a", "Data Engineer", "Acme")}))

	// same identity, different casing and id: dropped, not merged
	added := m.Merge([]model.JobPosting{job("b", "data ENGINEER", "ACME")})
	assert.Equal(t, 0, added)
	require.Equal(t, 1, m.Len())
	got, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, "Data Engineer", got.Title)
}

func TestMerge_DedupsWithinBatch(t *testing.T) {
	m := store.NewMemory()
	added := m.Merge([]model.JobPosting{
		job("a", "Data Engineer", "Acme"),
		job("b", " data  engineer", "acme"),
		job("c", "Platform Engineer", "Acme"),
	})
	assert.Equal(t, 2, added)
	assert.Equal(t, 2, m.Len())
}

func TestMerge_PrependsSurvivorsNewestFirst(t *testing.T) {
	m := store.NewMemory()
	m.Merge([]model.JobPosting{job("old", "Old Role", "Former Co")})
	m.Merge([]model.JobPosting{
		job("n1", "Role One", "Acme"),
		job("n2", "Role Two", "Initech"),
	})

	list := m.List()
	require.Len(t, list, 3)
	assert.Equal(t, "n1", list[0].ID) // batch order preserved at the front
	assert.Equal(t, "n2", list[1].ID)
	assert.Equal(t, "old", list[2].ID)
}

func TestMerge_Idempotent(t *testing.T) {
	m := store.NewMemory()
	batch := []model.JobPosting{
		job("a", "Data Engineer", "Acme"),
		job("b", "Platform Engineer", "Initech"),
	}
	require.Equal(t, 2, m.Merge(batch))
	assert.Equal(t, 0, m.Merge(batch))
	assert.Equal(t, 2, m.Len())
}

func TestMerge_EmptyBatch(t *testing.T) {
	m := store.NewMemory()
	assert.Equal(t, 0, m.Merge(nil))
	assert.Equal(t, 0, m.Len())
}

// ── Update / Remove ────────────────────────────────────────────────────────

func TestUpdate_MutatesInPlace(t *testing.T) {
	m := store.NewMemory()
	m.Merge([]model.JobPosting{job("a", "Data Engineer", "Acme")})

	got, ok := m.Update("a", func(j *model.JobPosting) { j.Status = model.StatusExtracted })
	require.True(t, ok)
	assert.Equal(t, model.StatusExtracted, got.Status)

	stored, _ := m.Get("a")
	assert.Equal(t, model.StatusExtracted, stored.Status)
}

func TestUpdate_UnknownID(t *testing.T) {
	m := store.NewMemory()
	_, ok := m.Update("nope", func(j *model.JobPosting) {})
	assert.False(t, ok)
}

func TestRemove_FreesIdentityForReuse(t *testing.T) {
	m := store.NewMemory()
	m.Merge([]model.JobPosting{job("a", "Data Engineer", "Acme")})
	require.True(t, m.Remove("a"))
	assert.False(t, m.Remove("a"))

	// the identity is free again after removal
	assert.Equal(t, 1, m.Merge([]model.JobPosting{job("b", "Data Engineer", "Acme")}))
}

func TestList_ReturnsCopy(t *testing.T) {
	m := store.NewMemory()
	m.Merge([]model.JobPosting{job("a", "Data Engineer", "Acme")})

	list := m.List()
	list[0].Title = "mutated"
	stored, _ := m.Get("a")
	assert.Equal(t, "Data Engineer", stored.Title)
}
