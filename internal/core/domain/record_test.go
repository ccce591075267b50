package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fiveRecords() []Record {
	records := make([]Record, 0, 5)
	for i := 1; i <= 5; i++ {
		records = append(records, Record{
			ID:          fmt.Sprintf("%d", i),
			Title:       fmt.Sprintf("%d", i),
			Description: fmt.Sprintf("this is %d", i),
		})
	}
	return records
}

func TestNewIndexItem(t *testing.T) {
	r := Record{ID: "1", Title: "Alpha", Description: "first", Keywords: []string{"beta", "Alpha", "", "beta"}}

	item := NewIndexItem(r, "notes")

	assert.Equal(t, "1", item.UniqueIdentifier)
	assert.Equal(t, "notes", item.DomainIdentifier)
	assert.Equal(t, "Alpha", item.Title)
	assert.Equal(t, "first", item.Description)
	assert.Equal(t, []string{"Alpha", "beta"}, item.Keywords)
}

func TestNewIndexItem_DefaultDomain(t *testing.T) {
	item := NewIndexItem(Record{ID: "1", Title: "1"}, "")

	assert.Equal(t, DefaultDomainIdentifier, item.DomainIdentifier)
	assert.Equal(t, []string{"1"}, item.Keywords)
}

func TestNewIndexItem_EmptyTitle(t *testing.T) {
	item := NewIndexItem(Record{ID: "1"}, "")

	assert.Empty(t, item.Keywords)
	assert.NotNil(t, item.Keywords)
}

func TestNewIndexItems_PreservesOrder(t *testing.T) {
	items := NewIndexItems(fiveRecords(), "")

	require.Len(t, items, 5)
	for i, item := range items {
		assert.Equal(t, fmt.Sprintf("%d", i+1), item.UniqueIdentifier)
	}
}

func TestFilterRecords(t *testing.T) {
	records := fiveRecords()

	tests := []struct {
		name     string
		ids      []string
		expected []string
	}{
		{"nil selects all", nil, []string{"1", "2", "3", "4", "5"}},
		{"empty selects all", []string{}, []string{"1", "2", "3", "4", "5"}},
		{"subset", []string{"2", "5"}, []string{"2", "5"}},
		{"order follows source", []string{"5", "2"}, []string{"2", "5"}},
		{"unknown ids dropped", []string{"2", "99"}, []string{"2"}},
		{"no matches", []string{"98", "99"}, nil},
		{"duplicates", []string{"3", "3"}, []string{"3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterRecords(records, tt.ids)
			var ids []string
			for _, r := range got {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.expected, ids)
		})
	}
}

func TestFilterRecords_DoesNotAliasInput(t *testing.T) {
	records := fiveRecords()
	got := FilterRecords(records, nil)
	got[0].Title = "changed"

	assert.Equal(t, "1", records[0].Title)
}

func TestSplitItems(t *testing.T) {
	items := NewIndexItems(fiveRecords(), "")

	tests := []struct {
		name  string
		items []IndexItem
		limit int
		sizes []int
	}{
		{"under limit", items, 10, []int{5}},
		{"exact limit", items, 5, []int{5}},
		{"uneven", items, 2, []int{2, 2, 1}},
		{"one per chunk", items, 1, []int{1, 1, 1, 1, 1}},
		{"no limit", items, 0, []int{5}},
		{"empty input", nil, 2, []int{0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := SplitItems(tt.items, tt.limit)
			var sizes []int
			for _, c := range chunks {
				sizes = append(sizes, len(c))
			}
			assert.Equal(t, tt.sizes, sizes)
		})
	}
}
