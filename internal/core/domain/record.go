package domain

import "sort"

// DefaultDomainIdentifier groups items pushed by this application in the index.
const DefaultDomainIdentifier = "item"

// Record is a source record. The record source is the source of truth;
// the sync client only reads records.
type Record struct {
	// ID is the unique, stable identifier for the record.
	ID string

	// Title is shown as the search result title.
	Title string

	// Description is shown beneath the title.
	Description string

	// Keywords are extra search terms. The title is always a keyword.
	Keywords []string
}

// IndexItem is the shape the search index expects.
// Items are built fresh for every batch and never stored by the sync client.
type IndexItem struct {
	// UniqueIdentifier is the record ID. Adding an item with an existing
	// identifier replaces it.
	UniqueIdentifier string

	// DomainIdentifier groups related items.
	DomainIdentifier string

	// Title is the display title.
	Title string

	// Keywords is a deduplicated, sorted set of search terms.
	Keywords []string

	// Description is the display description.
	Description string
}

// NewIndexItem projects a record into an index item.
// An empty domainID falls back to DefaultDomainIdentifier.
func NewIndexItem(r Record, domainID string) IndexItem {
	if domainID == "" {
		domainID = DefaultDomainIdentifier
	}
	return IndexItem{
		UniqueIdentifier: r.ID,
		DomainIdentifier: domainID,
		Title:            r.Title,
		Keywords:         keywordSet(r.Title, r.Keywords),
		Description:      r.Description,
	}
}

// NewIndexItems projects every record, preserving order.
func NewIndexItems(records []Record, domainID string) []IndexItem {
	items := make([]IndexItem, 0, len(records))
	for i := range records {
		items = append(items, NewIndexItem(records[i], domainID))
	}
	return items
}

func keywordSet(title string, extra []string) []string {
	seen := make(map[string]struct{}, len(extra)+1)
	out := make([]string, 0, len(extra)+1)
	add := func(k string) {
		if k == "" {
			return
		}
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	add(title)
	for _, k := range extra {
		add(k)
	}
	sort.Strings(out)
	return out
}

// FilterRecords selects the records whose ID is in ids.
// A nil or empty ids selects every record. IDs with no matching record are
// ignored, so the result may be empty. Source order is preserved.
func FilterRecords(records []Record, ids []string) []Record {
	if len(ids) == 0 {
		out := make([]Record, len(records))
		copy(out, records)
		return out
	}

	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	var out []Record
	for i := range records {
		if _, ok := wanted[records[i].ID]; ok {
			out = append(out, records[i])
		}
	}
	return out
}

// SplitItems breaks items into chunks of at most limit items.
// An empty input yields a single empty chunk so that an empty add-set still
// maps to exactly one batch. A non-positive limit disables splitting.
func SplitItems(items []IndexItem, limit int) [][]IndexItem {
	if limit <= 0 || len(items) <= limit {
		return [][]IndexItem{items}
	}

	chunks := make([][]IndexItem, 0, (len(items)+limit-1)/limit)
	for start := 0; start < len(items); start += limit {
		end := start + limit
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}
