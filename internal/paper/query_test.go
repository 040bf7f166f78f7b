package paper

import (
	"net/url"
	"testing"
)

func TestSearchQuery(t *testing.T) {
	tests := []struct {
		category string
		want     string
	}{
		{"cs", "cat:cs.*"},
		{"q-bio", "cat:q-bio.*"},
		{"cs.AI", "cat:cs.AI"},
	}
	for _, tt := range tests {
		if got := SearchQuery(tt.category); got != tt.want {
			t.Errorf("SearchQuery(%q) = %q, want %q", tt.category, got, tt.want)
		}
	}
}

func TestBuildFeedURL(t *testing.T) {
	raw := BuildFeedURL("https://export.arxiv.org/api/query", "math", 50)

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("invalid URL %q: %v", raw, err)
	}
	q := u.Query()
	if q.Get("search_query") != "cat:math.*" {
		t.Errorf("search_query = %q", q.Get("search_query"))
	}
	if q.Get("sortBy") != "submittedDate" {
		t.Errorf("sortBy = %q", q.Get("sortBy"))
	}
	if q.Get("sortOrder") != "descending" {
		t.Errorf("sortOrder = %q", q.Get("sortOrder"))
	}
	if q.Get("max_results") != "50" {
		t.Errorf("max_results = %q", q.Get("max_results"))
	}
	if u.Host != "export.arxiv.org" || u.Path != "/api/query" {
		t.Errorf("base = %s%s", u.Host, u.Path)
	}
}

func TestRelayURL(t *testing.T) {
	feed := "https://export.arxiv.org/api/query?search_query=cat%3Acs.%2A&max_results=50"

	if got := RelayURL("", feed); got != feed {
		t.Errorf("direct = %q, want %q", got, feed)
	}

	got := RelayURL("https://relay.example/get?url=", feed)
	want := "https://relay.example/get?url=" + url.QueryEscape(feed)
	if got != want {
		t.Errorf("query relay = %q, want %q", got, want)
	}

	if got := RelayURL("https://relay.example/", feed); got != "https://relay.example/"+feed {
		t.Errorf("raw relay = %q", got)
	}
}

func TestCategories(t *testing.T) {
	cats := Categories()
	if len(cats) != 5 {
		t.Fatalf("len(Categories()) = %d, want 5", len(cats))
	}
	cats[0].Name = "changed"
	if Categories()[0].Name != "Computer Science" {
		t.Error("Categories should return a copy")
	}
	if CategoryName("q-bio") != "Quantitative Biology" {
		t.Errorf("CategoryName(q-bio) = %q", CategoryName("q-bio"))
	}
	if CategoryName("hep-th") != "hep-th" {
		t.Errorf("CategoryName(hep-th) = %q", CategoryName("hep-th"))
	}
}
