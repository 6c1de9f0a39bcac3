package ledger

import (
	"strings"
	"testing"
)

func sampleIndex(t *testing.T) (*Ledger, *LinkIndex) {
	t.Helper()
	l := sampleLedger(t)
	return l, NewLinkIndex(l, nil)
}

func TestNewLinkIndex_KeyVariants(t *testing.T) {
	_, ix := sampleIndex(t)

	cases := []struct {
		candidate string
		want      string
	}{
		{"getting-started/docker-installation", "Getting_Started/Docker_Installation"},
		{"getting-started/docker-installation.md", "Getting_Started/Docker_Installation"},
		{"docker-installation", "Getting_Started/Docker_Installation"},
		{"docs/getting-started/docker-installation", "Getting_Started/Docker_Installation"},
		{"/getting-started/docker-installation", "Getting_Started/Docker_Installation"},
		{"GETTING-STARTED/DOCKER-INSTALLATION", "Getting_Started/Docker_Installation"},
		{"df-docs/df-docs/docs/security/api-keys.md", "Security/API_Keys"},
	}
	for _, tc := range cases {
		got, ok := ix.Resolve(tc.candidate)
		if !ok {
			t.Errorf("Resolve(%q) not found", tc.candidate)
			continue
		}
		if got != tc.want {
			t.Errorf("Resolve(%q) = %q, want %q", tc.candidate, got, tc.want)
		}
	}
}

func TestNewLinkIndex_IndexStemsExcluded(t *testing.T) {
	_, ix := sampleIndex(t)
	// index.md rows register their full path but never the bare stem.
	if _, ok := ix.Resolve("getting-started/index"); !ok {
		t.Errorf("full path for index.md should resolve")
	}
	if got, ok := ix.Resolve("some-other-dir/index"); ok {
		t.Errorf("bare index stem should not resolve, got %q", got)
	}
	if got, ok := ix.Resolve("elsewhere/_index"); ok {
		t.Errorf("bare _index stem should not resolve, got %q", got)
	}
}

func TestNewLinkIndex_StemFirstWriterWins(t *testing.T) {
	l := New([]Record{
		{SourcePath: "a/setup.md", TargetPage: "A/Setup"},
		{SourcePath: "b/setup.md", TargetPage: "B/Setup"},
	})
	ix := NewLinkIndex(l, nil)
	got, ok := ix.Resolve("setup")
	if !ok || got != "A/Setup" {
		t.Errorf("Resolve(setup) = %q, %v, want A/Setup", got, ok)
	}
	// Full paths still resolve individually.
	if got, _ := ix.Resolve("b/setup"); got != "B/Setup" {
		t.Errorf("Resolve(b/setup) = %q, want B/Setup", got)
	}
}

func TestResolve_AbsolutePathStripsRoot(t *testing.T) {
	_, ix := sampleIndex(t)
	abs := "/home/ci/checkout/df-docs/df-docs/docs/getting-started/docker-installation.md"
	got, ok := ix.Resolve(abs)
	if !ok || got != "Getting_Started/Docker_Installation" {
		t.Errorf("Resolve(abs) = %q, %v", got, ok)
	}
}

func TestFallbackTitle(t *testing.T) {
	cases := []struct{ in, want string }{
		{"quick-start", "Quick_Start"},
		{"guides/quick-start", "Guides/Quick_Start"},
		{"api_docs/rest-api", "Api_Docs/Rest_Api"},
		{"/leading/slash/", "Leading/Slash"},
		{"UPPER-case", "Upper_Case"},
	}
	for _, tc := range cases {
		if got := FallbackTitle(tc.in); got != tc.want {
			t.Errorf("FallbackTitle(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestResolveOrFallback_NeverEmpty(t *testing.T) {
	ix := NewLinkIndex(Empty(), nil)
	got, resolved := ix.ResolveOrFallback("guides/quick-start")
	if resolved {
		t.Fatalf("empty index should not resolve")
	}
	if got != "Guides/Quick_Start" {
		t.Errorf("fallback = %q, want Guides/Quick_Start", got)
	}
}

func TestIsHub(t *testing.T) {
	l, ix := sampleIndex(t)

	if !IsHub("docs/anything.md", 20, ix, l) {
		t.Errorf("20 links should classify as hub regardless of name")
	}
	if !IsHub("topics/index.md", 0, ix, l) {
		t.Errorf("index.md should classify as hub with zero links")
	}
	if !IsHub("a/_index.md", 0, nil, nil) || !IsHub("b/introduction.md", 0, nil, nil) {
		t.Errorf("index markers should classify as hubs without ledger context")
	}
	if IsHub("security/api-keys.md", 3, ix, l) {
		t.Errorf("leaf page misclassified as hub")
	}
}

func TestIsHub_ChildPrefixRule(t *testing.T) {
	l := New([]Record{
		{SourcePath: "hub/overview.md", TargetPage: "Hub"},
		{SourcePath: "hub/a.md", TargetPage: "Hub/A"},
		{SourcePath: "hub/b.md", TargetPage: "Hub/B"},
		{SourcePath: "hub/c.md", TargetPage: "Hub/C"},
	})
	ix := NewLinkIndex(l, nil)
	if !IsHub("hub/overview.md", 1, ix, l) {
		t.Errorf("page with 3 ledgered children should be a hub")
	}
}

func TestDraftFilter_SuffixMatch(t *testing.T) {
	l, ix := sampleIndex(t)
	f := NewDraftFilter(l, ix)

	hits := []string{
		"/abs/checkout/df-docs/df-docs/docs/drafts/empty-page.md",
		"converted/drafts/empty-page.md",
	}
	for _, p := range hits {
		if !f.Match(p) {
			t.Errorf("Match(%q) = false, want true", p)
		}
	}
	if f.Match("docs/drafts/full-page.md") {
		t.Errorf("non-draft path matched")
	}
}

func TestKey_Normalization(t *testing.T) {
	_, ix := sampleIndex(t)
	if got := ix.Key("/Docs/Page.MD"); strings.Contains(got, "MD") {
		t.Errorf("Key should lowercase, got %q", got)
	}
	if got := ix.Key("df-docs/df-docs/docs/security/api-keys.md"); got != "security/api-keys" {
		t.Errorf("Key = %q, want security/api-keys", got)
	}
}
