package mcpserver

// ScoringRubricContract describes the content quality rubric that
// score_page results are measured against.
const ScoringRubricContract = `# Content Scoring Rubric

Every document is scored against seven weighted criteria. Weights sum to
100, so the overall score is a percentage.

## Criteria

| Criterion | Max | Passing rule |
|---|---|---|
| Word Count | 20 | Full credit at 500+ words (code included); scaled linearly below; under 100 words is a CRITICAL stub |
| Version Currency | 20 | No outdated product/OS/runtime versions outside upgrade context; each hit costs 4 points |
| Cross-linking Density | 15 | 25+ internal links for hub pages, 4+ for leaf pages; a leaf with zero links is a CRITICAL orphan |
| URL Structure | 10 | Source path resolves through the ledger to a hierarchical wiki page (contains /) |
| Structured Data | 10 | JSON-LD block present (half credit for a bare schema.org reference); non-blocking, injected post-upload |
| Code Examples | 10 | At least one code block (syntaxhighlight/pre for wiki, fenced or indented for markdown) |
| Categories | 15 | Wiki: at least one [[Category:...]] tag. Markdown: 3+ front matter keywords, scaled below |

## Classification

- **Stub**: word count below 100. Needs substantive content before anything
  else.
- **Hub**: more than 15 internal links, an index-marker filename (index,
  _index, introduction), or a ledger target with 3+ child pages. Hubs are
  held to the 25-link threshold; leaves to 4.

## Severities

- CRITICAL: blocks publication quality (stubs, outdated versions, orphans).
- WARNING: should be fixed before sign-off.
- INFO: advisory; no action required.

## Fixes

score_page returns suggested fixes ranked by point gap, largest first.
Apply the top fix for the fastest score improvement.

## Version currency exemptions

Lines discussing upgrades or deprecations are exempt from version checks
when they carry phrases like "upgrading from", "migrating from", "legacy",
"deprecated", "previously", "older version", "no longer supported", or
"end-of-life".
`
