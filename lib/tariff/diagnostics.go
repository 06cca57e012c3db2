package tariff

import "fmt"

// Diagnostic records one best-effort step that degraded: a card that
// didn't parse, an overlay that never appeared, a detail page that
// failed to load. The run still succeeds; the list is surfaced next
// to the record count so a zero-record "completed" run can be told
// apart from a healthy one.
type Diagnostic struct {
	Stage  string `json:"stage"`
	Detail string `json:"detail"`
}

type Diagnostics struct {
	entries []Diagnostic
}

func (d *Diagnostics) Add(stage, format string, args ...any) {
	d.entries = append(d.entries, Diagnostic{
		Stage:  stage,
		Detail: fmt.Sprintf(format, args...),
	})
}

func (d *Diagnostics) Entries() []Diagnostic {
	return d.entries
}
