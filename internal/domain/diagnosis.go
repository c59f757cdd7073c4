package domain

import "time"

// Severity grades a diagnostic finding.
type Severity string

const (
	SeverityOK   Severity = "ok"
	SeverityWarn Severity = "warn"
	SeverityFail Severity = "fail"
)

// Finding is one interpretive diagnostic line.
type Finding struct {
	Check    string   `json:"check"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Diagnosis collects findings about one resource, in the order they were checked.
type Diagnosis struct {
	Resource  string    `json:"resource"`
	Name      string    `json:"name"`
	CheckedAt time.Time `json:"checked_at"`
	Findings  []Finding `json:"findings"`
}

// NewDiagnosis starts an empty diagnosis for resource/name.
func NewDiagnosis(resource, name string) *Diagnosis {
	return &Diagnosis{
		Resource:  resource,
		Name:      name,
		CheckedAt: time.Now().UTC(),
		Findings:  []Finding{},
	}
}

// Add appends a finding.
func (d *Diagnosis) Add(check string, severity Severity, message string) {
	d.Findings = append(d.Findings, Finding{Check: check, Severity: severity, Message: message})
}

// Worst returns the most severe finding level, SeverityOK when there are none.
func (d *Diagnosis) Worst() Severity {
	worst := SeverityOK
	for _, f := range d.Findings {
		switch {
		case f.Severity == SeverityFail:
			return SeverityFail
		case f.Severity == SeverityWarn:
			worst = SeverityWarn
		}
	}
	return worst
}

// Healthy reports whether no finding failed.
func (d *Diagnosis) Healthy() bool {
	return d.Worst() != SeverityFail
}

// Reachability is the outcome of probing the service's index listing.
type Reachability struct {
	Reachable  bool          `json:"reachable"`
	StatusCode int           `json:"status_code,omitempty"`
	Latency    time.Duration `json:"latency"`
	Error      string        `json:"error,omitempty"`
}
