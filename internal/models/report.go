// Package models defines the wire-level data structures shared between the
// analysis backend, the web layer and the live-call pipeline.
package models

// RiskLevel is the coarse classification assigned by the analysis backend.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// RedFlag is a single piece of evidence the backend flagged.
type RedFlag struct {
	Type     string    `json:"type"`
	Severity RiskLevel `json:"severity"`
	Evidence string    `json:"evidence"`
}

// URLFlags carries the URL heuristics returned for link checks.
type URLFlags struct {
	IsShortened    bool `json:"is_shortened"`
	HasUncommonTLD bool `json:"has_uncommon_tld"`
	HasSubdomains  bool `json:"has_subdomains"`
	HasIPAddress   bool `json:"has_ip_address"`
	IsSuspicious   bool `json:"is_suspicious"`
}

// RiskReport is the analysis backend's report for any check type.
// Media-specific fields are empty for plain text checks.
type RiskReport struct {
	RiskScore          int       `json:"risk_score"`
	RiskLevel          RiskLevel `json:"risk_level"`
	Summary            string    `json:"summary"`
	RedFlags           []RedFlag `json:"red_flags"`
	RecommendedActions []string  `json:"recommended_actions"`
	SafeReply          string    `json:"safe_reply,omitempty"`

	// Long-running jobs report IN_PROGRESS until the backend completes.
	Status string `json:"status,omitempty"`

	// Link checks.
	URLFlags      *URLFlags `json:"url_flags,omitempty"`
	URLRiskScore  int       `json:"url_risk_score,omitempty"`
	NormalizedURL string    `json:"normalized_url,omitempty"`
	Host          string    `json:"host,omitempty"`
	Scheme        string    `json:"scheme,omitempty"`
	TLD           string    `json:"tld,omitempty"`

	// Image and document checks.
	ExtractedText string `json:"extracted_text,omitempty"`
	TextractMode  string `json:"textract_mode,omitempty"`
	JobID         string `json:"jobId,omitempty"`

	// Audio checks.
	TranscriptText string `json:"transcript_text,omitempty"`
	TranscribeJob  string `json:"transcribe_job,omitempty"`
	LanguageCode   string `json:"language_code,omitempty"`
}

// Pending reports whether the backend is still working on the request.
func (r *RiskReport) Pending() bool {
	return r.Status == "IN_PROGRESS" || r.JobID != "" || r.TranscribeJob != ""
}

// PollToken returns the identifier to resubmit while a job is pending.
func (r *RiskReport) PollToken() string {
	if r.TranscribeJob != "" {
		return r.TranscribeJob
	}
	return r.JobID
}
