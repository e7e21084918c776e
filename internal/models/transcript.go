package models

// TranscriptPartial is the audit event for an interim transcript segment.
type TranscriptPartial struct {
	EventType string `json:"eventType"`
	SessionID string `json:"sessionId"`
	Timestamp int64  `json:"timestamp"`
	Text      string `json:"text"`
}

// TranscriptFinal is the audit event for a confirmed transcript segment.
type TranscriptFinal struct {
	EventType string `json:"eventType"`
	SessionID string `json:"sessionId"`
	Timestamp int64  `json:"timestamp"`
	Text      string `json:"text"`

	// FullText is the accumulated final transcript after this segment
	// was appended.
	FullText string `json:"fullText"`
}

// ReportIssued is the audit event for a completed live-transcript analysis.
type ReportIssued struct {
	EventType    string    `json:"eventType"`
	SessionID    string    `json:"sessionId"`
	Timestamp    int64     `json:"timestamp"`
	AnalyzedText string    `json:"analyzedText"`
	RiskScore    int       `json:"riskScore"`
	RiskLevel    RiskLevel `json:"riskLevel"`
}
