package fwmsg

// PartialResult accumulates a per-id success/failure outcome for the
// "partial failure" convention spec.md §6 requires of every multi-id
// handler (CLK-INF, CONN-INF, EXT-*, UAV-INF, DEV-INF): some ids may
// succeed while others fail, and the response must say which is which.
type PartialResult struct {
	Status  map[string]any
	Failure []string
	Reasons map[string]string
}

// NewPartialResult returns an empty PartialResult ready to accumulate.
func NewPartialResult() *PartialResult {
	return &PartialResult{
		Status:  make(map[string]any),
		Reasons: make(map[string]string),
	}
}

// Succeed records a successful outcome for id.
func (p *PartialResult) Succeed(id string, value any) {
	p.Status[id] = value
}

// Fail records a failed outcome for id with a human-readable reason.
func (p *PartialResult) Fail(id, reason string) {
	p.Failure = append(p.Failure, id)
	p.Reasons[id] = reason
}

// Body renders the result as a message body of the given type, with
// "status"/"failure"/"reasons" populated per spec.md §6.
func (p *PartialResult) Body(msgType string) Body {
	return Body{
		"type":    msgType,
		"status":  p.Status,
		"failure": p.Failure,
		"reasons": p.Reasons,
	}
}
