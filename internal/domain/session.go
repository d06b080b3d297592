package domain

import (
	"errors"
	"time"
)

// Errors
var (
	ErrNoLines         = errors.New("session must have at least one line")
	ErrLineOutOfRange  = errors.New("line index out of range")
	ErrLineAlreadyDone = errors.New("line already satisfied")
	ErrSessionComplete = errors.New("session is already complete")
	ErrNothingToMark   = errors.New("no unmarked line remains")
	ErrScanNotResolved = errors.New("barcode did not match any line")
	ErrDuplicateScan   = errors.New("barcode matches a line that is already satisfied")
)

// SessionState represents the state of a scan session
type SessionState string

const (
	SessionActive   SessionState = "active"
	SessionComplete SessionState = "complete"
)

// ScannedMark records the satisfaction of one line.
type ScannedMark struct {
	ScannedAt time.Time `json:"scannedAt"`
	Override  bool      `json:"override"`
	Origin    string    `json:"origin,omitempty"`
}

// ScanOutcome is what a submit or override returns to the operator. Rejections
// carry a reason; accepted scans name the matched line.
type ScanOutcome struct {
	Accepted  bool       `json:"accepted"`
	Reason    string     `json:"reason,omitempty"`
	LineIndex int        `json:"lineIndex"`
	Line      *OrderLine `json:"line,omitempty"`
	Override  bool       `json:"override"`
	Fuzzy     bool       `json:"fuzzy"`
	Completed bool       `json:"completed"`
}

// ScanSession is the aggregate root for one order being picked. It is a live,
// in-memory object: opened when the operator starts picking, discarded on
// cancel, consumed by the completion coordinator when every line is marked.
// There is no persistence and no other terminal state in-process.
type ScanSession struct {
	SessionID string
	OrderID   string
	Lines     []OrderLine
	Marks     map[int]ScannedMark
	Aliases   AliasTable
	OpenedAt  time.Time

	domainEvents []DomainEvent
}

// NewScanSession opens a session over the order's lines. Lines are grouped by
// location code so the operator walks the aisles top to bottom.
func NewScanSession(sessionID, orderID string, lines []OrderLine, aliases AliasTable) (*ScanSession, error) {
	if len(lines) == 0 {
		return nil, ErrNoLines
	}

	now := time.Now()
	s := &ScanSession{
		SessionID: sessionID,
		OrderID:   orderID,
		Lines:     SortLinesByLocation(lines),
		Marks:     make(map[int]ScannedMark, len(lines)),
		Aliases:   aliases,
		OpenedAt:  now,
	}

	s.addDomainEvent(&SessionOpenedEvent{
		SessionID: sessionID,
		OrderID:   orderID,
		LineCount: len(lines),
		OpenedAt:  now,
	})

	return s, nil
}

// State reports Active until every line is marked, then Complete.
func (s *ScanSession) State() SessionState {
	if s.IsComplete() {
		return SessionComplete
	}
	return SessionActive
}

// IsComplete reports whether every line has been marked.
func (s *ScanSession) IsComplete() bool {
	return len(s.Marks) == len(s.Lines)
}

// CurrentLine returns the first unmarked line by list order, or -1 when the
// session is complete. "Current" is deterministic, never "most recently
// touched": operators work top to bottom.
func (s *ScanSession) CurrentLine() (int, *OrderLine) {
	for i := range s.Lines {
		if _, marked := s.Marks[i]; !marked {
			return i, &s.Lines[i]
		}
	}
	return -1, nil
}

// SubmitScan resolves a raw scanned string against the session's lines and, on
// a fresh match, marks the line. Rejections (not found, already satisfied) do
// not mutate state. The raw string is run through the composite payload parser
// first, so QR payloads and plain barcodes take the same path.
func (s *ScanSession) SubmitScan(raw, origin string) (ScanOutcome, error) {
	if s.IsComplete() {
		return ScanOutcome{LineIndex: -1, Reason: ErrSessionComplete.Error()}, ErrSessionComplete
	}

	payload := ParseComposite(raw)
	res := ResolveBarcode(payload.SKU, s.Lines, s.Aliases, s.scannedSet())

	switch res.Status {
	case ResolutionNotFound:
		return ScanOutcome{LineIndex: -1, Reason: "no line matches " + res.Raw}, ErrScanNotResolved
	case ResolutionAlreadyScanned:
		return ScanOutcome{
			LineIndex: res.LineIndex,
			Line:      &s.Lines[res.LineIndex],
			Reason:    "line already satisfied",
		}, ErrDuplicateScan
	}

	if err := s.mark(res.LineIndex, ScannedMark{ScannedAt: time.Now(), Origin: origin}); err != nil {
		// The resolver already skipped marked lines; a failure here means a
		// duplicate submit raced in between. Second line of defense.
		return ScanOutcome{LineIndex: res.LineIndex, Reason: "line already satisfied"}, ErrDuplicateScan
	}

	s.emitLineMarked(res.LineIndex, false, res.Fuzzy, origin)
	return s.acceptedOutcome(res.LineIndex, false, res.Fuzzy), nil
}

// OverrideCurrent marks the first unmarked line without a matching scan, the
// escape hatch for damaged or missing barcodes. The outcome has the same shape
// as a successful scan, tagged as an override for the audit trail.
func (s *ScanSession) OverrideCurrent(origin string) (ScanOutcome, error) {
	idx, _ := s.CurrentLine()
	if idx < 0 {
		return ScanOutcome{LineIndex: -1, Reason: ErrNothingToMark.Error()}, ErrNothingToMark
	}

	if err := s.mark(idx, ScannedMark{ScannedAt: time.Now(), Override: true, Origin: origin}); err != nil {
		return ScanOutcome{LineIndex: idx, Reason: "line already satisfied"}, ErrDuplicateScan
	}

	s.emitLineMarked(idx, true, false, origin)
	return s.acceptedOutcome(idx, true, false), nil
}

// RecordPickCommitted notes that the completed session's lines were written
// to the stores. Called by the completion path, never by scanning.
func (s *ScanSession) RecordPickCommitted(at time.Time) {
	s.addDomainEvent(&PickCommittedEvent{
		SessionID:   s.SessionID,
		OrderID:     s.OrderID,
		LineCount:   len(s.Lines),
		CommittedAt: at,
	})
}

// Overrides counts lines satisfied by override rather than scan.
func (s *ScanSession) Overrides() int {
	n := 0
	for _, m := range s.Marks {
		if m.Override {
			n++
		}
	}
	return n
}

// mark records a line as satisfied, enforcing the session invariants: a line
// index is marked at most once and never out of range.
func (s *ScanSession) mark(idx int, m ScannedMark) error {
	if idx < 0 || idx >= len(s.Lines) {
		return ErrLineOutOfRange
	}
	if _, done := s.Marks[idx]; done {
		return ErrLineAlreadyDone
	}
	s.Marks[idx] = m
	return nil
}

func (s *ScanSession) acceptedOutcome(idx int, override, fuzzy bool) ScanOutcome {
	return ScanOutcome{
		Accepted:  true,
		LineIndex: idx,
		Line:      &s.Lines[idx],
		Override:  override,
		Fuzzy:     fuzzy,
		Completed: s.IsComplete(),
	}
}

func (s *ScanSession) emitLineMarked(idx int, override, fuzzy bool, origin string) {
	s.addDomainEvent(&LineMarkedEvent{
		SessionID: s.SessionID,
		OrderID:   s.OrderID,
		LineIndex: idx,
		SKU:       s.Lines[idx].SKU,
		Override:  override,
		Fuzzy:     fuzzy,
		Origin:    origin,
		MarkedAt:  s.Marks[idx].ScannedAt,
	})

	if s.IsComplete() {
		s.addDomainEvent(&SessionCompletedEvent{
			SessionID:   s.SessionID,
			OrderID:     s.OrderID,
			LineCount:   len(s.Lines),
			Overrides:   s.Overrides(),
			CompletedAt: s.Marks[idx].ScannedAt,
		})
	}
}

func (s *ScanSession) scannedSet() map[int]bool {
	set := make(map[int]bool, len(s.Marks))
	for i := range s.Marks {
		set[i] = true
	}
	return set
}

// addDomainEvent appends a domain event to the aggregate.
func (s *ScanSession) addDomainEvent(event DomainEvent) {
	s.domainEvents = append(s.domainEvents, event)
}

// DrainDomainEvents returns buffered domain events and clears them.
func (s *ScanSession) DrainDomainEvents() []DomainEvent {
	events := s.domainEvents
	s.domainEvents = nil
	return events
}
