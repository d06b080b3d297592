package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wms-platform/scanpick-service/internal/domain"
	"github.com/wms-platform/scanpick-service/internal/scan"
	apperrors "github.com/wms-platform/scanpick-service/pkg/errors"
	"github.com/wms-platform/scanpick-service/pkg/logging"
	"github.com/wms-platform/scanpick-service/pkg/metrics"
)

// Errors
var (
	ErrSessionExists   = errors.New("a pick session is already open for this order")
	ErrSessionNotFound = errors.New("no open pick session for this order")
	ErrNotComplete     = errors.New("session still has unmarked lines")
)

// SessionService handles pick-session use cases. Sessions are live in-memory
// objects: one per order, created on open, discarded on cancel, consumed by
// the completion coordinator. There is no session persistence.
//
// mu guards the registries and every session's mutable state. Scans arrive
// from three adapters concurrently, so each operation reads, mutates, maps
// to a DTO and drains events in one critical section; only store calls and
// event publishing run outside it.
type SessionService struct {
	aliases     domain.AliasRepository
	orders      domain.OrderStore
	coordinator *CompletionCoordinator
	durable     DurableCompleter
	publisher   domain.EventPublisher
	metrics     *metrics.Metrics
	logger      *logging.Logger

	mu       sync.Mutex
	sessions map[string]*domain.ScanSession
	stations map[string]string // station -> orderID
}

// NewSessionService creates a new SessionService
func NewSessionService(
	aliases domain.AliasRepository,
	orders domain.OrderStore,
	coordinator *CompletionCoordinator,
	publisher domain.EventPublisher,
	m *metrics.Metrics,
	logger *logging.Logger,
) *SessionService {
	return &SessionService{
		aliases:     aliases,
		orders:      orders,
		coordinator: coordinator,
		publisher:   publisher,
		metrics:     m,
		logger:      logger,
		sessions:    make(map[string]*domain.ScanSession),
		stations:    make(map[string]string),
	}
}

// WithDurableCompleter enables the durable completion path. Without it,
// requests asking for durable completion are rejected.
func (s *SessionService) WithDurableCompleter(dc DurableCompleter) *SessionService {
	s.durable = dc
	return s
}

// OpenSession opens a pick session for an order. One session per order: a
// second open for the same order is a conflict, not a reset.
func (s *SessionService) OpenSession(ctx context.Context, cmd OpenSessionCommand) (*SessionDTO, error) {
	s.mu.Lock()
	if _, open := s.sessions[cmd.OrderID]; open {
		s.mu.Unlock()
		return nil, apperrors.ErrConflict(ErrSessionExists.Error())
	}
	s.mu.Unlock()

	lines, err := s.orders.GetOrderLines(ctx, cmd.OrderID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load order lines", "orderId", cmd.OrderID)
		return nil, fmt.Errorf("failed to load order lines: %w", err)
	}

	aliasList, err := s.aliases.LookupAll(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load barcode aliases", "orderId", cmd.OrderID)
		return nil, fmt.Errorf("failed to load barcode aliases: %w", err)
	}

	session, err := domain.NewScanSession(uuid.New().String(), cmd.OrderID, lines, domain.NewAliasTable(aliasList))
	if err != nil {
		return nil, apperrors.ErrValidation(err.Error())
	}

	s.mu.Lock()
	if _, open := s.sessions[cmd.OrderID]; open {
		s.mu.Unlock()
		return nil, apperrors.ErrConflict(ErrSessionExists.Error())
	}
	s.sessions[cmd.OrderID] = session
	if cmd.Station != "" {
		s.stations[cmd.Station] = cmd.OrderID
	}
	dto := ToSessionDTO(session)
	pending := session.DrainDomainEvents()
	s.mu.Unlock()

	s.metrics.SessionsOpened.Inc()
	s.publish(ctx, cmd.OrderID, pending)

	s.logger.WithSession(dto.SessionID, cmd.OrderID).Info("Pick session opened",
		"lines", len(dto.Lines),
		"station", cmd.Station,
	)
	return dto, nil
}

// GetSession retrieves an open session by order ID
func (s *SessionService) GetSession(ctx context.Context, query GetSessionQuery) (*SessionDTO, error) {
	s.mu.Lock()
	session, open := s.sessions[query.OrderID]
	if !open {
		s.mu.Unlock()
		return nil, apperrors.ErrNotFound("pick session")
	}
	dto := ToSessionDTO(session)
	s.mu.Unlock()
	return dto, nil
}

// SubmitScan runs one raw barcode through the session. Rejections (unknown
// barcode, already satisfied, session complete) come back as an unaccepted
// outcome, not an error: the session is unaffected and the operator keeps
// scanning.
func (s *SessionService) SubmitScan(ctx context.Context, cmd SubmitScanCommand) (*ScanOutcomeDTO, error) {
	s.mu.Lock()
	session, open := s.sessions[cmd.OrderID]
	if !open {
		s.mu.Unlock()
		return nil, apperrors.ErrNotFound("pick session")
	}
	outcome, scanErr := session.SubmitScan(cmd.Barcode, cmd.Origin)
	dto := ToScanOutcomeDTO(session, outcome)
	pending := session.DrainDomainEvents()
	s.mu.Unlock()

	s.logger.ScanEvent(ctx, cmd.Origin, cmd.Barcode, outcome.Accepted, outcome.Reason)

	if scanErr != nil {
		s.metrics.ScansRejected.WithLabelValues(cmd.Origin, rejectionReason(scanErr)).Inc()
		return dto, nil
	}

	s.metrics.ScansResolved.WithLabelValues(cmd.Origin).Inc()
	if outcome.Completed {
		s.metrics.SessionsCompleted.Inc()
	}
	s.publish(ctx, cmd.OrderID, pending)

	return dto, nil
}

// OverrideCurrentLine marks the first unmarked line without a scan
func (s *SessionService) OverrideCurrentLine(ctx context.Context, cmd OverrideLineCommand) (*ScanOutcomeDTO, error) {
	s.mu.Lock()
	session, open := s.sessions[cmd.OrderID]
	if !open {
		s.mu.Unlock()
		return nil, apperrors.ErrNotFound("pick session")
	}
	outcome, overrideErr := session.OverrideCurrent(cmd.Origin)
	if overrideErr != nil {
		s.mu.Unlock()
		return nil, apperrors.ErrValidation(overrideErr.Error())
	}
	dto := ToScanOutcomeDTO(session, outcome)
	pending := session.DrainDomainEvents()
	sessionID := session.SessionID
	s.mu.Unlock()

	s.metrics.LinesOverridden.Inc()
	if outcome.Completed {
		s.metrics.SessionsCompleted.Inc()
	}
	s.publish(ctx, cmd.OrderID, pending)

	s.logger.WithSession(sessionID, cmd.OrderID).Info("Line overridden",
		"lineIndex", dto.LineIndex,
		"sku", dto.Line.SKU,
	)
	return dto, nil
}

// CompleteSession commits a fully marked session through the coordinator.
// On partial failure the session stays open so the operator can retry;
// already-committed lines are not re-run by the stores being idempotent
// per line and order.
func (s *SessionService) CompleteSession(ctx context.Context, cmd CompleteSessionCommand) (*CompletionResultDTO, error) {
	s.mu.Lock()
	session, open := s.sessions[cmd.OrderID]
	if !open {
		s.mu.Unlock()
		return nil, apperrors.ErrNotFound("pick session")
	}
	if !session.IsComplete() {
		s.mu.Unlock()
		return nil, apperrors.ErrValidation(ErrNotComplete.Error())
	}
	if cmd.Durable && s.durable == nil {
		s.mu.Unlock()
		return nil, apperrors.ErrBadRequest("durable completion is not configured")
	}
	input := completionWorkflowInput(session)
	s.mu.Unlock()

	// A complete session takes no further marks, so the store calls below
	// read it without the lock while late scans keep being rejected.
	var result *CompletionResult
	if cmd.Durable {
		wfResult, err := s.durable.Complete(ctx, input)
		if err != nil {
			return nil, apperrors.ErrInternal("durable completion failed").Wrap(err)
		}
		result = fromWorkflowResult(wfResult)
	} else {
		result = s.coordinator.Complete(ctx, session)
	}

	if result.Completed {
		s.mu.Lock()
		session.RecordPickCommitted(time.Now().UTC())
		pending := session.DrainDomainEvents()
		s.discardLocked(cmd.OrderID)
		s.mu.Unlock()
		s.publish(ctx, cmd.OrderID, pending)
	}
	return ToCompletionResultDTO(result), nil
}

// CancelSession discards an open session. Nothing is committed: only a
// completed session ever reaches the stores.
func (s *SessionService) CancelSession(ctx context.Context, cmd CancelSessionCommand) error {
	s.mu.Lock()
	session, open := s.sessions[cmd.OrderID]
	if !open {
		s.mu.Unlock()
		return apperrors.ErrNotFound("pick session")
	}
	sessionID := session.SessionID
	marked := len(session.Marks)
	s.discardLocked(cmd.OrderID)
	s.mu.Unlock()

	s.metrics.SessionsCancelled.Inc()
	s.logger.WithSession(sessionID, cmd.OrderID).Info("Pick session cancelled",
		"markedLines", marked,
	)
	return nil
}

// ParsePayload decodes a composite QR payload for the receiving flow
func (s *SessionService) ParsePayload(ctx context.Context, query ParsePayloadQuery) (*CompositePayloadDTO, error) {
	if query.Raw == "" {
		return nil, apperrors.ErrValidation("payload must not be empty")
	}
	return ToCompositePayloadDTO(domain.ParseComposite(query.Raw)), nil
}

// StationSink returns a pipeline sink that routes scans from one station
// into whatever session that station currently has open.
func (s *SessionService) StationSink(station string) scan.Sink {
	return scan.SinkFunc(func(ctx context.Context, event scan.Event) error {
		s.mu.Lock()
		orderID, bound := s.stations[station]
		s.mu.Unlock()
		if !bound {
			return fmt.Errorf("no open session bound to station %s", station)
		}

		_, err := s.SubmitScan(ctx, SubmitScanCommand{
			OrderID: orderID,
			Barcode: event.Barcode,
			Origin:  string(event.Origin),
		})
		return err
	})
}

// discardLocked removes the session and its station binding. Callers hold mu.
func (s *SessionService) discardLocked(orderID string) {
	delete(s.sessions, orderID)
	for station, bound := range s.stations {
		if bound == orderID {
			delete(s.stations, station)
		}
	}
}

// publish sends drained domain events. Best-effort: a broker outage must not
// block the operator mid-pick.
func (s *SessionService) publish(ctx context.Context, orderID string, events []domain.DomainEvent) {
	if len(events) == 0 || s.publisher == nil {
		return
	}
	if err := s.publisher.PublishAll(ctx, events); err != nil {
		s.logger.WithError(err).Warn("Failed to publish session events",
			"orderId", orderID,
			"count", len(events),
		)
	}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrDuplicateScan):
		return "duplicate"
	case errors.Is(err, domain.ErrSessionComplete):
		return "session_complete"
	default:
		return "not_found"
	}
}
