package application

import (
	"github.com/wms-platform/scanpick-service/internal/domain"
)

// ToSessionDTO maps a ScanSession to its response shape
func ToSessionDTO(session *domain.ScanSession) *SessionDTO {
	lines := make([]SessionLineDTO, len(session.Lines))
	for i := range session.Lines {
		lines[i] = toSessionLineDTO(&session.Lines[i], session.Marks, i)
	}

	currentIdx, _ := session.CurrentLine()
	return &SessionDTO{
		SessionID:        session.SessionID,
		OrderID:          session.OrderID,
		State:            string(session.State()),
		Lines:            lines,
		CurrentLineIndex: currentIdx,
		MarkedCount:      len(session.Marks),
		OpenedAt:         session.OpenedAt,
	}
}

// ToScanOutcomeDTO maps a domain scan outcome to its response shape
func ToScanOutcomeDTO(session *domain.ScanSession, outcome domain.ScanOutcome) *ScanOutcomeDTO {
	dto := &ScanOutcomeDTO{
		Accepted:  outcome.Accepted,
		Reason:    outcome.Reason,
		LineIndex: outcome.LineIndex,
		Override:  outcome.Override,
		Fuzzy:     outcome.Fuzzy,
		Completed: outcome.Completed,
	}
	if outcome.Line != nil && outcome.LineIndex >= 0 {
		line := toSessionLineDTO(outcome.Line, session.Marks, outcome.LineIndex)
		dto.Line = &line
	}
	return dto
}

// ToCompletionResultDTO maps a coordinator result to its response shape
func ToCompletionResultDTO(result *CompletionResult) *CompletionResultDTO {
	dto := &CompletionResultDTO{
		OrderID:        result.OrderID,
		CommittedLines: result.CommittedLines,
		Completed:      result.Completed,
		FailedStep:     result.FailedStep,
	}
	if result.FailedLine >= 0 {
		idx := result.FailedLine
		dto.FailedLineIndex = &idx
	}
	if result.Err != nil {
		dto.Error = result.Err.Error()
	}
	return dto
}

// ToCompositePayloadDTO maps a parsed payload to its response shape
func ToCompositePayloadDTO(payload domain.CompositePayload) *CompositePayloadDTO {
	return &CompositePayloadDTO{
		SKU:      payload.SKU,
		Location: payload.Location,
		Variant:  payload.Variant,
	}
}

func toSessionLineDTO(line *domain.OrderLine, marks map[int]domain.ScannedMark, idx int) SessionLineDTO {
	dto := SessionLineDTO{
		SKU:          line.SKU,
		ProductName:  line.ProductName,
		Variant:      line.Variant,
		Quantity:     line.Quantity,
		LocationCode: line.LocationCode,
	}
	if mark, ok := marks[idx]; ok {
		markedAt := mark.ScannedAt
		dto.Marked = true
		dto.MarkedAt = &markedAt
		dto.Override = mark.Override
		dto.Origin = mark.Origin
	}
	return dto
}
