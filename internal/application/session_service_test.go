package application

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/scanpick-service/internal/domain"
	"github.com/wms-platform/scanpick-service/internal/scan"
	"github.com/wms-platform/scanpick-service/internal/workflows"
	apperrors "github.com/wms-platform/scanpick-service/pkg/errors"
	"github.com/wms-platform/scanpick-service/pkg/logging"
	"github.com/wms-platform/scanpick-service/pkg/metrics"
)

type fakeAliasRepo struct {
	aliases []domain.BarcodeAlias
	err     error
}

func (r *fakeAliasRepo) LookupAll(ctx context.Context) ([]domain.BarcodeAlias, error) {
	return r.aliases, r.err
}

type capturingPublisher struct {
	mu        sync.Mutex
	published []domain.DomainEvent
}

func (p *capturingPublisher) PublishAll(ctx context.Context, events []domain.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, events...)
	return nil
}

func newTestService(t *testing.T, orders *fakeOrderStore, inventory *fakeInventoryStore) (*SessionService, *capturingPublisher) {
	t.Helper()
	logger := logging.New(logging.DefaultConfig("session-test"))
	m := metrics.New(metrics.DefaultConfig("session-test"))
	aliases := &fakeAliasRepo{aliases: []domain.BarcodeAlias{
		{ExternalBarcode: "0123456789012", SKU: "FD-TEE-BLK-L"},
	}}
	publisher := &capturingPublisher{}
	coordinator := NewCompletionCoordinator(orders, inventory, &fakeAuditStore{}, m, logger)
	service := NewSessionService(aliases, orders, coordinator, publisher, m, logger)
	return service, publisher
}

func openFixtureSession(t *testing.T, service *SessionService, station string) *SessionDTO {
	t.Helper()
	dto, err := service.OpenSession(context.Background(), OpenSessionCommand{OrderID: "order-1", Station: station})
	require.NoError(t, err)
	return dto
}

func TestOpenSessionSortsLinesAndPublishes(t *testing.T) {
	orders := newFakeOrderStore([]domain.OrderLine{
		{SKU: "FD-CAP-RED", Quantity: 1, LocationCode: "B-01-01"},
		{SKU: "FD-TEE-BLK-L", Quantity: 2, LocationCode: "A-01-03"},
	})
	service, publisher := newTestService(t, orders, newFakeInventoryStore(map[string]int{}))

	dto := openFixtureSession(t, service, "")

	assert.Equal(t, "order-1", dto.OrderID)
	assert.Equal(t, "active", dto.State)
	assert.Equal(t, 0, dto.CurrentLineIndex)
	require.Len(t, dto.Lines, 2)
	assert.Equal(t, "FD-TEE-BLK-L", dto.Lines[0].SKU, "lines are grouped by location")
	assert.Equal(t, "FD-CAP-RED", dto.Lines[1].SKU)

	require.Len(t, publisher.published, 1)
	assert.Equal(t, "wms.scanpick.session-opened", publisher.published[0].EventType())
}

func TestOpenSessionTwiceConflicts(t *testing.T) {
	orders := newFakeOrderStore(coordinatorFixtureLines())
	service, _ := newTestService(t, orders, newFakeInventoryStore(map[string]int{}))

	openFixtureSession(t, service, "")
	_, err := service.OpenSession(context.Background(), OpenSessionCommand{OrderID: "order-1"})

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 409, appErr.HTTPStatus)
}

func TestOpenSessionWithoutLinesRejected(t *testing.T) {
	orders := newFakeOrderStore(nil)
	service, _ := newTestService(t, orders, newFakeInventoryStore(map[string]int{}))

	_, err := service.OpenSession(context.Background(), OpenSessionCommand{OrderID: "order-1"})
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 400, appErr.HTTPStatus)
}

func TestSubmitScanAcceptedAndRejected(t *testing.T) {
	orders := newFakeOrderStore(coordinatorFixtureLines())
	service, _ := newTestService(t, orders, newFakeInventoryStore(map[string]int{}))
	openFixtureSession(t, service, "")

	outcome, err := service.SubmitScan(context.Background(), SubmitScanCommand{
		OrderID: "order-1", Barcode: "FD-TEE-BLK-L", Origin: "manual",
	})
	require.NoError(t, err)
	assert.True(t, outcome.Accepted)
	assert.Equal(t, 0, outcome.LineIndex)
	require.NotNil(t, outcome.Line)
	assert.True(t, outcome.Line.Marked)

	// Same barcode again: rejected as duplicate, session unaffected.
	outcome, err = service.SubmitScan(context.Background(), SubmitScanCommand{
		OrderID: "order-1", Barcode: "FD-TEE-BLK-L", Origin: "manual",
	})
	require.NoError(t, err)
	assert.False(t, outcome.Accepted)
	assert.Equal(t, "line already satisfied", outcome.Reason)

	// Unknown barcode: rejected with the raw string in the reason.
	outcome, err = service.SubmitScan(context.Background(), SubmitScanCommand{
		OrderID: "order-1", Barcode: "NO-SUCH-SKU", Origin: "camera",
	})
	require.NoError(t, err)
	assert.False(t, outcome.Accepted)
	assert.Contains(t, outcome.Reason, "NO-SUCH-SKU")

	dto, err := service.GetSession(context.Background(), GetSessionQuery{OrderID: "order-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, dto.MarkedCount)
}

func TestSubmitScanResolvesAlias(t *testing.T) {
	orders := newFakeOrderStore(coordinatorFixtureLines())
	service, _ := newTestService(t, orders, newFakeInventoryStore(map[string]int{}))
	openFixtureSession(t, service, "")

	outcome, err := service.SubmitScan(context.Background(), SubmitScanCommand{
		OrderID: "order-1", Barcode: "0123456789012", Origin: "manual",
	})
	require.NoError(t, err)
	assert.True(t, outcome.Accepted)
	assert.Equal(t, "FD-TEE-BLK-L", outcome.Line.SKU)
}

func TestSubmitScanWithoutSession(t *testing.T) {
	orders := newFakeOrderStore(coordinatorFixtureLines())
	service, _ := newTestService(t, orders, newFakeInventoryStore(map[string]int{}))

	_, err := service.SubmitScan(context.Background(), SubmitScanCommand{
		OrderID: "order-9", Barcode: "FD-TEE-BLK-L", Origin: "manual",
	})
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 404, appErr.HTTPStatus)
}

func TestOverrideMarksFirstUnmarkedLine(t *testing.T) {
	orders := newFakeOrderStore(coordinatorFixtureLines())
	service, _ := newTestService(t, orders, newFakeInventoryStore(map[string]int{}))
	openFixtureSession(t, service, "")

	// Mark line 1 by scan, then override: line 0 is the first unmarked.
	_, err := service.SubmitScan(context.Background(), SubmitScanCommand{
		OrderID: "order-1", Barcode: "FD-TEE-WHT-M", Origin: "manual",
	})
	require.NoError(t, err)

	outcome, err := service.OverrideCurrentLine(context.Background(), OverrideLineCommand{OrderID: "order-1", Origin: "manual"})
	require.NoError(t, err)
	assert.True(t, outcome.Accepted)
	assert.True(t, outcome.Override)
	assert.Equal(t, 0, outcome.LineIndex)
}

func TestCompleteSessionLifecycle(t *testing.T) {
	orders := newFakeOrderStore(coordinatorFixtureLines())
	inventory := newFakeInventoryStore(map[string]int{"FD-TEE-BLK-L": 10, "FD-TEE-WHT-M": 5, "FD-CAP-RED": 7})
	service, publisher := newTestService(t, orders, inventory)
	openFixtureSession(t, service, "")

	// Completing an unfinished session is rejected.
	_, err := service.CompleteSession(context.Background(), CompleteSessionCommand{OrderID: "order-1"})
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 400, appErr.HTTPStatus)

	for _, sku := range []string{"FD-TEE-BLK-L", "FD-TEE-WHT-M", "FD-CAP-RED"} {
		outcome, err := service.SubmitScan(context.Background(), SubmitScanCommand{
			OrderID: "order-1", Barcode: sku, Origin: "manual",
		})
		require.NoError(t, err)
		require.True(t, outcome.Accepted)
	}

	result, err := service.CompleteSession(context.Background(), CompleteSessionCommand{OrderID: "order-1"})
	require.NoError(t, err)
	assert.True(t, result.Completed)
	assert.Equal(t, 3, result.CommittedLines)

	require.NotEmpty(t, publisher.published)
	assert.Equal(t, "wms.scanpick.pick-committed", publisher.published[len(publisher.published)-1].EventType())

	// The session is consumed: it can no longer be fetched.
	_, err = service.GetSession(context.Background(), GetSessionQuery{OrderID: "order-1"})
	assert.Error(t, err)
}

func TestCompleteSessionPartialFailureKeepsSession(t *testing.T) {
	orders := newFakeOrderStore(coordinatorFixtureLines())
	inventory := newFakeInventoryStore(map[string]int{"FD-TEE-BLK-L": 10, "FD-TEE-WHT-M": 5, "FD-CAP-RED": 7})
	inventory.failSKU = "FD-TEE-WHT-M"
	service, _ := newTestService(t, orders, inventory)
	openFixtureSession(t, service, "")

	for _, sku := range []string{"FD-TEE-BLK-L", "FD-TEE-WHT-M", "FD-CAP-RED"} {
		_, err := service.SubmitScan(context.Background(), SubmitScanCommand{
			OrderID: "order-1", Barcode: sku, Origin: "manual",
		})
		require.NoError(t, err)
	}

	result, err := service.CompleteSession(context.Background(), CompleteSessionCommand{OrderID: "order-1"})
	require.NoError(t, err)
	assert.False(t, result.Completed)
	assert.Equal(t, 1, result.CommittedLines)
	require.NotNil(t, result.FailedLineIndex)
	assert.Equal(t, 1, *result.FailedLineIndex)
	assert.Contains(t, result.Error, "inventory record locked")

	// Session stays open for a retry.
	inventory.failSKU = ""
	retry, err := service.CompleteSession(context.Background(), CompleteSessionCommand{OrderID: "order-1"})
	require.NoError(t, err)
	assert.True(t, retry.Completed)
}

func TestCancelSessionDiscardsWithoutCommit(t *testing.T) {
	orders := newFakeOrderStore(coordinatorFixtureLines())
	inventory := newFakeInventoryStore(map[string]int{"FD-TEE-BLK-L": 10})
	service, _ := newTestService(t, orders, inventory)
	openFixtureSession(t, service, "")

	_, err := service.SubmitScan(context.Background(), SubmitScanCommand{
		OrderID: "order-1", Barcode: "FD-TEE-BLK-L", Origin: "manual",
	})
	require.NoError(t, err)

	require.NoError(t, service.CancelSession(context.Background(), CancelSessionCommand{OrderID: "order-1"}))

	assert.Empty(t, orders.commits, "cancel commits nothing")
	assert.Equal(t, 10, inventory.stock["FD-TEE-BLK-L"])

	_, err = service.GetSession(context.Background(), GetSessionQuery{OrderID: "order-1"})
	assert.Error(t, err)
}

func TestParsePayload(t *testing.T) {
	orders := newFakeOrderStore(coordinatorFixtureLines())
	service, _ := newTestService(t, orders, newFakeInventoryStore(map[string]int{}))

	dto, err := service.ParsePayload(context.Background(), ParsePayloadQuery{Raw: "FD-TEE-BLK-L|A-01-03|Black / Large"})
	require.NoError(t, err)
	assert.Equal(t, "FD-TEE-BLK-L", dto.SKU)
	assert.Equal(t, "A-01-03", dto.Location)
	assert.Equal(t, "Black / Large", dto.Variant)

	_, err = service.ParsePayload(context.Background(), ParsePayloadQuery{Raw: ""})
	assert.Error(t, err)
}

func TestStationSinkRoutesToBoundSession(t *testing.T) {
	orders := newFakeOrderStore(coordinatorFixtureLines())
	service, _ := newTestService(t, orders, newFakeInventoryStore(map[string]int{}))
	openFixtureSession(t, service, "station-7")

	sink := service.StationSink("station-7")
	err := sink.HandleScan(context.Background(), scan.NewEvent("FD-TEE-BLK-L", scan.OriginRemote))
	require.NoError(t, err)

	dto, err := service.GetSession(context.Background(), GetSessionQuery{OrderID: "order-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, dto.MarkedCount)
	assert.Equal(t, "remote", dto.Lines[0].Origin)

	// Unbound station: the scan is reported, not silently dropped.
	err = service.StationSink("station-9").HandleScan(context.Background(), scan.NewEvent("FD-CAP-RED", scan.OriginRemote))
	assert.Error(t, err)
}

type fakeDurableCompleter struct {
	input  workflows.CompletionWorkflowInput
	result *workflows.CompletionWorkflowResult
	err    error
}

func (f *fakeDurableCompleter) Complete(ctx context.Context, input workflows.CompletionWorkflowInput) (*workflows.CompletionWorkflowResult, error) {
	f.input = input
	return f.result, f.err
}

func TestCompleteSessionDurableNotConfigured(t *testing.T) {
	orders := newFakeOrderStore(coordinatorFixtureLines())
	service, _ := newTestService(t, orders, newFakeInventoryStore(map[string]int{}))
	openFixtureSession(t, service, "")

	for _, sku := range []string{"FD-TEE-BLK-L", "FD-TEE-WHT-M", "FD-CAP-RED"} {
		_, err := service.SubmitScan(context.Background(), SubmitScanCommand{
			OrderID: "order-1", Barcode: sku, Origin: "manual",
		})
		require.NoError(t, err)
	}

	_, err := service.CompleteSession(context.Background(), CompleteSessionCommand{OrderID: "order-1", Durable: true})
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 400, appErr.HTTPStatus)
}

func TestCompleteSessionDurablePath(t *testing.T) {
	orders := newFakeOrderStore(coordinatorFixtureLines())
	service, _ := newTestService(t, orders, newFakeInventoryStore(map[string]int{}))
	completer := &fakeDurableCompleter{result: &workflows.CompletionWorkflowResult{
		OrderID:        "order-1",
		CommittedLines: 3,
		Completed:      true,
		FailedLine:     -1,
	}}
	service.WithDurableCompleter(completer)
	openFixtureSession(t, service, "")

	for _, sku := range []string{"FD-TEE-BLK-L", "FD-TEE-WHT-M", "FD-CAP-RED"} {
		_, err := service.SubmitScan(context.Background(), SubmitScanCommand{
			OrderID: "order-1", Barcode: sku, Origin: "manual",
		})
		require.NoError(t, err)
	}

	result, err := service.CompleteSession(context.Background(), CompleteSessionCommand{OrderID: "order-1", Durable: true})
	require.NoError(t, err)
	assert.True(t, result.Completed)
	assert.Equal(t, 3, result.CommittedLines)

	// The workflow received every line with its picked quantity, in order.
	require.Len(t, completer.input.Lines, 3)
	assert.Equal(t, "order-1", completer.input.OrderID)
	for i, line := range completer.input.Lines {
		assert.Equal(t, i, line.LineIndex)
	}

	// The session is consumed just like the in-process path.
	_, err = service.GetSession(context.Background(), GetSessionQuery{OrderID: "order-1"})
	assert.Error(t, err)
}

func TestConcurrentScansAndReadsOnOneSession(t *testing.T) {
	orders := newFakeOrderStore(coordinatorFixtureLines())
	service, _ := newTestService(t, orders, newFakeInventoryStore(map[string]int{}))
	openFixtureSession(t, service, "station-7")

	// Scans from all three adapters race against status reads. Run with
	// -race: every session access must stay inside the service's lock.
	skus := []string{"FD-TEE-BLK-L", "FD-TEE-WHT-M", "FD-CAP-RED"}
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(2)
		sku := skus[i%len(skus)]
		go func() {
			defer wg.Done()
			_, err := service.SubmitScan(context.Background(), SubmitScanCommand{
				OrderID: "order-1", Barcode: sku, Origin: "remote",
			})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			dto, err := service.GetSession(context.Background(), GetSessionQuery{OrderID: "order-1"})
			if err == nil {
				assert.LessOrEqual(t, dto.MarkedCount, len(dto.Lines))
			}
		}()
	}
	wg.Wait()

	dto, err := service.GetSession(context.Background(), GetSessionQuery{OrderID: "order-1"})
	require.NoError(t, err)
	assert.Equal(t, 3, dto.MarkedCount, "each line marked exactly once despite duplicate scans")
	assert.Equal(t, "complete", dto.State)
}
