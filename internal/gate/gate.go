package gate

import (
	"context"
	"sync"

	"github.com/xela07ax/dashbot/internal/broker"
	"github.com/xela07ax/dashbot/internal/domain"
	"github.com/xela07ax/dashbot/internal/infra"
	"go.uber.org/zap"
)

// ViewerGate считает подключенных зрителей статус-топика и дергает
// Command Bus ровно на границах 0->1 (status_requested) и 1->0
// (status_stopped). Внутри Active (1->2, 3->2) не эмитится ничего.
//
// Счетчик, проверка границы и решение об эмиссии — одна критическая секция:
// два одновременных первых подписчика не должны оба увидеть count==1 и
// задвоить status_requested.
type ViewerGate struct {
	mu    sync.Mutex
	count int

	bus     broker.CommandSink
	logger  *zap.Logger
	metrics *infra.Metrics
}

func NewViewerGate(bus broker.CommandSink, logger *zap.Logger, metrics *infra.Metrics) *ViewerGate {
	return &ViewerGate{
		bus:     bus,
		logger:  logger.Named("viewer-gate"),
		metrics: metrics,
	}
}

// Subscribe регистрирует нового зрителя. На переходе 0->1 плагину
// уходит status_requested — ровно один раз.
func (g *ViewerGate) Subscribe(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.count++
	g.metrics.StatusViewers.Set(float64(g.count))

	if g.count == 1 {
		// Счетчик уже отражает реальность; неудачная доставка его не откатывает
		if err := g.bus.Send(ctx, domain.NewStatusRequestedCommand()); err != nil {
			g.logger.Warn("status_requested not delivered", zap.Error(err))
		}
	}
}

// Unsubscribe снимает зрителя. На переходе 1->0 плагину уходит
// status_stopped. Счетчик никогда не уходит в минус.
func (g *ViewerGate) Unsubscribe(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.count == 0 {
		g.logger.Error("unsubscribe without matching subscribe")
		return
	}

	g.count--
	g.metrics.StatusViewers.Set(float64(g.count))

	if g.count == 0 {
		if err := g.bus.Send(ctx, domain.NewStatusStoppedCommand()); err != nil {
			g.logger.Warn("status_stopped not delivered", zap.Error(err))
		}
	}
}

// Viewers возвращает текущее число зрителей (для дашборда и тестов).
func (g *ViewerGate) Viewers() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.count
}
