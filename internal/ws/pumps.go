package ws

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"github.com/xela07ax/dashbot/internal/domain"
	"github.com/xela07ax/dashbot/internal/infra"
	"go.uber.org/zap"
)

const (
	maxMessageSize = 8192
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	writeWait      = 10 * time.Second
)

// ReadPump читает кадры клиента до разрыва соединения.
// Закрытие соединения возвращает гейту удержанные подписки.
func (h *Hub) ReadPump(c *Conn) {
	defer h.unregister(context.Background(), c)

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read error", zap.Error(err))
			}
			return
		}

		h.handleRaw(c, raw)
	}
}

// handleRaw разбирает сырой кадр клиента и передает его диспетчеру.
func (h *Hub) handleRaw(c *Conn, raw []byte) {
	var frame clientFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		// Из битого кадра action не достать — маркер в ответе литеральный
		h.sendError(c, "malformed", errors.New("malformed frame"), nil)
		return
	}
	h.dispatch(c, frame)
}

// dispatch выполняет одно действие клиента. Обработка синхронная:
// подписки и команды дешевые, очереди здесь не нужны.
func (h *Hub) dispatch(c *Conn, frame clientFrame) {
	ctx := context.Background()

	switch frame.Action {
	case ActionSubscribe:
		channel, err := h.channelFor(ctx, frame.Topic, frame.SessionKey)
		if err != nil {
			h.sendError(c, frame.Action, err, nil)
			return
		}
		// Гейт дергаем только на реально новой подписке этого подключения:
		// повторный subscribe не задваивает зрителя
		if c.addTopic(channel) && channel == infra.RedisChanStatusUpdates {
			h.gate.Subscribe(ctx)
		}

	case ActionUnsubscribe:
		channel, err := h.channelFor(ctx, frame.Topic, frame.SessionKey)
		if err != nil {
			h.sendError(c, frame.Action, err, nil)
			return
		}
		if c.removeTopic(channel) && channel == infra.RedisChanStatusUpdates {
			h.gate.Unsubscribe(ctx)
		}

	case ActionSendMessage:
		// Браузер шлет только пользовательские сообщения; агентские
		// приходят через bearer-периметр плагина
		if _, err := h.actions.SendMessage(ctx, frame.SessionKey, domain.RoleUser, frame.Body, nil); err != nil {
			h.sendError(c, frame.Action, err, nil)
		}

	case ActionRespond:
		card, err := h.actions.RespondCard(ctx, frame.CardID, frame.Response)
		if err != nil {
			if errors.Is(err, domain.ErrConflict) {
				h.sendError(c, frame.Action, err, card)
				return
			}
			h.sendError(c, frame.Action, err, nil)
		}

	default:
		h.sendError(c, frame.Action, errors.New("unknown action"), nil)
	}
}

func (h *Hub) sendError(c *Conn, action string, err error, current interface{}) {
	frame, marshalErr := json.Marshal(errorFrame{
		Type:    "error",
		Action:  action,
		Error:   err.Error(),
		Current: current,
	})
	if marshalErr != nil {
		return
	}
	c.deliver(frame)
}

// WritePump гонит исходящие кадры и пинги. Завершается при закрытии
// соединения либо ошибке записи.
func (h *Hub) WritePump(c *Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				return
			}
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}
