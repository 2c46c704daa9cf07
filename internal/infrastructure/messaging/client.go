package messaging

import (
	"encoding/json"
	"time"

	"github.com/WorkfieldLabs/workpulse-go/internal/domain/behavior"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/observability/logging"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 90 * time.Second
	pingPeriod = 60 * time.Second
)

// controlMessage is the client-to-server frame. Clients ping to stay past
// the idle sweep and may replace their type filters mid-session.
type controlMessage struct {
	Action  string                `json:"action"`
	Filters []behavior.UpdateType `json:"filters,omitempty"`
}

// Client pumps one websocket connection: updates flow out from the
// subscription channel, pings and filter changes flow in.
type Client struct {
	conn        *websocket.Conn
	sub         *behavior.Subscription
	broadcaster *Broadcaster
	logger      *logging.ChanneledLogger
}

// NewClient wraps an upgraded websocket connection around a subscription
func NewClient(conn *websocket.Conn, sub *behavior.Subscription, broadcaster *Broadcaster, logger *logging.ChanneledLogger) *Client {
	return &Client{
		conn:        conn,
		sub:         sub,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// Run pumps the connection until either side closes. It blocks until the
// read pump exits and always leaves the subscription unregistered.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// readPump consumes control frames. Protocol pings and explicit ping
// actions both refresh subscriber liveness.
func (c *Client) readPump() {
	defer func() {
		c.broadcaster.Unsubscribe(c.sub.ID)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.broadcaster.Ping(c.sub.ID)
		return nil
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Realtime().Debug("Websocket read failed",
					"subscriptionId", c.sub.ID,
					"error", err.Error())
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg controlMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			continue
		}
		switch msg.Action {
		case "ping":
			c.broadcaster.Ping(c.sub.ID)
		case "set_filters":
			c.broadcaster.SetFilters(c.sub.ID, msg.Filters)
		}
	}
}

// writePump forwards updates from the subscription channel and keeps the
// connection alive with protocol pings. A closed channel means the
// broadcaster dropped the subscription.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case update, ok := <-c.sub.Channel:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(update); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
