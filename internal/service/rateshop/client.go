package rateshop

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"RateCast/internal/domain/models"
	drepo "RateCast/internal/domain/repository"

	"github.com/gorilla/websocket"
)

// Client implements a RateStream backed by the rate-shopper WebSocket
// feed.
type Client struct {
	apiKey         string
	websocketURL   string
	properties     []string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	conn      *websocket.Conn
	connected bool
}

// New creates a new rate-shopper RateStream.
func New(apiKey, websocketURL string, properties []string, reconnectDelay, pingInterval time.Duration) drepo.RateStream {
	return &Client{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		properties:     properties,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", c.websocketURL, c.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("rateshop connect: %w", err)
	}
	c.conn = conn
	c.connected = true
	log.Printf("rateshop: connected")
	return nil
}

// Subscribe subscribes to configured properties.
func (c *Client) Subscribe(ctx context.Context) error {
	if c.conn == nil || !c.connected {
		return fmt.Errorf("rateshop not connected")
	}
	for _, p := range c.properties {
		msg := map[string]string{"type": "subscribe", "property": p}
		if err := c.conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", p, err)
		}
		log.Printf("rateshop: subscribed %s", p)
	}
	return nil
}

type rsRate struct {
	Property   string  `json:"property"`
	Competitor string  `json:"competitor"`
	StayDate   string  `json:"stay_date"`
	Rate       float64 `json:"rate"`
	T          int64   `json:"t"` // ms
}

type rsMessage struct {
	Type string   `json:"type"`
	Data []rsRate `json:"data"`
}

// Read streams RatePoint events and errors.
func (c *Client) Read(ctx context.Context) (<-chan *models.RatePoint, <-chan error) {
	rates := make(chan *models.RatePoint, 1024)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.conn != nil {
					_ = c.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(rates)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if c.conn == nil {
					errs <- fmt.Errorf("rateshop conn nil")
					return
				}
				_, b, err := c.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("rateshop read: %w", err)
					return
				}
				var m rsMessage
				if err := json.Unmarshal(b, &m); err != nil {
					// ignore non-rate frames
					continue
				}
				if m.Type != "rate" {
					continue
				}
				for _, d := range m.Data {
					stay, err := time.Parse("2006-01-02", d.StayDate)
					if err != nil {
						continue
					}
					rp := &models.RatePoint{
						PropertyID: d.Property,
						Competitor: d.Competitor,
						StayDate:   stay,
						Price:      d.Rate,
						ObservedAt: time.Unix(d.T/1000, 0).UTC(),
					}
					select {
					case rates <- rp:
					default:
						// drop on backpressure
					}
				}
			}
		}
	}()

	return rates, errs
}

// Reconnect closes and reconnects.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	time.Sleep(c.reconnectDelay)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool { return c.connected }
