package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Manager рассылает подключенным клиентам события отрисовки кадров.
type Manager struct {
	logger     *zap.Logger
	clients    map[uuid.UUID]*client
	register   chan *client
	unregister chan *client
	broadcast  chan Message
	mu         sync.RWMutex
}

type client struct {
	id      uuid.UUID
	conn    *websocket.Conn
	manager *Manager
	send    chan []byte
}

// Message - событие для браузера: тип и полезная нагрузка.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Браузерный клиент ходит с другого origin, проверка выполняется CORS-слоем.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		logger:     logger.Named("WebSocket"),
		clients:    make(map[uuid.UUID]*client),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan Message, 64),
	}
}

// Start запускает цикл менеджера в отдельной горутине.
func (m *Manager) Start() {
	go m.run()
}

func (m *Manager) run() {
	for {
		select {
		case c := <-m.register:
			m.mu.Lock()
			m.clients[c.id] = c
			m.mu.Unlock()
			m.logger.Info("клиент подключен", zap.String("client_id", c.id.String()))

		case c := <-m.unregister:
			m.mu.Lock()
			if _, ok := m.clients[c.id]; ok {
				close(c.send)
				delete(m.clients, c.id)
			}
			m.mu.Unlock()
			m.logger.Info("клиент отключен", zap.String("client_id", c.id.String()))

		case msg := <-m.broadcast:
			body, err := json.Marshal(msg)
			if err != nil {
				m.logger.Error("не удалось сериализовать сообщение", zap.Error(err))
				continue
			}
			m.mu.RLock()
			for _, c := range m.clients {
				select {
				case c.send <- body:
				default:
					// Клиент не успевает читать: сообщение пропускается,
					// браузер перечитает состояние по HTTP.
					m.logger.Warn("очередь клиента переполнена", zap.String("client_id", c.id.String()))
				}
			}
			m.mu.RUnlock()
		}
	}
}

// Broadcast отправляет событие всем подключенным клиентам.
func (m *Manager) Broadcast(msg Message) {
	m.broadcast <- msg
}

// HandleConnection апгрейдит HTTP-запрос до websocket и регистрирует клиента.
func (m *Manager) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.logger.Error("ошибка апгрейда соединения", zap.Error(err))
		return
	}

	c := &client{
		id:      uuid.New(),
		conn:    conn,
		manager: m,
		send:    make(chan []byte, 16),
	}
	m.register <- c

	go c.writePump()
	go c.readPump()
}

// readPump читает входящие сообщения только ради keepalive и закрытия.
func (c *client) readPump() {
	defer func() {
		c.manager.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case body, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, body); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
