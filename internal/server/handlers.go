// Package server exposes HTTP handlers, including WebSocket upgrades, health
// checks, and the built-in test page.
package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

// RootMessage is the plain-text liveness body served at "/".
const RootMessage = "WebSocket Chat Server is running!"

// HealthStatus is the body served at "/health".
type HealthStatus struct {
	Status  string `json:"status"`
	Clients int    `json:"clients"`
}

// RootHandler reports that the process is up.
func RootHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprint(w, RootMessage)
}

// HealthHandler reports liveness together with the number of connected clients.
func HealthHandler(log *slog.Logger, hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		status := HealthStatus{Status: "ok", Clients: hub.ClientCount()}
		if err := json.NewEncoder(w).Encode(status); err != nil {
			log.Error("Error writing health response", "error", err)
		}
	}
}

// WebSocketHandler upgrades GET requests to WebSocket connections and hands
// the resulting client to the hub.
type WebSocketHandler struct {
	log            *slog.Logger
	hub            *Hub
	upgrader       websocket.Upgrader
	maxMessageSize int64
}

// NewWebSocketHandler creates the upgrade endpoint for hub using the origin
// and frame-size settings in cfg.
func NewWebSocketHandler(log *slog.Logger, hub *Hub, cfg Config) *WebSocketHandler {
	origins := newOriginPolicy(log, cfg.AllowedOrigins)
	return &WebSocketHandler{
		log: log,
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.check,
		},
		maxMessageSize: cfg.MaxMessageSize,
	}
}

func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	if !h.hub.Accepting() {
		http.Error(w, "Server is shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	h.hub.Register(NewClient(h.log, conn, h.hub, r.RemoteAddr, h.maxMessageSize))
}

// TestPageHandler serves an HTML page that speaks the relay protocol, for
// trying the server from a browser.
func TestPageHandler(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if _, err := fmt.Fprint(w, testPageHTML); err != nil {
			log.Error("Error writing HTML response", "error", err)
		}
	}
}

const testPageHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Relay Chat Test</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #messages {
            border: 1px solid #ccc;
            height: 300px;
            padding: 10px;
            overflow-y: scroll;
            margin: 10px 0;
            background-color: #f9f9f9;
        }
        input[type="text"] {
            width: 300px;
            padding: 5px;
            margin-right: 10px;
        }
        button {
            padding: 5px 15px;
            background-color: #007cba;
            color: white;
            border: none;
            cursor: pointer;
        }
        button:hover { background-color: #005a87; }
        .status {
            margin: 10px 0;
            padding: 5px;
            border-radius: 3px;
        }
        .connected { background-color: #d4edda; color: #155724; }
        .disconnected { background-color: #f8d7da; color: #721c24; }
        #typing { color: #888; font-style: italic; min-height: 1.2em; }
    </style>
</head>
<body>
    <h1>Relay Chat Test</h1>

    <div id="status" class="status disconnected">Disconnected</div>
    <div>Online: <span id="count">0</span></div>

    <div>
        <input type="text" id="usernameInput" placeholder="Your name...">
        <button id="connectButton" onclick="toggleConnection()">Connect</button>
    </div>
    <div>
        <input type="text" id="messageInput" placeholder="Type a message..." disabled>
        <button id="sendButton" onclick="sendMessage()" disabled>Send</button>
    </div>

    <div id="messages"></div>
    <div id="typing"></div>

    <script>
        let ws = null;
        let typingTimer = null;
        const messagesDiv = document.getElementById('messages');
        const messageInput = document.getElementById('messageInput');
        const usernameInput = document.getElementById('usernameInput');
        const sendButton = document.getElementById('sendButton');
        const connectButton = document.getElementById('connectButton');
        const statusDiv = document.getElementById('status');
        const countSpan = document.getElementById('count');
        const typingDiv = document.getElementById('typing');

        function addMessage(text, color) {
            const el = document.createElement('div');
            el.style.margin = '5px 0';
            el.style.color = color || 'gray';
            el.textContent = text;
            messagesDiv.appendChild(el);
            messagesDiv.scrollTop = messagesDiv.scrollHeight;
        }

        function updateStatus(connected) {
            statusDiv.textContent = connected ? 'Connected' : 'Disconnected';
            statusDiv.className = 'status ' + (connected ? 'connected' : 'disconnected');
            messageInput.disabled = !connected;
            sendButton.disabled = !connected;
            connectButton.textContent = connected ? 'Disconnect' : 'Connect';
        }

        function send(obj) {
            if (ws && ws.readyState === WebSocket.OPEN) {
                ws.send(JSON.stringify(obj));
            }
        }

        function connect() {
            const scheme = location.protocol === 'https:' ? 'wss://' : 'ws://';
            ws = new WebSocket(scheme + location.host + '/ws');

            ws.onopen = function() {
                updateStatus(true);
                send({ type: 'join', username: usernameInput.value.trim() });
            };

            ws.onmessage = function(event) {
                const msg = JSON.parse(event.data);
                switch (msg.type) {
                    case 'system':
                        addMessage(msg.message);
                        break;
                    case 'joined':
                        addMessage('You joined as ' + msg.username);
                        break;
                    case 'chat':
                        addMessage(msg.username + ': ' + msg.message, 'green');
                        break;
                    case 'typing':
                        typingDiv.textContent = msg.isTyping ? (msg.username || 'Someone') + ' is typing...' : '';
                        break;
                    case 'user_count':
                        countSpan.textContent = msg.count;
                        break;
                }
            };

            ws.onclose = function() {
                addMessage('Connection closed');
                updateStatus(false);
                ws = null;
            };

            ws.onerror = function() {
                addMessage('Connection error');
            };
        }

        function toggleConnection() {
            if (ws && ws.readyState === WebSocket.OPEN) {
                ws.close();
            } else {
                connect();
            }
        }

        function sendMessage() {
            const message = messageInput.value.trim();
            if (message) {
                send({ type: 'chat', message: message });
                send({ type: 'typing', isTyping: false });
                messageInput.value = '';
            }
        }

        messageInput.addEventListener('input', function() {
            send({ type: 'typing', isTyping: true });
            clearTimeout(typingTimer);
            typingTimer = setTimeout(function() {
                send({ type: 'typing', isTyping: false });
            }, 1500);
        });

        messageInput.addEventListener('keypress', function(e) {
            if (e.key === 'Enter') {
                sendMessage();
            }
        });
    </script>
</body>
</html>`
