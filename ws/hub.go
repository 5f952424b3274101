package ws

import (
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"
)

// EventPublisher, service katmanının WebSocket event'leri broadcast etmek için
// kullandığı interface.
//
// Dependency Inversion: Service'ler Hub'ın concrete struct'ına değil,
// bu interface'e bağımlıdır. Böylece:
// 1. Service test edilirken mock EventPublisher kullanılabilir
// 2. Hub implementasyonu değişse bile service kodu etkilenmez
type EventPublisher interface {
	// BroadcastToServer, event'i sunucunun bağlı üyelerine gönderir.
	BroadcastToServer(serverID string, event Event)

	// BroadcastToUser, event'i belirli bir kullanıcının tüm bağlantılarına gönderir.
	BroadcastToUser(userID string, event Event)

	// GetOnlineUserIDs, bağlı olan tüm kullanıcı ID'lerini döner.
	GetOnlineUserIDs() []string

	// SubscribeUserToServer, kullanıcının sunucu aboneliğini ekler.
	// Sunucuya katılımda çağrılır — yeni event'ler hemen akmaya başlar.
	SubscribeUserToServer(userID, serverID string)

	// UnsubscribeUserFromServer, kullanıcının sunucu aboneliğini kaldırır.
	// Ayrılma, kick ve ban'da çağrılır.
	UnsubscribeUserFromServer(userID, serverID string)
}

// Hub, tüm WebSocket bağlantılarını yöneten merkezi yapıdır (Observer pattern).
//
// Observer pattern nedir?
// Bir "subject" (Hub) birden fazla "observer"ı (Client) takip eder.
// Bir event olduğunda Hub, ilgili observer'lara bildirim gönderir.
//
// Go channel nedir? (register, unregister)
// Goroutine'ler arası güvenli iletişim sağlayan yapılar.
// Hub.Run() goroutine'i bu channel'lardan `select` ile okur:
// - register channel'dan yeni client gelirse → clients map'e ekle
// - unregister channel'dan client gelirse → map'ten çıkar
type Hub struct {
	// clients: userID → Client set (bir kullanıcının birden fazla tab'ı olabilir).
	// map[string]map[*Client]bool — Go'da set yoktur, map[*Client]bool kullanılır.
	clients map[string]map[*Client]bool

	// subscriptions: serverID → userID set.
	// BroadcastToServer bu map üzerinden hedef kullanıcıları bulur.
	// Bağlantı kurulunca onConnect callback'inin döndürdüğü sunucu
	// listesiyle doldurulur; join/leave/kick/ban service'lerden güncellenir.
	subscriptions map[string]map[string]bool

	// mu: clients + subscriptions map'lerini koruyan read-write mutex.
	//
	// sync.RWMutex nedir?
	// Mutex'in gelişmiş hali — birden fazla okuyucu aynı anda erişebilir (RLock),
	// ama yazma işlemi sırasında tüm erişim bloklanır (Lock).
	mu sync.RWMutex

	// register/unregister: Client giriş/çıkış sinyalleri.
	register   chan *Client
	unregister chan *Client

	// seq: Her outbound event'e verilen artan sayaç.
	// atomic.Int64: Birden fazla goroutine'in güvenle okuyup yazabildiği sayı.
	seq atomic.Int64

	// ─── Callback'ler ───
	// ws paketi services'a import edilir (broadcast için); ters yönde import
	// circular dependency yaratır. Bu yüzden DB gerektiren işler main.go'da
	// set edilen callback'lere devredilir.

	// onConnect: Bağlantı kurulduğunda ready payload'ını ve kullanıcının
	// üye olduğu sunucu ID'lerini üretir.
	onConnect func(userID string) (ReadyData, []string)

	// onPresenceUpdate: Kullanıcı durumunu değiştirdiğinde DB persist +
	// broadcast sorumluluğunu taşır.
	onPresenceUpdate func(userID, status string)
}

// NewHub, yeni bir Hub oluşturur.
func NewHub() *Hub {
	return &Hub{
		clients:       make(map[string]map[*Client]bool),
		subscriptions: make(map[string]map[string]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
	}
}

// SetOnConnect, bağlantı kurulduğunda çağrılacak callback'i set eder.
func (h *Hub) SetOnConnect(fn func(userID string) (ReadyData, []string)) {
	h.onConnect = fn
}

// SetOnPresenceUpdate, presence değişikliği callback'ini set eder.
func (h *Hub) SetOnPresenceUpdate(fn func(userID, status string)) {
	h.onPresenceUpdate = fn
}

// Run, Hub'ın ana event loop'udur. main.go'da `go hub.Run()` ile başlatılır.
//
// select nedir?
// Birden fazla channel'ı aynı anda dinler.
// Hangi channel'dan veri gelirse o case çalışır.
// Hiçbirinden gelmezse bekler (blocking).
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

// addClient, yeni bir client'ı Hub'a ekler ve sunucu aboneliklerini kurar.
func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.userID]; !ok {
		h.clients[client.userID] = make(map[*Client]bool)
	}
	h.clients[client.userID][client] = true

	for _, serverID := range client.serverIDs {
		if _, ok := h.subscriptions[serverID]; !ok {
			h.subscriptions[serverID] = make(map[string]bool)
		}
		h.subscriptions[serverID][client.userID] = true
	}

	log.Printf("[ws] client connected: user=%s (total connections for user: %d)",
		client.userID, len(h.clients[client.userID]))

	// İlk bağlantıysa kullanıcı online oldu — DB persist + broadcast callback'e ait.
	// go ile çağrılır: callback içindeki broadcast hub mutex'ini alır, deadlock önlenir.
	if len(h.clients[client.userID]) == 1 && h.onPresenceUpdate != nil {
		go h.onPresenceUpdate(client.userID, "online")
	}
}

// removeClient, bir client'ı Hub'dan çıkarır ve send channel'ını kapatır.
func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.userID]; ok {
		if _, exists := clients[client]; exists {
			delete(clients, client)
			close(client.send)

			// Kullanıcının başka bağlantısı kalmadıysa abonelikleri de temizle
			if len(clients) == 0 {
				delete(h.clients, client.userID)
				for serverID, users := range h.subscriptions {
					delete(users, client.userID)
					if len(users) == 0 {
						delete(h.subscriptions, serverID)
					}
				}
				log.Printf("[ws] user fully disconnected: %s", client.userID)

				if h.onPresenceUpdate != nil {
					go h.onPresenceUpdate(client.userID, "offline")
				}
			} else {
				log.Printf("[ws] client disconnected: user=%s (remaining: %d)",
					client.userID, len(clients))
			}
		}
	}
}

// SubscribeUserToServer, bağlı bir kullanıcıyı sunucu aboneliğine ekler.
// Kullanıcı bağlı değilse no-op — bir sonraki bağlantıda onConnect doldurur.
func (h *Hub) SubscribeUserToServer(userID, serverID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, online := h.clients[userID]; !online {
		return
	}
	if _, ok := h.subscriptions[serverID]; !ok {
		h.subscriptions[serverID] = make(map[string]bool)
	}
	h.subscriptions[serverID][userID] = true
}

// UnsubscribeUserFromServer, kullanıcının sunucu aboneliğini kaldırır.
func (h *Hub) UnsubscribeUserFromServer(userID, serverID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if users, ok := h.subscriptions[serverID]; ok {
		delete(users, userID)
		if len(users) == 0 {
			delete(h.subscriptions, serverID)
		}
	}
}

// BroadcastToServer, event'i sunucunun bağlı üyelerine gönderir.
func (h *Hub) BroadcastToServer(serverID string, event Event) {
	event.Seq = h.seq.Add(1)

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] failed to marshal broadcast event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for userID := range h.subscriptions[serverID] {
		for client := range h.clients[userID] {
			select {
			case client.send <- data:
			default:
				// Buffer dolu — bu client yavaş, kapat
				go func(c *Client) { h.unregister <- c }(client)
			}
		}
	}
}

// BroadcastToUser, belirli bir kullanıcının tüm bağlantılarına event gönderir.
func (h *Hub) BroadcastToUser(userID string, event Event) {
	event.Seq = h.seq.Add(1)

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] failed to marshal user event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.clients[userID]; ok {
		for client := range clients {
			select {
			case client.send <- data:
			default:
				go func(c *Client) { h.unregister <- c }(client)
			}
		}
	}
}

// GetOnlineUserIDs, bağlı olan tüm kullanıcı ID'lerini döner.
func (h *Hub) GetOnlineUserIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.clients))
	for userID := range h.clients {
		ids = append(ids, userID)
	}
	return ids
}

// Shutdown, tüm client bağlantılarını kapatır (graceful shutdown).
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.clients {
		for client := range clients {
			close(client.send)
		}
	}
	h.clients = make(map[string]map[*Client]bool)
	h.subscriptions = make(map[string]map[string]bool)
	log.Println("[ws] hub shut down, all connections closed")
}
