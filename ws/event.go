// Package ws, WebSocket bağlantı yönetimi ve gerçek zamanlı event dağıtımını sağlar.
//
// Mimari:
// - Hub: Tüm bağlantıları yöneten merkezi yapı (Observer pattern)
// - Client: Her WebSocket bağlantısını temsil eder
// - Event: Client-server arası iletilen mesaj formatı
//
// Event akışı:
// 1. Kullanıcı mesaj gönderir → HTTP POST → Service → DB kayıt
// 2. Service, Hub'ın BroadcastToServer metodunu çağırır
// 3. Hub, event'i o sunucuya üye olan bağlı client'lara iletir
// 4. Her client'ın WritePump'ı event'i WebSocket'e yazar
// 5. Frontend event'i alır ve store'u günceller
package ws

// Event, WebSocket üzerinden iletilen bir mesajı temsil eder.
//
// Op (operation): Event türü — "message_create", "heartbeat" vb.
// Data: Event'e özgü payload — mesaj objesi, kanal bilgisi vb.
// Seq (sequence number): Her outbound event'e verilen artan sayı.
//   Frontend eksik event tespit etmek için seq'i takip eder.
//   Örnek: seq 5'ten sonra seq 7 gelirse, 6 kaybolmuş demektir.
type Event struct {
	Op   string `json:"op"`
	Data any    `json:"d,omitempty"`
	Seq  int64  `json:"seq,omitempty"`
}

// ────────────────────────────────────────────
// Operation sabitleri
// ────────────────────────────────────────────

// Client → Server operasyonları
const (
	OpHeartbeat      = "heartbeat"       // Client her 30sn'de gönderir — "hâlâ bağlıyım" sinyali
	OpPresenceUpdate = "presence_update" // Durum değişikliği (online/idle/dnd)
)

// Server → Client operasyonları
const (
	OpReady        = "ready"         // Bağlantı kurulduğunda ilk gönderilen — kullanıcı + sunucu bilgileri
	OpHeartbeatAck = "heartbeat_ack" // Heartbeat'e yanıt — "seni duydum"

	OpMessageCreate = "message_create" // Yeni mesaj oluşturuldu
	OpMessageUpdate = "message_update" // Mesaj düzenlendi
	OpMessageDelete = "message_delete" // Mesaj silindi

	OpChannelCreate  = "channel_create"  // Yeni kanal oluşturuldu
	OpChannelUpdate  = "channel_update"  // Kanal düzenlendi
	OpChannelDelete  = "channel_delete"  // Kanal silindi
	OpChannelReorder = "channel_reorder" // Kanal sıralaması güncellendi — tam Channel[] listesi

	OpPresence     = "presence_update"
	OpMemberJoin   = "member_join"   // Yeni üye katıldı
	OpMemberLeave  = "member_leave"  // Üye ayrıldı (kendi isteğiyle, kick veya ban)
	OpMemberUpdate = "member_update" // Üye bilgileri güncellendi (rol değişikliği, profil güncelleme)

	OpRoleCreate   = "role_create"   // Yeni rol oluşturuldu
	OpRoleUpdate   = "role_update"   // Rol güncellendi
	OpRoleDelete   = "role_delete"   // Rol silindi
	OpRolesReorder = "roles_reorder" // Rol sıralaması güncellendi — tam Role[] listesi

	OpServerCreate = "server_create" // Kullanıcı yeni sunucu oluşturdu veya katıldı
	OpServerUpdate = "server_update" // Sunucu bilgileri güncellendi (isim, ikon)
	OpServerDelete = "server_delete" // Sunucu silindi veya kullanıcı ayrıldı

	// Channel permission override operasyonları.
	// Bu event'ler geldiğinde client, kanal görünürlüğünü yeniden hesaplamalıdır.
	OpChannelPermissionUpdate = "channel_permission_update" // Override oluşturuldu/güncellendi
	OpChannelPermissionDelete = "channel_permission_delete" // Override silindi
)

// ReadyData, bağlantı kurulduğunda client'a gönderilen ilk event'in payload'ı.
//
// Multi-server mimaride ready event kullanıcının sunucu listesini de içerir.
// Frontend bu event ile:
// 1. Sunucu listesini store'a atar (server list sidebar için)
// 2. Online kullanıcıları Set'e atar (presence indicator için)
// 3. Gerekli verileri fetch eder (members, channels vb.)
type ReadyData struct {
	OnlineUserIDs []string          `json:"online_user_ids"`
	Servers       []ReadyServerItem `json:"servers"`
}

// ReadyServerItem, ready event'inde gönderilen minimal sunucu bilgisi.
// ws paketinin models'a bağımlılığını kırmak için ayrı tanımlanır.
type ReadyServerItem struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	IconURL *string `json:"icon_url"`
}

// PresenceData, bir kullanıcının online durumu değiştiğinde broadcast edilen payload.
type PresenceData struct {
	UserID string `json:"user_id"`
	Status string `json:"status"`
}

// OverrideDeleteData, channel_permission_delete event'inin payload'ı.
// Hangi hedefin override'ının kalktığını söyler.
type OverrideDeleteData struct {
	ChannelID string `json:"channel_id"`
	RoleID    string `json:"role_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}
