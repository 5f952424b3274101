package models

// Permission, sabit sekiz yetkiden birinin adıdır.
//
// Yetki kümesi kapalıdır: runtime'da yeni yetki eklenemez. String tabanlı
// tutuyoruz çünkü hem JSON'da hem DB'de okunabilir isimler saklıyoruz
// (bit flag yerine açık alanlar — aşağıdaki PermissionSet'e bak).
type Permission string

const (
	PermReadMessages    Permission = "readMessages"
	PermSendMessages    Permission = "sendMessages"
	PermManageMessages  Permission = "manageMessages"
	PermManageChannels  Permission = "manageChannels"
	PermManageRoles     Permission = "manageRoles"
	PermManageServer    Permission = "manageServer"
	PermMentionEveryone Permission = "mentionEveryone"
	PermAdministrator   Permission = "administrator"
)

// allPermissions, sabit sıralı yetki listesi.
// UI enumeration ve toplu validation bu sırayı kullanır.
var allPermissions = []Permission{
	PermReadMessages,
	PermSendMessages,
	PermManageMessages,
	PermManageChannels,
	PermManageRoles,
	PermManageServer,
	PermMentionEveryone,
	PermAdministrator,
}

// permissionDescriptions, her yetkinin sabit açıklama metni.
// Hesaplamaya girmez, sadece UI/API için metadata.
var permissionDescriptions = map[Permission]string{
	PermReadMessages:    "Read messages in text channels",
	PermSendMessages:    "Send messages in text channels",
	PermManageMessages:  "Delete or pin other members' messages",
	PermManageChannels:  "Create, edit and delete channels",
	PermManageRoles:     "Create, edit and delete roles below their own",
	PermManageServer:    "Edit server settings and invites",
	PermMentionEveryone: "Mention @everyone in messages",
	PermAdministrator:   "Bypass all permission checks",
}

// PermissionSet, sekiz yetkinin her biri için açık bir bool alanı taşır.
//
// Neden bitmask değil? Yetki adları JSON body'lerde ve override
// kayıtlarında string olarak geliyor; stringly-typed map erişimi yerine
// kapalı enum üzerinden switch yapan sabit bir struct hem type-safe
// hem de sıfır değeri (hepsi false) doğru başlangıç noktası.
//
// Aynı struct iki yerde kullanılır:
//   - Role içine gömülü: rolün verdiği yetkiler (DB'de persist edilir)
//   - Resolver çıktısı: kullanıcının o kanaldaki efektif yetkileri (ephemeral)
type PermissionSet struct {
	ReadMessages    bool `json:"readMessages"`
	SendMessages    bool `json:"sendMessages"`
	ManageMessages  bool `json:"manageMessages"`
	ManageChannels  bool `json:"manageChannels"`
	ManageRoles     bool `json:"manageRoles"`
	ManageServer    bool `json:"manageServer"`
	MentionEveryone bool `json:"mentionEveryone"`
	Administrator   bool `json:"administrator"`
}

// AllGranted, sekiz yetkinin tamamı açık bir set döner.
// Owner ve administrator kısa devreleri bunu kullanır.
func AllGranted() PermissionSet {
	return PermissionSet{
		ReadMessages:    true,
		SendMessages:    true,
		ManageMessages:  true,
		ManageChannels:  true,
		ManageRoles:     true,
		ManageServer:    true,
		MentionEveryone: true,
		Administrator:   true,
	}
}

// Has, tek bir yetkinin flag'ine bakar. Administrator bypass'ı YOK —
// onun için Allows kullan. Bilinmeyen isim false döner.
func (s PermissionSet) Has(p Permission) bool {
	switch p {
	case PermReadMessages:
		return s.ReadMessages
	case PermSendMessages:
		return s.SendMessages
	case PermManageMessages:
		return s.ManageMessages
	case PermManageChannels:
		return s.ManageChannels
	case PermManageRoles:
		return s.ManageRoles
	case PermManageServer:
		return s.ManageServer
	case PermMentionEveryone:
		return s.MentionEveryone
	case PermAdministrator:
		return s.Administrator
	}
	return false
}

// Allows, authorization kontrolünün kullandığı lookup:
// administrator her zaman kazanır, yoksa ilgili flag'e bakılır.
func (s PermissionSet) Allows(p Permission) bool {
	if s.Administrator {
		return true
	}
	return s.Has(p)
}

// set, tek bir flag'i yazar. Kapalı kümede olmayan bir isim sessizce
// no-op olur: override verilerindeki tanınmayan yetki adları hesabı
// bozmaz, sadece hiçbir alana denk gelmez. Untrusted input'u API
// sınırında IsValidPermission ile ayıklamak caller'ın işi.
func (s *PermissionSet) set(p Permission, v bool) {
	switch p {
	case PermReadMessages:
		s.ReadMessages = v
	case PermSendMessages:
		s.SendMessages = v
	case PermManageMessages:
		s.ManageMessages = v
	case PermManageChannels:
		s.ManageChannels = v
	case PermManageRoles:
		s.ManageRoles = v
	case PermManageServer:
		s.ManageServer = v
	case PermMentionEveryone:
		s.MentionEveryone = v
	case PermAdministrator:
		s.Administrator = v
	}
}

// union, diğer set'te açık olan her flag'i bu set'te de açar (OR merge).
func (s *PermissionSet) union(o PermissionSet) {
	for _, p := range allPermissions {
		if o.Has(p) {
			s.set(p, true)
		}
	}
}

// applyOverride, tek bir override'ın allow/deny listelerini sırayla uygular.
//
// Önce allow, sonra deny — ikisi de doğrudan atama (merge değil).
// Aynı override hem allow hem deny'da aynı yetkiyi içeriyorsa deny
// kazanır çünkü ikinci yazılan odur.
func (s *PermissionSet) applyOverride(o ChannelPermissionOverride) {
	for _, name := range o.Allow {
		s.set(Permission(name), true)
	}
	for _, name := range o.Deny {
		s.set(Permission(name), false)
	}
}

// GetEffectivePermissions, bir kullanıcının bir kanaldaki efektif
// yetkilerini hesaplar. Core resolver budur; saf fonksiyondur, I/O
// yapmaz, hata dönmez, paylaşılan state'e dokunmaz — istediğin kadar
// goroutine'den aynı anda çağrılabilir.
//
// Girdiler:
//   - roles: kullanıcının o sunucudaki TÜM rolleri (boş olabilir)
//   - overrides: kontrol edilen kanalın override'ları. Kanal filtresini
//     ve kullanıcıya uygunluk filtresini (userId eşleşmesi / roleId'nin
//     kullanıcının rollerinde olması) caller yapar; burada sadece
//     roleId'li / userId'li ayrımı yapılır.
//   - isOwner: kullanıcı sunucunun sahibi mi
//
// Öncelik sırası (her aşama bir öncekinin sonucunu ezebilir):
//
//  1. Owner kısa devre: sahip her şeyi yapabilir, hesap biter.
//  2. Administrator kısa devre: herhangi bir rolde administrator varsa
//     tüm flag'ler açık döner — override'lara hiç bakılmaz.
//  3. Base merge: tüm rollerin flag'lerinin OR birleşimi. Union'dur,
//     position burada anlamsız (position sadece hiyerarşi kurallarında
//     kullanılır, aşağıdaki CanManageRole'a bak).
//  4. Rol override'ları: roleId'si dolu override'lar, verilen listedeki
//     sırayla uygulanır. Sıralama YOK: aynı yetkide çakışan iki rol
//     override'ından listede son gelen kazanır.
//  5. Kullanıcı override'ı (en yüksek öncelik): userId'si dolu İLK
//     override uygulanır, varsa sonrakiler yok sayılır. Caller'ın
//     filtreleme sözleşmesi gereği zaten en fazla bir tane beklenir.
func GetEffectivePermissions(roles []Role, overrides []ChannelPermissionOverride, isOwner bool) PermissionSet {
	if isOwner {
		return AllGranted()
	}

	for _, r := range roles {
		if r.Administrator {
			return AllGranted()
		}
	}

	var effective PermissionSet
	for _, r := range roles {
		effective.union(r.PermissionSet)
	}

	for _, o := range overrides {
		if o.RoleID == "" {
			continue
		}
		effective.applyOverride(o)
	}

	for _, o := range overrides {
		if o.UserID == "" {
			continue
		}
		effective.applyOverride(o)
		break // sadece ilk kullanıcı override'ı
	}

	return effective
}

// IsValidPermission, verilen ismin sekiz kanonik yetkiden biri olup
// olmadığını kontrol eder. API body'lerinden gelen allow/deny
// listelerini resolver'a girmeden temizlemek için kullanılır.
func IsValidPermission(name string) bool {
	_, ok := permissionDescriptions[Permission(name)]
	return ok
}

// AllPermissions, sekiz yetkinin sabit sıralı kopyasını döner.
func AllPermissions() []Permission {
	out := make([]Permission, len(allPermissions))
	copy(out, allPermissions)
	return out
}

// PermissionDescription, yetkinin sabit açıklamasını döner.
// Tanınmayan yetki için boş string.
func PermissionDescription(p Permission) string {
	return permissionDescriptions[p]
}
