package middleware

import (
	"context"
	"net/http"

	"github.com/acarlson33/firepit/handlers"
	"github.com/acarlson33/firepit/models"
	"github.com/acarlson33/firepit/pkg"
	"github.com/acarlson33/firepit/repository"
)

// PermissionMiddleware, kullanıcının gerekli sunucu yetkisine sahip olup
// olmadığını kontrol eder.
//
// Bu middleware AuthMiddleware + ServerMembershipMiddleware'den SONRA çalışır —
// context'te doğrulanmış user bilgisi VE serverID mevcuttur.
//
// Multi-server mimaride roller sunucu bazlıdır; kontrol yapılırken
// context'teki serverID ile kullanıcının o sunucudaki rolleri alınır.
// Sunucu sahibi kimlik bazlı bypass'a sahiptir — rolü olmasa bile her
// yetkiyi taşır.
//
// Burada SUNUCU seviyesi yetki hesaplanır: kanal override'ları uygulanmaz.
// Kanal bazlı kararlar (mesaj okuma/gönderme gibi) service katmanında
// ChannelPermResolver ile verilir.
//
// Akış:
// HTTP request → AuthMiddleware (JWT doğrula, user'ı context'e koy)
//              → ServerMembershipMiddleware (serverID'yi context'e koy)
//              → PermissionMiddleware (o sunucudaki rolleri al, yetkiyi kontrol et)
//              → Handler
type PermissionMiddleware struct {
	roleRepo   repository.RoleRepository
	serverRepo repository.ServerRepository
}

// NewPermissionMiddleware, constructor.
func NewPermissionMiddleware(roleRepo repository.RoleRepository, serverRepo repository.ServerRepository) *PermissionMiddleware {
	return &PermissionMiddleware{roleRepo: roleRepo, serverRepo: serverRepo}
}

// Require, belirli bir sunucu yetkisini gerektiren middleware döner.
//
// Kullanım:
//
//	permMiddleware.Require(models.PermManageChannels, http.HandlerFunc(channelHandler.Create))
//
// Bu pattern Go'da "middleware factory" olarak bilinir:
// Require bir fonksiyon döner, dönen fonksiyon http.Handler wrap eder.
func (m *PermissionMiddleware) Require(perm models.Permission, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		perms, ok := m.resolveServerPermissions(w, r)
		if !ok {
			return
		}

		if !perms.Has(perm) {
			pkg.ErrorWithMessage(w, http.StatusForbidden, "insufficient permissions")
			return
		}

		// Yetkileri context'e ekle — handler'da tekrar hesaplanmasın
		ctx := context.WithValue(r.Context(), handlers.PermissionsContextKey, perms)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Load, kullanıcının sunucu yetkilerini context'e yükler ama herhangi bir
// yetki gerektirmez. Handler kendi içinde yetki kontrolü yapar.
//
// Kullanım: "sahibi VEYA yetkili kullanıcı" senaryolarında handler'ın
// hem user ID hem de yetki bilgisine ihtiyacı vardır. Require kullanırsak
// sadece yetkili kullanıcılar erişir — normal kullanıcılar kendi
// kaynaklarını yönetemez. Load ile yetkiler context'e yüklenir,
// handler kararı kendisi verir.
func (m *PermissionMiddleware) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		perms, ok := m.resolveServerPermissions(w, r)
		if !ok {
			return
		}

		ctx := context.WithValue(r.Context(), handlers.PermissionsContextKey, perms)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// resolveServerPermissions, context'teki user + serverID'den sunucu
// seviyesi effective permissions hesaplar. Hata durumunda response'u
// kendisi yazar ve ok=false döner.
func (m *PermissionMiddleware) resolveServerPermissions(w http.ResponseWriter, r *http.Request) (models.PermissionSet, bool) {
	user, ok := r.Context().Value(handlers.UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return models.PermissionSet{}, false
	}

	// ServerID context'ten al — ServerMembershipMiddleware tarafından eklenir.
	serverID, ok := r.Context().Value(handlers.ServerIDContextKey).(string)
	if !ok || serverID == "" {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "server context required for permission check")
		return models.PermissionSet{}, false
	}

	server, err := m.serverRepo.GetByID(r.Context(), serverID)
	if err != nil {
		pkg.ErrorWithMessage(w, http.StatusInternalServerError, "failed to get server")
		return models.PermissionSet{}, false
	}

	// Kullanıcının o sunucudaki rollerini getir
	roles, err := m.roleRepo.GetByUserAndServer(r.Context(), user.ID, serverID)
	if err != nil {
		pkg.ErrorWithMessage(w, http.StatusInternalServerError, "failed to get user roles")
		return models.PermissionSet{}, false
	}

	// Effective permissions: rollerin OR-union'ı, owner ve administrator
	// bypass'ları dahil. Override'sız çağrı — sunucu seviyesi karar.
	return models.GetEffectivePermissions(roles, nil, server.OwnerID == user.ID), true
}
