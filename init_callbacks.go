// Package main — WebSocket Hub callback wire-up.
//
// registerHubCallbacks, Hub'ın ready ve presence callback'lerini ayarlar.
//
// Bu callback'ler neden burada (main package'da)?
// Hub ws paketinde yaşıyor, ama DB erişimi service/repo katmanında.
// Hub'ın service'lere bağımlı olmasını istemiyoruz (Dependency Inversion).
// main package wire-up noktasıdır — tüm katmanları birbirine bağlar.
package main

import (
	"context"
	"log"

	"github.com/acarlson33/firepit/models"
	"github.com/acarlson33/firepit/repository"
	"github.com/acarlson33/firepit/services"
	"github.com/acarlson33/firepit/ws"
)

// registerHubCallbacks, Hub callback'lerini register eder.
//
// - onConnect: Yeni WS bağlantısında ready payload'ı (online kullanıcılar +
//   sunucu listesi) ve abonelik için sunucu ID'lerini üretir.
// - onPresenceUpdate: İlk bağlantı (online), son kopuş (offline) ve client'ın
//   manuel durum değişiklikleri (idle/dnd) için DB persist + broadcast yapar.
func registerHubCallbacks(
	hub *ws.Hub,
	serverRepo repository.ServerRepository,
	memberService services.MemberService,
) {
	hub.SetOnConnect(func(userID string) (ws.ReadyData, []string) {
		ready := ws.ReadyData{
			OnlineUserIDs: hub.GetOnlineUserIDs(),
			Servers:       []ws.ReadyServerItem{},
		}

		servers, err := serverRepo.GetUserServers(context.Background(), userID)
		if err != nil {
			// Sunucu listesi alınamazsa bağlantıyı reddetme — client boş
			// liste ile başlar, REST üzerinden tekrar dener.
			log.Printf("[ws] failed to load servers for ready payload user=%s: %v", userID, err)
			return ready, nil
		}

		serverIDs := make([]string, 0, len(servers))
		for _, srv := range servers {
			serverIDs = append(serverIDs, srv.ID)
			ready.Servers = append(ready.Servers, ws.ReadyServerItem{
				ID:      srv.ID,
				Name:    srv.Name,
				IconURL: srv.IconURL,
			})
		}

		return ready, serverIDs
	})

	hub.SetOnPresenceUpdate(func(userID, status string) {
		if err := memberService.UpdatePresence(context.Background(), userID, models.UserStatus(status)); err != nil {
			log.Printf("[presence] failed to set %s for user %s: %v", status, userID, err)
			return
		}
		log.Printf("[presence] user %s is now %s", userID, status)
	})
}
