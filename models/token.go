package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims, access token'ın JWT payload'ı.
//
// Server her request'te imzayı doğrular — DB'ye gitmeden kullanıcının
// kim olduğunu bilir. Üyelik ve yetki kontrolleri ayrı middleware'lerde
// yapılır; token sadece kimliği taşır.
//
// models paketinde tanımlı çünkü services, ws ve middleware birden
// kullanır — her katman models'e bağımlı olabilir, circular dependency
// oluşmaz.
type TokenClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}
