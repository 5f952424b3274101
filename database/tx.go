// Package database — Transaction yardımcısı.
//
// WithTx, çok adımlı DB işlemlerini tek atomik birim olarak çalıştırır.
// Sunucu oluşturma gibi akışlarda (server + üyelik + rol + kanal) ara
// adımlardan biri patlarsa, öncekiler DB'de kalmamalı: ya hepsi COMMIT
// edilir ya da hepsi ROLLBACK ile geri alınır.
//
// Tipik kullanım — service katmanından:
//
//	err := database.WithTx(ctx, db, func(tx *sql.Tx) error {
//	    txRepo := repository.NewSQLiteServerRepo(tx)
//	    if err := txRepo.Create(ctx, server); err != nil {
//	        return err // → ROLLBACK
//	    }
//	    return nil // → COMMIT
//	})
//
// Repository entegrasyonu: repo constructor'ları TxQuerier kabul eder,
// bu yüzden aynı repo kodu hem *sql.DB hem transaction içindeki *sql.Tx
// ile çalışır — transaction için ayrı repo implementasyonu gerekmez.
package database

import (
	"context"
	"database/sql"
	"fmt"
)

// TxQuerier, *sql.DB ve *sql.Tx'in ortak query yüzeyi.
//
// database/sql bu interface'i kendisi sunmaz; üç context'li metodu
// biz tanımlarız ve her iki tip de onu örtük olarak karşılar.
// Repository'ler bağımlılık olarak bunu aldığı için transaction'a
// girip çıkmak sadece hangi değerin geçirildiği meselesidir.
type TxQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx, fn'i bir transaction içinde çalıştırır.
//
// fn nil dönerse COMMIT, error dönerse ROLLBACK. fn panic atarsa da
// önce ROLLBACK yapılır, sonra panic yeniden fırlatılır — aksi halde
// transaction açık kalır ve SQLite'ta yazma kilidi takılı kalabilir.
//
// Named return (err) burada bilinçli: deferred closure commit/rollback
// hatalarını dönüş değerine yazabilmek için err'e erişmek zorunda.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}

		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
			}
			return
		}

		if commitErr := tx.Commit(); commitErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", commitErr)
		}
	}()

	err = fn(tx)
	return
}
