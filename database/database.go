// Package database, firepit'in SQLite bağlantısını açar ve şema
// migration'larını uygular.
//
// database/sql tek başına hiçbir veritabanıyla konuşamaz; kayıtlı bir
// driver'a ihtiyaç duyar. modernc.org/sqlite import edildiği anda kendini
// "sqlite" adıyla kaydeder — bu yüzden aşağıda blank import var: paketi
// hiçbir yerde doğrudan kullanmıyoruz, sadece init() yan etkisini istiyoruz.
package database

import (
	"database/sql"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // driver kaydı — pure Go, CGO'suz derlenir
)

// recoverableErrors: migration yarıda kalıp tekrar çalıştırıldığında
// çıkabilecek, güvenle atlanabilir hata kalıpları. "duplicate column name"
// kolonun önceki denemede zaten eklendiği anlamına gelir.
var recoverableErrors = []string{
	"duplicate column name", // ALTER TABLE ADD COLUMN ikinci kez koştu
}

// DB, uygulamanın veritabanı handle'ı. İçindeki *sql.DB zaten bir
// connection pool'dur ve goroutine-safe'dir; repository'ler Conn'u
// doğrudan paylaşır, ayrıca kilitlemeye gerek yoktur.
type DB struct {
	Conn *sql.DB
}

// New, dbPath'teki SQLite dosyasını açar (yoksa oluşturur) ve
// migrationsFS içindeki SQL dosyalarını sırayla uygular.
//
// migrationsFS bir fs.FS'tir: üretimde embed.FS verilir, testlerde
// os.DirFS veya fstest.MapFS da geçer — New ikisini de ayırt etmez.
func New(dbPath string, migrationsFS fs.FS) (*DB, error) {
	// Dosyanın dizini yoksa önce onu oluştur
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// SQLite'ta foreign key kontrolü varsayılan KAPALI — pragma ile açıyoruz.
	// WAL journal modu okuma ve yazmanın birbirini bloklamasını azaltır.
	// modernc.org/sqlite pragma'ları DSN üzerinden _pragma=... ile alır.
	conn, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// sql.Open dosyaya dokunmaz; gerçek bağlantıyı Ping kurar
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{Conn: conn}

	if err := db.runMigrations(migrationsFS); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("[database] connected and migrations applied")
	return db, nil
}

// Close bağlantı havuzunu kapatır. Çağıran tarafta genellikle
// defer db.Close() olarak kullanılır.
func (db *DB) Close() error {
	return db.Conn.Close()
}

// runMigrations, migrations dizinindeki .sql dosyalarını isim sırasına
// göre (001_, 002_, ...) uygular.
//
// Hangi dosyanın uygulandığı schema_migrations tablosunda tutulur;
// böylece ALTER TABLE gibi iki kez koşamayacak komutlar içeren bir
// migration sonraki açılışlarda atlanır. Tablo boş ama veritabanında
// zaten şema varsa (takip tablosundan önceki bir kurulum), mevcut
// dosyaların tamamı uygulanmış sayılarak kaydedilir.
func (db *DB) runMigrations(migrationsFS fs.FS) error {
	if _, err := db.Conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename TEXT PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	// fs.ReadDir hem embed.FS hem disk FS üzerinde aynı çalışır
	entries, err := fs.ReadDir(migrationsFS, ".")
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var sqlFiles []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			sqlFiles = append(sqlFiles, entry.Name())
		}
	}

	// Numara önekleri sayesinde alfabetik sıra = uygulama sırası
	sort.Strings(sqlFiles)

	applied := make(map[string]bool)
	rows, err := db.Conn.Query("SELECT filename FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("failed to query schema_migrations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[name] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate migration rows: %w", err)
	}

	// Bootstrap: takip tablosu boş ama users tablosu varsa bu eski bir
	// kurulumdur — dosyaları tekrar koşmak yerine uygulanmış say.
	if len(applied) == 0 {
		var tableCount int
		if err := db.Conn.QueryRow(
			"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='users'",
		).Scan(&tableCount); err != nil {
			return fmt.Errorf("failed to check existing tables: %w", err)
		}

		if tableCount > 0 {
			for _, file := range sqlFiles {
				if _, err := db.Conn.Exec(
					"INSERT INTO schema_migrations (filename) VALUES (?)", file,
				); err != nil {
					return fmt.Errorf("failed to bootstrap migration %s: %w", file, err)
				}
				applied[file] = true
			}
			log.Printf("[database] bootstrapped %d existing migrations", len(sqlFiles))
			return nil
		}
	}

	for _, file := range sqlFiles {
		if applied[file] {
			continue
		}

		content, err := fs.ReadFile(migrationsFS, file)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file, err)
		}

		// Dosya tek Exec ile de gönderilebilirdi, ama o zaman yarıda
		// kalan bir migration'ı kurtaramazdık: statement'ları tek tek
		// koşup recoverable hataları ("duplicate column name") atlıyoruz.
		if err := db.execStatements(file, string(content)); err != nil {
			return err
		}

		if _, err := db.Conn.Exec(
			"INSERT INTO schema_migrations (filename) VALUES (?)", file,
		); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", file, err)
		}

		log.Printf("[database] migration applied: %s", file)
	}

	return nil
}

// execStatements, bir migration dosyasının içeriğini statement
// statement çalıştırır. recoverableErrors listesine uyan hatalar log'lanıp
// geçilir; geri kalan her hata migration'ı durdurur.
func (db *DB) execStatements(filename, content string) error {
	statements := splitStatements(content)

	for i, stmt := range statements {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}

		if _, err := db.Conn.Exec(stmt); err != nil {
			errMsg := err.Error()
			recoverable := false
			for _, pattern := range recoverableErrors {
				if strings.Contains(errMsg, pattern) {
					recoverable = true
					break
				}
			}

			if recoverable {
				log.Printf("[database] %s: statement %d skipped (recoverable: %s)", filename, i+1, errMsg)
				continue
			}

			return fmt.Errorf("failed to execute migration %s (statement %d): %w", filename, i+1, err)
		}
	}

	return nil
}

// splitStatements, SQL metnini noktalı virgülden böler. Tek tırnaklı
// string literal içindeki ';' ayırıcı sayılmaz; '' çiftlemesi SQLite'ın
// tırnak escape'idir ve literal'i kapatmaz.
func splitStatements(sql string) []string {
	var statements []string
	var current strings.Builder
	inString := false

	for i := 0; i < len(sql); i++ {
		ch := sql[i]

		if ch == '\'' {
			if inString && i+1 < len(sql) && sql[i+1] == '\'' {
				current.WriteByte(ch)
				current.WriteByte(sql[i+1])
				i++ // escape edilmiş tırnak çifti
				continue
			}
			inString = !inString
		}

		if ch == ';' && !inString {
			s := strings.TrimSpace(current.String())
			if s != "" {
				statements = append(statements, s)
			}
			current.Reset()
			continue
		}

		current.WriteByte(ch)
	}

	// noktalı virgülsüz biten son statement
	s := strings.TrimSpace(current.String())
	if s != "" {
		statements = append(statements, s)
	}

	return statements
}
