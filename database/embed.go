// Migration dosyalarının binary'ye gömülmesi.
//
// //go:embed sayesinde migrations/ altındaki SQL dosyaları derleme
// zamanında binary'nin içine alınır: tek dosya deploy edilir, yanında
// migration klasörü taşımak gerekmez. New() bu FS'i fs.Sub ile
// "migrations" alt dizinine indirgenmiş olarak alır.
package database

import "embed"

// EmbeddedMigrations, derlenmiş binary'deki migration SQL dosyaları.
//
//go:embed migrations/*.sql
var EmbeddedMigrations embed.FS
