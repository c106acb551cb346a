package schema

import "embed"

// Files 按方言目录暴露建表语句，例如 sqlite3/0001_create_tasks.sql。
//
//go:embed sqlite3/*.sql mysql/*.sql
var Files embed.FS
