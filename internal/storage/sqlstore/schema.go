package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"taskboard/deploy/schema"
	xerrors "taskboard/internal/errors"
)

var embeddedSchema fs.FS = schema.Files

type schemaFile struct {
	name       string
	statements []string
}

// EnsureSchema 确保 tasks 表存在。所有语句均为 CREATE ... IF NOT EXISTS，
// 可以重复执行，不会删除或修改已有数据。
func EnsureSchema(ctx context.Context, db *sql.DB, dialect string) error {
	files, err := loadSchemaFiles(dialect)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return xerrors.New(xerrors.CodeInitializationFailure, fmt.Sprintf("方言 %s 没有建表语句", dialect))
	}
	for _, file := range files {
		for _, stmt := range file.statements {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return xerrors.Wrap(xerrors.CodeStorageFailure, err, fmt.Sprintf("执行建表语句 %s 失败", file.name))
			}
		}
	}
	return nil
}

func loadSchemaFiles(dialect string) ([]schemaFile, error) {
	entries, err := fs.ReadDir(embeddedSchema, dialect)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeInitializationFailure, err, "读取建表目录失败")
	}

	var files []schemaFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		name := path.Join(dialect, entry.Name())
		content, err := fs.ReadFile(embeddedSchema, name)
		if err != nil {
			return nil, xerrors.Wrap(xerrors.CodeInitializationFailure, err, fmt.Sprintf("读取建表文件 %s 失败", name))
		}
		statements := splitSQLStatements(string(content))
		if len(statements) == 0 {
			continue
		}
		files = append(files, schemaFile{name: name, statements: statements})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].name < files[j].name
	})
	return files, nil
}

func splitSQLStatements(content string) []string {
	var statements []string
	for _, stmt := range strings.Split(content, ";") {
		trimmed := strings.TrimSpace(stmt)
		if trimmed == "" {
			continue
		}
		statements = append(statements, trimmed)
	}
	return statements
}
