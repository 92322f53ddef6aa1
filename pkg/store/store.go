package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"ap-comic-press/pkg/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS comics (
	id              TEXT PRIMARY KEY,
	title           TEXT NOT NULL,
	author          TEXT NOT NULL DEFAULT '',
	style_id        TEXT NOT NULL,
	logo            TEXT NOT NULL DEFAULT '',
	style_reference TEXT NOT NULL DEFAULT '',
	panels          TEXT NOT NULL,
	created_at      INTEGER NOT NULL,
	updated_at      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_comics_updated_at ON comics (updated_at DESC);
`

// Store はプロジェクトを SQLite に永続化します。
// Put は同一 ID への上書き保存（upsert）として振る舞うため、
// チェックポイントを何度呼んでも履歴には1件しか残りません。
type Store struct {
	db   *sql.DB
	path string
}

// Open はデータベースファイルを開き、スキーマを初期化します。
// 親ディレクトリが無ければ作成します。
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("データベースディレクトリの作成に失敗しました: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("データベースのオープンに失敗しました: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("PRAGMA %q の適用に失敗しました: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("スキーマの初期化に失敗しました: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close はデータベース接続を閉じます。
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Put はプロジェクトを upsert 保存します。保存時刻が一覧の並び順になります。
func (s *Store) Put(ctx context.Context, project domain.Project) error {
	if project.ID == "" {
		return fmt.Errorf("ID が採番されていないプロジェクトは保存できません")
	}

	panels, err := json.Marshal(project.Panels)
	if err != nil {
		return fmt.Errorf("パネルのシリアライズに失敗しました: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO comics (id, title, author, style_id, logo, style_reference, panels, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title           = excluded.title,
			author          = excluded.author,
			style_id        = excluded.style_id,
			logo            = excluded.logo,
			style_reference = excluded.style_reference,
			panels          = excluded.panels,
			updated_at      = excluded.updated_at`,
		project.ID, project.Title, project.Author, project.Style.ID,
		project.Logo, project.StyleReference, string(panels),
		project.CreatedAt, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("プロジェクトの書き込みに失敗しました: %w", err)
	}
	return nil
}

// GetAll は保存済みプロジェクトを最終保存の新しい順で返します。
func (s *Store) GetAll(ctx context.Context) ([]domain.Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, author, style_id, logo, style_reference, panels, created_at
		FROM comics
		ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("プロジェクト一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("プロジェクト一覧の読み取りに失敗しました: %w", err)
	}
	return projects, nil
}

// Get は ID 指定で1件取得します。見つからない場合は sql.ErrNoRows を返します。
func (s *Store) Get(ctx context.Context, id string) (domain.Project, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, author, style_id, logo, style_reference, panels, created_at
		FROM comics WHERE id = ?`, id)
	return scanProject(row)
}

// Delete は保存済みプロジェクトを削除します。存在しない ID は何もせず成功します。
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM comics WHERE id = ?`, id); err != nil {
		return fmt.Errorf("プロジェクトの削除に失敗しました: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (domain.Project, error) {
	var (
		project   domain.Project
		styleID   string
		panelsRaw string
	)
	if err := row.Scan(&project.ID, &project.Title, &project.Author, &styleID,
		&project.Logo, &project.StyleReference, &panelsRaw, &project.CreatedAt); err != nil {
		return domain.Project{}, err
	}

	if err := json.Unmarshal([]byte(panelsRaw), &project.Panels); err != nil {
		return domain.Project{}, fmt.Errorf("パネルの復元に失敗しました (id=%s): %w", project.ID, err)
	}

	style, err := domain.StyleByID(styleID)
	if err != nil {
		// カタログから外れた古いスタイル ID は既定スタイルで補う
		slog.Warn("保存データのスタイルを既定値に置き換えます", "id", project.ID, "style_id", styleID)
		style = domain.DefaultStyle()
	}
	project.Style = style

	return project, nil
}
