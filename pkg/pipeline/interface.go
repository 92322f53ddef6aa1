package pipeline

import (
	"context"

	"ap-comic-press/pkg/domain"
	"ap-comic-press/pkg/runner"

	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
)

// ScriptGenerator は脚本(パネル台本)の生成と追加生成を担います。
type ScriptGenerator interface {
	Run(ctx context.Context, req runner.ScriptRequest) (domain.Story, error)
	Extend(ctx context.Context, req runner.ExtendRequest) ([]domain.PanelSpec, error)
}

// PanelImageGenerator は1パネル分の画像を生成します。
// 実装はリトライ方針を内包し、最終的な失敗のみをエラーとして返します。
type PanelImageGenerator interface {
	Generate(ctx context.Context, spec domain.PanelSpec, pctx runner.PanelContext) (*imagedom.ImageResponse, error)
}

// ProjectStore はプロジェクトの永続化層です。
// Put は同一 ID に対して上書き保存(upsert)として振る舞います。
type ProjectStore interface {
	Put(ctx context.Context, project domain.Project) error
	GetAll(ctx context.Context) ([]domain.Project, error)
	Delete(ctx context.Context, id string) error
}
