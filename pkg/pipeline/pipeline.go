package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ap-comic-press/pkg/domain"
	"ap-comic-press/pkg/runner"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// extendContextWindow は延長台本に渡す直近パネルの件数です。
const extendContextWindow = 3

// Phase は Pipeline が現在実行中の工程を表します。
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseScripting    Phase = "scripting"
	PhaseIllustrating Phase = "illustrating"
	PhaseExtending    Phase = "extending"
	PhaseRegenerating Phase = "regenerating"
)

// GenerateRequest はコミック1冊の一括生成要求です。
type GenerateRequest struct {
	Prompt         string
	Style          domain.Style
	PageCount      int
	Layout         domain.Layout
	CharacterName  string
	Language       domain.Language
	Author         string
	Logo           string
	StyleReference string
}

// ExtendParams は現在のセッションへのページ追加要求です。
// タイトル・スタイル・参照画像はセッションから引き継ぎます。
type ExtendParams struct {
	AddPageCount  int
	Layout        domain.Layout
	CharacterName string
	Language      domain.Language
}

// PanelTextUpdate はパネルテキストの部分更新です。nil のフィールドは変更しません。
type PanelTextUpdate struct {
	Character *string
	Dialogue  *string
	Caption   *string
}

// Options は Pipeline の動作パラメータです。
type Options struct {
	// PanelInterval はパネル画像生成呼び出しの最小間隔です。
	// 0 の場合はレート制御を行いません。
	PanelInterval time.Duration
	// AutosaveInterval は StartAutosave の保存周期です。
	// 0 の場合は既定の5分を使います。
	AutosaveInterval time.Duration
}

// Pipeline はコミック1冊分のセッションを所有し、台本生成から
// パネル画像の逐次生成、チェックポイント保存までを取り仕切る司令塔です。
//
// 生成系の操作（一括生成・延長・再生成）は同時に1つしか走りません。
// 2つ目の要求は待たされるのではなく ErrGenerationInProgress で即座に拒否されます。
type Pipeline struct {
	scripts ScriptGenerator
	images  PanelImageGenerator
	store   ProjectStore

	guard   *semaphore.Weighted
	limiter *rate.Limiter

	autosaveInterval time.Duration

	mu      sync.RWMutex
	project domain.Project
	phase   Phase
}

// New は各コンポーネントを注入して Pipeline を生成します。
func New(scripts ScriptGenerator, images PanelImageGenerator, store ProjectStore, opts Options) *Pipeline {
	var limiter *rate.Limiter
	if opts.PanelInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.PanelInterval), 1)
	}
	interval := opts.AutosaveInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Pipeline{
		scripts:          scripts,
		images:           images,
		store:            store,
		guard:            semaphore.NewWeighted(1),
		limiter:          limiter,
		autosaveInterval: interval,
		phase:            PhaseIdle,
	}
}

// Phase は現在実行中の工程を返します。
func (p *Pipeline) Phase() Phase {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.phase
}

// Busy は生成系の操作が進行中かどうかを返します。
func (p *Pipeline) Busy() bool {
	return p.Phase() != PhaseIdle
}

// Snapshot は現在のプロジェクトの防御的コピーを返します。
func (p *Pipeline) Snapshot() domain.Project {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.project.Clone()
}

// LoadProject は保存済みプロジェクトを現在のセッションとして読み込みます。
// 生成が進行中の場合は拒否します。
func (p *Pipeline) LoadProject(project domain.Project) error {
	if !p.guard.TryAcquire(1) {
		return ErrGenerationInProgress
	}
	defer p.guard.Release(1)

	if err := project.Style.Validate(); err != nil {
		return fmt.Errorf("保存データのスタイルが不正です: %w", err)
	}

	p.mu.Lock()
	p.project = project.Clone()
	p.mu.Unlock()

	slog.Info("Pipeline: プロジェクトを読み込みました",
		"id", project.ID, "title", project.Title, "panels", len(project.Panels))
	return nil
}

// Reset はセッションを空のプロジェクトに戻します。保存済みデータには触れません。
func (p *Pipeline) Reset() error {
	if !p.guard.TryAcquire(1) {
		return ErrGenerationInProgress
	}
	defer p.guard.Release(1)

	p.mu.Lock()
	p.project = domain.Project{}
	p.mu.Unlock()
	return nil
}

// BeginFullGeneration は要求を検証し、生成の排他権を同期的に獲得します。
// 返されたクロージャが実行本体で、完了時に排他権を解放します。
// ビジー判定が呼び出し時点で確定するため、HTTP ハンドラは goroutine を
// 起動する前に確実に 409 を返せます。
func (p *Pipeline) BeginFullGeneration(req GenerateRequest) (func(context.Context) error, error) {
	if err := validateGenerateRequest(req); err != nil {
		return nil, err
	}
	if !p.guard.TryAcquire(1) {
		return nil, ErrGenerationInProgress
	}
	return func(ctx context.Context) error {
		defer p.guard.Release(1)
		return p.runFullGeneration(ctx, req)
	}, nil
}

// RunFullGeneration は台本生成とパネル画像の逐次生成を一気通貫で実行します。
//
// 台本が得られた時点で即座にチェックポイントを保存し、以後は各パネルが
// completed / error に到達するたびに保存します。個々のパネルの失敗は
// そのパネルを error にするだけで、後続パネルの生成は継続します。
func (p *Pipeline) RunFullGeneration(ctx context.Context, req GenerateRequest) error {
	run, err := p.BeginFullGeneration(req)
	if err != nil {
		return err
	}
	return run(ctx)
}

func (p *Pipeline) runFullGeneration(ctx context.Context, req GenerateRequest) error {
	p.setPhase(PhaseScripting)
	defer p.setPhase(PhaseIdle)

	story, err := p.scripts.Run(ctx, runner.ScriptRequest{
		Prompt:        req.Prompt,
		Style:         req.Style,
		PageCount:     req.PageCount,
		Layout:        req.Layout,
		CharacterName: req.CharacterName,
		Language:      req.Language,
	})
	if err != nil {
		return err
	}

	wantPanels := req.PageCount * int(req.Layout)
	if len(story.Panels) != wantPanels {
		slog.Warn("Pipeline: 台本のパネル数が要求と一致しません。生成された数で続行します",
			"want", wantPanels, "got", len(story.Panels))
	}

	p.mu.Lock()
	p.project = domain.Project{
		Story:          story,
		Author:         req.Author,
		Style:          req.Style,
		Logo:           req.Logo,
		StyleReference: req.StyleReference,
	}
	p.mu.Unlock()

	// 台本確定時点のチェックポイント。全パネルは pending のまま保存される。
	p.checkpoint(ctx)

	p.setPhase(PhaseIllustrating)
	// セッション本体と配列を共有すると、生成中のテキスト編集
	// （EditPanelText は p.mu の下で同じ要素を書き換える）と
	// ロックなしの読み取りが競合するため、クローンを辿る。
	p.illustratePanels(ctx, domain.Panels(story.Panels).Clone(), runner.PanelContext{
		Style:          req.Style,
		CharacterName:  req.CharacterName,
		StyleReference: req.StyleReference,
	})
	return nil
}

// BeginExtend は延長要求を検証して排他権を同期的に獲得し、実行本体を返します。
func (p *Pipeline) BeginExtend(params ExtendParams) (func(context.Context) error, error) {
	if params.AddPageCount < 1 {
		return nil, fmt.Errorf("追加ページ数が不正です: %d", params.AddPageCount)
	}
	if !params.Layout.Valid() {
		return nil, fmt.Errorf("レイアウトが不正です: %d", params.Layout)
	}
	if !params.Language.Valid() {
		return nil, fmt.Errorf("言語が不正です: %q", params.Language)
	}
	if len(p.Snapshot().Panels) == 0 {
		return nil, ErrNoProject
	}
	if !p.guard.TryAcquire(1) {
		return nil, ErrGenerationInProgress
	}
	return func(ctx context.Context) error {
		defer p.guard.Release(1)
		return p.runExtend(ctx, params)
	}, nil
}

// Extend は現在の物語の末尾に新しいパネルを追加生成します。
// 既存パネルの内容・採番・画像には一切触れません。
func (p *Pipeline) Extend(ctx context.Context, params ExtendParams) error {
	run, err := p.BeginExtend(params)
	if err != nil {
		return err
	}
	return run(ctx)
}

func (p *Pipeline) runExtend(ctx context.Context, params ExtendParams) error {
	p.mu.RLock()
	base := p.project.Clone()
	p.mu.RUnlock()
	if len(base.Panels) == 0 {
		return ErrNoProject
	}

	p.setPhase(PhaseExtending)
	defer p.setPhase(PhaseIdle)

	panels := domain.Panels(base.Panels)
	recent := panels.LastN(extendContextWindow)
	contextSpecs := make([]domain.PanelSpec, len(recent))
	for i, panel := range recent {
		contextSpecs[i] = panel.PanelSpec
	}

	specs, err := p.scripts.Extend(ctx, runner.ExtendRequest{
		Title:            base.Title,
		Style:            base.Style,
		CharacterName:    params.CharacterName,
		Language:         params.Language,
		ContextPanels:    contextSpecs,
		PanelsToAdd:      params.AddPageCount * int(params.Layout),
		StartPanelNumber: panels.NextPanelNumber(),
	})
	if err != nil {
		return err
	}

	// モデルの採番ずれに依存しないよう、こちらで連番を振り直す。
	start := panels.NextPanelNumber()
	added := make([]domain.Panel, len(specs))
	for i, spec := range specs {
		spec.PanelNumber = start + i
		added[i] = domain.Panel{PanelSpec: spec, Status: domain.StatusPending}
	}

	p.mu.Lock()
	p.project.Panels = append(p.project.Panels, added...)
	p.mu.Unlock()

	p.checkpoint(ctx)

	p.setPhase(PhaseIllustrating)
	p.illustratePanels(ctx, added, runner.PanelContext{
		Style:          base.Style,
		CharacterName:  params.CharacterName,
		StyleReference: base.StyleReference,
	})
	return nil
}

// BeginRegeneratePanel は対象パネルの存在を確認して排他権を同期的に獲得し、
// 実行本体を返します。
func (p *Pipeline) BeginRegeneratePanel(panelNumber int, characterName string) (func(context.Context) error, error) {
	if domain.Panels(p.Snapshot().Panels).ByNumber(panelNumber) == nil {
		return nil, fmt.Errorf("%w: panel=%d", ErrPanelNotFound, panelNumber)
	}
	if !p.guard.TryAcquire(1) {
		return nil, ErrGenerationInProgress
	}
	return func(ctx context.Context) error {
		defer p.guard.Release(1)
		return p.runRegeneratePanel(ctx, panelNumber, characterName)
	}, nil
}

// RegeneratePanel は指定パネルの画像だけを作り直します。
// 成功した場合のみ新しい画像に置き換え、チェックポイントを保存します。
// 失敗した場合は status を error にしつつ、直前の画像を保持します。
func (p *Pipeline) RegeneratePanel(ctx context.Context, panelNumber int, characterName string) error {
	run, err := p.BeginRegeneratePanel(panelNumber, characterName)
	if err != nil {
		return err
	}
	return run(ctx)
}

func (p *Pipeline) runRegeneratePanel(ctx context.Context, panelNumber int, characterName string) error {
	p.mu.RLock()
	base := p.project.Clone()
	p.mu.RUnlock()

	target := domain.Panels(base.Panels).ByNumber(panelNumber)
	if target == nil {
		return fmt.Errorf("%w: panel=%d", ErrPanelNotFound, panelNumber)
	}

	p.setPhase(PhaseRegenerating)
	defer p.setPhase(PhaseIdle)

	// 再生成中も直前の画像は消さずに表示し続ける。
	p.setPanelStatus(panelNumber, domain.StatusGenerating, "")

	resp, err := p.images.Generate(ctx, target.PanelSpec, runner.PanelContext{
		Style:          base.Style,
		CharacterName:  characterName,
		StyleReference: base.StyleReference,
	})
	if err != nil {
		p.setPanelStatus(panelNumber, domain.StatusError, "")
		return err
	}

	p.setPanelStatus(panelNumber, domain.StatusCompleted, domain.EncodeDataURL(resp.MimeType, resp.Data))
	p.checkpoint(ctx)
	return nil
}

// EditPanelText はパネルのテキスト項目を更新します。
// パネルの状態と画像には影響せず、更新後に即座にチェックポイントを保存します。
func (p *Pipeline) EditPanelText(ctx context.Context, panelNumber int, update PanelTextUpdate) error {
	p.mu.Lock()
	panel := domain.Panels(p.project.Panels).ByNumber(panelNumber)
	if panel == nil {
		p.mu.Unlock()
		return fmt.Errorf("%w: panel=%d", ErrPanelNotFound, panelNumber)
	}
	if update.Character != nil {
		panel.Character = *update.Character
	}
	if update.Dialogue != nil {
		panel.Dialogue = *update.Dialogue
	}
	if update.Caption != nil {
		panel.Caption = *update.Caption
	}
	p.mu.Unlock()

	p.checkpoint(ctx)
	return nil
}

// Save は手動保存です。自動チェックポイントと異なり、失敗を呼び出し元に返します。
func (p *Pipeline) Save(ctx context.Context) error {
	snap, ok := p.persistableSnapshot()
	if !ok {
		return ErrNoProject
	}
	if err := p.store.Put(ctx, snap); err != nil {
		return fmt.Errorf("プロジェクトの保存に失敗しました: %w", err)
	}
	slog.Info("Pipeline: プロジェクトを保存しました", "id", snap.ID, "title", snap.Title)
	return nil
}

// History は保存済みプロジェクトの一覧を新しい順で返します。
func (p *Pipeline) History(ctx context.Context) ([]domain.Project, error) {
	return p.store.GetAll(ctx)
}

// DeleteSaved は保存済みプロジェクトを削除します。現在のセッションには触れません。
func (p *Pipeline) DeleteSaved(ctx context.Context, id string) error {
	return p.store.Delete(ctx, id)
}

// StartAutosave は一定周期でセッションを保存するゴルーチンを起動します。
// ctx のキャンセルで停止します。保存対象が無い周期は何もしません。
func (p *Pipeline) StartAutosave(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(p.autosaveInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if snap, ok := p.persistableSnapshot(); ok {
					if err := p.store.Put(ctx, snap); err != nil {
						slog.Warn("Pipeline: 自動保存に失敗しました", "id", snap.ID, "error", err)
					} else {
						slog.Debug("Pipeline: 自動保存しました", "id", snap.ID)
					}
				}
			}
		}
	}()
}

// illustratePanels はパネル画像を1枚ずつ順番に生成します。
// 並列化はせず、各パネルの確定ごとにチェックポイントを保存します。
// 戻った時点で pending / generating のパネルは残りません。
func (p *Pipeline) illustratePanels(ctx context.Context, panels []domain.Panel, pctx runner.PanelContext) {
	for i, panel := range panels {
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				// 中断時も未処理パネルを pending のまま残さない
				slog.Warn("Pipeline: レート制御待機中に中断されました。残りのパネルを error にします",
					"panel", panel.PanelNumber, "error", err)
				for _, rest := range panels[i:] {
					p.setPanelStatus(rest.PanelNumber, domain.StatusError, "")
				}
				p.checkpoint(ctx)
				return
			}
		}

		p.setPanelStatus(panel.PanelNumber, domain.StatusGenerating, "")

		resp, err := p.images.Generate(ctx, panel.PanelSpec, pctx)
		if err != nil {
			slog.Error("Pipeline: パネル画像の生成に失敗しました。次のパネルへ進みます",
				"panel", panel.PanelNumber, "error", err)
			p.setPanelStatus(panel.PanelNumber, domain.StatusError, "")
			p.checkpoint(ctx)
			continue
		}

		p.setPanelStatus(panel.PanelNumber, domain.StatusCompleted, domain.EncodeDataURL(resp.MimeType, resp.Data))
		p.checkpoint(ctx)
	}
}

// checkpoint はセッション全体のスナップショットを upsert 保存します。
// 自動保存系の経路で使い、失敗は警告ログに留めて処理を止めません。
func (p *Pipeline) checkpoint(ctx context.Context) {
	snap, ok := p.persistableSnapshot()
	if !ok {
		return
	}
	if err := p.store.Put(ctx, snap); err != nil {
		slog.Warn("Pipeline: チェックポイント保存に失敗しました", "id", snap.ID, "error", err)
	}
}

// persistableSnapshot は保存可能なスナップショットを返します。
// ID 未採番、またはパネルが空のセッションは保存対象外です。
func (p *Pipeline) persistableSnapshot() (domain.Project, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.project.ID == "" || len(p.project.Panels) == 0 {
		return domain.Project{}, false
	}
	return p.project.Clone(), true
}

// setPanelStatus はパネルの状態を更新します。imageURL が空文字の場合は
// 既存の画像を保持します（再生成中・失敗時のフォールバック表示用）。
func (p *Pipeline) setPanelStatus(panelNumber int, status domain.PanelStatus, imageURL string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	panel := domain.Panels(p.project.Panels).ByNumber(panelNumber)
	if panel == nil {
		return
	}
	panel.Status = status
	if imageURL != "" {
		panel.ImageURL = imageURL
	}
}

func (p *Pipeline) setPhase(phase Phase) {
	p.mu.Lock()
	p.phase = phase
	p.mu.Unlock()
}

func validateGenerateRequest(req GenerateRequest) error {
	if req.Prompt == "" {
		return fmt.Errorf("ストーリーの説明が空です")
	}
	if err := req.Style.Validate(); err != nil {
		return err
	}
	if req.PageCount < 1 {
		return fmt.Errorf("ページ数が不正です: %d", req.PageCount)
	}
	if !req.Layout.Valid() {
		return fmt.Errorf("レイアウトが不正です: %d", req.Layout)
	}
	if !req.Language.Valid() {
		return fmt.Errorf("言語が不正です: %q", req.Language)
	}
	return nil
}
