package server

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ap-comic-press/pkg/domain"
	"ap-comic-press/pkg/export"
	"ap-comic-press/pkg/pipeline"
	"ap-comic-press/pkg/runner"
)

// requestLanguage は body / query の言語指定を解決します。未指定はポーランド語なのだ。
func requestLanguage(raw string) domain.Language {
	lang := domain.Language(raw)
	if !lang.Valid() {
		return domain.LanguagePolish
	}
	return lang
}

func (s *Server) handleStyles(c *gin.Context) {
	c.JSON(http.StatusOK, domain.Styles())
}

func (s *Server) handleLayouts(c *gin.Context) {
	c.JSON(http.StatusOK, domain.LayoutOptions)
}

type generatePayload struct {
	Prompt         string `json:"prompt"`
	StyleID        string `json:"styleId"`
	PageCount      int    `json:"pageCount"`
	Layout         int    `json:"layout"`
	CharacterName  string `json:"characterName"`
	Language       string `json:"language"`
	Author         string `json:"author"`
	Logo           string `json:"logo"`
	StyleReference string `json:"styleReference"`
}

func (s *Server) handleGenerate(c *gin.Context) {
	var payload generatePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": message(domain.LanguagePolish, "invalid_request")})
		return
	}
	lang := requestLanguage(payload.Language)

	style, err := domain.StyleByID(payload.StyleID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": message(lang, "invalid_request")})
		return
	}

	req := pipeline.GenerateRequest{
		Prompt:         payload.Prompt,
		Style:          style,
		PageCount:      payload.PageCount,
		Layout:         domain.Layout(payload.Layout),
		CharacterName:  payload.CharacterName,
		Language:       lang,
		Author:         payload.Author,
		Logo:           payload.Logo,
		StyleReference: payload.StyleReference,
	}

	// 排他権は goroutine 起動前に同期的に獲得する。競合はここで確実に 409 になる。
	run, err := s.pipe.BeginFullGeneration(req)
	if err != nil {
		if errors.Is(err, pipeline.ErrGenerationInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": message(lang, "busy")})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": message(lang, "invalid_request")})
		return
	}

	s.setLastError("")
	go func() {
		if err := run(context.Background()); err != nil {
			slog.Error("一括生成に失敗しました", "error", err)
			s.setLastError(generationErrorMessage(lang, err))
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// generationErrorMessage は生成系エラーを UI 文言に写します。
func generationErrorMessage(lang domain.Language, err error) string {
	var scriptErr *runner.ScriptGenerationError
	if errors.As(err, &scriptErr) {
		return message(lang, "script_failed")
	}
	var imageErr *runner.ImageGenerationError
	if errors.As(err, &imageErr) {
		return message(lang, "image_failed")
	}
	if errors.Is(err, pipeline.ErrGenerationInProgress) {
		return message(lang, "busy")
	}
	return message(lang, "invalid_request")
}

func (s *Server) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"project":   s.pipe.Snapshot(),
		"busy":      s.pipe.Busy(),
		"phase":     s.pipe.Phase(),
		"lastError": s.lastErrorMessage(),
	})
}

type extendPayload struct {
	AddPageCount  int    `json:"addPageCount"`
	Layout        int    `json:"layout"`
	CharacterName string `json:"characterName"`
	Language      string `json:"language"`
}

func (s *Server) handleExtend(c *gin.Context) {
	var payload extendPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": message(domain.LanguagePolish, "invalid_request")})
		return
	}
	lang := requestLanguage(payload.Language)

	params := pipeline.ExtendParams{
		AddPageCount:  payload.AddPageCount,
		Layout:        domain.Layout(payload.Layout),
		CharacterName: payload.CharacterName,
		Language:      lang,
	}

	run, err := s.pipe.BeginExtend(params)
	switch {
	case errors.Is(err, pipeline.ErrNoProject):
		c.JSON(http.StatusBadRequest, gin.H{"error": message(lang, "no_project")})
		return
	case errors.Is(err, pipeline.ErrGenerationInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": message(lang, "busy")})
		return
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": message(lang, "invalid_request")})
		return
	}

	s.setLastError("")
	go func() {
		if err := run(context.Background()); err != nil {
			slog.Error("延長生成に失敗しました", "error", err)
			s.setLastError(generationErrorMessage(lang, err))
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

func (s *Server) panelNumberParam(c *gin.Context) (int, bool) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil || number < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": message(domain.LanguagePolish, "invalid_request")})
		return 0, false
	}
	return number, true
}

type regeneratePayload struct {
	CharacterName string `json:"characterName"`
	Language      string `json:"language"`
}

func (s *Server) handleRegeneratePanel(c *gin.Context) {
	number, ok := s.panelNumberParam(c)
	if !ok {
		return
	}

	var payload regeneratePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": message(domain.LanguagePolish, "invalid_request")})
		return
	}
	lang := requestLanguage(payload.Language)

	run, err := s.pipe.BeginRegeneratePanel(number, payload.CharacterName)
	switch {
	case errors.Is(err, pipeline.ErrPanelNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": message(lang, "panel_not_found")})
		return
	case errors.Is(err, pipeline.ErrGenerationInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": message(lang, "busy")})
		return
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": message(lang, "invalid_request")})
		return
	}

	s.setLastError("")
	go func() {
		if err := run(context.Background()); err != nil {
			slog.Error("パネル再生成に失敗しました", "panel", number, "error", err)
			s.setLastError(generationErrorMessage(lang, err))
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

type panelTextPayload struct {
	Character *string `json:"character"`
	Dialogue  *string `json:"dialogue"`
	Caption   *string `json:"caption"`
	Language  string  `json:"language"`
}

func (s *Server) handleEditPanelText(c *gin.Context) {
	number, ok := s.panelNumberParam(c)
	if !ok {
		return
	}

	var payload panelTextPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": message(domain.LanguagePolish, "invalid_request")})
		return
	}
	lang := requestLanguage(payload.Language)

	update := pipeline.PanelTextUpdate{
		Character: payload.Character,
		Dialogue:  payload.Dialogue,
		Caption:   payload.Caption,
	}
	if err := s.pipe.EditPanelText(c.Request.Context(), number, update); err != nil {
		if errors.Is(err, pipeline.ErrPanelNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": message(lang, "panel_not_found")})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": message(lang, "save_failed")})
		return
	}

	c.JSON(http.StatusOK, gin.H{"project": s.pipe.Snapshot()})
}

type savePayload struct {
	Language string `json:"language"`
}

func (s *Server) handleSave(c *gin.Context) {
	var payload savePayload
	_ = c.ShouldBindJSON(&payload)
	lang := requestLanguage(payload.Language)

	if err := s.pipe.Save(c.Request.Context()); err != nil {
		if errors.Is(err, pipeline.ErrNoProject) {
			c.JSON(http.StatusBadRequest, gin.H{"error": message(lang, "no_project")})
			return
		}
		slog.Error("手動保存に失敗しました", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": message(lang, "save_failed")})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}

type loadPayload struct {
	ID       string `json:"id"`
	Language string `json:"language"`
}

func (s *Server) handleLoad(c *gin.Context) {
	var payload loadPayload
	if err := c.ShouldBindJSON(&payload); err != nil || payload.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": message(domain.LanguagePolish, "invalid_request")})
		return
	}
	lang := requestLanguage(payload.Language)

	project, err := s.db.Get(c.Request.Context(), payload.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": message(lang, "load_failed")})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": message(lang, "load_failed")})
		return
	}
	if err := s.pipe.LoadProject(project); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": message(lang, "busy")})
		return
	}

	s.clearMarketingAssets()
	s.setLastError("")
	c.JSON(http.StatusOK, gin.H{"project": s.pipe.Snapshot()})
}

func (s *Server) handleReset(c *gin.Context) {
	if err := s.pipe.Reset(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": message(domain.LanguagePolish, "busy")})
		return
	}
	s.clearMarketingAssets()
	s.setLastError("")
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

func (s *Server) handleHistory(c *gin.Context) {
	projects, err := s.pipe.History(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": message(domain.LanguagePolish, "load_failed")})
		return
	}
	if projects == nil {
		projects = []domain.Project{}
	}
	c.JSON(http.StatusOK, projects)
}

func (s *Server) handleDeleteHistory(c *gin.Context) {
	if err := s.pipe.DeleteSaved(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": message(domain.LanguagePolish, "save_failed")})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// exportLayout は ?layout= を解決します。未指定・不正値は2段組みに倒します。
func exportLayout(c *gin.Context) domain.Layout {
	layout := domain.Layout(2)
	if raw := c.Query("layout"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && domain.Layout(v).Valid() {
			layout = domain.Layout(v)
		}
	}
	return layout
}

func (s *Server) handleExportPDF(c *gin.Context) {
	lang := requestLanguage(c.Query("lang"))
	snap := s.pipe.Snapshot()
	if len(snap.Panels) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": message(lang, "no_project")})
		return
	}

	data, err := export.BuildPDF(snap, exportLayout(c), lang)
	if err != nil {
		slog.Error("PDFの書き出しに失敗しました", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": message(lang, "pdf_failed")})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+export.PDFFileName(snap.Title)+`"`)
	c.Data(http.StatusOK, "application/pdf", data)
}

func (s *Server) handleExportZIP(c *gin.Context) {
	lang := requestLanguage(c.Query("lang"))
	snap := s.pipe.Snapshot()
	if len(snap.Panels) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": message(lang, "no_project")})
		return
	}

	data, err := export.BuildZIP(snap, exportLayout(c))
	if err != nil {
		slog.Error("ZIPの書き出しに失敗しました", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": message(lang, "zip_failed")})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+export.ZIPFileName+`"`)
	c.Data(http.StatusOK, "application/zip", data)
}

type suggestNamePayload struct {
	Prompt   string `json:"prompt"`
	StyleID  string `json:"styleId"`
	Language string `json:"language"`
}

func (s *Server) handleSuggestIdea(c *gin.Context) {
	lang := requestLanguage(c.Query("lang"))
	idea := s.scripts.SuggestStoryIdea(c.Request.Context(), lang)
	c.JSON(http.StatusOK, gin.H{"idea": idea})
}

func (s *Server) handleSuggestCharacterName(c *gin.Context) {
	var payload suggestNamePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": message(domain.LanguagePolish, "invalid_request")})
		return
	}
	lang := requestLanguage(payload.Language)

	style, err := domain.StyleByID(payload.StyleID)
	if err != nil {
		style = domain.DefaultStyle()
	}
	name := s.scripts.SuggestCharacterName(c.Request.Context(), payload.Prompt, style, lang)
	c.JSON(http.StatusOK, gin.H{"name": name})
}

type suggestDialoguePayload struct {
	PanelNumber int    `json:"panelNumber"`
	Language    string `json:"language"`
}

func (s *Server) handleSuggestDialogue(c *gin.Context) {
	var payload suggestDialoguePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": message(domain.LanguagePolish, "invalid_request")})
		return
	}
	lang := requestLanguage(payload.Language)

	snap := s.pipe.Snapshot()
	panel := domain.Panels(snap.Panels).ByNumber(payload.PanelNumber)
	if panel == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": message(lang, "panel_not_found")})
		return
	}

	options := s.scripts.SuggestDialogue(c.Request.Context(), panel.PanelSpec, snap.Style, lang)
	if options == nil {
		options = []runner.DialogueOption{}
	}
	c.JSON(http.StatusOK, options)
}

// handleBubblePosition は指定パネルの吹き出し配置座標を返します。
// 推定に失敗してもデフォルト位置が返るため、失敗がエラーになることはありません。
func (s *Server) handleBubblePosition(c *gin.Context) {
	number, ok := s.panelNumberParam(c)
	if !ok {
		return
	}
	lang := requestLanguage(c.Query("lang"))

	snap := s.pipe.Snapshot()
	panel := domain.Panels(snap.Panels).ByNumber(number)
	if panel == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": message(lang, "panel_not_found")})
		return
	}

	pos := s.scripts.DetectBubblePosition(c.Request.Context(), panel.PanelSpec)
	c.JSON(http.StatusOK, pos)
}
