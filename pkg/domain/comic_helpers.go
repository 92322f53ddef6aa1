package domain

// Panels は Panel のスライスに対する補助メソッドの受け皿です。
type Panels []Panel

// ByNumber は panelNumber が一致するパネルへのポインタを返します。
// 見つからない場合は nil を返します。
func (ps Panels) ByNumber(n int) *Panel {
	for i := range ps {
		if ps[i].PanelNumber == n {
			return &ps[i]
		}
	}
	return nil
}

// LastN は末尾 n 件のパネルを返します。延長時の文脈ウィンドウに使います。
func (ps Panels) LastN(n int) Panels {
	if len(ps) <= n {
		return ps
	}
	return ps[len(ps)-n:]
}

// Completed は status が completed のパネルのみを返します。
func (ps Panels) Completed() Panels {
	var out Panels
	for _, p := range ps {
		if p.Status == StatusCompleted {
			out = append(out, p)
		}
	}
	return out
}

// AllTerminal は全パネルが completed / error のいずれかに到達していれば true を返します。
func (ps Panels) AllTerminal() bool {
	for _, p := range ps {
		if !p.Status.IsTerminal() {
			return false
		}
	}
	return true
}

// NextPanelNumber は延長時に採番を開始するパネル番号（len+1）を返します。
func (ps Panels) NextPanelNumber() int {
	return len(ps) + 1
}

// SplitPages はレイアウト（1ページあたりのパネル数）に従ってパネルをページ単位に分割します。
func (ps Panels) SplitPages(layout Layout) []Panels {
	per := int(layout)
	if per < 1 {
		per = 1
	}
	var pages []Panels
	for i := 0; i < len(ps); i += per {
		end := i + per
		if end > len(ps) {
			end = len(ps)
		}
		pages = append(pages, ps[i:end])
	}
	return pages
}

// Clone はパネル列の防御的コピーを返します。
// チェックポイントはスナップショット全体を渡すため、呼び出し元の
// 以後の変更が保存データに波及しないようにします。
func (ps Panels) Clone() Panels {
	if ps == nil {
		return nil
	}
	out := make(Panels, len(ps))
	copy(out, ps)
	return out
}

// Clone は Project のスナップショットコピーを返します。
func (p Project) Clone() Project {
	cp := p
	cp.Panels = []Panel(Panels(p.Panels).Clone())
	return cp
}

// PageCount はレイアウトに対する総ページ数を返します。
func (p Project) PageCount(layout Layout) int {
	per := int(layout)
	if per < 1 {
		per = 1
	}
	return (len(p.Panels) + per - 1) / per
}
