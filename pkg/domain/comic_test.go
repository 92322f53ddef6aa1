package domain

import "testing"

func TestPanels_SplitPages(t *testing.T) {
	panels := make(Panels, 7)
	for i := range panels {
		panels[i].PanelNumber = i + 1
	}

	t.Run("レイアウト2で4ページに分割されること", func(t *testing.T) {
		pages := panels.SplitPages(2)
		if len(pages) != 4 {
			t.Fatalf("期待値 4, 実際の値 %d", len(pages))
		}
		if len(pages[3]) != 1 {
			t.Errorf("最終ページは端数1パネルのはずが %d パネルでした", len(pages[3]))
		}
	})

	t.Run("レイアウト1で1パネル1ページになること", func(t *testing.T) {
		pages := panels.SplitPages(1)
		if len(pages) != 7 {
			t.Errorf("期待値 7, 実際の値 %d", len(pages))
		}
	})
}

func TestPanels_LastN(t *testing.T) {
	panels := Panels{
		{PanelSpec: PanelSpec{PanelNumber: 1}},
		{PanelSpec: PanelSpec{PanelNumber: 2}},
		{PanelSpec: PanelSpec{PanelNumber: 3}},
		{PanelSpec: PanelSpec{PanelNumber: 4}},
	}

	last := panels.LastN(3)
	if len(last) != 3 {
		t.Fatalf("期待値 3, 実際の値 %d", len(last))
	}
	if last[0].PanelNumber != 2 {
		t.Errorf("末尾3件の先頭は Panel 2 のはずが Panel %d でした", last[0].PanelNumber)
	}

	// 件数がNに満たない場合は全件を返す
	if got := panels.LastN(10); len(got) != 4 {
		t.Errorf("期待値 4, 実際の値 %d", len(got))
	}
}

func TestPanels_Clone(t *testing.T) {
	src := Panels{{PanelSpec: PanelSpec{PanelNumber: 1}, Status: StatusPending}}
	dst := src.Clone()

	dst[0].Status = StatusCompleted
	if src[0].Status != StatusPending {
		t.Error("Clone後の変更が元のスライスへ波及しています")
	}
}

func TestPanelStatus_IsTerminal(t *testing.T) {
	cases := map[PanelStatus]bool{
		StatusPending:    false,
		StatusGenerating: false,
		StatusCompleted:  true,
		StatusError:      true,
	}
	for status, want := range cases {
		if got := status.IsTerminal(); got != want {
			t.Errorf("%s: 期待値 %v, 実際の値 %v", status, want, got)
		}
	}
}

func TestLayout_Valid(t *testing.T) {
	for _, l := range LayoutOptions {
		if !l.Valid() {
			t.Errorf("レイアウト %d が不正と判定されました", l)
		}
	}
	if Layout(3).Valid() {
		t.Error("レイアウト 3 は選択肢にないはずです")
	}
}

func TestLanguage(t *testing.T) {
	if !LanguagePolish.Valid() || !LanguageEnglish.Valid() {
		t.Error("サポート対象の言語が不正と判定されました")
	}
	if Language("de").Valid() {
		t.Error("未サポートの言語が許可されました")
	}
	if LanguagePolish.Name() != "Polish" {
		t.Errorf("期待値 'Polish', 実際の値 '%s'", LanguagePolish.Name())
	}
}
