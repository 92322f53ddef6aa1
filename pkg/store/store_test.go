package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"ap-comic-press/pkg/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "comics.db"))
	if err != nil {
		t.Fatalf("ストアのオープンに失敗しました: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleProject(id, title string) domain.Project {
	return domain.Project{
		Story: domain.Story{
			ID:    id,
			Title: title,
			Panels: []domain.Panel{
				{
					PanelSpec: domain.PanelSpec{PanelNumber: 1, VisualDescription: "a cat on a roof", Dialogue: "Miau!"},
					Status:    domain.StatusCompleted,
					ImageURL:  domain.EncodeDataURL("image/png", []byte("fake")),
				},
				{
					PanelSpec: domain.PanelSpec{PanelNumber: 2, VisualDescription: "the cat jumps", Caption: "Nagle..."},
					Status:    domain.StatusError,
				},
			},
			CreatedAt: 1700000000000,
		},
		Author: "Jan Kowalski",
		Style:  domain.DefaultStyle(),
		Logo:   domain.EncodeDataURL("image/png", []byte("logo")),
	}
}

func TestPutAndGetRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	want := sampleProject("p-1", "Kot na dachu")

	if err := s.Put(ctx, want); err != nil {
		t.Fatalf("保存に失敗しました: %v", err)
	}

	got, err := s.Get(ctx, "p-1")
	if err != nil {
		t.Fatalf("取得に失敗しました: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("保存と取得で内容が一致しません:\n got=%+v\nwant=%+v", got, want)
	}
}

func TestPutIsUpsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	project := sampleProject("p-1", "Wersja 1")
	if err := s.Put(ctx, project); err != nil {
		t.Fatalf("初回保存に失敗しました: %v", err)
	}

	project.Title = "Wersja 2"
	project.Panels[1].Status = domain.StatusCompleted
	if err := s.Put(ctx, project); err != nil {
		t.Fatalf("上書き保存に失敗しました: %v", err)
	}

	all, err := s.GetAll(ctx)
	if err != nil {
		t.Fatalf("一覧取得に失敗しました: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("チェックポイントの重複保存で履歴が増えました: %d件", len(all))
	}
	if all[0].Title != "Wersja 2" {
		t.Errorf("上書きが反映されていません: %q", all[0].Title)
	}
	if all[0].Panels[1].Status != domain.StatusCompleted {
		t.Errorf("パネル状態の上書きが反映されていません: %s", all[0].Panels[1].Status)
	}
}

func TestGetAllOrdersByLastSave(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, sampleProject("old", "Starszy")); err != nil {
		t.Fatal(err)
	}
	// updated_at はミリ秒精度のため、確実に差がつくよう待つ
	time.Sleep(5 * time.Millisecond)
	if err := s.Put(ctx, sampleProject("new", "Nowszy")); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	if err := s.Put(ctx, sampleProject("old", "Starszy, zapisany ponownie")); err != nil {
		t.Fatal(err)
	}

	all, err := s.GetAll(ctx)
	if err != nil {
		t.Fatalf("一覧取得に失敗しました: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("件数が不正です: %d", len(all))
	}
	if all[0].ID != "old" || all[1].ID != "new" {
		t.Errorf("最終保存の新しい順になっていません: %s, %s", all[0].ID, all[1].ID)
	}
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, sampleProject("p-1", "Do usunięcia")); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "p-1"); err != nil {
		t.Fatalf("削除に失敗しました: %v", err)
	}
	if _, err := s.Get(ctx, "p-1"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("削除後の取得が sql.ErrNoRows になりません: %v", err)
	}

	// 存在しない ID の削除はエラーにしない
	if err := s.Delete(ctx, "missing"); err != nil {
		t.Errorf("存在しない ID の削除がエラーになりました: %v", err)
	}
}

func TestPutRejectsMissingID(t *testing.T) {
	s := openTestStore(t)
	if err := s.Put(context.Background(), domain.Project{}); err == nil {
		t.Error("ID 未採番のプロジェクトが保存されました")
	}
}

func TestUnknownStyleFallsBackToDefault(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	project := sampleProject("p-1", "Stary styl")
	project.Style = domain.Style{ID: "legacy-style", Name: "Legacy"}
	if err := s.Put(ctx, project); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(ctx, "p-1")
	if err != nil {
		t.Fatalf("取得に失敗しました: %v", err)
	}
	if got.Style.ID != domain.DefaultStyle().ID {
		t.Errorf("未知のスタイルが既定値に置き換わっていません: %q", got.Style.ID)
	}
}
