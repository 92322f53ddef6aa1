package domain

// MarketingAssetType は販促素材の種別です。
type MarketingAssetType string

const (
	AssetIntroPage MarketingAssetType = "INTRO_PAGE"
	AssetBoxMockup MarketingAssetType = "BOX_MOCKUP"
)

// Valid は MarketingAssetType が既知の種別かどうかを返します。
func (t MarketingAssetType) Valid() bool {
	return t == AssetIntroPage || t == AssetBoxMockup
}

// AssetStatus は販促素材生成の進行状態です。
type AssetStatus string

const (
	AssetIdle       AssetStatus = "idle"
	AssetGenerating AssetStatus = "generating"
	AssetCompleted  AssetStatus = "completed"
	AssetError      AssetStatus = "error"
)

// MarketingAsset は販促素材（表紙アート・化粧箱モックアップ）の生成結果です。
// Project とは独立したセッション限りのデータで、ストアには保存しません。
type MarketingAsset struct {
	Type     MarketingAssetType `json:"type"`
	Status   AssetStatus        `json:"status"`
	ImageURL string             `json:"imageUrl,omitempty"`
}
