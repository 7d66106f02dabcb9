package model

import "time"

// LocationTypes 登録可能なインフラ種別
var LocationTypes = []string{
	"Communication Tower",
	"Office Complex",
	"Manufacturing Unit",
	"Data Center",
	"Warehouse",
	"Retail Store",
	"Hospital",
	"Educational Institute",
}

// LocationTypeImported ファイル取り込みで種別が無い地点
const LocationTypeImported = "Imported"

// IsValidLocationType 種別が登録可能かチェック
func IsValidLocationType(t string) bool {
	if t == LocationTypeImported {
		return true
	}
	for _, lt := range LocationTypes {
		if lt == t {
			return true
		}
	}
	return false
}

// InfraPoint インフラ地点のレコード
type InfraPoint struct {
	ID             string    `json:"id" db:"id"`
	OwnerID        string    `json:"owner_id" db:"owner_id"`
	Location       string    `json:"location" db:"location"`
	LocationType   string    `json:"location_type" db:"location_type"`
	BuildingHeight *float64  `json:"building_height,omitempty" db:"building_height"` // メートル
	TowerHeight    *float64  `json:"tower_height,omitempty" db:"tower_height"`       // メートル
	Latitude       float64   `json:"latitude" db:"latitude"`
	Longitude      float64   `json:"longitude" db:"longitude"`
	Address        string    `json:"address" db:"address"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// ToLatLng 地点の座標を LatLng に変換
func (p *InfraPoint) ToLatLng() LatLng {
	return LatLng{Lat: p.Latitude, Lng: p.Longitude}
}

// InfraPointRequest 作成・更新・インポート共通のリクエスト
type InfraPointRequest struct {
	ID             string   `json:"id,omitempty"`
	Location       string   `json:"location"`
	LocationType   string   `json:"location_type"`
	BuildingHeight *float64 `json:"building_height,omitempty"`
	TowerHeight    *float64 `json:"tower_height,omitempty"`
	Latitude       float64  `json:"latitude"`
	Longitude      float64  `json:"longitude"`
	Address        string   `json:"address"`
}

// ToLatLng リクエストの座標を LatLng に変換
func (r *InfraPointRequest) ToLatLng() LatLng {
	return LatLng{Lat: r.Latitude, Lng: r.Longitude}
}

// ImportInfraRequest 一括インポートのリクエスト
type ImportInfraRequest struct {
	Points []InfraPointRequest `json:"points" binding:"required"`
}

// ImportResult 一括インポートの結果
type ImportResult struct {
	Imported []InfraPoint    `json:"imported"`
	Skipped  int             `json:"skipped"` // 許可領域外
	Invalid  int             `json:"invalid"` // 入力不正
	Rejected []RejectedPoint `json:"rejected,omitempty"`
}

// RejectedPoint 認可で拒否された地点（ログ・レスポンス用）
type RejectedPoint struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}
