package model

import (
	"fmt"
	"strings"
)

// LoadState データセットの読み込み状態
// Ready はセッション中の終端状態。失敗時は Unloaded に戻る
type LoadState int

const (
	LoadStateUnloaded LoadState = iota
	LoadStateLoading
	LoadStateReady
)

func (s LoadState) String() string {
	switch s {
	case LoadStateLoading:
		return "loading"
	case LoadStateReady:
		return "ready"
	default:
		return "unloaded"
	}
}

// MarshalText JSON出力用
func (s LoadState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText JSON入力用
func (s *LoadState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "unloaded":
		*s = LoadStateUnloaded
	case "loading":
		*s = LoadStateLoading
	case "ready":
		*s = LoadStateReady
	default:
		return fmt.Errorf("不明な読み込み状態: %s", text)
	}
	return nil
}

// MissingAccessListPolicy アクセスリストが未設定・未準備のときの扱い
type MissingAccessListPolicy int

const (
	// DenyAll 全て拒否（デフォルト）
	DenyAll MissingAccessListPolicy = iota
	// AllowAll 制限なしとして扱う
	AllowAll
)

func (p MissingAccessListPolicy) String() string {
	if p == AllowAll {
		return "allow_all"
	}
	return "deny_all"
}

// ParseMissingAccessListPolicy 設定値からポリシーを解析
func ParseMissingAccessListPolicy(v string) (MissingAccessListPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "deny_all", "denyall", "deny":
		return DenyAll, nil
	case "allow_all", "allowall", "allow":
		return AllowAll, nil
	default:
		return DenyAll, fmt.Errorf("不明なアクセスリストポリシー: %s", v)
	}
}

// RegionGrant 1件のアクセス権（階層＋領域名）
type RegionGrant struct {
	Level RegionLevel `json:"level"`
	Name  string      `json:"name"`
}

// AccessEntry ユーザーごとに保存されているアクセス権
type AccessEntry struct {
	UserID string        `json:"user_id"`
	Grants []RegionGrant `json:"grants"`
}

// NamesByLevel 階層ごとの領域名
func (e *AccessEntry) NamesByLevel() map[RegionLevel][]string {
	out := make(map[RegionLevel][]string)
	if e == nil {
		return out
	}
	for _, g := range e.Grants {
		name := strings.TrimSpace(g.Name)
		if name == "" {
			continue
		}
		out[g.Level] = append(out[g.Level], name)
	}
	return out
}

// 判定理由
const (
	ReasonAllowed               = "allowed"
	ReasonInvalidPoint          = "invalid_point"
	ReasonOutsideNational       = "outside_national"
	ReasonRegionNotPermitted    = "region_not_permitted"
	ReasonAccessListUnavailable = "access_list_unavailable"
)

// AccessDecision 1点に対する認可判定結果
type AccessDecision struct {
	Allowed        bool   `json:"allowed"`
	InsideNational bool   `json:"inside_national"`
	InsideAllowed  bool   `json:"inside_allowed"`
	AllowedReady   bool   `json:"allowed_ready"`
	Reason         string `json:"reason"`
}

// RegionAccessStatus ユーザーの読み込み状態と許可領域の概要
type RegionAccessStatus struct {
	UserID        string       `json:"user_id"`
	NationalState LoadState    `json:"national_state"`
	AllowedState  LoadState    `json:"allowed_state"`
	Configured    bool         `json:"configured"`
	Regions       []string     `json:"regions"`
	Bounds        *BoundingBox `json:"bounds,omitempty"`
}
