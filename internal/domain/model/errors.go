package model

import "errors"

var (
	// ErrDataUnavailable 境界データの取得失敗（ネットワーク・ファイル）
	ErrDataUnavailable = errors.New("boundary data unavailable")
	// ErrDataMalformed 境界データのパース・スキーマ不正
	ErrDataMalformed = errors.New("boundary data malformed")
	// ErrInvalidPoint 緯度経度が有限値でない
	ErrInvalidPoint = errors.New("invalid point")
	// ErrAccessListNotFound ユーザーのアクセスリストが未設定
	ErrAccessListNotFound = errors.New("access list not found")
	// ErrOutsideAllowedRegion 許可領域外の操作
	ErrOutsideAllowedRegion = errors.New("outside allowed region")
	// ErrInfraNotFound インフラ地点が存在しない
	ErrInfraNotFound = errors.New("infrastructure point not found")
	// ErrInvalidInfraRequest インフラ地点リクエストの検証失敗
	ErrInvalidInfraRequest = errors.New("invalid infrastructure request")
	// ErrInfraDuplicate 同じIDのインフラ地点が既に存在する
	ErrInfraDuplicate = errors.New("infrastructure point already exists")
)
