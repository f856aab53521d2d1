// Package repository はケースストアへの読み取りインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/subpod/internal/model"
)

// CaseRepository はホストのケースデータの参照インターフェース。
type CaseRepository interface {
	// FindByID は指定IDのケースを連絡先とあわせて取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Case, error)
}
