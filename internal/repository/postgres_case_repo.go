package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/subpod/internal/model"
)

// PostgresCaseRepo はPostgreSQLを使用したケースリポジトリ。
// ホストのcases_case/contacts_contactテーブルを参照する。
type PostgresCaseRepo struct {
	db *sql.DB
}

// NewPostgresCaseRepo はPostgresCaseRepoを生成する。
func NewPostgresCaseRepo(db *sql.DB) *PostgresCaseRepo {
	return &PostgresCaseRepo{db: db}
}

// FindByID は指定IDのケースを取得する。見つからない場合はnilを返す。
func (r *PostgresCaseRepo) FindByID(ctx context.Context, id int64) (*model.Case, error) {
	c := &model.Case{}

	err := r.db.QueryRowContext(ctx,
		`SELECT c.id, ct.id, ct.uuid
		 FROM cases_case c
		 JOIN contacts_contact ct ON ct.id = c.contact_id
		 WHERE c.id = $1`,
		id,
	).Scan(&c.ID, &c.Contact.ID, &c.Contact.UUID)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ケースの取得に失敗しました: %w", err)
	}

	return c, nil
}
