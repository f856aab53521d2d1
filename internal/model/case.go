package model

import "github.com/google/uuid"

// Case はホストのケース管理システム上のケースを表す。
// podからは読み取り専用で、連絡先の特定にのみ使用する。
type Case struct {
	ID      int64
	Contact Contact
}

// Contact はケースに紐づく連絡先を表す。
// UUIDは購読サービス側のidentityと一致する。
type Contact struct {
	ID   int64
	UUID uuid.UUID
}

// Identity は購読サービスへの問い合わせに使うidentity文字列を返す。
func (c *Case) Identity() string {
	return c.Contact.UUID.String()
}
