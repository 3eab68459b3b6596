// Package models содержит структуры данных, с которыми работает оркестратор:
// учетные данные сессии, срез состояния подписки, платежная история и решение гарда.
package models

import "time"

// Credential хранит пару токенов доступа вместе со сроками их жизни.
// Владелец пары — session.Store; обновляется только через обмен refresh-токена
// или полную очистку при выходе из сессии.
type Credential struct {
	AccessToken   string    `json:"access_token"`
	RefreshToken  string    `json:"refresh_token"`
	AccessExpiry  time.Time `json:"access_expiry"`
	RefreshExpiry time.Time `json:"refresh_expiry"`
}

// AccessValid сообщает, что access-токен присутствует и еще не истек.
func (c Credential) AccessValid(now time.Time) bool {
	return c.AccessToken != "" && now.Before(c.AccessExpiry)
}

// RefreshValid сообщает, что refresh-токен присутствует и еще не истек.
func (c Credential) RefreshValid(now time.Time) bool {
	return c.RefreshToken != "" && now.Before(c.RefreshExpiry)
}
