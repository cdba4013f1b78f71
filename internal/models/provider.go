package models

import "encoding/json"

// Base представляє workspace/base, доступний через токен
type Base struct {
	ID              string `json:"id"`
	Name            string `json:"name,omitempty"`
	PermissionLevel string `json:"permissionLevel,omitempty"`
}

// BasesResponse відповідь metadata endpoint провайдера
type BasesResponse struct {
	Bases  []Base `json:"bases"`
	Offset string `json:"offset,omitempty"`
}

// ProviderIdentity ідентичність, визначена на основі metadata провайдера
type ProviderIdentity struct {
	AccountID string
	// Profile сирий payload провайдера, зберігається без змін
	Profile json.RawMessage
}
