package rpc

import "github.com/dmitrijs2005/braindock/internal/models"

type PushRequest struct {
	Entry models.Entry `json:"entry"`
}

type PushResponse struct {
	RemoteID string `json:"remote_id"`
	// Outcome is the last-writer-wins decision taken by the authority.
	Outcome string `json:"outcome"`
}

type ReadRequest struct {
	ID string `json:"id"`
}

type ReadResponse struct {
	Entry models.Entry `json:"entry"`
}

type ListRequest struct {
	Filter models.Filter `json:"filter"`
}

type ListResponse struct {
	Entries []models.Entry `json:"entries"`
}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}
