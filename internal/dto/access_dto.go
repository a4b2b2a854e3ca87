package dto

import "feedesk/internal/access"

type CapabilitiesResponse struct {
	Role         string         `json:"role"`
	DefaultRoute string         `json:"default_route"`
	Routes       []access.Route `json:"routes"`
	Actions      []string       `json:"actions"`
}

type ResolveResponse struct {
	Path string `json:"path"`
	access.Resolution
}
