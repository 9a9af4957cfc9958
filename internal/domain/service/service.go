// Package service models catalog entries: compiled-in presets and user-defined custom services.
package service

import (
	"strings"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Type classifies the access model of a service.
type Type string

const (
	// TypeFree marks services that can be queried without payment.
	TypeFree Type = "free"
	// TypePaid marks services that require a subscription.
	TypePaid Type = "paid"
)

// Valid reports whether the type is one of the known values.
func (t Type) Valid() bool {
	return t == TypeFree || t == TypePaid
}

// Protocol identifies the wire protocol a service speaks.
type Protocol string

const (
	// ProtocolOData marks OData endpoints.
	ProtocolOData Protocol = "OData"
	// ProtocolREST marks plain REST endpoints.
	ProtocolREST Protocol = "REST"
)

// Valid reports whether the protocol is one of the known values.
func (p Protocol) Valid() bool {
	return p == ProtocolOData || p == ProtocolREST
}

// Kind discriminates the Service variants.
type Kind uint8

const (
	// KindPreset tags built-in services.
	KindPreset Kind = iota + 1
	// KindCustom tags user-defined services.
	KindCustom
)

func (k Kind) String() string {
	switch k {
	case KindPreset:
		return "preset"
	case KindCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// Preset is an immutable built-in service. Name and description are translation keys.
type Preset struct {
	NameKey        string   `json:"nameKey"`
	URL            string   `json:"url"`
	DefaultQuery   string   `json:"defaultQuery"`
	DescriptionKey string   `json:"descriptionKey"`
	Type           Type     `json:"type"`
	Protocol       Protocol `json:"protocol"`
}

// Custom is a user-defined service with literal name and description.
type Custom struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	URL          string   `json:"url"`
	DefaultQuery string   `json:"defaultQuery"`
	Description  string   `json:"description"`
	Type         Type     `json:"type"`
	Protocol     Protocol `json:"protocol"`
}

type customWire struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	URL          string   `json:"url"`
	DefaultQuery string   `json:"defaultQuery"`
	Description  string   `json:"description"`
	Type         Type     `json:"type"`
	Protocol     Protocol `json:"protocol"`
	IsCustom     bool     `json:"isCustom"`
}

// MarshalJSON emits the custom marker alongside the fields.
func (c Custom) MarshalJSON() ([]byte, error) {
	return json.Marshal(customWire{
		ID:           c.ID,
		Name:         c.Name,
		URL:          c.URL,
		DefaultQuery: c.DefaultQuery,
		Description:  c.Description,
		Type:         c.Type,
		Protocol:     c.Protocol,
		IsCustom:     true,
	})
}

// Fields carries the user-editable attributes of a service.
type Fields struct {
	Name         string   `json:"name"`
	URL          string   `json:"url"`
	DefaultQuery string   `json:"defaultQuery"`
	Description  string   `json:"description"`
	Type         Type     `json:"type"`
	Protocol     Protocol `json:"protocol"`
}

// Normalised trims string fields and fills in type and protocol defaults.
func (f Fields) Normalised() Fields {
	out := Fields{
		Name:         strings.TrimSpace(f.Name),
		URL:          strings.TrimSpace(f.URL),
		DefaultQuery: strings.TrimSpace(f.DefaultQuery),
		Description:  strings.TrimSpace(f.Description),
		Type:         f.Type,
		Protocol:     f.Protocol,
	}
	if !out.Type.Valid() {
		out.Type = TypeFree
	}
	if !out.Protocol.Valid() {
		out.Protocol = ProtocolOData
	}
	return out
}

// ToCustom builds a custom service with the given id from the fields.
func (f Fields) ToCustom(id string) Custom {
	return Custom{
		ID:           id,
		Name:         f.Name,
		URL:          f.URL,
		DefaultQuery: f.DefaultQuery,
		Description:  f.Description,
		Type:         f.Type,
		Protocol:     f.Protocol,
	}
}

// Service is a tagged union over Preset and Custom.
type Service struct {
	kind   Kind
	preset Preset
	custom Custom
}

// FromPreset wraps a preset.
func FromPreset(p Preset) Service {
	return Service{kind: KindPreset, preset: p, custom: Custom{}}
}

// FromCustom wraps a custom service.
func FromCustom(c Custom) Service {
	return Service{kind: KindCustom, preset: Preset{}, custom: c}
}

// Kind returns the variant tag.
func (s Service) Kind() Kind { return s.kind }

// IsCustom reports whether the service is user-defined.
func (s Service) IsCustom() bool { return s.kind == KindCustom }

// Preset returns the preset variant.
func (s Service) Preset() (Preset, bool) {
	return s.preset, s.kind == KindPreset
}

// Custom returns the custom variant.
func (s Service) Custom() (Custom, bool) {
	return s.custom, s.kind == KindCustom
}

// URL returns the service endpoint, the join key for all per-service state.
func (s Service) URL() string {
	if s.kind == KindCustom {
		return s.custom.URL
	}
	return s.preset.URL
}

// DefaultQuery returns the resource path issued when the service is selected.
func (s Service) DefaultQuery() string {
	if s.kind == KindCustom {
		return s.custom.DefaultQuery
	}
	return s.preset.DefaultQuery
}

// Type returns the access model.
func (s Service) Type() Type {
	if s.kind == KindCustom {
		return s.custom.Type
	}
	return s.preset.Type
}

// Protocol returns the wire protocol.
func (s Service) Protocol() Protocol {
	if s.kind == KindCustom {
		return s.custom.Protocol
	}
	return s.preset.Protocol
}

// Key identifies the service for edit and delete: the id of a custom, the name key of a preset.
func (s Service) Key() string {
	if s.kind == KindCustom {
		return s.custom.ID
	}
	return s.preset.NameKey
}

// NewID mints a fresh custom service identifier.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return "custom-" + uuid.NewString()
	}
	return "custom-" + id.String()
}
