package service

const (
	// DefaultCustomID identifies the custom service seeded into fresh settings.
	DefaultCustomID = "custom-default-1"
)

var presets = []Preset{
	{
		NameKey:        "presets.s5p.name",
		URL:            "https://s5phub.copernicus.eu/dhus/odata/v1/",
		DefaultQuery:   "Products?$top=5",
		DescriptionKey: "presets.s5p.description",
		Type:           TypeFree,
		Protocol:       ProtocolOData,
	},
	{
		NameKey:        "presets.s3.name",
		URL:            "https://cophub.copernicus.eu/odata/v1/",
		DefaultQuery:   "Products?$top=5",
		DescriptionKey: "presets.s3.description",
		Type:           TypeFree,
		Protocol:       ProtocolOData,
	},
	{
		NameKey:        "presets.tripPin.name",
		URL:            "https://services.odata.org/V4/TripPinServiceRW/",
		DefaultQuery:   "People?$top=5",
		DescriptionKey: "presets.tripPin.description",
		Type:           TypeFree,
		Protocol:       ProtocolOData,
	},
	{
		NameKey:        "presets.northwind.name",
		URL:            "https://services.odata.org/V4/Northwind/Northwind.svc/",
		DefaultQuery:   "Customers?$top=5",
		DescriptionKey: "presets.northwind.description",
		Type:           TypeFree,
		Protocol:       ProtocolOData,
	},
}

// Presets returns a copy of the built-in services in their fixed order.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

// FirstPreset returns the preset used as the fallback active target.
func FirstPreset() Preset {
	return presets[0]
}

// DefaultCustoms returns the custom services present in fresh settings.
func DefaultCustoms() []Custom {
	return []Custom{
		{
			ID:           DefaultCustomID,
			Name:         "Default Custom Service",
			URL:          "https://services.odata.org/V4/(S(3o2w45p1azute55cf3aflsnm))/OData/OData.svc/",
			DefaultQuery: "Products?$top=3",
			Description:  "A default custom service example.",
			Type:         TypePaid,
			Protocol:     ProtocolOData,
		},
	}
}

// Merge returns the visible catalog: presets not hidden by name key, followed by customs.
func Merge(customs []Custom, hiddenNameKeys []string) []Service {
	hidden := make(map[string]struct{}, len(hiddenNameKeys))
	for _, key := range hiddenNameKeys {
		hidden[key] = struct{}{}
	}
	out := make([]Service, 0, len(presets)+len(customs))
	for _, p := range presets {
		if _, ok := hidden[p.NameKey]; ok {
			continue
		}
		out = append(out, FromPreset(p))
	}
	for _, c := range customs {
		out = append(out, FromCustom(c))
	}
	return out
}

// FindByURL returns the first service with an exactly matching URL.
func FindByURL(services []Service, url string) (Service, bool) {
	for _, svc := range services {
		if svc.URL() == url {
			return svc, true
		}
	}
	return Service{}, false
}

// FindByKey returns the service identified by a custom id or preset name key.
func FindByKey(services []Service, key string) (Service, bool) {
	for _, svc := range services {
		if svc.Key() == key {
			return svc, true
		}
	}
	return Service{}, false
}

// URLs lists the service URLs in catalog order.
func URLs(services []Service) []string {
	out := make([]string, 0, len(services))
	for _, svc := range services {
		out = append(out, svc.URL())
	}
	return out
}
