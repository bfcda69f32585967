package catalog

import (
	"fmt"
	"sort"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/Freeeeeet/massage_booking/internal/model"
)

type Practitioner struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// Catalog неизменяемая конфигурация магазина: услуги, ресурсы, часы работы, мастера
type Catalog struct {
	loc           *time.Location
	maxPartySize  int
	capacities    map[model.ResourceKind]int
	kinds         []model.ResourceKind
	services      map[string]*model.Service
	order         []string
	byLabel       map[string]string
	hours         [7]DayHours
	practitioners []Practitioner
	colorByName   map[string]string
	nameByColor   map[string]string
	unknownKind   model.ResourceKind
}

// New проверяет определение и строит каталог
func New(def Definition) (*Catalog, error) {
	loc, err := time.LoadLocation(def.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", def.TimeZone, err)
	}

	if def.MaxPartySize < 1 {
		return nil, fmt.Errorf("max party size must be positive, got %d", def.MaxPartySize)
	}

	c := &Catalog{
		loc:          loc,
		maxPartySize: def.MaxPartySize,
		capacities:   make(map[model.ResourceKind]int, len(def.Resources)),
		services:     make(map[string]*model.Service, len(def.Services)),
		byLabel:      make(map[string]string, len(def.Services)),
		colorByName:  make(map[string]string),
		nameByColor:  make(map[string]string),
	}

	if len(def.Resources) == 0 {
		return nil, fmt.Errorf("no resource kinds configured")
	}
	for name, capacity := range def.Resources {
		if capacity < 1 {
			return nil, fmt.Errorf("resource %q: capacity must be positive, got %d", name, capacity)
		}
		kind := model.ResourceKind(strings.ToLower(name))
		c.capacities[kind] = capacity
		c.kinds = append(c.kinds, kind)
	}
	sort.Slice(c.kinds, func(i, j int) bool { return c.kinds[i] < c.kinds[j] })

	if len(def.Hours) != 7 {
		return nil, fmt.Errorf("weekly hours table must have 7 entries, got %d", len(def.Hours))
	}
	for i, h := range def.Hours {
		if h.Open < 0 || h.Close > 24 || h.Open > h.Close {
			return nil, fmt.Errorf("hours for %s: invalid range %d-%d", time.Weekday(i), h.Open, h.Close)
		}
		c.hours[i] = h
	}

	defs := make(map[string]ServiceDef, len(def.Services))
	for _, sd := range def.Services {
		if sd.ID == "" {
			return nil, fmt.Errorf("service without id")
		}
		if _, dup := defs[sd.ID]; dup {
			return nil, fmt.Errorf("duplicate service %q", sd.ID)
		}
		defs[sd.ID] = sd
	}

	for _, sd := range def.Services {
		svc, err := c.buildService(sd, defs)
		if err != nil {
			return nil, fmt.Errorf("service %q: %w", sd.ID, err)
		}
		c.services[svc.ID] = svc
		c.order = append(c.order, svc.ID)
		c.byLabel[svc.Label] = svc.ID
	}

	for _, p := range def.Practitioners {
		if p.Name == "" {
			return nil, fmt.Errorf("practitioner without name")
		}
		c.practitioners = append(c.practitioners, Practitioner{Name: p.Name, Color: p.Color})
		if p.Color == "" {
			continue
		}
		if other, taken := c.nameByColor[p.Color]; taken {
			return nil, fmt.Errorf("color %q is shared by %s and %s", p.Color, other, p.Name)
		}
		c.colorByName[p.Name] = p.Color
		c.nameByColor[p.Color] = p.Name
	}

	if def.UnknownEventKind != "" {
		kind := model.ResourceKind(strings.ToLower(def.UnknownEventKind))
		if _, ok := c.capacities[kind]; !ok {
			return nil, fmt.Errorf("unknown event kind %q is not a configured resource", def.UnknownEventKind)
		}
		c.unknownKind = kind
	}

	return c, nil
}

// UnknownEventKind тип ресурса, который занимает событие с незнакомой услугой
func (c *Catalog) UnknownEventKind() (model.ResourceKind, bool) {
	return c.unknownKind, c.unknownKind != ""
}

func (c *Catalog) buildService(sd ServiceDef, defs map[string]ServiceDef) (*model.Service, error) {
	label := sd.Label
	if label == "" {
		label = sd.ID
	}

	if len(sd.Parts) == 0 {
		if sd.Duration <= 0 {
			return nil, fmt.Errorf("duration must be positive, got %d", sd.Duration)
		}
		kinds, err := c.normalizeKinds(sd.Resource)
		if err != nil {
			return nil, err
		}
		return &model.Service{
			ID:       sd.ID,
			Label:    label,
			Duration: sd.Duration,
			Kinds:    kinds,
			Components: []model.Component{
				{ServiceID: sd.ID, Label: label, Kinds: kinds, Minutes: sd.Duration},
			},
		}, nil
	}

	components := make([]model.Component, 0, len(sd.Parts))
	remainder := -1
	fixed := 0
	for i, part := range sd.Parts {
		pd, ok := defs[part.Service]
		if !ok {
			return nil, fmt.Errorf("part %d: unknown service %q", i, part.Service)
		}
		if len(pd.Parts) > 0 {
			return nil, fmt.Errorf("part %d: %q is composite itself", i, part.Service)
		}
		kinds, err := c.normalizeKinds(pd.Resource)
		if err != nil {
			return nil, fmt.Errorf("part %d: %w", i, err)
		}
		if part.Minutes < 0 {
			return nil, fmt.Errorf("part %d: negative minutes", i)
		}
		if part.Minutes == 0 {
			if remainder >= 0 {
				return nil, fmt.Errorf("more than one remainder part")
			}
			remainder = i
		}
		fixed += part.Minutes

		partLabel := pd.Label
		if partLabel == "" {
			partLabel = pd.ID
		}
		components = append(components, model.Component{
			ServiceID: pd.ID,
			Label:     partLabel,
			Kinds:     kinds,
			Minutes:   part.Minutes,
		})
	}

	total := sd.Duration
	switch {
	case remainder >= 0:
		if total <= 0 {
			return nil, fmt.Errorf("remainder part requires a total duration")
		}
		rest := total - fixed
		if rest <= 0 {
			return nil, fmt.Errorf("fixed parts (%d min) leave nothing of %d min", fixed, total)
		}
		components[remainder].Minutes = rest
	case total == 0:
		total = fixed
	case total != fixed:
		return nil, fmt.Errorf("parts sum to %d min, duration is %d", fixed, total)
	}

	var union []model.ResourceKind
	for _, comp := range components {
		union = mergeKinds(union, comp.Kinds)
	}

	return &model.Service{
		ID:         sd.ID,
		Label:      label,
		Duration:   total,
		Kinds:      union,
		Components: components,
	}, nil
}

// normalizeKinds сводит строку или список к отсортированному множеству известных типов
func (c *Catalog) normalizeKinds(raw any) ([]model.ResourceKind, error) {
	var names []string
	switch v := raw.(type) {
	case string:
		names = []string{v}
	case []string:
		names = v
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("resource list item %v is not a string", item)
			}
			names = append(names, s)
		}
	case nil:
		return nil, fmt.Errorf("resource is required")
	default:
		return nil, fmt.Errorf("unsupported resource value %v", raw)
	}

	var kinds []model.ResourceKind
	for _, name := range names {
		kind := model.ResourceKind(strings.ToLower(strings.TrimSpace(name)))
		if _, ok := c.capacities[kind]; !ok {
			return nil, fmt.Errorf("unknown resource kind %q", name)
		}
		kinds = mergeKinds(kinds, []model.ResourceKind{kind})
	}
	if len(kinds) == 0 {
		return nil, fmt.Errorf("resource is required")
	}
	return kinds, nil
}

func mergeKinds(dst, src []model.ResourceKind) []model.ResourceKind {
	for _, k := range src {
		found := false
		for _, existing := range dst {
			if existing == k {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, k)
		}
	}
	sort.Slice(dst, func(i, j int) bool { return dst[i] < dst[j] })
	return dst
}

// Lookup возвращает услугу по идентификатору
func (c *Catalog) Lookup(serviceID string) (*model.Service, error) {
	svc, ok := c.services[serviceID]
	if !ok {
		return nil, model.NewInvalidService(serviceID)
	}
	return svc, nil
}

// ByLabel ищет услугу по отображаемому названию (для старых событий календаря)
func (c *Catalog) ByLabel(label string) (*model.Service, bool) {
	id, ok := c.byLabel[label]
	if !ok {
		id = label
	}
	svc, ok := c.services[id]
	return svc, ok
}

// Services все услуги в порядке объявления
func (c *Catalog) Services() []*model.Service {
	out := make([]*model.Service, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.services[id])
	}
	return out
}

func (c *Catalog) Kinds() []model.ResourceKind {
	return append([]model.ResourceKind(nil), c.kinds...)
}

func (c *Catalog) Capacity(kind model.ResourceKind) int {
	return c.capacities[kind]
}

func (c *Catalog) Location() *time.Location {
	return c.loc
}

func (c *Catalog) MaxPartySize() int {
	return c.maxPartySize
}

func (c *Catalog) Practitioners() []Practitioner {
	return append([]Practitioner(nil), c.practitioners...)
}

// PractitionerColor цветовая метка мастера для календаря
func (c *Catalog) PractitionerColor(name string) (string, bool) {
	color, ok := c.colorByName[name]
	return color, ok
}

// PractitionerByColor обратное отображение цвета в мастера
func (c *Catalog) PractitionerByColor(color string) (string, bool) {
	name, ok := c.nameByColor[color]
	return name, ok
}
