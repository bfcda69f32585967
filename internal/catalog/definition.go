package catalog

// Definition сырое описание магазина, как оно лежит в конфиге.
// Catalog строится из него один раз при старте и дальше не меняется
type Definition struct {
	TimeZone      string            `mapstructure:"time_zone" json:"time_zone"`
	MaxPartySize  int               `mapstructure:"max_party_size" json:"max_party_size"`
	Resources     map[string]int    `mapstructure:"resources" json:"resources"` // тип ресурса -> вместимость
	Hours         []DayHours        `mapstructure:"hours" json:"hours"`         // 7 записей, начиная с воскресенья
	Services      []ServiceDef      `mapstructure:"services" json:"services"`
	Practitioners []PractitionerDef `mapstructure:"practitioners" json:"practitioners"`

	// UnknownEventKind тип ресурса для событий календаря с незнакомой услугой. Пусто - такие события не учитываются
	UnknownEventKind string `mapstructure:"unknown_event_kind" json:"unknown_event_kind"`
}

type DayHours struct {
	Open  int `mapstructure:"open" json:"open"`
	Close int `mapstructure:"close" json:"close"`
}

// ServiceDef описание услуги. Resource может быть строкой или списком строк
type ServiceDef struct {
	ID       string    `mapstructure:"id" json:"id"`
	Label    string    `mapstructure:"label" json:"label"`
	Duration int       `mapstructure:"duration" json:"duration"`
	Resource any       `mapstructure:"resource" json:"resource"`
	Parts    []PartDef `mapstructure:"parts" json:"parts"`
}

// PartDef строка таблицы разбиения составной услуги. Minutes == 0 - остаток длительности
type PartDef struct {
	Service string `mapstructure:"service" json:"service"`
	Minutes int    `mapstructure:"minutes" json:"minutes"`
}

type PractitionerDef struct {
	Name  string `mapstructure:"name" json:"name"`
	Color string `mapstructure:"color" json:"color"` // colorId события в Google Calendar
}

// DefaultDefinition каталог по умолчанию
func DefaultDefinition() Definition {
	week := make([]DayHours, 7)
	for i := range week {
		week[i] = DayHours{Open: 10, Close: 21}
	}

	return Definition{
		TimeZone:     "Asia/Taipei",
		MaxPartySize: 3,
		Resources: map[string]int{
			"body": 3,
			"foot": 2,
		},
		Hours: week,
		Services: []ServiceDef{
			{ID: "body60", Label: "全身指壓60分", Duration: 60, Resource: "body"},
			{ID: "body90", Label: "全身指壓90分", Duration: 90, Resource: "body"},
			{ID: "body120", Label: "全身指壓120分", Duration: 120, Resource: "body"},
			{ID: "foot40", Label: "腳底按摩40分", Duration: 40, Resource: "foot"},
			{ID: "foot60", Label: "腳底按摩60分", Duration: 60, Resource: "foot"},
			{
				ID: "combo100", Label: "腳底+全身100分", Duration: 100,
				Parts: []PartDef{{Service: "foot40", Minutes: 40}, {Service: "body60"}},
			},
			{
				ID: "combo130", Label: "腳底+全身130分", Duration: 130,
				Parts: []PartDef{{Service: "foot40", Minutes: 40}, {Service: "body90"}},
			},
		},
		Practitioners: []PractitionerDef{
			{Name: "阿明", Color: "1"},
			{Name: "小美", Color: "2"},
			{Name: "阿傑", Color: "3"},
			{Name: "小芳", Color: "4"},
		},
		UnknownEventKind: "body",
	}
}
