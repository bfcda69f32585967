package config

import (
	"fmt"

	"github.com/Freeeeeet/massage_booking/internal/catalog"
	"github.com/spf13/viper"
)

// LoadShop читает описание магазина (yaml/json/toml) и строит каталог.
// Пустой путь - каталог по умолчанию. Не заданные в файле разделы берутся из умолчаний
func LoadShop(path string) (*catalog.Catalog, error) {
	def, err := loadDefinition(path)
	if err != nil {
		return nil, err
	}

	cat, err := catalog.New(def)
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}
	return cat, nil
}

func loadDefinition(path string) (catalog.Definition, error) {
	defaults := catalog.DefaultDefinition()
	if path == "" {
		return defaults, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return catalog.Definition{}, fmt.Errorf("read shop config %s: %w", path, err)
	}

	// декодируем в пустую структуру: mapstructure не укорачивает уже заполненные срезы
	var def catalog.Definition
	if err := v.Unmarshal(&def); err != nil {
		return catalog.Definition{}, fmt.Errorf("unmarshal shop config: %w", err)
	}

	if def.TimeZone == "" {
		def.TimeZone = defaults.TimeZone
	}
	if def.MaxPartySize == 0 {
		def.MaxPartySize = defaults.MaxPartySize
	}
	if len(def.Resources) == 0 {
		def.Resources = defaults.Resources
	}
	if len(def.Hours) == 0 {
		def.Hours = defaults.Hours
	}
	if len(def.Services) == 0 {
		def.Services = defaults.Services
	}
	if len(def.Practitioners) == 0 {
		def.Practitioners = defaults.Practitioners
	}
	// явная пустая строка в файле отключает учёт незнакомых событий
	if !v.IsSet("unknown_event_kind") {
		def.UnknownEventKind = defaults.UnknownEventKind
	}
	return def, nil
}
