package model

import "time"

// Component часть услуги со своим типом ресурса и длительностью
type Component struct {
	ServiceID string         `json:"service_id"`
	Label     string         `json:"label"`
	Kinds     []ResourceKind `json:"kinds"`
	Minutes   int            `json:"minutes"`
}

// Service услуга из каталога. У простой услуги один компонент - она сама
type Service struct {
	ID         string         `json:"id"`
	Label      string         `json:"label"`
	Duration   int            `json:"duration"` // в минутах
	Kinds      []ResourceKind `json:"kinds"`    // объединение типов ресурсов всех компонентов
	Components []Component    `json:"components"`
}

func (s *Service) IsComposite() bool {
	return len(s.Components) > 1
}

func (s *Service) Length() time.Duration {
	return time.Duration(s.Duration) * time.Minute
}
