package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// TenantState is the lifecycle state of a shell.
type TenantState string

const (
	StateUninitialized TenantState = "Uninitialized"
	StateInitializing  TenantState = "Initializing"
	StateRunning       TenantState = "Running"
	StateError         TenantState = "Error"
)

// Well-known shell property keys.
const (
	PropertyDescription      = "Description"
	PropertyRecipeName       = "RecipeName"
	PropertyDatabaseProvider = "DatabaseProvider"
)

// ShellSettings describes one tenant of the multi-tenant host.
type ShellSettings struct {
	ID               uint              `gorm:"primaryKey" json:"id"`
	Name             string            `gorm:"not null" json:"name"`
	NameKey          string            `gorm:"uniqueIndex;not null" json:"-"` // lower-cased Name
	RequestURLPrefix string            `json:"request_url_prefix"`
	RequestURLHost   *string           `json:"request_url_host"` // comma separated
	State            TenantState       `gorm:"not null;default:'Uninitialized'" json:"state"`
	Properties       map[string]string `gorm:"serializer:json" json:"properties"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

func (ShellSettings) TableName() string {
	return "shell_settings"
}

// BeforeSave keeps the lookup key in sync with Name.
func (s *ShellSettings) BeforeSave(tx *gorm.DB) error {
	s.NameKey = strings.ToLower(s.Name)
	if s.Properties == nil {
		s.Properties = map[string]string{}
	}
	return nil
}

// Get returns the property stored under key, or "" when absent.
func (s *ShellSettings) Get(key string) string {
	return s.Properties[key]
}

func (s *ShellSettings) Set(key, value string) {
	if s.Properties == nil {
		s.Properties = map[string]string{}
	}
	s.Properties[key] = value
}
