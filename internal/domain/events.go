package domain

import "time"

// EventType represents the type of domain event
type EventType string

// Event types
const (
	EventSearchStarted     EventType = "SearchStarted"
	EventSearchCancelled   EventType = "SearchCancelled"
	EventSearchCompleted   EventType = "SearchCompleted"
	EventPluginFailed      EventType = "PluginFailed"
	EventPluginRegistered  EventType = "PluginRegistered"
	EventPluginUnavailable EventType = "PluginUnavailable"
	EventCatalogReloaded   EventType = "CatalogReloaded"
	EventConfigLoaded      EventType = "ConfigLoaded"
	EventConfigSaved       EventType = "ConfigSaved"
	EventError             EventType = "Error"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// SearchStartedEvent is emitted when a worker is spawned for a query
type SearchStartedEvent struct {
	SearchID   string
	Generation uint64
	Query      string
	Filter     PopulationFilter
}

func (e SearchStartedEvent) Type() EventType { return EventSearchStarted }

// SearchCancelledEvent is emitted when a running search is asked to stop
type SearchCancelledEvent struct {
	SearchID   string
	Generation uint64
	Query      string
}

func (e SearchCancelledEvent) Type() EventType { return EventSearchCancelled }

// SearchCompletedEvent is emitted when a worker has visited every plugin
type SearchCompletedEvent struct {
	SearchID   string
	Generation uint64
	Query      string
	Results    int
	Failed     int
	Duration   time.Duration
}

func (e SearchCompletedEvent) Type() EventType { return EventSearchCompleted }

// PluginFailedEvent is emitted when a plugin returns an error or panics during population
type PluginFailedEvent struct {
	Plugin string
	Query  string
	Err    error
}

func (e PluginFailedEvent) Type() EventType { return EventPluginFailed }

// PluginRegisteredEvent is emitted when a plugin probe succeeds
type PluginRegisteredEvent struct {
	Name string
}

func (e PluginRegisteredEvent) Type() EventType { return EventPluginRegistered }

// PluginUnavailableEvent is emitted when a plugin cannot be used on this system
type PluginUnavailableEvent struct {
	Name string
	Err  error
}

func (e PluginUnavailableEvent) Type() EventType { return EventPluginUnavailable }

// CatalogReloadedEvent is emitted when the local catalog file is re-indexed
type CatalogReloadedEvent struct {
	Path    string
	Entries int
	Err     error
}

func (e CatalogReloadedEvent) Type() EventType { return EventCatalogReloaded }

// ConfigLoadedEvent is emitted when configuration is loaded
type ConfigLoadedEvent struct {
	Path    string
	Plugins []string
}

func (e ConfigLoadedEvent) Type() EventType { return EventConfigLoaded }

// ConfigSavedEvent is emitted when configuration is saved
type ConfigSavedEvent struct {
	Path string
}

func (e ConfigSavedEvent) Type() EventType { return EventConfigSaved }

// ErrorEvent is emitted when an error occurs
type ErrorEvent struct {
	Message string
	Err     error
}

func (e ErrorEvent) Type() EventType { return EventError }
