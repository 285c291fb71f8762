// Package template defines the template engine contract renderers depend on.
// Implementations live in sub-packages so renderers can swap engines without
// touching their view models.
package template
