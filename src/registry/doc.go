// Package registry maps node ids to the handles used to address them.
package registry
