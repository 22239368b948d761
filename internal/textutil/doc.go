// Package textutil builds safe subtitle file names.
package textutil
