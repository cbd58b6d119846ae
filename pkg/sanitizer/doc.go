// Package sanitizer removes markup from user input with bluemonday policies.
package sanitizer
