// Package models holds the storefront's records and their relations.
package models
