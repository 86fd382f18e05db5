package models

// Song is an entry from the external catalog. The engine treats it as an
// opaque id plus display metadata; it never mutates catalog entries.
type Song struct {
	ID     string `json:"id" yaml:"id"`
	Title  string `json:"title" yaml:"title"`
	Artist string `json:"artist" yaml:"artist"`
}
