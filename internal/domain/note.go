package domain

import (
	"encoding/json"
	"strings"
)

// NoteData is the untyped key-value bag some theme scripts embed as JSON in
// the customer note field. It is a best-effort secondary channel: values here
// win the priority merge but the note is never treated as authoritative
// storage on its own.
type NoteData map[string]interface{}

// ParseNote decodes a customer note as JSON. A malformed or non-object note
// yields an empty NoteData; broken notes must never fail a sync.
func ParseNote(note string) NoteData {
	note = strings.TrimSpace(note)
	if note == "" {
		return NoteData{}
	}
	var data NoteData
	if err := json.Unmarshal([]byte(note), &data); err != nil {
		return NoteData{}
	}
	if data == nil {
		return NoteData{}
	}
	return data
}

// String returns the trimmed string value for key, or ""
func (n NoteData) String(key string) string {
	v, ok := n[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// Company returns the company name, accepting both spellings the theme
// scripts have used ("company" and "company_name")
func (n NoteData) Company() string {
	if v := n.String("company"); v != "" {
		return v
	}
	return n.String("company_name")
}

// VATNumber returns the VAT number carried in the note
func (n NoteData) VATNumber() string {
	return n.String("vat_number")
}

// Address1 returns the street line carried in the note
func (n NoteData) Address1() string {
	return n.String("address1")
}

// HasSyncFields reports whether the note carries any field the customer
// sync engine acts on
func (n NoteData) HasSyncFields() bool {
	return n.Company() != "" || n.Address1() != "" || n.VATNumber() != ""
}
