package main

import (
	"github.com/gofrs/uuid"
)

var _ UIDGenerator = (*IDsHandler)(nil) // ensure IDsHandler implements UIDGenerator.

// UIDGenerator is an interface for getting a prefixed uid.
type UIDGenerator interface {
	Generate(prefix string) string
}

// IDsHandler implements the UIDGenerator interface.
type IDsHandler struct{}

// NewIDsHandler returns a ready to use IDsHandler.
func NewIDsHandler() *IDsHandler {
	return &IDsHandler{}
}

// Generate provides a random unique identifier in the form `<prefix>:<uuid>`.
func (idh *IDsHandler) Generate(prefix string) string {
	id, err := uuid.NewV4()
	if err != nil {
		return prefix + ":" + uuid.Nil.String()
	}
	return prefix + ":" + id.String()
}
