package db

import "errors"

// ErrNotFound is returned when a document does not exist in Firestore.
var ErrNotFound = errors.New("document not found")

// ErrAlreadyExists is returned when a conditional create loses to an
// existing document.
var ErrAlreadyExists = errors.New("document already exists")
