package domain

import "errors"

// ErrUnknownSection indicates a section identifier outside the four PTE skill areas.
var ErrUnknownSection = errors.New("unknown section")

// ErrMissingPayload indicates a scoring request without a payload for its section.
var ErrMissingPayload = errors.New("missing section payload")

// ErrPayloadSectionMismatch indicates a payload whose shape does not match the
// request's declared section, or more than one payload variant populated.
var ErrPayloadSectionMismatch = errors.New("payload does not match section")