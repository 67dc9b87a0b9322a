package domain

import (
	"errors"
	"fmt"
)

// ErrFlowNotFound is returned when a flow ID cannot be found in the store.
var ErrFlowNotFound = errors.New("flow not found")

// ErrUnknownNodeType is returned when a node type tag is not part of the registry.
var ErrUnknownNodeType = errors.New("unknown node type")

// ErrPayloadMismatch is returned when a node payload does not belong to its type.
var ErrPayloadMismatch = errors.New("payload does not match node type")

// ErrInvalidConnection is returned when a connection lacks a source or a target.
var ErrInvalidConnection = errors.New("invalid connection")

// ErrNodeNotFound is returned when an operation references a node absent from the graph.
var ErrNodeNotFound = errors.New("node not found")

// ErrUnsupported is returned when a store does not implement an operation.
var ErrUnsupported = errors.New("operation not supported by this store")

// ErrSaveUnsupported is returned by stores that cannot persist graphs.
// The remote platform backend has no agreed save contract yet.
var ErrSaveUnsupported = fmt.Errorf("saving flows: %w", ErrUnsupported)
