// Package mock provides testify-based mocks of the sesh.Transport and
// sesh.Conn interfaces for unit testing call interactions without a network.
//
// For a scripted fake host with real in-memory behavior, see the seshtest
// package instead.
package mock
